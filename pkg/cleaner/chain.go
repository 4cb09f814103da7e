package cleaner

import (
	"fmt"
	"strings"
)

// ChainCleaner applies cleaners in sequence, feeding each the previous output.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain creates a cleaner that applies the given cleaners in order.
//
//	c := cleaner.NewChain(cleaner.NewStripper(), cleaner.NewText())
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	return &ChainCleaner{
		cleaners: cleaners,
	}
}

// Clean applies all cleaners in sequence. The first failing stage aborts
// the chain.
func (c *ChainCleaner) Clean(content string) (string, error) {
	var err error
	for _, stage := range c.cleaners {
		content, err = stage.Clean(content)
		if err != nil {
			return "", fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}
	return content, nil
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, stage := range c.cleaners {
		names[i] = stage.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
