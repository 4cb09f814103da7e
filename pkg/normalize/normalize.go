// Package normalize converts acquired page markup into a bounded plain-text
// document for the extractor.
package normalize

import (
	"os"
	"unicode/utf8"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/cleaner"
)

// DefaultMaxChars bounds a document when Config.MaxChars is unset.
const DefaultMaxChars = 400_000

// Document is the normalized text of one page.
type Document struct {
	URL       string
	Text      string
	CharCount int // runes in Text, never above the configured ceiling
	Truncated bool
}

// Config tunes a Normalizer.
type Config struct {
	MaxChars int
	Format   cleaner.Format
	// Boilerplate adds a main-content pass before rendering.
	Boilerplate cleaner.Boilerplate
	// DumpPath, when set, receives a copy of every document.
	DumpPath string
}

// Normalizer renders markup through a cleaner chain and bounds the result.
type Normalizer struct {
	cleaner  cleaner.Cleaner
	maxChars int
	dumpPath string
}

// New builds a Normalizer using the standard chain for cfg.Format and
// cfg.Boilerplate.
func New(cfg Config) *Normalizer {
	return NewWithCleaner(cleaner.Build(cfg.Format, cfg.Boilerplate, ""), cfg)
}

// NewWithCleaner builds a Normalizer around a custom cleaner.
func NewWithCleaner(c cleaner.Cleaner, cfg Config) *Normalizer {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	return &Normalizer{cleaner: c, maxChars: cfg.MaxChars, dumpPath: cfg.DumpPath}
}

// Normalize never fails. A cleaner error degrades to an empty document.
func (n *Normalizer) Normalize(res *acquire.Result) Document {
	doc := Document{}
	if res == nil {
		return doc
	}
	doc.URL = res.URL

	text, err := n.cleaner.Clean(res.HTML)
	if err != nil {
		logger.Warn("normalization degraded to empty text", "cleaner", n.cleaner.Name(), "error", err)
		text = ""
	}
	text = cleaner.CollapseBlankLines(text)

	doc.Text, doc.Truncated = truncate(text, n.maxChars)
	doc.CharCount = utf8.RuneCountInString(doc.Text)

	logger.Info("normalized page", "url", res.URL, "chars", doc.CharCount, "truncated", doc.Truncated)

	if n.dumpPath != "" {
		n.dump(doc)
	}
	return doc
}

func (n *Normalizer) dump(doc Document) {
	if err := os.WriteFile(n.dumpPath, []byte(doc.Text), 0o644); err != nil {
		logger.Warn("failed to write text dump", "path", n.dumpPath, "error", err)
		return
	}
	logger.Debug("wrote text dump", "path", n.dumpPath, "chars", doc.CharCount)
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	i, count := 0, 0
	for i = range s {
		if count == limit {
			break
		}
		count++
	}
	return s[:i], true
}
