// Package cleaner turns raw page markup into text an LLM can read.
//
// Cleaners are composed with NewChain: a Stripper removes non-content
// elements and a Text or Markdown cleaner renders what is left.
package cleaner

// Cleaner transforms markup into a cleaner representation.
type Cleaner interface {
	// Clean transforms the input. The output format depends on the
	// implementation (html, plain text, markdown).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Format selects the rendering stage of a standard chain.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	}
	return "", &UnknownFormatError{Format: s}
}

// UnknownFormatError is returned by ParseFormat and ParseBoilerplate.
type UnknownFormatError struct {
	Format string
	Want   string
}

func (e *UnknownFormatError) Error() string {
	want := e.Want
	if want == "" {
		want = "text or markdown"
	}
	return "unknown cleaner format " + `"` + e.Format + `" (want ` + want + ")"
}

// Build assembles strip, the optional boilerplate pass and the renderer
// for f. baseURL is only used by the readability pass.
func Build(f Format, b Boilerplate, baseURL string) *ChainCleaner {
	stages := []Cleaner{NewStripper()}
	switch b {
	case BoilerplateReadability:
		stages = append(stages, NewReadability(baseURL))
	case BoilerplateTrafilatura:
		stages = append(stages, NewTrafilatura())
	}
	if f == FormatMarkdown {
		stages = append(stages, NewMarkdown())
	} else {
		stages = append(stages, NewText())
	}
	return NewChain(stages...)
}
