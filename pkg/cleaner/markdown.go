package cleaner

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// MarkdownCleaner converts HTML to Markdown using html-to-markdown.
// Headings and lists survive, which helps the model find section boundaries.
type MarkdownCleaner struct {
	config markdownConfig
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	// StripLinks removes link URLs, keeping only the link text
	StripLinks bool
}

// WithStripLinks configures the cleaner to remove link URLs.
func WithStripLinks(strip bool) MarkdownOption {
	return func(c *markdownConfig) {
		c.StripLinks = strip
	}
}

// NewMarkdown creates a new Markdown cleaner. Images are always dropped;
// links are reduced to their text unless WithStripLinks(false) is given.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	cfg := markdownConfig{StripLinks: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MarkdownCleaner{config: cfg}
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("img, picture").Remove()
		if c.config.StripLinks {
			doc.Find("a").Each(func(_ int, a *goquery.Selection) {
				a.ReplaceWithSelection(a.Contents())
			})
		}
		if out, err := doc.Html(); err == nil {
			html = out
		}
	}

	markdown, err := md.ConvertString(html)
	if err != nil {
		return "", err
	}

	return cleanWhitespace(markdown), nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace collapses every run of blank lines to a single blank line
// and trims the result.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				result = append(result, "")
			}
			blank = true
			continue
		}
		blank = false
		result = append(result, strings.TrimRight(line, " \t\r"))
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}

// CollapseBlankLines is cleanWhitespace exported for callers that assemble
// text from several sources.
func CollapseBlankLines(s string) string {
	return cleanWhitespace(s)
}
