package cleaner

import (
	"strings"

	"golang.org/x/net/html"
)

// TextCleaner renders every non-empty text node on its own line.
type TextCleaner struct{}

// NewText creates a plain text cleaner.
func NewText() *TextCleaner {
	return &TextCleaner{}
}

// Clean walks the parsed tree and joins trimmed text nodes with "\n".
// Unparseable input yields "".
func (c *TextCleaner) Clean(markup string) (string, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", nil
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			// the stripper normally removes these; skip them regardless
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(root)

	return strings.Join(parts, "\n"), nil
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return "text"
}
