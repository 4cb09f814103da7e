package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultStripTags are elements that never carry readable profile content.
var DefaultStripTags = []string{"script", "style", "noscript", "template", "iframe", "svg"}

// Stripper removes non-content elements and comments, returning markup.
type Stripper struct {
	tags []string
}

// NewStripper creates a stripper for the given tags, or DefaultStripTags
// when none are passed.
func NewStripper(tags ...string) *Stripper {
	if len(tags) == 0 {
		tags = DefaultStripTags
	}
	return &Stripper{tags: tags}
}

// Clean removes the configured elements. Unparseable input yields "".
func (s *Stripper) Clean(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", nil
	}

	doc.Find(strings.Join(s.tags, ", ")).Remove()
	removeComments(doc.Selection)

	out, err := doc.Html()
	if err != nil {
		return "", nil
	}
	return out, nil
}

// Name returns the cleaner type.
func (s *Stripper) Name() string {
	return "strip"
}

func removeComments(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if c.Length() > 0 && c.Get(0).Type == html.CommentNode {
			c.Remove()
			return
		}
		removeComments(c)
	})
}
