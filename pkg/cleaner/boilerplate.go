package cleaner

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Boilerplate selects an optional main-content pass that runs between
// stripping and rendering.
type Boilerplate string

const (
	BoilerplateNone        Boilerplate = "none"
	BoilerplateReadability Boilerplate = "readability"
	BoilerplateTrafilatura Boilerplate = "trafilatura"
)

// ParseBoilerplate validates a pass name. The empty string selects none.
func ParseBoilerplate(s string) (Boilerplate, error) {
	switch b := Boilerplate(s); b {
	case "":
		return BoilerplateNone, nil
	case BoilerplateNone, BoilerplateReadability, BoilerplateTrafilatura:
		return b, nil
	}
	return "", &UnknownFormatError{Format: s, Want: "none, readability or trafilatura"}
}

// minKeptRatio is the share of the input's text a boilerplate pass must
// keep. Profile pages are mostly content, so a pass that drops more has
// dropped profile sections.
const minKeptRatio = 0.5

// textRunes counts the visible characters of markup, ignoring whitespace
// runs.
func textRunes(markup string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0
	}
	return utf8.RuneCountInString(strings.Join(strings.Fields(doc.Text()), " "))
}

// keepsEnough reports whether kept text runes are enough to replace in.
func keepsEnough(in string, kept int) bool {
	return float64(kept) >= minKeptRatio*float64(textRunes(in))
}

// ReadabilityCleaner keeps the main content block found by go-readability.
// It returns HTML so a renderer can follow it. When no candidate is found,
// or the candidate keeps less than half of the input's text, the input is
// returned unchanged.
type ReadabilityCleaner struct {
	parser  readability.Parser
	baseURL *url.URL
}

// NewReadability creates a readability pass. baseURL may be empty.
func NewReadability(baseURL string) *ReadabilityCleaner {
	c := &ReadabilityCleaner{parser: readability.NewParser()}
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			c.baseURL = u
		}
	}
	return c
}

func (c *ReadabilityCleaner) Clean(htmlContent string) (string, error) {
	article, err := c.parser.Parse(strings.NewReader(htmlContent), c.baseURL)
	if err != nil {
		return "", err
	}
	if article.Node == nil {
		return htmlContent, nil
	}

	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil || buf.Len() == 0 {
		return htmlContent, nil
	}
	if !keepsEnough(htmlContent, textRunes(buf.String())) {
		return htmlContent, nil
	}
	return buf.String(), nil
}

func (c *ReadabilityCleaner) Name() string { return "readability" }

// TrafilaturaCleaner keeps the main content found by go-trafilatura.
// Comments, links and images are dropped; tables are kept.
//
// Below MinExtractedSize trafilatura rescues the page with a baseline pass
// that joins text nodes without block breaks ("John DoeSenior Engineer").
// Such results, and results keeping less than half of the input's text,
// are discarded in favour of the input.
type TrafilaturaCleaner struct {
	opts trafilatura.Options
}

// NewTrafilatura creates a trafilatura pass with readability fallback
// enabled.
func NewTrafilatura() *TrafilaturaCleaner {
	return &TrafilaturaCleaner{opts: trafilatura.Options{
		ExcludeComments: true,
		EnableFallback:  true,
		Config:          trafilatura.DefaultConfig(),
	}}
}

func (c *TrafilaturaCleaner) Clean(htmlContent string) (string, error) {
	result, err := trafilatura.Extract(strings.NewReader(htmlContent), c.opts)
	if err != nil {
		return "", err
	}
	if result == nil {
		return htmlContent, nil
	}
	kept := utf8.RuneCountInString(strings.TrimSpace(result.ContentText))
	if kept < c.opts.Config.MinExtractedSize || !keepsEnough(htmlContent, kept) {
		return htmlContent, nil
	}
	if result.ContentNode == nil {
		if result.ContentText != "" {
			return "<p>" + html.EscapeString(result.ContentText) + "</p>", nil
		}
		return htmlContent, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return htmlContent, nil
	}
	return buf.String(), nil
}

func (c *TrafilaturaCleaner) Name() string { return "trafilatura" }
