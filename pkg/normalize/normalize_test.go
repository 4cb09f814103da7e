package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/cleaner"
)

func page(html string) *acquire.Result {
	return &acquire.Result{URL: "https://www.linkedin.com/in/johndoe", HTML: html}
}

func TestNormalize_ShortInputPreserved(t *testing.T) {
	n := New(Config{})

	doc := n.Normalize(page(`<main><h1>John Doe</h1><p>Engineer at Acme</p><script>x()</script></main>`))

	if doc.Text != "John Doe\nEngineer at Acme" {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.Truncated {
		t.Error("short input should not be truncated")
	}
	if doc.CharCount != utf8.RuneCountInString(doc.Text) {
		t.Errorf("CharCount = %d, want %d", doc.CharCount, utf8.RuneCountInString(doc.Text))
	}
	if doc.URL != "https://www.linkedin.com/in/johndoe" {
		t.Errorf("URL = %q", doc.URL)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := New(Config{MaxChars: 50})
	in := page(strings.Repeat(`<p>Zoë builds things</p>`, 20))

	first := n.Normalize(in)
	for i := 0; i < 5; i++ {
		if got := n.Normalize(in); got != first {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestNormalize_BoundedByMaxChars(t *testing.T) {
	tests := []struct {
		name      string
		maxChars  int
		html      string
		wantTrunc bool
	}{
		{"exactly at limit", 5, "<p>abcde</p>", false},
		{"one over", 5, "<p>abcdef</p>", true},
		{"multibyte runes", 3, "<p>ééééé</p>", true},
		{"empty", 10, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := New(Config{MaxChars: tt.maxChars}).Normalize(page(tt.html))
			if doc.CharCount > tt.maxChars {
				t.Errorf("CharCount = %d exceeds %d", doc.CharCount, tt.maxChars)
			}
			if doc.Truncated != tt.wantTrunc {
				t.Errorf("Truncated = %v, want %v", doc.Truncated, tt.wantTrunc)
			}
			if !utf8.ValidString(doc.Text) {
				t.Errorf("truncation split a rune: %q", doc.Text)
			}
		})
	}
}

func TestNormalize_DefaultMaxChars(t *testing.T) {
	n := New(Config{MaxChars: 0})
	if n.maxChars != DefaultMaxChars {
		t.Errorf("maxChars = %d, want %d", n.maxChars, DefaultMaxChars)
	}
}

type fixedCleaner struct {
	out string
	err error
}

func (c fixedCleaner) Clean(string) (string, error) { return c.out, c.err }
func (c fixedCleaner) Name() string                 { return "fixed" }

func TestNormalize_CollapsesBlankLineRuns(t *testing.T) {
	n := NewWithCleaner(fixedCleaner{out: "Name\n\n\n\n  \nTitle\n\n\nAbout"}, Config{})

	doc := n.Normalize(page("ignored"))
	if doc.Text != "Name\n\nTitle\n\nAbout" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestNormalize_CleanerErrorDegradesToEmpty(t *testing.T) {
	n := NewWithCleaner(fixedCleaner{out: "partial", err: errors.New("bad markup")}, Config{})

	doc := n.Normalize(page("<p>"))
	if doc.Text != "" || doc.CharCount != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestNormalize_NilResult(t *testing.T) {
	doc := New(Config{}).Normalize(nil)
	if doc != (Document{}) {
		t.Errorf("expected zero document, got %+v", doc)
	}
}

func TestNormalize_MarkdownFormat(t *testing.T) {
	doc := New(Config{Format: cleaner.FormatMarkdown}).Normalize(page(`<main><h1>John Doe</h1><p>Engineer</p></main>`))
	if !strings.Contains(doc.Text, "# John Doe") {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestNormalize_DumpsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.txt")
	doc := New(Config{DumpPath: path}).Normalize(page(`<p>John Doe</p>`))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if string(data) != doc.Text {
		t.Errorf("dump = %q, want %q", data, doc.Text)
	}
}

func TestNormalize_DumpFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "profile.txt")
	doc := New(Config{DumpPath: path}).Normalize(page(`<p>John Doe</p>`))

	if doc.Text != "John Doe" {
		t.Errorf("Text = %q", doc.Text)
	}
}
