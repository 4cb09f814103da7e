package cleaner

import (
	"strings"
	"testing"
)

var articleParagraph = strings.Repeat("I build distributed systems, mentor new engineers and write about reliability. ", 10)

var articleHTML = `<html><head><title>Jane Roe</title></head><body>
<nav><a href="/">Home</a> <a href="/jobs">Jobs</a> <a href="/feed">Feed</a></nav>
<main><article><h1>Jane Roe</h1><p>` + articleParagraph + `</p><p>` + articleParagraph + `</p></article></main>
<footer>Copyright 2024</footer>
</body></html>`

func TestParseBoilerplate(t *testing.T) {
	tests := []struct {
		in      string
		want    Boilerplate
		wantErr bool
	}{
		{"", BoilerplateNone, false},
		{"none", BoilerplateNone, false},
		{"readability", BoilerplateReadability, false},
		{"trafilatura", BoilerplateTrafilatura, false},
		{"boilerpipe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoilerplate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoilerplate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBoilerplate(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if err != nil && !strings.Contains(err.Error(), "trafilatura") {
				t.Errorf("error %q does not list the choices", err)
			}
		})
	}
}

func TestBuild_Stages(t *testing.T) {
	tests := []struct {
		format Format
		bp     Boilerplate
		want   string
	}{
		{FormatText, BoilerplateNone, "chain(strip->text)"},
		{FormatMarkdown, BoilerplateNone, "chain(strip->markdown)"},
		{FormatText, BoilerplateReadability, "chain(strip->readability->text)"},
		{FormatMarkdown, BoilerplateTrafilatura, "chain(strip->trafilatura->markdown)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Build(tt.format, tt.bp, "").Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoilerplate_KeepsMainContent(t *testing.T) {
	for _, bp := range []Boilerplate{BoilerplateReadability, BoilerplateTrafilatura} {
		t.Run(string(bp), func(t *testing.T) {
			got, err := Build(FormatText, bp, "https://www.linkedin.com/in/janeroe").Clean(articleHTML)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if !strings.Contains(got, "mentor new engineers") {
				t.Errorf("main content missing from %q", got)
			}
			if strings.Contains(got, "<p>") {
				t.Errorf("markup left in text output: %q", got)
			}
		})
	}
}

var boilerplateProfileHTML = `<html><body><main>
<h1>John Doe</h1><div>Senior Engineer at Acme</div>
<section><h2>About</h2><p>I build distributed systems.</p></section>
<section><h2>Experience</h2><ul><li><span>Staff Engineer</span><span>Acme</span></li></ul></section>
</main></body></html>`

func TestTrafilatura_KeepsProfileLines(t *testing.T) {
	got, err := Build(FormatText, BoilerplateTrafilatura, "https://www.linkedin.com/in/johndoe").Clean(boilerplateProfileHTML)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, want := range []string{"John Doe\nSenior Engineer at Acme", "Staff Engineer\nAcme"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "John DoeSenior") {
		t.Errorf("block boundaries lost: %q", got)
	}
	if n := strings.Count(got, "I build distributed systems."); n != 1 {
		t.Errorf("about text appears %d times in %q", n, got)
	}
}

func TestTrafilatura_ShortResultFallsBack(t *testing.T) {
	stripped, err := NewStripper().Clean(boilerplateProfileHTML)
	if err != nil {
		t.Fatalf("Strip() error = %v", err)
	}
	got, err := NewTrafilatura().Clean(stripped)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != stripped {
		t.Errorf("expected the stripped page back, got %q", got)
	}
}

func TestKeepsEnough(t *testing.T) {
	in := "<p>" + strings.Repeat("a", 100) + "</p>"
	if !keepsEnough(in, 50) {
		t.Error("half the text should be enough")
	}
	if keepsEnough(in, 49) {
		t.Error("less than half should not be enough")
	}
}
