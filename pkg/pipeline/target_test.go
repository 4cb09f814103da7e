package pipeline

import (
	"testing"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		base    string
		want    string
		wantErr bool
	}{
		{"profile url", "https://www.linkedin.com/in/johndoe", "", "https://www.linkedin.com/in/johndoe", false},
		{"trailing slash and query", "https://linkedin.com/in/john-doe-123/?trk=x", "", "https://linkedin.com/in/john-doe-123/?trk=x", false},
		{"pub url", "http://www.linkedin.com/pub/jane_roe", "", "http://www.linkedin.com/pub/jane_roe", false},
		{"bare identifier", "johndoe", "", "https://www.linkedin.com/in/johndoe", false},
		{"bare identifier trimmed", "  john-doe  ", "", "https://www.linkedin.com/in/john-doe", false},
		{"base without slash", "johndoe", "https://www.linkedin.com/in", "https://www.linkedin.com/in/johndoe", false},
		{"company page", "https://www.linkedin.com/company/acme", "", "", true},
		{"other host", "https://example.com/in/johndoe", "", "", true},
		{"ftp scheme", "ftp://www.linkedin.com/in/johndoe", "", "", true},
		{"identifier with spaces", "john doe", "", "", true},
		{"empty", "", "", "", true},
		{"custom base host", "http://localhost:8080/in/johndoe", "http://localhost:8080/in/", "http://localhost:8080/in/johndoe", false},
		{"custom base other host", "https://www.linkedin.com/in/johndoe", "http://localhost:8080/in/", "", true},
		{"custom base identifier", "johndoe", "http://localhost:8080/in/", "http://localhost:8080/in/johndoe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.input, tt.base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveTarget(%q, %q) error = %v, wantErr %v", tt.input, tt.base, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.input, tt.base, got, tt.want)
			}
		})
	}
}
