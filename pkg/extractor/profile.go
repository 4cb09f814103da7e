package extractor

import (
	"github.com/jmylchreest/outreach/pkg/schema"
)

// Profile is the structured data pulled from a profile page. Fields the
// page does not show are nil and serialize as null.
type Profile struct {
	Name    *string `json:"name" yaml:"name" description:"The person's full name"`
	Title   *string `json:"title" yaml:"title" description:"Their current job title or position"`
	Company *string `json:"company" yaml:"company" description:"Their current company or organization"`
	About   *string `json:"about" yaml:"about" description:"The content of their About section, if available"`
}

// ProfileSchema decodes and validates extraction replies.
var ProfileSchema = schema.MustSchema[Profile](
	schema.WithName("profile"),
	schema.WithDescription("Fields read from a professional profile page"),
)

// Value returns *p or "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
