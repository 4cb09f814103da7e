package extractor

import (
	"strings"

	"github.com/jmylchreest/outreach/pkg/normalize"
)

// SystemPrompt constrains the model to bare JSON.
const SystemPrompt = `You are a data extraction assistant. You ONLY respond with valid JSON. Never add explanatory text, markdown formatting, or code blocks. Return pure JSON only.`

// BuildPrompt renders the extraction instruction for doc.
func BuildPrompt(doc normalize.Document) string {
	var sb strings.Builder

	sb.WriteString("Extract the following information from this profile page:\n\n")
	sb.WriteString(ProfileSchema.ToPromptDescription())

	sb.WriteString("\nPage content:\n")
	sb.WriteString(doc.Text)

	sb.WriteString(`

CRITICAL INSTRUCTIONS:
- Return ONLY a valid JSON object, nothing else
- No markdown formatting, no code blocks, no explanatory text
- Use null for fields you cannot find
- Do not invent or guess information

Required JSON format:
`)
	sb.WriteString(formatHint())

	return sb.String()
}

// formatHint renders {"name": "value or null", ...} in field order.
func formatHint() string {
	names := ProfileSchema.FieldNames()
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = `"` + name + `": "value or null"`
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
