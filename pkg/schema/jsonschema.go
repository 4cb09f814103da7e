package schema

import (
	"strings"
)

// ToJSONSchema renders the schema as a strict JSON Schema object. Every
// property is listed as required; nullable properties accept null instead.
func (s *Schema[T]) ToJSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))

	for _, field := range s.Fields {
		properties[field.Name] = fieldToJSONSchema(field)
		required = append(required, field.Name)
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

func fieldToJSONSchema(f Field) map[string]any {
	out := map[string]any{}
	if f.Nullable {
		out["type"] = []string{string(f.Type), "null"}
	} else {
		out["type"] = string(f.Type)
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

// ToPromptDescription lists the fields for inclusion in an instruction.
func (s *Schema[T]) ToPromptDescription() string {
	var sb strings.Builder

	for _, f := range s.Fields {
		sb.WriteString("- ")
		sb.WriteString(f.Name)
		sb.WriteString(" (")
		sb.WriteString(string(f.Type))
		if f.Nullable {
			sb.WriteString(" or null")
		}
		sb.WriteString(")")
		if f.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Description)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FieldNames returns the property names in declaration order.
func (s *Schema[T]) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
