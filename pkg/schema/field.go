// Package schema describes the JSON objects requested from an LLM and turns
// the untrusted replies back into validated Go values.
package schema

import (
	"strings"
)

// FieldType represents the JSON type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
)

// Field represents a single top-level property of the requested object.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Nullable    bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`     // pointer fields may be null
	Validators  []string  `json:"validators,omitempty" yaml:"validators,omitempty"` // validate tag parts
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is returned by Decode when the payload parsed but broke a
// validate rule.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for _, err := range v {
		sb.WriteString(" ")
		sb.WriteString(err.Error())
		sb.WriteString(";")
	}
	return strings.TrimSuffix(sb.String(), ";")
}
