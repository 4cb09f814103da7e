package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrEmptyResponse is returned by Decode when there is nothing to parse.
var ErrEmptyResponse = errors.New("empty response")

// ErrNotObject is returned by Decode when the reply is valid JSON but not an
// object, e.g. a bare null.
var ErrNotObject = errors.New("response is not a JSON object")

// Schema describes the flat JSON object T and decodes replies into it.
type Schema[T any] struct {
	Name        string
	Description string
	Fields      []Field

	validate *validator.Validate
}

// Option configures schema creation.
type Option func(*schemaBuilder)

type schemaBuilder struct {
	name        string
	description string
}

// WithDescription sets the schema description used in prompts.
func WithDescription(desc string) Option {
	return func(b *schemaBuilder) {
		b.description = desc
	}
}

// WithName overrides the schema name (default: the Go type name).
func WithName(name string) Option {
	return func(b *schemaBuilder) {
		b.name = name
	}
}

// NewSchema creates a Schema from a struct type using reflection. Only
// scalar fields and pointers to scalars are supported; pointers become
// nullable properties.
func NewSchema[T any](opts ...Option) (*Schema[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema must be created from a struct type, got %v", t.Kind())
	}

	builder := &schemaBuilder{name: t.Name()}
	for _, opt := range opts {
		opt(builder)
	}

	fields, err := extractFields(t)
	if err != nil {
		return nil, err
	}

	return &Schema[T]{
		Name:        builder.name,
		Description: builder.description,
		Fields:      fields,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// MustSchema is NewSchema for package-level declarations; it panics on an
// unsupported type.
func MustSchema[T any](opts ...Option) *Schema[T] {
	s, err := NewSchema[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func extractFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "-" {
			continue
		}

		field := Field{
			Name:        name,
			Description: sf.Tag.Get("description"),
			Validators:  parseValidators(sf.Tag.Get("validate")),
		}

		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
			field.Nullable = true
		}

		switch ft.Kind() {
		case reflect.String:
			field.Type = TypeString
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.Type = TypeInteger
		case reflect.Float32, reflect.Float64:
			field.Type = TypeNumber
		case reflect.Bool:
			field.Type = TypeBoolean
		default:
			return nil, fmt.Errorf("unsupported field type: %v for field %s", ft.Kind(), sf.Name)
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "-"
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return sf.Name
}

func parseValidators(tag string) []string {
	if tag == "" {
		return nil
	}
	return strings.Split(tag, ",")
}

// Decode parses an LLM reply into T. Code fences are stripped, a top-level
// array is reduced to its first element, anything but an object is
// rejected, string fields are trimmed, empty
// or "null" strings in nullable fields become nil, and the validate tags
// are checked. A ValidationErrors value is returned when the JSON parsed
// but failed validation.
func (s *Schema[T]) Decode(raw string) (T, error) {
	var zero T

	content := StripMarkdownCodeBlock(raw)
	if content == "" {
		return zero, ErrEmptyResponse
	}

	if strings.HasPrefix(content, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return zero, fmt.Errorf("failed to parse response as JSON: %w", err)
		}
		if len(items) == 0 {
			return zero, fmt.Errorf("failed to parse response as JSON: %w", ErrEmptyResponse)
		}
		content = strings.TrimSpace(string(items[0]))
	}

	if !strings.HasPrefix(content, "{") {
		return zero, fmt.Errorf("failed to parse response as JSON: %w", ErrNotObject)
	}

	var v T
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return zero, fmt.Errorf("failed to parse response as JSON: %w", err)
	}

	normalizeStrings(reflect.ValueOf(&v).Elem())

	if errs := s.Validate(&v); len(errs) > 0 {
		return zero, errs
	}
	return v, nil
}

// Validate checks v against the validate tags of T.
func (s *Schema[T]) Validate(v *T) ValidationErrors {
	if s.validate == nil {
		return nil
	}
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: s.Name, Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, ValidationError{
			Field:   e.Field(),
			Message: formatValidationError(e),
			Value:   e.Value(),
		})
	}
	return out
}

func normalizeStrings(v reflect.Value) {
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.String:
			if f.IsNil() {
				continue
			}
			trimmed := strings.TrimSpace(f.Elem().String())
			if trimmed == "" || strings.EqualFold(trimmed, "null") {
				f.Set(reflect.Zero(f.Type()))
				continue
			}
			f.Elem().SetString(trimmed)
		}
	}
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// StripMarkdownCodeBlock removes a surrounding ``` or ```json fence.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
