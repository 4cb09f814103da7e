package output

import (
	"encoding/json"
	"io"
)

// JSONWriter writes one JSON document per Write, newline terminated.
type JSONWriter struct {
	w      io.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{w: w, pretty: pretty, indent: indent}
}

// Write encodes v. Email bodies keep their <, > and & unescaped.
func (w *JSONWriter) Write(v any) error {
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", w.indent)
	}
	return enc.Encode(v)
}
