package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes one YAML document per Write.
type YAMLWriter struct {
	w io.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: w}
}

// Write encodes v as a YAML document.
func (w *YAMLWriter) Write(v any) error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
