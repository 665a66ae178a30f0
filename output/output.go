// Package output writes pyscribe results as JSON.
package output

import (
	"encoding/json"
	"io"
	"os"
)

// Writer encodes values as JSON, one document per call.
type Writer struct {
	encoder *json.Encoder
}

// Config holds output configuration.
type Config struct {
	Compact bool
	Output  io.Writer
}

// New creates a new output Writer. Output defaults to stdout.
func New(cfg Config) *Writer {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	enc := json.NewEncoder(cfg.Output)
	enc.SetEscapeHTML(false)
	if !cfg.Compact {
		enc.SetIndent("", "  ")
	}

	return &Writer{encoder: enc}
}

// Write outputs a value as JSON.
func (w *Writer) Write(v any) error {
	return w.encoder.Encode(v)
}

// WriteError writes {"error": "..."} to w, or stderr when w is nil.
func WriteError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]string{
		"error": err.Error(),
	})
}
