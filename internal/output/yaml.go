package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes the manifest as one YAML sequence.
type YAMLWriter struct {
	w       *bufio.Writer
	entries []Entry
	flushed bool
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:       bufio.NewWriter(w),
		entries: make([]Entry, 0),
	}
}

// Write buffers an entry until Flush.
func (w *YAMLWriter) Write(entry Entry) error {
	w.entries = append(w.entries, entry)
	return nil
}

// Flush writes the buffered entries. It writes once; later calls are no-ops.
func (w *YAMLWriter) Flush() error {
	if w.flushed {
		return nil
	}

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(w.entries); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.flushed = true
	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
