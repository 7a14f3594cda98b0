package output

import (
	"bufio"
	"encoding/json"
	"io"
)

// JSONWriter writes the manifest as one JSON array.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	entries []Entry
	flushed bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:       bufio.NewWriter(w),
		pretty:  pretty,
		indent:  indent,
		entries: make([]Entry, 0),
	}
}

// Write buffers an entry until Flush.
func (w *JSONWriter) Write(entry Entry) error {
	w.entries = append(w.entries, entry)
	return nil
}

// Flush writes the buffered entries as a JSON array. It writes once; later
// calls are no-ops.
func (w *JSONWriter) Flush() error {
	if w.flushed {
		return nil
	}

	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(w.entries, "", w.indent)
	} else {
		output, err = json.Marshal(w.entries)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	w.flushed = true
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes one JSON object per line as entries arrive.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single entry as a JSON line.
func (w *JSONLWriter) Write(entry Entry) error {
	output, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
