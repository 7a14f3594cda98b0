// Package output writes crawl results: the consolidated Markdown document
// and an optional per-page manifest.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/doccrawl/internal/crawler"
)

// Format represents manifest format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Entry is one manifest record.
type Entry struct {
	URL        string    `json:"url" yaml:"url"`
	FinalURL   string    `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	Title      string    `json:"title" yaml:"title"`
	Depth      int       `json:"depth" yaml:"depth"`
	Score      float64   `json:"score" yaml:"score"`
	StatusCode int       `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	FromCache  bool      `json:"from_cache,omitempty" yaml:"from_cache,omitempty"`
	Bytes      int       `json:"markdown_bytes" yaml:"markdown_bytes"`
	FetchedAt  time.Time `json:"fetched_at,omitzero" yaml:"fetched_at,omitempty"`
	FetchMs    int64     `json:"fetch_ms" yaml:"fetch_ms"`
	ProcessMs  int64     `json:"process_ms" yaml:"process_ms"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEntry builds the manifest record for res.
func NewEntry(res crawler.Result) Entry {
	e := Entry{
		URL:        res.URL,
		Title:      res.PageTitle(),
		Depth:      res.Depth,
		Score:      res.Score,
		StatusCode: res.StatusCode,
		FromCache:  res.FromCache,
		Bytes:      len(res.Content()),
		FetchedAt:  res.FetchedAt,
		FetchMs:    res.FetchDuration.Milliseconds(),
		ProcessMs:  res.ProcessDuration.Milliseconds(),
	}
	if res.FinalURL != res.URL {
		e.FinalURL = res.FinalURL
	}
	if res.Error != nil {
		e.Error = res.Error.Error()
	}
	return e
}

// Writer handles manifest serialization.
type Writer interface {
	// Write records a single entry.
	Write(entry Entry) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", format)
	}
}
