package output

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/jmylchreest/doccrawl/internal/crawler"
)

// EmptyPagePlaceholder is written for pages that produced no Markdown.
const EmptyPagePlaceholder = "*(No markdown content extracted)*"

// MarkdownWriter consolidates crawled pages into one Markdown document.
//
// The document is the title followed by one section per page:
//
//	## <page title>
//
//	Source: <url>
//
//	<markdown>
type MarkdownWriter struct {
	w      *bufio.Writer
	stream bool
	pages  int
}

// NewMarkdownWriter creates a writer. With stream set every page is flushed
// to w as soon as it is written.
func NewMarkdownWriter(w io.Writer, stream bool) *MarkdownWriter {
	return &MarkdownWriter{w: bufio.NewWriter(w), stream: stream}
}

// WriteTitle writes the document title. It is written verbatim, so a
// heading needs its own "#".
func (w *MarkdownWriter) WriteTitle(title string) error {
	md := markdown.NewMarkdown(w.w)
	md.PlainText(title).PlainText("").PlainText("")
	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	return w.flushIfStreaming()
}

// WritePage appends a section for res.
func (w *MarkdownWriter) WritePage(res crawler.Result) error {
	content := strings.TrimSpace(res.Content())
	if content == "" {
		content = EmptyPagePlaceholder
	}

	md := markdown.NewMarkdown(w.w)
	md.PlainText("").
		H2(res.PageTitle()).
		PlainText("").
		PlainText("Source: " + res.URL).
		PlainText("").
		PlainText(content).
		PlainText("").
		PlainText("")
	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write page %s: %w", res.URL, err)
	}
	w.pages++
	return w.flushIfStreaming()
}

// Pages returns the number of pages written.
func (w *MarkdownWriter) Pages() int {
	return w.pages
}

// Flush writes any buffered output.
func (w *MarkdownWriter) Flush() error {
	return w.w.Flush()
}

func (w *MarkdownWriter) flushIfStreaming() error {
	if !w.stream {
		return nil
	}
	return w.w.Flush()
}

// DefaultDir is where generated output paths are placed.
const DefaultDir = "storage"

var unsafeFilenameChars = regexp.MustCompile(`[^\w.-]+`)

// DefaultPath derives an output path from the crawl's start URL, such as
// storage/docs.example.com.md for https://www.docs.example.com/intro.
func DefaultPath(startURL string) (string, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return "", fmt.Errorf("failed to generate output filename from URL %q: %w", startURL, err)
	}

	name := strings.TrimPrefix(u.Host, "www.")
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "default_crawl_output"
	}
	return filepath.Join(DefaultDir, name+".md"), nil
}
