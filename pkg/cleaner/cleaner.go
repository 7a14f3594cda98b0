// Package cleaner provides interfaces and implementations for cleaning HTML content.
// Cleaners sanitize fetched pages before they are handed to a Markdown generator.
package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Cleaner transforms HTML content into a cleaner form.
// Implementations return HTML; conversion to Markdown happens elsewhere.
type Cleaner interface {
	// Clean transforms the input HTML.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Passthrough returns content unchanged. It is the cleaner used when every
// sanitizing stage has been switched off.
type Passthrough struct{}

// Clean returns the input unchanged.
func (Passthrough) Clean(html string) (string, error) {
	return html, nil
}

// Name returns the cleaner type.
func (Passthrough) Name() string {
	return "passthrough"
}

// parse reads input into a goquery document. Whole documents go through the
// full HTML parser. Fragments are parsed in a <template> context beneath a
// bare document node, which keeps head elements and table parts where they
// appear and never adds an implicit html/head/body wrapper.
func parse(input string) (*goquery.Document, error) {
	if isDocument(input) {
		return goquery.NewDocumentFromReader(strings.NewReader(input))
	}
	nodes, err := html.ParseFragment(strings.NewReader(input), fragmentContext)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

var fragmentContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "template",
	DataAtom: atom.Template,
}

// render serializes doc back to HTML.
func render(doc *goquery.Document) (string, error) {
	return doc.Html()
}

// contentRoot is the body of a document, or the whole of a fragment.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// detached reports whether s was removed along with an ancestor.
func detached(s *goquery.Selection) bool {
	n := s.Get(0)
	for n.Parent != nil {
		n = n.Parent
	}
	return n.Type != html.DocumentNode
}

// isDocument reports whether input opens with a doctype or an <html> tag,
// ignoring leading whitespace and comments.
func isDocument(input string) bool {
	rest := strings.TrimPrefix(input, "\ufeff")
	for {
		rest = strings.TrimLeft(rest, " \t\r\n\f")
		if !strings.HasPrefix(rest, "<!--") {
			break
		}
		end := strings.Index(rest[4:], "-->")
		if end < 0 {
			return false
		}
		rest = rest[4+end+3:]
	}
	lower := strings.ToLower(rest)
	if strings.HasPrefix(lower, "<!doctype") {
		return true
	}
	if !strings.HasPrefix(lower, "<html") {
		return false
	}
	if len(lower) == len("<html") {
		return true
	}
	switch lower[len("<html")] {
	case '>', '/', ' ', '\t', '\r', '\n', '\f':
		return true
	}
	return false
}
