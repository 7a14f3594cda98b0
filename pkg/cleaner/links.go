package cleaner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrRelativeBase is wrapped by a ResolutionError when the base URL has no scheme.
var ErrRelativeBase = errors.New("base URL is not absolute")

// ResolutionError reports why links could not be resolved. The HTML that
// accompanies it is always the unmodified input.
type ResolutionError struct {
	BaseURL string
	// Href is the offending link, empty when the base URL itself was the problem.
	Href string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Href != "" {
		return fmt.Sprintf("resolve href %q against %q: %v", e.Href, e.BaseURL, e.Err)
	}
	return fmt.Sprintf("resolve links against %q: %v", e.BaseURL, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ResolveLinks rewrites every <a href> in html to an absolute URL using
// RFC 3986 reference resolution against baseURL. An empty baseURL leaves
// the content untouched. On any failure the original html is returned
// together with a *ResolutionError.
func ResolveLinks(html, baseURL string) (string, error) {
	if baseURL == "" {
		return html, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return html, &ResolutionError{BaseURL: baseURL, Err: err}
	}
	if !base.IsAbs() {
		return html, &ResolutionError{BaseURL: baseURL, Err: ErrRelativeBase}
	}

	doc, err := parse(html)
	if err != nil {
		return html, &ResolutionError{BaseURL: baseURL, Err: err}
	}

	// Resolve everything first so a bad href leaves no partial rewrite behind.
	anchors := doc.Find("a[href]")
	if anchors.Length() == 0 {
		return html, nil
	}
	resolved := make([]string, anchors.Length())
	var resolveErr error
	anchors.EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		ref, err := url.Parse(escapeStrayPercent(href))
		if err != nil {
			resolveErr = &ResolutionError{BaseURL: baseURL, Href: href, Err: err}
			return false
		}
		resolved[i] = base.ResolveReference(ref).String()
		return true
	})
	if resolveErr != nil {
		return html, resolveErr
	}

	anchors.Each(func(i int, s *goquery.Selection) {
		s.SetAttr("href", resolved[i])
	})

	out, err := render(doc)
	if err != nil {
		return html, &ResolutionError{BaseURL: baseURL, Err: err}
	}
	return out, nil
}

// escapeStrayPercent encodes any '%' that does not start a valid escape,
// so "50%off" resolves as "50%25off" instead of failing the parse.
func escapeStrayPercent(href string) string {
	if !strings.Contains(href, "%") {
		return href
	}
	var b strings.Builder
	for i := 0; i < len(href); i++ {
		if href[i] == '%' && (i+2 >= len(href) || !isHex(href[i+1]) || !isHex(href[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(href[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// LinkResolver is a Cleaner that resolves anchors against a fixed base URL.
type LinkResolver struct {
	BaseURL string
}

// Clean resolves links; see ResolveLinks.
func (r LinkResolver) Clean(html string) (string, error) {
	return ResolveLinks(html, r.BaseURL)
}

// Name returns the cleaner type.
func (r LinkResolver) Name() string {
	return "links"
}
