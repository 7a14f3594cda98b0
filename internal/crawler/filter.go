package crawler

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Filter decides whether a discovered link may be queued.
type Filter interface {
	Apply(link string) bool
	Name() string
}

// FilterChain passes a link only when every filter passes it. Filters run in
// order and stop at the first rejection.
type FilterChain struct {
	filters []Filter
}

// NewFilterChain creates a chain, skipping nil filters.
func NewFilterChain(filters ...Filter) *FilterChain {
	fc := &FilterChain{}
	for _, f := range filters {
		if f != nil {
			fc.filters = append(fc.filters, f)
		}
	}
	return fc
}

// Apply runs the chain. It returns the name of the rejecting filter, or "".
func (fc *FilterChain) Apply(link string) (bool, string) {
	for _, f := range fc.filters {
		if !f.Apply(link) {
			return false, f.Name()
		}
	}
	return true, ""
}

// Len returns the number of filters.
func (fc *FilterChain) Len() int {
	return len(fc.filters)
}

// URLPatternFilter matches the full URL against glob patterns. A link passes
// when any pattern matches, or when none match if Reverse is set.
type URLPatternFilter struct {
	patterns []glob.Glob
	raw      []string
	reverse  bool
}

// NewURLPatternFilter compiles the patterns. It returns nil for an empty list.
func NewURLPatternFilter(patterns []string, reverse bool) (*URLPatternFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	f := &URLPatternFilter{reverse: reverse}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid url pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
		f.raw = append(f.raw, p)
	}
	return f, nil
}

// Apply implements Filter.
func (f *URLPatternFilter) Apply(link string) bool {
	matched := false
	for _, g := range f.patterns {
		if g.Match(link) {
			matched = true
			break
		}
	}
	return matched != f.reverse
}

// Name implements Filter.
func (f *URLPatternFilter) Name() string {
	if f.reverse {
		return "exclude-pattern"
	}
	return "include-pattern"
}

// ContentTypeFilter guesses a link's media type from its path extension.
// Links without an extension, or with one that maps to no known type, pass.
type ContentTypeFilter struct {
	allowed []string
}

// NewContentTypeFilter returns nil for an empty list.
func NewContentTypeFilter(allowed []string) *ContentTypeFilter {
	if len(allowed) == 0 {
		return nil
	}
	f := &ContentTypeFilter{}
	for _, a := range allowed {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			f.allowed = append(f.allowed, a)
		}
	}
	return f
}

// Apply implements Filter.
func (f *ContentTypeFilter) Apply(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return true
	}
	guessed := mime.TypeByExtension(ext)
	if guessed == "" {
		return true
	}
	return f.Allows(guessed)
}

// Allows reports whether a media type, possibly with parameters, is allowed.
// Entries may be full types or bare major types such as "text".
func (f *ContentTypeFilter) Allows(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt, _, _ = strings.Cut(mediaType, ";")
	}
	mt = strings.ToLower(strings.TrimSpace(mt))
	major, _, _ := strings.Cut(mt, "/")
	for _, a := range f.allowed {
		if a == mt || a == major || a == major+"/*" {
			return true
		}
	}
	return false
}

// Name implements Filter.
func (f *ContentTypeFilter) Name() string {
	return "content-type"
}

// DomainFilter passes links on the seed's host.
type DomainFilter struct {
	seed string
}

// NewDomainFilter creates a filter anchored at seed.
func NewDomainFilter(seed string) *DomainFilter {
	return &DomainFilter{seed: seed}
}

// Apply implements Filter.
func (f *DomainFilter) Apply(link string) bool {
	return IsSameDomain(f.seed, link)
}

// Name implements Filter.
func (f *DomainFilter) Name() string {
	return "domain"
}
