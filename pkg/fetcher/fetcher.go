// Package fetcher defines the interface for web page fetching and provides
// a static (HTTP) and a dynamic (headless Chrome) implementation.
package fetcher

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls per-request fetching behavior. Zero values fall back to
// the fetcher's configuration.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string

	// WaitFor is a wait condition for dynamic fetchers; see ParseWaitFor.
	WaitFor string
	// JSCode is evaluated in the page after load by dynamic fetchers.
	JSCode string
}

// Content represents fetched page data.
type Content struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"` // after redirects
	HTML        string    `json:"html"`
	Title       string    `json:"title"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
	Links       []string  `json:"links,omitempty"` // absolute http(s) links found on the page
	FromCache   bool      `json:"from_cache,omitempty"`
}

// MediaType returns the lowercased media type of the response, without parameters.
func (c Content) MediaType() string {
	if c.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(c.ContentType)
	if err != nil {
		mt, _, _ = strings.Cut(c.ContentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// EffectiveURL returns the final URL after redirects, or the requested URL.
func (c Content) EffectiveURL() string {
	if c.FinalURL != "" {
		return c.FinalURL
	}
	return c.URL
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrHTTPStatus).
var (
	// ErrHTTPStatus indicates a non-success HTTP status.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrAntiBot indicates the site's anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
	// ErrChallengeTimeout indicates a timeout while waiting for the page to settle.
	ErrChallengeTimeout = errors.New("page load timeout")
)

// Chrome user agent for better compatibility
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
