package fetcher

import (
	"maps"
	"net/url"
	"strings"
)

// BearerAuth attaches an Authorization header to requests whose host is,
// or is a subdomain of, one of Hosts.
type BearerAuth struct {
	Token string
	Hosts []string
}

// HuggingFaceAuth returns bearer auth scoped to huggingface.co.
func HuggingFaceAuth(token string) BearerAuth {
	return BearerAuth{Token: token, Hosts: []string{"huggingface.co"}}
}

// Applies reports whether the token should be sent to targetURL.
func (a BearerAuth) Applies(targetURL string) bool {
	if a.Token == "" {
		return false
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range a.Hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Apply returns opts with the Authorization header added when the token
// applies to targetURL. The caller's header map is not modified.
func (a BearerAuth) Apply(targetURL string, opts Options) Options {
	if !a.Applies(targetURL) {
		return opts
	}
	headers := maps.Clone(opts.Headers)
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	headers["Authorization"] = "Bearer " + a.Token
	opts.Headers = headers
	return opts
}
