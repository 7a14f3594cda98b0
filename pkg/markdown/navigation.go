package markdown

import (
	"context"
	"errors"

	"github.com/jmylchreest/doccrawl/internal/logger"
	"github.com/jmylchreest/doccrawl/pkg/cleaner"
)

// NavigationGenerator strips site navigation from the call's HTML and
// resolves its links against base_url before handing the call to next.
// Apart from the HTML slot the forwarded call is identical to the original.
type NavigationGenerator struct {
	next      Generator
	navigator *cleaner.NavigationCleaner
}

// NewNavigation wraps next. A nil policy selects cleaner.DefaultNavigationPolicy.
func NewNavigation(next Generator, policy *cleaner.NavigationPolicy) *NavigationGenerator {
	return &NavigationGenerator{
		next:      next,
		navigator: cleaner.NewNavigation(policy),
	}
}

// Generate implements Generator.
func (g *NavigationGenerator) Generate(ctx context.Context, call Call) (*Document, error) {
	in := ExtractInput(call)
	if !in.Found() {
		return g.next.Generate(ctx, call)
	}
	return g.next.Generate(ctx, call.WithHTML(in, g.Sanitize(ctx, in.HTML, call.BaseURL())))
}

// Sanitize applies navigation stripping then link resolution to html.
// Resolution failures are logged and the stripped HTML is returned as is.
func (g *NavigationGenerator) Sanitize(ctx context.Context, html, baseURL string) string {
	stripped := g.navigator.Strip(html)
	for _, w := range stripped.Warnings {
		logger.DebugContext(ctx, "navigation strip degraded", "warning", w.String())
	}

	resolved, err := cleaner.ResolveLinks(stripped.Content, baseURL)
	if err != nil {
		var resErr *cleaner.ResolutionError
		if errors.As(err, &resErr) {
			logger.WarnContext(ctx, "link resolution skipped",
				"base_url", resErr.BaseURL,
				"href", resErr.Href,
				"error", resErr.Err)
		} else {
			logger.WarnContext(ctx, "link resolution skipped", "base_url", baseURL, "error", err)
		}
		return stripped.Content
	}
	return resolved
}
