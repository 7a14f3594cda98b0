package markdown

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// ErrNoHTML is returned by DefaultGenerator when a call carries no HTML.
var ErrNoHTML = errors.New("markdown: call carries no html")

// DefaultGenerator converts HTML to Markdown with html-to-markdown.
// It is safe for concurrent use.
type DefaultGenerator struct {
	conv         *converter.Converter
	ignoreImages bool
	skipTags     []string
}

// Option configures the default generator.
type Option func(*DefaultGenerator)

// WithIgnoreImages drops <img> elements instead of emitting image syntax.
func WithIgnoreImages(ignore bool) Option {
	return func(g *DefaultGenerator) {
		g.ignoreImages = ignore
	}
}

// WithSkipTags removes the given elements, and their content, during conversion.
func WithSkipTags(tags ...string) Option {
	return func(g *DefaultGenerator) {
		g.skipTags = append(g.skipTags, tags...)
	}
}

// NewDefault creates the default generator.
func NewDefault(opts ...Option) *DefaultGenerator {
	g := &DefaultGenerator{}
	for _, opt := range opts {
		opt(g)
	}

	g.conv = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	if g.ignoreImages {
		g.skipTags = append(g.skipTags, "img", "picture")
	}
	for _, tag := range g.skipTags {
		g.conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return g
}

// Generate converts the call's HTML. The base_url parameter, if set, is
// used to absolutize links and image sources that are still relative.
func (g *DefaultGenerator) Generate(ctx context.Context, call Call) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := ExtractInput(call)
	if !in.Found() {
		return nil, ErrNoHTML
	}

	var opts []converter.ConvertOptionFunc
	baseURL := call.BaseURL()
	if baseURL != "" {
		opts = append(opts, converter.WithDomain(baseURL))
	}

	md, err := g.conv.ConvertString(in.HTML, opts...)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	md = cleanWhitespace(md)

	return &Document{
		RawMarkdown: md,
		References:  extractReferences(md),
		BaseURL:     baseURL,
	}, nil
}

// cleanWhitespace collapses runs of blank lines to one, leaving fenced
// code blocks alone.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blankCount := 0
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if trimmed == "" && !inFence {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
			continue
		}
		blankCount = 0
		result = append(result, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}

var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\(<?([^)\s>]+)>?(?:\s+"[^"]*")?\)`)

// extractReferences lists inline links in document order, skipping images.
func extractReferences(md string) []Reference {
	var refs []Reference
	for _, m := range linkPattern.FindAllStringSubmatchIndex(md, -1) {
		if m[0] > 0 && md[m[0]-1] == '!' {
			continue
		}
		refs = append(refs, Reference{
			Text: md[m[2]:m[3]],
			URL:  md[m[4]:m[5]],
		})
	}
	return refs
}
