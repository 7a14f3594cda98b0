package config

import (
	"github.com/jmylchreest/doccrawl/internal/crawler"
	"github.com/jmylchreest/doccrawl/internal/version"
	"github.com/jmylchreest/doccrawl/pkg/cleaner"
	"github.com/jmylchreest/doccrawl/pkg/fetcher"
	"github.com/jmylchreest/doccrawl/pkg/markdown"
)

// staticUserAgent returns the configured user agent, else doccrawl's own.
// The browser keeps fetcher.DefaultUserAgent when none is configured.
func (o Options) staticUserAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return version.UserAgent()
}

// FetchOptions returns the per-request fetch options.
func (o Options) FetchOptions() fetcher.Options {
	opts := fetcher.Options{
		UserAgent: o.UserAgent,
		Timeout:   o.PageLoadTimeout,
		WaitFor:   o.EffectiveWaitFor(),
		JSCode:    o.JSCode,
	}
	if opts.JSCode == "" && o.WaitForJSRender {
		opts.JSCode = fetcher.SPARenderScript
	}
	return opts
}

// CrawlerConfig maps the options onto the crawler.
func (o Options) CrawlerConfig() crawler.Config {
	return crawler.Config{
		MaxDepth:        o.MaxDepth,
		MaxPages:        o.MaxPages,
		IncludeExternal: o.IncludeExternal,
		IncludePatterns: o.IncludePatterns,
		ExcludePatterns: o.ExcludePatterns,
		ContentTypes:    o.ContentTypes,
		Keywords:        o.Keywords,
		KeywordWeight:   o.KeywordWeight,
		Concurrency:     o.Concurrency,
		Delay:           o.Delay,
		RequestDelay:    o.RequestDelay,
		FetchOptions:    o.FetchOptions(),
		Auth:            fetcher.HuggingFaceAuth(o.Token),
	}
}

// PageConfig returns the page cleaner configuration.
func (o Options) PageConfig() *cleaner.PageConfig {
	cfg := cleaner.DefaultPageConfig()
	cfg.TextOnly = o.OnlyText
	cfg.ExcludeExternalLinks = o.ExcludeMarkdownExternalLinks
	return cfg
}

// Generator returns the Markdown generator. Navigation is stripped unless
// RemoveLinks is off.
func (o Options) Generator() markdown.Generator {
	var gen markdown.Generator = markdown.NewDefault(markdown.WithIgnoreImages(o.IgnoreImages))
	if o.RemoveLinks {
		gen = markdown.NewNavigation(gen, o.Navigation)
	}
	return gen
}

// StaticConfig returns the colly fetcher configuration.
func (o Options) StaticConfig() (fetcher.StaticConfig, error) {
	limit, err := o.BodyLimit()
	if err != nil {
		return fetcher.StaticConfig{}, err
	}
	return fetcher.StaticConfig{
		UserAgent:   o.staticUserAgent(),
		Timeout:     o.PageLoadTimeout,
		MaxBodySize: limit,
	}, nil
}

// DynamicConfig returns the browser fetcher configuration.
func (o Options) DynamicConfig() fetcher.DynamicConfig {
	return fetcher.DynamicConfig{
		UserAgent:   o.UserAgent,
		Timeout:     o.PageLoadTimeout,
		ExtraArgs:   o.BrowserArgs,
		ShowBrowser: o.ShowBrowser,
	}
}
