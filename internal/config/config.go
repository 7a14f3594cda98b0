// Package config holds the options for a doccrawl run.
//
// Options are layered by viper: command-line flags override DOCCRAWL_*
// environment variables, which override the config file, which overrides
// the defaults registered by SetDefaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/doccrawl/internal/cache"
	"github.com/jmylchreest/doccrawl/pkg/cleaner"
)

// Fetch modes.
const (
	FetchStatic  = "static"
	FetchDynamic = "dynamic"
)

// Default values.
const (
	DefaultTitle           = "# Crawled Documentation"
	DefaultMaxDepth        = 1
	DefaultConcurrency     = 1
	DefaultKeywordWeight   = 0.7
	DefaultRequestDelay    = 2 * time.Second
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultMaxBodySize     = "10MB"
	DefaultManifestFormat  = "json"
)

var (
	DefaultIncludePatterns = []string{
		"*doc*", "*docs*", "*tutorial*", "*guide*", "*quickstart*",
		"*introduction*", "*getting started*", "*installation*", "*setup*",
		"*manual*", "*faq*",
	}
	DefaultExcludePatterns = []string{"*#*"}
	DefaultContentTypes    = []string{"text/html"}
	DefaultKeywords        = []string{
		"docs", "documentation", "doc", "guide", "tutorial", "example",
		"quickstart", "introduction", "getting started", "installation",
		"setup", "manual", "faq",
	}
	DefaultBrowserArgs = []string{
		"--disable-blink-features=AutomationControlled",
		"--no-sandbox",
	}
)

// Options configures one crawl.
type Options struct {
	URL    string `validate:"required,http_url"`
	Output string
	Title  string

	MaxDepth        int `validate:"min=1,max=5"`
	MaxPages        int `validate:"gte=0"`
	IncludeExternal bool

	IncludePatterns []string
	ExcludePatterns []string
	ContentTypes    []string
	Keywords        []string
	KeywordWeight   float64 `validate:"gte=0"`

	RemoveLinks                  bool
	IgnoreImages                 bool
	ExcludeMarkdownExternalLinks bool
	OnlyText                     bool
	Navigation                   *cleaner.NavigationPolicy

	Verbose      bool
	Stream       bool
	Concurrency  int           `validate:"min=1,max=10"`
	RequestDelay time.Duration `validate:"gte=0"`
	Delay        time.Duration `validate:"gte=0"`

	CacheMode   string `validate:"required,oneof=enabled disabled read_only write_only bypass"`
	CacheDir    string
	CacheMaxAge time.Duration `validate:"gte=0"`

	FetchMode       string `validate:"omitempty,oneof=static dynamic"`
	WaitFor         string
	JSCode          string
	WaitForJSRender bool
	PageLoadTimeout time.Duration `validate:"gt=0"`
	BrowserArgs     []string
	ShowBrowser     bool
	UserAgent       string
	MaxBodySize     string

	Token string

	Manifest       string
	ManifestFormat string `validate:"omitempty,oneof=json jsonl yaml"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Title:                        DefaultTitle,
		MaxDepth:                     DefaultMaxDepth,
		IncludePatterns:              clone(DefaultIncludePatterns),
		ExcludePatterns:              clone(DefaultExcludePatterns),
		ContentTypes:                 clone(DefaultContentTypes),
		Keywords:                     clone(DefaultKeywords),
		KeywordWeight:                DefaultKeywordWeight,
		RemoveLinks:                  true,
		IgnoreImages:                 true,
		ExcludeMarkdownExternalLinks: true,
		OnlyText:                     true,
		Stream:                       true,
		Concurrency:                  DefaultConcurrency,
		RequestDelay:                 DefaultRequestDelay,
		CacheMode:                    string(cache.ModeBypass),
		PageLoadTimeout:              DefaultPageLoadTimeout,
		BrowserArgs:                  clone(DefaultBrowserArgs),
		MaxBodySize:                  DefaultMaxBodySize,
		ManifestFormat:               DefaultManifestFormat,
	}
}

// Normalize canonicalizes case-insensitive fields and trims list entries.
func (o *Options) Normalize() {
	o.URL = strings.TrimSpace(o.URL)
	o.CacheMode = strings.ToLower(strings.TrimSpace(o.CacheMode))
	o.FetchMode = strings.ToLower(strings.TrimSpace(o.FetchMode))
	o.ManifestFormat = strings.ToLower(strings.TrimSpace(o.ManifestFormat))
	o.IncludePatterns = compact(o.IncludePatterns)
	o.ExcludePatterns = compact(o.ExcludePatterns)
	o.ContentTypes = compact(o.ContentTypes)
	o.Keywords = compact(o.Keywords)
	o.BrowserArgs = compact(o.BrowserArgs)
}

// EffectiveWaitFor returns the wait condition for dynamic fetches. Asking
// for JS rendering without an explicit condition waits five seconds.
func (o Options) EffectiveWaitFor() string {
	if o.WaitFor == "" && o.WaitForJSRender {
		return "5"
	}
	return o.WaitFor
}

// NeedsBrowser reports whether the options can only be served by a browser.
func (o Options) NeedsBrowser() bool {
	return o.WaitFor != "" || o.JSCode != "" || o.WaitForJSRender
}

// EffectiveFetchMode resolves an empty FetchMode from the browser options.
func (o Options) EffectiveFetchMode() string {
	if o.FetchMode != "" {
		return o.FetchMode
	}
	if o.NeedsBrowser() {
		return FetchDynamic
	}
	return FetchStatic
}

// BodyLimit parses MaxBodySize. An empty value means no limit.
func (o Options) BodyLimit() (int, error) {
	if o.MaxBodySize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(o.MaxBodySize)
	if err != nil {
		return 0, fmt.Errorf("invalid max body size %q: %w", o.MaxBodySize, err)
	}
	return int(n), nil
}

var validate = validator.New()

// Validate normalizes and checks the options.
func (o *Options) Validate() error {
	o.Normalize()

	if _, err := cache.ParseMode(o.CacheMode); err != nil {
		return err
	}
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if o.FetchMode == FetchStatic && o.NeedsBrowser() {
		return errors.New("invalid options: wait-for, js-code and wait-for-js-render need --fetch-mode dynamic")
	}
	if _, err := o.BodyLimit(); err != nil {
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL, got %q", name, fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", name, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s, got %v", name, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", name, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s%s", name, fe.Tag(), param(fe.Param()))
	}
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

func compact(list []string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clone(list []string) []string {
	return append([]string(nil), list...)
}
