package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/doccrawl/pkg/cleaner"
)

// Viper keys. Flags are bound to the same names, and environment variables
// are the upper-cased key with the DOCCRAWL_ prefix.
const (
	KeyOutput                       = "output"
	KeyTitle                        = "title"
	KeyMaxDepth                     = "max_depth"
	KeyMaxPages                     = "max_pages"
	KeyIncludeExternal              = "include_external"
	KeyIncludePattern               = "include_pattern"
	KeyExcludePattern               = "exclude_pattern"
	KeyContentType                  = "content_type"
	KeyKeyword                      = "keyword"
	KeyKeywordWeight                = "keyword_weight"
	KeyRemoveLinks                  = "remove_links"
	KeyIgnoreImages                 = "ignore_images"
	KeyExcludeMarkdownExternalLinks = "exclude_markdown_external_links"
	KeyOnlyText                     = "only_text"
	KeyVerbose                      = "verbose"
	KeyStream                       = "stream"
	KeyConcurrency                  = "concurrency"
	KeyRequestDelay                 = "request_delay"
	KeyDelay                        = "delay"
	KeyCacheMode                    = "cache_mode"
	KeyCacheDir                     = "cache_dir"
	KeyCacheMaxAge                  = "cache_max_age"
	KeyFetchMode                    = "fetch_mode"
	KeyWaitFor                      = "wait_for"
	KeyJSCode                       = "js_code"
	KeyWaitForJSRender              = "wait_for_js_render"
	KeyPageLoadTimeout              = "page_load_timeout"
	KeyBrowserArgs                  = "browser_args"
	KeyShowBrowser                  = "show_browser"
	KeyUserAgent                    = "user_agent"
	KeyMaxBodySize                  = "max_body_size"
	KeyToken                        = "hf_token"
	KeyManifest                     = "manifest"
	KeyManifestFormat               = "manifest_format"
	KeyNavigation                   = "navigation"
)

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTitle, d.Title)
	v.SetDefault(KeyMaxDepth, d.MaxDepth)
	v.SetDefault(KeyIncludePattern, d.IncludePatterns)
	v.SetDefault(KeyExcludePattern, d.ExcludePatterns)
	v.SetDefault(KeyContentType, d.ContentTypes)
	v.SetDefault(KeyKeyword, d.Keywords)
	v.SetDefault(KeyKeywordWeight, d.KeywordWeight)
	v.SetDefault(KeyRemoveLinks, d.RemoveLinks)
	v.SetDefault(KeyIgnoreImages, d.IgnoreImages)
	v.SetDefault(KeyExcludeMarkdownExternalLinks, d.ExcludeMarkdownExternalLinks)
	v.SetDefault(KeyOnlyText, d.OnlyText)
	v.SetDefault(KeyStream, d.Stream)
	v.SetDefault(KeyConcurrency, d.Concurrency)
	v.SetDefault(KeyRequestDelay, d.RequestDelay.Seconds())
	v.SetDefault(KeyCacheMode, d.CacheMode)
	v.SetDefault(KeyPageLoadTimeout, int(d.PageLoadTimeout/time.Second))
	v.SetDefault(KeyBrowserArgs, d.BrowserArgs)
	v.SetDefault(KeyMaxBodySize, d.MaxBodySize)
	v.SetDefault(KeyManifestFormat, d.ManifestFormat)
}

// Load reads the options for url from v. Delays and timeouts are numbers
// of seconds, matching the command-line flags. The result is not validated.
func Load(v *viper.Viper, url string) (Options, error) {
	o := Options{
		URL:                          url,
		Output:                       v.GetString(KeyOutput),
		Title:                        v.GetString(KeyTitle),
		MaxDepth:                     v.GetInt(KeyMaxDepth),
		MaxPages:                     v.GetInt(KeyMaxPages),
		IncludeExternal:              v.GetBool(KeyIncludeExternal),
		IncludePatterns:              v.GetStringSlice(KeyIncludePattern),
		ExcludePatterns:              v.GetStringSlice(KeyExcludePattern),
		ContentTypes:                 v.GetStringSlice(KeyContentType),
		Keywords:                     v.GetStringSlice(KeyKeyword),
		KeywordWeight:                v.GetFloat64(KeyKeywordWeight),
		RemoveLinks:                  v.GetBool(KeyRemoveLinks),
		IgnoreImages:                 v.GetBool(KeyIgnoreImages),
		ExcludeMarkdownExternalLinks: v.GetBool(KeyExcludeMarkdownExternalLinks),
		OnlyText:                     v.GetBool(KeyOnlyText),
		Verbose:                      v.GetBool(KeyVerbose),
		Stream:                       v.GetBool(KeyStream),
		Concurrency:                  v.GetInt(KeyConcurrency),
		RequestDelay:                 seconds(v.GetFloat64(KeyRequestDelay)),
		Delay:                        seconds(v.GetFloat64(KeyDelay)),
		CacheMode:                    v.GetString(KeyCacheMode),
		CacheDir:                     v.GetString(KeyCacheDir),
		CacheMaxAge:                  v.GetDuration(KeyCacheMaxAge),
		FetchMode:                    v.GetString(KeyFetchMode),
		WaitFor:                      v.GetString(KeyWaitFor),
		JSCode:                       v.GetString(KeyJSCode),
		WaitForJSRender:              v.GetBool(KeyWaitForJSRender),
		PageLoadTimeout:              seconds(v.GetFloat64(KeyPageLoadTimeout)),
		BrowserArgs:                  v.GetStringSlice(KeyBrowserArgs),
		ShowBrowser:                  v.GetBool(KeyShowBrowser),
		UserAgent:                    v.GetString(KeyUserAgent),
		MaxBodySize:                  v.GetString(KeyMaxBodySize),
		Token:                        v.GetString(KeyToken),
		Manifest:                     v.GetString(KeyManifest),
		ManifestFormat:               v.GetString(KeyManifestFormat),
	}

	if v.IsSet(KeyNavigation) {
		var extra cleaner.NavigationPolicy
		if err := v.UnmarshalKey(KeyNavigation, &extra); err != nil {
			return o, fmt.Errorf("invalid navigation policy: %w", err)
		}
		o.Navigation = cleaner.DefaultNavigationPolicy().Merge(&extra)
	}
	return o, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
