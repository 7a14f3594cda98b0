package cleaner

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PageConfig configures PageCleaner.
type PageConfig struct {
	// StripScripts removes <script> tags and their contents.
	StripScripts bool `json:"strip_scripts" yaml:"strip_scripts" mapstructure:"strip_scripts"`

	// StripStyles removes <style> tags and style="" attributes.
	StripStyles bool `json:"strip_styles" yaml:"strip_styles" mapstructure:"strip_styles"`

	StripComments bool `json:"strip_comments" yaml:"strip_comments" mapstructure:"strip_comments"`

	// StripHiddenElements removes elements with display:none, visibility:hidden,
	// aria-hidden="true" or the hidden attribute.
	StripHiddenElements bool `json:"strip_hidden_elements" yaml:"strip_hidden_elements" mapstructure:"strip_hidden_elements"`

	// StripEventHandlers removes onclick, onload, and other event attributes.
	StripEventHandlers bool `json:"strip_event_handlers" yaml:"strip_event_handlers" mapstructure:"strip_event_handlers"`

	StripSVG     bool `json:"strip_svg" yaml:"strip_svg" mapstructure:"strip_svg"`
	StripIframes bool `json:"strip_iframes" yaml:"strip_iframes" mapstructure:"strip_iframes"`

	// UnwrapNoscript replaces <noscript> tags with their contents.
	UnwrapNoscript bool `json:"unwrap_noscript" yaml:"unwrap_noscript" mapstructure:"unwrap_noscript"`

	// StripDataAttributes removes data-* attributes. class and id are never
	// touched because the navigation stage matches on them.
	StripDataAttributes bool `json:"strip_data_attributes" yaml:"strip_data_attributes" mapstructure:"strip_data_attributes"`

	// TextOnly removes media and form controls, leaving text structure.
	TextOnly bool `json:"text_only" yaml:"text_only" mapstructure:"text_only"`

	// ExcludeExternalLinks replaces anchors pointing off BaseURL's host with
	// their text. Requires BaseURL.
	ExcludeExternalLinks bool   `json:"exclude_external_links" yaml:"exclude_external_links" mapstructure:"exclude_external_links"`
	BaseURL              string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// RemoveSelectors is a list of CSS selectors to always remove.
	RemoveSelectors []string `json:"remove_selectors" yaml:"remove_selectors" mapstructure:"remove_selectors"`

	// KeepSelectors is a list of CSS selectors to always keep (overrides removals).
	KeepSelectors []string `json:"keep_selectors" yaml:"keep_selectors" mapstructure:"keep_selectors"`
}

// DefaultPageConfig returns the configuration used for crawled pages.
func DefaultPageConfig() *PageConfig {
	return &PageConfig{
		StripScripts:        true,
		StripStyles:         true,
		StripComments:       true,
		StripHiddenElements: true,
		StripEventHandlers:  true,
		StripSVG:            true,
		StripIframes:        true,
		UnwrapNoscript:      true,
		StripDataAttributes: true,
		RemoveSelectors: []string{
			"ins.adsbygoogle",
			"[data-ad-client]",
			"[data-ad-slot]",
			"iframe[src*='doubleclick']",
			"[class*='cookie-banner']",
			"[id*='cookie-banner']",
			"[class*='consent']",
			".modal-backdrop",
		},
	}
}

// Copy returns a deep copy of the config.
func (c *PageConfig) Copy() *PageConfig {
	cp := *c
	cp.RemoveSelectors = append([]string(nil), c.RemoveSelectors...)
	cp.KeepSelectors = append([]string(nil), c.KeepSelectors...)
	return &cp
}

var textOnlyTags = []string{
	"img", "picture", "video", "audio", "source", "track", "canvas",
	"object", "embed", "map", "form", "input", "button", "select",
	"textarea", "label",
}

var eventAttrs = []string{
	"onclick", "ondblclick", "onmousedown", "onmouseup", "onmouseover",
	"onmousemove", "onmouseout", "onmouseenter", "onmouseleave",
	"onkeydown", "onkeypress", "onkeyup",
	"onload", "onunload", "onabort", "onerror",
	"onfocus", "onblur", "onchange", "onsubmit", "onreset",
	"onscroll", "onresize",
}

// PageCleaner strips non-content markup from a fetched page: scripts,
// styles, hidden elements, ads and, optionally, media and external links.
// It degrades gracefully and returns its input when the page cannot be parsed.
type PageCleaner struct {
	config *PageConfig
}

// NewPage creates a PageCleaner. If config is nil, DefaultPageConfig() is used.
func NewPage(config *PageConfig) *PageCleaner {
	if config == nil {
		config = DefaultPageConfig()
	}
	return &PageCleaner{config: config}
}

// Name returns the cleaner name for logging.
func (c *PageCleaner) Name() string {
	return "page"
}

// Clean implements Cleaner.
func (c *PageCleaner) Clean(html string) (string, error) {
	return c.CleanWithStats(html).Content, nil
}

// CleanWithStats performs cleaning and returns detailed stats.
func (c *PageCleaner) CleanWithStats(input string) *Result {
	start := time.Now()
	result := newResult(input)

	doc, err := parse(input)
	if err != nil {
		return result.degrade(input, "parse", err)
	}

	// Order matters: remove large chunks first, then clean attributes.
	c.removeBySelectors(doc, result)
	if c.config.StripScripts {
		c.removeElements(doc, result, "script")
	}
	if c.config.StripStyles {
		c.removeElements(doc, result, "style")
		doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
			if !c.isHidden(s) {
				s.RemoveAttr("style")
				result.Stats.AttributesRemoved++
			}
		})
	}
	if c.config.StripComments {
		removeComments(doc.Selection, result)
	}
	if c.config.StripSVG {
		c.removeElements(doc, result, "svg")
	}
	if c.config.StripIframes {
		c.removeElements(doc, result, "iframe")
	}
	if c.config.UnwrapNoscript {
		unwrapNoscript(doc)
	}
	if c.config.StripHiddenElements {
		c.removeHidden(doc, result)
	}
	if c.config.TextOnly {
		c.removeElements(doc, result, textOnlyTags...)
	}
	if c.config.StripEventHandlers {
		for _, attr := range eventAttrs {
			doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
				s.RemoveAttr(attr)
				result.Stats.AttributesRemoved++
			})
		}
	}
	if c.config.StripDataAttributes {
		c.removeDataAttributes(doc, result)
	}
	if c.config.ExcludeExternalLinks {
		c.unwrapExternalLinks(doc, result)
	}

	out, err := render(doc)
	if err != nil {
		return result.degrade(input, "output", err)
	}
	return result.finish(strings.TrimSpace(out), start)
}

func (c *PageCleaner) removeElements(doc *goquery.Document, result *Result, tags ...string) {
	for _, tag := range tags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if detached(s) || c.shouldKeep(s) {
				return
			}
			result.Stats.RecordRemoval(tag)
			s.Remove()
		})
	}
}

func (c *PageCleaner) removeBySelectors(doc *goquery.Document, result *Result) {
	for _, selector := range c.config.RemoveSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if detached(s) || c.shouldKeep(s) {
				return
			}
			result.Stats.RecordRemoval(goquery.NodeName(s))
			s.Remove()
		})
	}
}

// shouldKeep checks if an element matches any keep selectors.
func (c *PageCleaner) shouldKeep(s *goquery.Selection) bool {
	for _, selector := range c.config.KeepSelectors {
		if s.Is(selector) {
			return true
		}
	}
	return false
}

func (c *PageCleaner) isHidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); strings.EqualFold(v, "true") {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func (c *PageCleaner) removeHidden(doc *goquery.Document, result *Result) {
	contentRoot(doc).Find("*").Each(func(_ int, s *goquery.Selection) {
		if detached(s) || !c.isHidden(s) || c.shouldKeep(s) {
			return
		}
		result.Stats.HiddenRemovals++
		result.Stats.RecordRemoval(goquery.NodeName(s))
		s.Remove()
	})
}

func (c *PageCleaner) removeDataAttributes(doc *goquery.Document, result *Result) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		var keys []string
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(attr.Key, "data-") {
				keys = append(keys, attr.Key)
			}
		}
		for _, key := range keys {
			s.RemoveAttr(key)
			result.Stats.AttributesRemoved++
		}
	})
}

func (c *PageCleaner) unwrapExternalLinks(doc *goquery.Document, result *Result) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil || base.Host == "" {
		if c.config.BaseURL != "" {
			result.AddWarning("transform", "external link check skipped", c.config.BaseURL)
		}
		return
	}
	host := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || ref.Host == "" {
			return
		}
		if strings.TrimPrefix(strings.ToLower(ref.Hostname()), "www.") == host {
			return
		}
		result.Stats.LinksUnwrapped++
		s.ReplaceWithSelection(s.Contents())
	})
}

func unwrapNoscript(doc *goquery.Document) {
	doc.Find("noscript").Each(func(_ int, s *goquery.Selection) {
		// noscript content is parsed as raw text when scripting is enabled.
		inner := s.Text()
		if strings.TrimSpace(inner) == "" {
			s.Remove()
			return
		}
		s.ReplaceWithHtml(inner)
	})
}

func removeComments(s *goquery.Selection, result *Result) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		node := child.Get(0)
		switch node.Type {
		case html.CommentNode:
			result.Stats.RecordRemoval("#comment")
			child.Remove()
		case html.ElementNode, html.DocumentNode:
			removeComments(child, result)
		}
	})
}
