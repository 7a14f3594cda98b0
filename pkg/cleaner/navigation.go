package cleaner

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// NavigationCleaner removes site navigation chrome (menus, sidebars,
// breadcrumbs, tables of contents) from HTML while leaving every other
// element, including anchors, in place.
type NavigationCleaner struct {
	policy *NavigationPolicy
}

// NewNavigation creates a NavigationCleaner. If policy is nil,
// DefaultNavigationPolicy() is used.
func NewNavigation(policy *NavigationPolicy) *NavigationCleaner {
	if policy == nil {
		policy = DefaultNavigationPolicy()
	}
	return &NavigationCleaner{policy: policy}
}

var defaultNavigation = NewNavigation(nil)

// StripNavigation removes navigation from html using the default policy.
// It never fails: unparsable input is returned unchanged.
func StripNavigation(html string) string {
	return defaultNavigation.Strip(html).Content
}

// Name returns the cleaner name for logging.
func (c *NavigationCleaner) Name() string {
	return "navigation"
}

// Clean implements Cleaner. Errors are never returned; see Strip.
func (c *NavigationCleaner) Clean(html string) (string, error) {
	return c.Strip(html).Content, nil
}

// Policy returns the policy in use.
func (c *NavigationCleaner) Policy() *NavigationPolicy {
	return c.policy
}

// Strip removes navigation from html and reports what was removed.
func (c *NavigationCleaner) Strip(html string) *Result {
	start := time.Now()
	result := newResult(html)

	doc, err := parse(html)
	if err != nil {
		return result.degrade(html, "parse", err)
	}

	for _, tag := range c.policy.AlwaysRemove {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if detached(s) {
				return
			}
			result.Stats.RecordRemoval(tag)
			s.Remove()
		})
	}

	for _, tag := range c.policy.Conditional {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if detached(s) || !c.looksLikeNavigation(s) {
				return
			}
			result.Stats.RecordRemoval(tag)
			result.Stats.ConditionalRemovals++
			s.Remove()
		})
	}

	if c.policy.RemoveEmptyItems {
		doc.Find("li").Each(func(_ int, s *goquery.Selection) {
			if detached(s) || strings.TrimSpace(s.Text()) != "" {
				return
			}
			result.Stats.RecordRemoval("li")
			result.Stats.EmptyItemRemovals++
			s.Remove()
		})
	}

	out, err := render(doc)
	if err != nil {
		return result.degrade(html, "output", err)
	}
	return result.finish(out, start)
}

// looksLikeNavigation reports whether the element's class list or id
// contains one of the policy indicators.
func (c *NavigationCleaner) looksLikeNavigation(s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	if class == "" && id == "" {
		return false
	}

	class = strings.ToLower(strings.Join(strings.Fields(class), " "))
	id = strings.ToLower(id)
	for _, indicator := range c.policy.Indicators {
		indicator = strings.ToLower(indicator)
		if indicator == "" {
			continue
		}
		if strings.Contains(class, indicator) || strings.Contains(id, indicator) {
			return true
		}
	}
	return false
}
