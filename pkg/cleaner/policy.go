package cleaner

// NavigationPolicy is the data that drives NavigationCleaner.
type NavigationPolicy struct {
	// AlwaysRemove lists tags that are navigation wherever they appear.
	AlwaysRemove []string `json:"always_remove" yaml:"always_remove" mapstructure:"always_remove"`

	// Conditional lists ambiguous tags that are removed only when their
	// class or id contains one of Indicators.
	Conditional []string `json:"conditional" yaml:"conditional" mapstructure:"conditional"`

	// Indicators are matched case-insensitively as substrings.
	Indicators []string `json:"indicators" yaml:"indicators" mapstructure:"indicators"`

	// RemoveEmptyItems drops <li> elements with no visible text.
	RemoveEmptyItems bool `json:"remove_empty_items" yaml:"remove_empty_items" mapstructure:"remove_empty_items"`
}

// DefaultNavigationPolicy returns the policy used by StripNavigation.
func DefaultNavigationPolicy() *NavigationPolicy {
	return &NavigationPolicy{
		AlwaysRemove: []string{"nav"},
		Conditional:  []string{"header", "footer"},
		Indicators: []string{
			"nav",
			"navbar",
			"navigation",
			"sidebar",
			"toc",
			"breadcrumb",
			"menu",
		},
		RemoveEmptyItems: true,
	}
}

// Merge merges another policy into this one.
// Tag and indicator lists are appended (deduplicated). RemoveEmptyItems is
// never switched off by a merge.
func (p *NavigationPolicy) Merge(other *NavigationPolicy) *NavigationPolicy {
	if other == nil {
		return p
	}

	merged := *p
	merged.AlwaysRemove = appendUnique(p.AlwaysRemove, other.AlwaysRemove)
	merged.Conditional = appendUnique(p.Conditional, other.Conditional)
	merged.Indicators = appendUnique(p.Indicators, other.Indicators)
	if other.RemoveEmptyItems {
		merged.RemoveEmptyItems = true
	}
	return &merged
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if !seen[s] {
				out = append(out, s)
				seen[s] = true
			}
		}
	}
	return out
}
