package cleaner

import (
	"strings"
	"testing"
)

func TestStripNavigation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "nav always removed",
			input:    `<nav><a href="/home">Home</a></nav><p>Body text</p>`,
			contains: []string{"<p>Body text</p>"},
			excludes: []string{"<nav", "/home", "Home"},
		},
		{
			name:     "nested nav removed with contents",
			input:    `<div><nav class="anything"><ul><li><a href="/a">A</a></li></ul></nav><p>Keep</p></div>`,
			contains: []string{"<div>", "<p>Keep</p>"},
			excludes: []string{"<nav", "<ul", `href="/a"`},
		},
		{
			name:     "header with navbar class removed",
			input:    `<header class="site-navbar"><a href="/">Logo</a></header><h1>Title</h1>`,
			contains: []string{"<h1>Title</h1>"},
			excludes: []string{"<header", "Logo"},
		},
		{
			name:     "plain header kept",
			input:    `<header class="article-header"><h1>Title</h1></header><p>Body</p>`,
			contains: []string{`<header class="article-header">`, "<h1>Title</h1>", "<p>Body</p>"},
		},
		{
			name:     "header without attributes kept",
			input:    `<header><h1>Title</h1></header>`,
			contains: []string{"<header>", "<h1>Title</h1>"},
		},
		{
			name:     "footer matched by id",
			input:    `<p>Body</p><footer id="page-toc"><a href="#one">One</a></footer>`,
			contains: []string{"<p>Body</p>"},
			excludes: []string{"<footer", "#one"},
		},
		{
			name:     "footer without indicator kept",
			input:    `<p>Body</p><footer class="copyright">(c) 2024</footer>`,
			contains: []string{`<footer class="copyright">(c) 2024</footer>`},
		},
		{
			name:     "indicator match is case-insensitive",
			input:    `<header class="Top MainMenu">Menu</header><p>Body</p>`,
			contains: []string{"<p>Body</p>"},
			excludes: []string{"<header"},
		},
		{
			name:     "breadcrumb footer removed",
			input:    `<footer class="x BreadCrumb-trail">Docs &gt; API</footer><p>Body</p>`,
			contains: []string{"<p>Body</p>"},
			excludes: []string{"<footer"},
		},
		{
			name:     "empty list items removed",
			input:    "<ul><li>  </li><li>Item</li><li>\n\t</li><li>&nbsp;</li></ul>",
			contains: []string{"<ul><li>Item</li></ul>"},
		},
		{
			name:     "list item with nested text kept",
			input:    `<ol><li><span><a href="/x">Deep</a></span></li></ol>`,
			contains: []string{`<li><span><a href="/x">Deep</a></span></li>`},
		},
		{
			name:     "anchors outside navigation untouched",
			input:    `<p>See <a href="../api" class="nav-link">the API</a> and <a href="#top">top</a>.</p>`,
			contains: []string{`<a href="../api" class="nav-link">the API</a>`, `<a href="#top">top</a>`},
		},
		{
			name:     "div with nav class is not a navigation tag",
			input:    `<div class="navigation"><p>Kept</p></div>`,
			contains: []string{`<div class="navigation"><p>Kept</p></div>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripNavigation(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot: %s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("output should not contain %q\ngot: %s", unwanted, got)
				}
			}
		})
	}
}

func TestStripNavigation_PreservesOrder(t *testing.T) {
	got := StripNavigation(`<h1>First</h1><nav>x</nav><p>Second</p><footer class="menu">y</footer><p>Third</p>`)

	first := strings.Index(got, "First")
	second := strings.Index(got, "Second")
	third := strings.Index(got, "Third")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("content missing: %s", got)
	}
	if !(first < second && second < third) {
		t.Errorf("element order changed: %s", got)
	}
}

func TestStripNavigation_Idempotent(t *testing.T) {
	inputs := []string{
		`<nav>n</nav><header class="navbar">h</header><ul><li></li><li>a</li></ul>`,
		`<html><head><title>T</title></head><body><footer id="toc"></footer><p>x</p></body></html>`,
		`<p>nothing to strip</p>`,
	}
	for _, input := range inputs {
		once := StripNavigation(input)
		twice := StripNavigation(once)
		if once != twice {
			t.Errorf("not idempotent\nonce:  %s\ntwice: %s", once, twice)
		}
	}
}

func TestStripNavigation_FragmentAndDocument(t *testing.T) {
	fragments := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraph", `<p>Fragment</p>`, `<p>Fragment</p>`},
		{"leading title", `<title>Intro</title><p>hi</p>`, `<title>Intro</title><p>hi</p>`},
		{"leading style", `<style>p{color:red}</style><p>hi</p>`, `<style>p{color:red}</style><p>hi</p>`},
		{"table row", `<tr><td>a</td></tr>`, `<tr><td>a</td></tr>`},
		{"table cells", `<td>a</td><td>b</td>`, `<td>a</td><td>b</td>`},
		{"html in comment", `<!-- see <html> --><p>x</p>`, `<!-- see <html> --><p>x</p>`},
		{"html in script", `<script>var s = "<html>";</script><p>x</p>`, `<script>var s = "<html>";</script><p>x</p>`},
		{"nav after head element", `<link rel="stylesheet" href="a.css"/><nav>menu</nav><p>x</p>`, `<link rel="stylesheet" href="a.css"/><p>x</p>`},
	}
	for _, tt := range fragments {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripNavigation(tt.input); got != tt.want {
				t.Errorf("StripNavigation() = %q, want %q", got, tt.want)
			}
		})
	}

	meta := StripNavigation(`<meta charset="utf-8"><p>hi</p>`)
	if !strings.Contains(meta, `<meta charset="utf-8"`) || !strings.Contains(meta, "<p>hi</p>") {
		t.Errorf("meta fragment output = %q", meta)
	}

	document := StripNavigation(`<!DOCTYPE html><html><head><title>T</title></head><body><nav>x</nav><p>Doc</p></body></html>`)
	for _, want := range []string{"<html>", "<title>T</title>", "<p>Doc</p>"} {
		if !strings.Contains(document, want) {
			t.Errorf("document output missing %q: %s", want, document)
		}
	}
	if strings.Contains(document, "<nav") {
		t.Errorf("document output still contains nav: %s", document)
	}
}

func TestIsDocument(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`<!DOCTYPE html><html></html>`, true},
		{`  <html lang="en"><body></body></html>`, true},
		{`<HTML>`, true},
		{`<!-- generated --><!doctype html><p>x</p>`, true},
		{"\ufeff<html>", true},
		{`<p>x</p><html>`, false},
		{`<!-- <html> --><p>x</p>`, false},
		{`<htmlish>x</htmlish>`, false},
		{`<!-- unterminated <html>`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := isDocument(tt.input); got != tt.want {
			t.Errorf("isDocument(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStripNavigation_EmptyInput(t *testing.T) {
	if got := StripNavigation(""); got != "" {
		t.Errorf("StripNavigation(\"\") = %q, want empty", got)
	}
}

func TestNavigationCleaner_Stats(t *testing.T) {
	c := NewNavigation(nil)
	result := c.Strip(`<nav>a</nav><nav>b</nav><header class="sidebar">c</header><ul><li> </li></ul><p>d</p>`)

	if got := result.Stats.ElementsRemoved["nav"]; got != 2 {
		t.Errorf("nav removals = %d, want 2", got)
	}
	if got := result.Stats.ConditionalRemovals; got != 1 {
		t.Errorf("conditional removals = %d, want 1", got)
	}
	if got := result.Stats.EmptyItemRemovals; got != 1 {
		t.Errorf("empty item removals = %d, want 1", got)
	}
	if got := result.Stats.TotalElementsRemoved(); got != 4 {
		t.Errorf("total removals = %d, want 4", got)
	}
	if result.HasWarnings() {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if result.Stats.OutputBytes != len(result.Content) {
		t.Errorf("OutputBytes = %d, want %d", result.Stats.OutputBytes, len(result.Content))
	}
}

func TestNavigationCleaner_NestedRemovalsCountedOnce(t *testing.T) {
	c := NewNavigation(nil)
	result := c.Strip(`<nav><nav>inner</nav></nav>` +
		`<header class="sidebar"><header id="navbar">x</header></header>` +
		`<footer class="nav"><ul><li></li></ul></footer><p>kept</p>`)

	if got := result.Stats.ElementsRemoved["nav"]; got != 1 {
		t.Errorf("nav removals = %d, want 1", got)
	}
	if got := result.Stats.ElementsRemoved["header"]; got != 1 {
		t.Errorf("header removals = %d, want 1", got)
	}
	if got := result.Stats.ConditionalRemovals; got != 2 {
		t.Errorf("conditional removals = %d, want 2", got)
	}
	if got := result.Stats.EmptyItemRemovals; got != 0 {
		t.Errorf("empty item removals = %d, want 0", got)
	}
	if result.Content != "<p>kept</p>" {
		t.Errorf("content = %q, want %q", result.Content, "<p>kept</p>")
	}
}

func TestNavigationCleaner_CustomPolicy(t *testing.T) {
	policy := DefaultNavigationPolicy().Merge(&NavigationPolicy{
		AlwaysRemove: []string{"aside"},
		Conditional:  []string{"section"},
		Indicators:   []string{"related"},
	})
	c := NewNavigation(policy)

	got, err := c.Clean(`<aside>Ad</aside><section class="related-pages">R</section><section class="content">Body</section>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "<aside") || strings.Contains(got, "related-pages") {
		t.Errorf("custom policy not applied: %s", got)
	}
	if !strings.Contains(got, `<section class="content">Body</section>`) {
		t.Errorf("content section removed: %s", got)
	}
}

func TestNavigationCleaner_KeepEmptyItems(t *testing.T) {
	policy := DefaultNavigationPolicy()
	policy.RemoveEmptyItems = false

	got := NewNavigation(policy).Strip(`<ul><li></li><li>x</li></ul>`).Content
	if strings.Count(got, "<li>") != 2 {
		t.Errorf("empty items should be kept: %s", got)
	}
}

func TestNavigationPolicy_Merge(t *testing.T) {
	base := DefaultNavigationPolicy()

	if got := base.Merge(nil); got != base {
		t.Error("Merge(nil) should return the receiver")
	}

	merged := base.Merge(&NavigationPolicy{Indicators: []string{"menu", "pager"}})
	if len(merged.Indicators) != len(base.Indicators)+1 {
		t.Errorf("indicators = %v, want one appended entry", merged.Indicators)
	}
	if merged.Indicators[len(merged.Indicators)-1] != "pager" {
		t.Errorf("last indicator = %q, want %q", merged.Indicators[len(merged.Indicators)-1], "pager")
	}
	if len(base.Indicators) != 7 {
		t.Errorf("Merge modified the receiver: %v", base.Indicators)
	}
	if !merged.RemoveEmptyItems {
		t.Error("RemoveEmptyItems should stay enabled")
	}
}

func TestNavigationCleaner_Name(t *testing.T) {
	if got := NewNavigation(nil).Name(); got != "navigation" {
		t.Errorf("Name() = %q, want %q", got, "navigation")
	}
}
