package cleaner

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveLinks(t *testing.T) {
	const base = "https://example.com/docs/"

	tests := []struct {
		name string
		href string
		want string
	}{
		{"parent relative", "../api", "https://example.com/api"},
		{"fragment only", "#section", "https://example.com/docs/#section"},
		{"absolute unchanged", "https://other.org/x", "https://other.org/x"},
		{"scheme relative", "//cdn.example.org/lib", "https://cdn.example.org/lib"},
		{"path relative", "guide/start", "https://example.com/docs/guide/start"},
		{"root relative", "/about", "https://example.com/about"},
		{"query only", "?page=2", "https://example.com/docs/?page=2"},
		{"surrounding whitespace", "  intro  ", "https://example.com/docs/intro"},
		{"mailto unchanged", "mailto:team@example.com", "mailto:team@example.com"},
		{"stray percent", "50%off", "https://example.com/docs/50%25off"},
		{"valid escape kept", "a%20b", "https://example.com/docs/a%20b"},
		{"trailing percent", "100%", "https://example.com/docs/100%25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `<p><a href="` + tt.href + `">link</a></p>`
			got, err := ResolveLinks(input, base)
			if err != nil {
				t.Fatalf("ResolveLinks() error = %v", err)
			}
			want := `<a href="` + tt.want + `">link</a>`
			if !strings.Contains(got, want) {
				t.Errorf("ResolveLinks() = %s, want it to contain %s", got, want)
			}
		})
	}
}

func TestResolveLinks_StrayPercentKeepsOtherLinks(t *testing.T) {
	got, err := ResolveLinks(`<a href="guide">ok</a><a href="50%off">sale</a>`, "https://example.com/docs/")
	if err != nil {
		t.Fatalf("ResolveLinks() error = %v", err)
	}
	for _, want := range []string{
		`<a href="https://example.com/docs/guide">ok</a>`,
		`<a href="https://example.com/docs/50%25off">sale</a>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ResolveLinks() = %s, want it to contain %s", got, want)
		}
	}
}

func TestResolveLinks_EmptyBaseIsIdentity(t *testing.T) {
	inputs := []string{
		`<a href="../api">API</a>`,
		`<div><p>unclosed`,
		"",
	}
	for _, input := range inputs {
		got, err := ResolveLinks(input, "")
		if err != nil {
			t.Errorf("ResolveLinks(%q, \"\") error = %v", input, err)
		}
		if got != input {
			t.Errorf("ResolveLinks(%q, \"\") = %q, want input unchanged", input, got)
		}
	}
}

func TestResolveLinks_NoAnchors(t *testing.T) {
	input := `<p>No links <img src="a.png"></p>`
	got, err := ResolveLinks(input, "https://example.com/")
	if err != nil {
		t.Fatalf("ResolveLinks() error = %v", err)
	}
	if got != input {
		t.Errorf("ResolveLinks() = %q, want %q", got, input)
	}
}

func TestResolveLinks_OnlyAnchorsRewritten(t *testing.T) {
	input := `<p><img src="logo.png"><a href="page">Page</a><a name="anchor">Named</a></p>`
	got, err := ResolveLinks(input, "https://example.com/docs/")
	if err != nil {
		t.Fatalf("ResolveLinks() error = %v", err)
	}
	for _, want := range []string{`src="logo.png"`, `href="https://example.com/docs/page"`, `<a name="anchor">Named</a>`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %s", want, got)
		}
	}
}

func TestResolveLinks_Failures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		base     string
		wantHref string
		wantIs   error
	}{
		{
			name:  "unparsable base",
			input: `<a href="x">x</a>`,
			base:  "http://[::1",
		},
		{
			name:   "relative base",
			input:  `<a href="x">x</a>`,
			base:   "docs/",
			wantIs: ErrRelativeBase,
		},
		{
			name:     "unparsable href leaves every link untouched",
			input:    `<a href="good">ok</a><a href="http://[::1">bad</a>`,
			base:     "https://example.com/",
			wantHref: "http://[::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLinks(tt.input, tt.base)
			if err == nil {
				t.Fatal("expected error")
			}
			if got != tt.input {
				t.Errorf("output = %q, want unmodified input %q", got, tt.input)
			}

			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("error type = %T, want *ResolutionError", err)
			}
			if resErr.BaseURL != tt.base {
				t.Errorf("BaseURL = %q, want %q", resErr.BaseURL, tt.base)
			}
			if resErr.Href != tt.wantHref {
				t.Errorf("Href = %q, want %q", resErr.Href, tt.wantHref)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
			if !strings.Contains(err.Error(), tt.base) {
				t.Errorf("error %q should mention base URL", err.Error())
			}
		})
	}
}

func TestLinkResolver_Cleaner(t *testing.T) {
	var c Cleaner = LinkResolver{BaseURL: "https://example.com/a/b"}

	got, err := c.Clean(`<a href="c">c</a>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !strings.Contains(got, `href="https://example.com/a/c"`) {
		t.Errorf("Clean() = %s", got)
	}
	if c.Name() != "links" {
		t.Errorf("Name() = %q, want %q", c.Name(), "links")
	}
}
