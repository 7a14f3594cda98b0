package cleaner

import (
	"errors"
	"strings"
	"testing"
)

func TestPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty_string", ""},
		{"plain_text", "Hello, World!"},
		{"html_content", "<html><body><h1>Title</h1></body></html>"},
		{"whitespace", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Passthrough{}.Clean(tt.input)
			if err != nil {
				t.Errorf("Clean() error = %v, want nil", err)
			}
			if got != tt.input {
				t.Errorf("Clean() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestChainCleaner_Empty(t *testing.T) {
	c := NewChain()

	input := "unchanged content"
	got, err := c.Clean(input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != input {
		t.Errorf("Clean() = %q, want %q", got, input)
	}
}

func TestChainCleaner_SkipsNil(t *testing.T) {
	c := NewChain(nil, Passthrough{}, nil)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestChainCleaner_Order(t *testing.T) {
	c := NewChain(NewNavigation(nil), LinkResolver{BaseURL: "https://example.com/docs/"})

	got, err := c.Clean(`<nav><a href="/home">Home</a></nav><p><a href="../api">API</a></p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "Home") {
		t.Errorf("navigation not stripped: %s", got)
	}
	if !strings.Contains(got, `href="https://example.com/api"`) {
		t.Errorf("links not resolved: %s", got)
	}
}

// errorCleaner is a test cleaner that always returns an error
type errorCleaner struct{}

func (c *errorCleaner) Clean(html string) (string, error) {
	return "", errors.New("test error")
}

func (c *errorCleaner) Name() string {
	return "error"
}

func TestChainCleaner_ErrorPropagation(t *testing.T) {
	c := NewChain(Passthrough{}, &errorCleaner{}, NewNavigation(nil))

	_, err := c.Clean("test")
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if !strings.Contains(err.Error(), "error: test error") {
		t.Errorf("expected error containing stage name, got %v", err)
	}
}

func TestChainCleaner_ResolutionErrorUnwraps(t *testing.T) {
	c := NewChain(LinkResolver{BaseURL: "relative/"})

	_, err := c.Clean(`<a href="x">x</a>`)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected *ResolutionError through the chain, got %T", err)
	}
}

func TestChainCleaner_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"single", []Cleaner{Passthrough{}}, "chain(passthrough)"},
		{"pipeline", []Cleaner{NewPage(nil), NewNavigation(nil), LinkResolver{}}, "chain(page->navigation->links)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.cleaners...)
			if got := c.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
