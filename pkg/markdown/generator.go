// Package markdown converts sanitized page HTML into Markdown documents.
//
// A Generator receives a Call that mirrors the loose calling convention of
// Markdown generators: the HTML may arrive as the first positional argument
// or under one of two named parameters, next to options such as base_url.
// ExtractInput turns that shape into a tagged Input so that adapters such as
// NavigationGenerator can rewrite the HTML without caring where it came from.
package markdown

import (
	"context"
	"maps"
	"slices"
)

// Named parameters understood by the generators in this package.
const (
	ParamCleanedHTML = "cleaned_html"
	ParamInputHTML   = "input_html"
	ParamBaseURL     = "base_url"
)

// Generator converts the HTML carried by a call into a Markdown document.
type Generator interface {
	Generate(ctx context.Context, call Call) (*Document, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, call Call) (*Document, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, call Call) (*Document, error) {
	return f(ctx, call)
}

// Document is the generated Markdown plus the metadata extracted with it.
type Document struct {
	RawMarkdown string      `json:"raw_markdown" yaml:"raw_markdown"`
	References  []Reference `json:"references,omitempty" yaml:"references,omitempty"`
	BaseURL     string      `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Reference is an inline Markdown link found in a document.
type Reference struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// Call is the argument list of one Generate invocation.
type Call struct {
	Args   []string
	Params map[string]string
}

// NewCall builds a call that carries in and, when baseURL is not empty, a
// base_url parameter.
func NewCall(in Input, baseURL string) Call {
	var call Call
	if baseURL != "" {
		call.Params = map[string]string{ParamBaseURL: baseURL}
	}
	if in.Kind == InputNone {
		return call
	}
	return call.WithHTML(in, in.HTML)
}

// Param returns the named parameter, or "" when it is not set.
func (c Call) Param(key string) string {
	return c.Params[key]
}

// HasParam reports whether the named parameter is present, even if empty.
func (c Call) HasParam(key string) bool {
	_, ok := c.Params[key]
	return ok
}

// BaseURL returns the base_url parameter.
func (c Call) BaseURL() string {
	return c.Params[ParamBaseURL]
}

// Clone returns a deep copy of the call.
func (c Call) Clone() Call {
	return Call{
		Args:   slices.Clone(c.Args),
		Params: maps.Clone(c.Params),
	}
}

// WithHTML returns a copy of the call with html placed in the slot it came
// from. For InputNone the call is returned unchanged.
func (c Call) WithHTML(in Input, html string) Call {
	out := c.Clone()
	switch in.Kind {
	case InputPositional:
		if len(out.Args) == 0 {
			out.Args = []string{html}
		} else {
			out.Args[0] = html
		}
	case InputCleanedHTML, InputInputHTML:
		if out.Params == nil {
			out.Params = make(map[string]string, 1)
		}
		out.Params[in.Kind.param()] = html
	}
	return out
}

// InputKind identifies where in a Call the HTML was supplied.
type InputKind int

const (
	InputNone InputKind = iota
	InputPositional
	InputCleanedHTML
	InputInputHTML
)

// String returns the kind name used in logs.
func (k InputKind) String() string {
	switch k {
	case InputPositional:
		return "positional"
	case InputCleanedHTML:
		return ParamCleanedHTML
	case InputInputHTML:
		return ParamInputHTML
	default:
		return "none"
	}
}

func (k InputKind) param() string {
	switch k {
	case InputCleanedHTML:
		return ParamCleanedHTML
	case InputInputHTML:
		return ParamInputHTML
	}
	return ""
}

// Input is the HTML of a call tagged with its location.
type Input struct {
	Kind InputKind
	HTML string
}

// Positional tags html supplied as the first positional argument.
func Positional(html string) Input { return Input{Kind: InputPositional, HTML: html} }

// NamedCleaned tags html supplied as the cleaned_html parameter.
func NamedCleaned(html string) Input { return Input{Kind: InputCleanedHTML, HTML: html} }

// NamedInput tags html supplied as the input_html parameter.
func NamedInput(html string) Input { return Input{Kind: InputInputHTML, HTML: html} }

// NoInput is the Input of a call that carries no HTML.
func NoInput() Input { return Input{Kind: InputNone} }

// Found reports whether the input carries HTML.
func (in Input) Found() bool {
	return in.Kind != InputNone
}

// ExtractInput locates the HTML of a call. The first positional argument
// wins, then cleaned_html, then input_html. Presence decides, so an empty
// string in a recognized slot still counts as found.
func ExtractInput(call Call) Input {
	switch {
	case len(call.Args) > 0:
		return Positional(call.Args[0])
	case call.HasParam(ParamCleanedHTML):
		return NamedCleaned(call.Params[ParamCleanedHTML])
	case call.HasParam(ParamInputHTML):
		return NamedInput(call.Params[ParamInputHTML])
	default:
		return NoInput()
	}
}
