// Package mustache renders logic-less Mustache templates.
//
// The quick path parses and renders in one call:
//
//	out, err := mustache.Render("Hello {{name}}!", map[string]any{"name": "Ada"})
//
// Parsed templates are cached process-wide by source. For named templates,
// partial directories, global data and logging, build an Engine with New.
package mustache

import (
	"errors"

	"github.com/goliatone/go-mustache/pkg/cache"
	"github.com/goliatone/go-mustache/pkg/parse"
	"github.com/goliatone/go-mustache/pkg/partials"
	"github.com/goliatone/go-mustache/pkg/render"
	"github.com/goliatone/go-mustache/pkg/render/template/engine"
)

// Template is a parsed template; alias exported via the root package for
// convenience.
type Template = parse.Template

// Delims is an opening/closing delimiter pair.
type Delims = parse.Delims

// Context is the render-time lookup stack.
type Context = render.Context

// ContextOption configures a Context.
type ContextOption = render.ContextOption

// SectionFunc is a section lambda receiving the raw section text.
type SectionFunc = render.SectionFunc

// RenderFunc is a section lambda that can render text against the current
// context itself.
type RenderFunc = render.RenderFunc

// Resolver supplies partial source by name.
type Resolver = partials.Resolver

// Engine renders named templates with its own cache, partial search path and
// global data.
type Engine = engine.Engine

// Option configures an Engine.
type Option = engine.Option

// New constructs an Engine.
func New(opts ...Option) (*Engine, error) {
	return engine.New(opts...)
}

// Render parses source through the shared cache and renders it against data.
func Render(source string, data any, opts ...ContextOption) (string, error) {
	return render.RenderString(source, data, opts...)
}

// RenderTemplate renders an already parsed template against data.
func RenderTemplate(tmpl *Template, data any, opts ...ContextOption) (string, error) {
	if tmpl == nil {
		return "", errors.New("mustache: template is nil")
	}
	return render.Render(tmpl.Root, render.NewContext(data, opts...))
}

// Compile parses source through the shared cache. Identical sources return
// the same *Template.
func Compile(source string) (*Template, error) {
	return cache.Default.Get(source)
}

// MustCompile is like Compile but panics on a parse error.
func MustCompile(source string) *Template {
	tmpl, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// WithStrict makes unresolved names and missing partials fail the render.
func WithStrict(strict bool) ContextOption {
	return render.WithStrict(strict)
}

// WithPartials sets where {{>name}} tags load their source from.
func WithPartials(r Resolver) ContextOption {
	return render.WithPartials(r)
}

// Partials returns a Resolver over an in-memory name to source map.
func Partials(sources map[string]string) Resolver {
	return partials.NewRegistry(sources)
}
