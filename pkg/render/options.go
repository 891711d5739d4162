package render

import (
	"context"

	"github.com/goliatone/go-mustache/pkg/escape"
	"github.com/goliatone/go-mustache/pkg/partials"
)

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithStrict makes unresolved names and missing partials fail the render.
func WithStrict(strict bool) ContextOption {
	return func(c *Context) {
		c.strict = strict
	}
}

// WithEscaper sets the escaping hook for `{{name}}` tags.
func WithEscaper(fn escape.Func) ContextOption {
	return func(c *Context) {
		if fn != nil {
			c.escape = fn
		}
	}
}

// WithPartials sets the resolver consulted for `{{>name}}` tags.
func WithPartials(r partials.Resolver) ContextOption {
	return func(c *Context) {
		c.partials = r
	}
}

// WithFinder replaces the key lookup strategy.
func WithFinder(f Finder) ContextOption {
	return func(c *Context) {
		if f != nil {
			c.finder = f
		}
	}
}

// WithContext sets the context.Context handed to partial resolvers and checked
// for cancellation between nodes.
func WithContext(ctx context.Context) ContextOption {
	return func(c *Context) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
