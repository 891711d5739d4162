// Package partials resolves `{{>name}}` references to raw template source.
//
// Resolvers return the unparsed text; parsing and caching happen in the
// caller. A missing partial is reported with an error wrapping ErrNotFound so
// the renderer can apply its miss policy (empty text by default, a failure in
// strict mode).
package partials

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every resolver when a partial does not exist.
var ErrNotFound = errors.New("partials: not found")

// Resolver returns the raw source of the named partial.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// NotFound returns an error for name that wraps ErrNotFound.
func NotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Chain consults resolvers in order and returns the first hit. Errors other
// than ErrNotFound stop the search.
func Chain(resolvers ...Resolver) Resolver {
	list := make([]Resolver, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			list = append(list, r)
		}
	}
	return chain(list)
}

type chain []Resolver

func (c chain) Resolve(ctx context.Context, name string) (string, error) {
	for _, r := range c {
		src, err := r.Resolve(ctx, name)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", NotFound(name)
}
