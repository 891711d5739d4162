package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-mustache/pkg/escape"
	"github.com/goliatone/go-mustache/pkg/partials"
)

// PartialProvider lets a view supply partial sources itself. The first frame
// on the stack that implements it takes precedence over the configured
// resolver.
type PartialProvider interface {
	Partial(name string) (string, error)
}

// EscapeProvider lets a view override escaping for the values it renders.
type EscapeProvider interface {
	Escape(s string) string
}

type frame struct {
	value any
	// section and index are set for frames pushed while iterating a sequence.
	section string
	index   int
	element bool
}

// Context is the lookup stack used while rendering. Frame 0 holds the view and
// is never popped. A Context belongs to a single render and must not be shared
// between goroutines.
type Context struct {
	frames   []frame
	finder   Finder
	partials partials.Resolver
	escape   escape.Func
	strict   bool
	ctx      context.Context
}

// NewContext creates a Context whose bottom frame is view.
func NewContext(view any, opts ...ContextOption) *Context {
	c := &Context{
		frames: []frame{{value: view}},
		finder: DefaultFinder,
		escape: escape.HTML,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Push adds v on top of the stack.
func (c *Context) Push(v any) {
	c.frames = append(c.frames, frame{value: v})
}

func (c *Context) pushElement(v any, section string, index int) {
	c.frames = append(c.frames, frame{value: v, section: section, index: index, element: true})
}

// Pop removes and returns the top frame. The view frame is never removed.
func (c *Context) Pop() any {
	if len(c.frames) <= 1 {
		return nil
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return top.value
}

// Current returns the top frame.
func (c *Context) Current() any {
	return c.frames[len(c.frames)-1].value
}

// View returns the bottom frame.
func (c *Context) View() any {
	return c.frames[0].value
}

// Depth returns the number of frames, including the view.
func (c *Context) Depth() int {
	return len(c.frames)
}

// Strict reports whether misses fail the render.
func (c *Context) Strict() bool {
	return c.strict
}

// Context returns the context.Context of the render.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Copy returns a Context with the same frames and settings. Pushes on the copy
// do not affect c.
func (c *Context) Copy() *Context {
	cp := *c
	cp.frames = make([]frame, len(c.frames))
	copy(cp.frames, c.frames)
	return &cp
}

// Find looks key up on obj with the configured finder. Errors raised by the
// value count as a miss.
func (c *Context) Find(obj any, key string) (any, bool) {
	v, ok, err := c.finder.Find(obj, key)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// Resolve looks a dotted path up. The first segment is searched on every frame
// from the top down; the remaining segments are looked up on the previous
// result. An empty path returns the top frame.
//
// A miss yields nil in permissive mode and a *ContextMiss in strict mode. A
// nil value part way through the path resolves to nil without error.
func (c *Context) Resolve(path []string) (any, error) {
	if len(path) == 0 {
		return c.Current(), nil
	}

	value, found, err := c.resolveFirst(path[0])
	if err != nil {
		return nil, err
	}
	if !found {
		if err := c.checkElements(path[0]); err != nil {
			return nil, err
		}
		return c.miss(path)
	}

	for _, key := range path[1:] {
		if isNil(value) {
			return nil, nil
		}
		v, ok, err := c.finder.Find(value, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return c.miss(path)
		}
		value = v
	}
	return value, nil
}

func (c *Context) resolveFirst(key string) (any, bool, error) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		obj := c.frames[i].value
		if obj == nil {
			continue
		}
		if ctx, ok := obj.(*Context); ok && ctx == c {
			continue
		}
		v, ok, err := c.finder.Find(obj, key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// checkElements reports a *SectionTypeError when the nearest frame pushed for
// a sequence element cannot answer named lookups.
func (c *Context) checkElements(key string) error {
	for i := len(c.frames) - 1; i >= 0; i-- {
		f := c.frames[i]
		if !f.element {
			continue
		}
		if isMapLike(f.value) {
			return nil
		}
		return &SectionTypeError{Section: f.section, Index: f.index, Key: key, Value: f.value}
	}
	return nil
}

func (c *Context) miss(path []string) (any, error) {
	if c.strict {
		return nil, &ContextMiss{Path: append([]string(nil), path...)}
	}
	return nil, nil
}

// Partial returns the raw source of the named partial. A view frame
// implementing PartialProvider is consulted first, then the configured
// resolver. A missing partial yields "" in permissive mode and a *ContextMiss
// wrapping partials.ErrNotFound in strict mode.
func (c *Context) Partial(name string) (string, error) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if p, ok := c.frames[i].value.(PartialProvider); ok {
			src, err := p.Partial(name)
			return c.partialResult(name, src, err)
		}
	}
	if c.partials == nil {
		return c.partialResult(name, "", partials.NotFound(name))
	}
	src, err := c.partials.Resolve(c.ctx, name)
	return c.partialResult(name, src, err)
}

func (c *Context) partialResult(name, src string, err error) (string, error) {
	switch {
	case err == nil:
		return src, nil
	case errors.Is(err, partials.ErrNotFound):
		if c.strict {
			return "", &ContextMiss{Path: []string{name}, Partial: true, Err: err}
		}
		return "", nil
	default:
		return "", fmt.Errorf("mustache: partial %q: %w", name, err)
	}
}

// Escape applies the escaping hook. A frame implementing EscapeProvider wins
// over the configured function.
func (c *Context) Escape(s string) string {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if e, ok := c.frames[i].value.(EscapeProvider); ok {
			return e.Escape(s)
		}
	}
	return c.escape(s)
}
