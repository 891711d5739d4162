package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-mustache/pkg/cache"
	"github.com/goliatone/go-mustache/pkg/parse"
)

// Compiler turns template source into a parsed tree. *cache.Cache satisfies
// it; lambda results and partials are compiled through it.
type Compiler interface {
	GetWithDelims(source string, delims parse.Delims) (*parse.Template, error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCompiler sets the compiler used for partials and lambda output.
func WithCompiler(c Compiler) Option {
	return func(r *Renderer) {
		if c != nil {
			r.compiler = c
		}
	}
}

// WithDelims sets the delimiters that partials, variable lambda output and
// RenderString sources start with. Section lambda output keeps the delimiters
// active at its section.
func WithDelims(delims parse.Delims) Option {
	return func(r *Renderer) {
		r.delims = delims.OrDefault()
	}
}

// Renderer walks parsed trees. It holds no per-render state and is safe for
// concurrent use; each render needs its own Context.
type Renderer struct {
	compiler Compiler
	delims   parse.Delims
}

// New creates a Renderer backed by cache.Default unless WithCompiler is given.
func New(opts ...Option) *Renderer {
	r := &Renderer{compiler: cache.Default, delims: parse.DefaultDelims}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var std = New()

// Render renders node against c with the package renderer.
func Render(node parse.Node, c *Context) (string, error) {
	return std.Render(node, c)
}

// RenderString parses source through cache.Default and renders it against
// data.
func RenderString(source string, data any, opts ...ContextOption) (string, error) {
	return std.RenderString(source, data, opts...)
}

// Render renders node against c. On failure the partial output is discarded
// and "" is returned with the error.
func (r *Renderer) Render(node parse.Node, c *Context) (string, error) {
	if node == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := r.walk(&sb, node, c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Execute renders node against c and writes the result to w. Nothing is
// written when rendering fails.
func (r *Renderer) Execute(w io.Writer, node parse.Node, c *Context) error {
	out, err := r.Render(node, c)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderString compiles source and renders it against data.
func (r *Renderer) RenderString(source string, data any, opts ...ContextOption) (string, error) {
	tmpl, err := r.compiler.GetWithDelims(source, r.delims)
	if err != nil {
		return "", err
	}
	return r.Render(tmpl.Root, NewContext(data, opts...))
}

func (r *Renderer) walk(sb *strings.Builder, node parse.Node, c *Context) error {
	switch n := node.(type) {
	case *parse.StaticNode:
		sb.WriteString(n.Text)
		return nil
	case *parse.MultiNode:
		if err := c.ctx.Err(); err != nil {
			return err
		}
		for _, child := range n.Nodes {
			if err := r.walk(sb, child, c); err != nil {
				return err
			}
		}
		return nil
	case *parse.VariableNode:
		return r.variable(sb, n, c)
	case *parse.SectionNode:
		return r.section(sb, n, c)
	case *parse.PartialNode:
		return r.partial(sb, n, c)
	default:
		return fmt.Errorf("mustache: unknown node %T", node)
	}
}

func (r *Renderer) variable(sb *strings.Builder, n *parse.VariableNode, c *Context) error {
	v, err := c.Resolve(n.Path)
	if err != nil {
		return err
	}

	var text string
	if classify(v) == kindCallable {
		text, err = r.call(v, "", r.delims, c.Copy())
		if err != nil {
			return fmt.Errorf("mustache: lambda {{%s}}: %w", n.Name(), err)
		}
	} else {
		text = stringify(v)
	}

	if n.Escape {
		text = c.Escape(text)
	}
	sb.WriteString(text)
	return nil
}

func (r *Renderer) section(sb *strings.Builder, n *parse.SectionNode, c *Context) error {
	v, err := c.Resolve(n.Path)
	if err != nil {
		return err
	}

	if n.Inverted {
		if isEmpty(v) {
			return r.walk(sb, n.Body, c)
		}
		return nil
	}

	switch classify(v) {
	case kindNil:
		return nil
	case kindBool:
		if truthy(v) {
			return r.walk(sb, n.Body, c)
		}
		return nil
	case kindCallable:
		out, err := r.call(v, n.Raw, n.Delims, c.Copy())
		if err != nil {
			return fmt.Errorf("mustache: lambda {{#%s}}: %w", n.Name(), err)
		}
		sb.WriteString(out)
		return nil
	case kindSequence:
		name := n.Name()
		return each(v, func(i int, elem any) error {
			c.pushElement(elem, name, i)
			defer c.Pop()
			return r.walk(sb, n.Body, c)
		})
	default:
		c.Push(v)
		defer c.Pop()
		return r.walk(sb, n.Body, c)
	}
}

// call invokes a lambda and renders its result against c unless the lambda
// rendered it already.
func (r *Renderer) call(fn any, text string, delims parse.Delims, c *Context) (string, error) {
	renderText := func(src string) (string, error) {
		return r.renderSource(src, delims, c)
	}
	out, rendered, err := invoke(fn, text, renderText)
	if err != nil || rendered {
		return out, err
	}
	return renderText(out)
}

func (r *Renderer) renderSource(src string, delims parse.Delims, c *Context) (string, error) {
	if src == "" {
		return "", nil
	}
	tmpl, err := r.compiler.GetWithDelims(src, delims)
	if err != nil {
		return "", err
	}
	return r.Render(tmpl.Root, c)
}

func (r *Renderer) partial(sb *strings.Builder, n *parse.PartialNode, c *Context) error {
	src, err := c.Partial(n.Name)
	if err != nil {
		return err
	}
	if src == "" {
		return nil
	}

	tmpl, err := r.compiler.GetWithDelims(src, r.delims)
	if err != nil {
		return fmt.Errorf("mustache: partial %q: %w", n.Name, err)
	}
	if n.Indent == "" {
		return r.walk(sb, tmpl.Root, c)
	}

	var inner strings.Builder
	if err := r.walk(&inner, tmpl.Root, c); err != nil {
		return err
	}
	sb.WriteString(indentLines(inner.String(), n.Indent))
	return nil
}

// indentLines prefixes indent to every line of s. A trailing newline does not
// start a new line.
func indentLines(s, indent string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(s) + len(indent)*(strings.Count(s, "\n")+1))
	sb.WriteString(indent)
	for i := 0; i < len(s); i++ {
		sb.WriteByte(s[i])
		if s[i] == '\n' && i < len(s)-1 {
			sb.WriteString(indent)
		}
	}
	return sb.String()
}
