package template

import (
	"io"
)

// TemplateRenderer is the seam callers render through. Render accepts either
// a template name or template content; RenderTemplate always loads by name
// and RenderString always parses its argument. Every method returns the
// rendered text and also writes it to each writer in out.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
