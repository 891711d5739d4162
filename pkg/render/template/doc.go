// Package template defines the renderer-agnostic TemplateRenderer contract.
// The engine subpackage implements it with the Mustache renderer.
package template
