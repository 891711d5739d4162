// Package prompt asks for the top-level values a template references but a
// data map does not provide.
package prompt

import (
	"context"
	"fmt"

	"github.com/goliatone/go-mustache/pkg/parse"
)

// Kind tells how a missing value is asked for.
type Kind int

const (
	// KindText is a variable tag, answered with a string.
	KindText Kind = iota
	// KindToggle is a section tag, answered with a bool.
	KindToggle
)

// Field is a top-level name the template reads.
type Field struct {
	Name string
	Kind Kind
}

// Missing lists the top-level fields of tmpl that data lacks, in source
// order. Only tags outside any section are considered; names inside a
// section resolve against the section value first, and dotted tags are left
// to the data.
func Missing(tmpl *parse.Template, data map[string]any) []Field {
	if tmpl == nil || tmpl.Root == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []Field
	add := func(name string, kind Kind) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		if _, ok := data[name]; ok {
			return
		}
		out = append(out, Field{Name: name, Kind: kind})
	}

	for _, node := range tmpl.Root.Nodes {
		switch n := node.(type) {
		case *parse.VariableNode:
			if len(n.Path) == 1 {
				add(n.Path[0], KindText)
			}
		case *parse.SectionNode:
			if len(n.Path) == 1 {
				add(n.Path[0], KindToggle)
			}
		}
	}
	return out
}

// Fill asks d for every field Missing reports and returns a copy of data
// with the answers added. data itself is not modified.
func Fill(ctx context.Context, d Driver, tmpl *parse.Template, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	for _, field := range Missing(tmpl, data) {
		switch field.Kind {
		case KindToggle:
			ok, err := d.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Render section %q?", field.Name),
			})
			if err != nil {
				return nil, fmt.Errorf("prompt: %s: %w", field.Name, err)
			}
			out[field.Name] = ok
		default:
			val, err := d.Input(ctx, InputConfig{
				Message: field.Name,
				Help:    fmt.Sprintf("value for {{%s}}", field.Name),
			})
			if err != nil {
				return nil, fmt.Errorf("prompt: %s: %w", field.Name, err)
			}
			out[field.Name] = val
		}
	}
	return out, nil
}
