// Package escape provides the escaping hooks applied to `{{name}}` tags.
package escape

import (
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Func converts an interpolated value into output-safe text.
type Func func(string) string

// Names accepted by Lookup.
const (
	ModeHTML     = "html"
	ModeNone     = "none"
	ModeSanitize = "sanitize"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// HTML replaces &, <, >, " and ' with their entity equivalents.
func HTML(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}
	return htmlReplacer.Replace(s)
}

// None returns s unchanged. Use it for non-HTML output such as config files or
// source code.
func None(s string) string {
	return s
}

var (
	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

// Sanitize keeps user-generated markup that bluemonday's UGC policy considers
// safe and strips the rest. Text without markup comes back HTML-escaped.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugcPolicy().Sanitize(s)
}

// Policy builds a Func from a caller-supplied bluemonday policy. A nil policy
// falls back to the strict policy, which strips all markup.
func Policy(policy *bluemonday.Policy) Func {
	if policy == nil {
		policy = bluemonday.StrictPolicy()
	}
	return func(s string) string {
		if s == "" {
			return ""
		}
		return policy.Sanitize(s)
	}
}

// Lookup maps a configuration name onto a Func. The empty name selects HTML.
func Lookup(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ModeHTML:
		return HTML, nil
	case ModeNone, "raw", "text":
		return None, nil
	case ModeSanitize, "ugc":
		return Sanitize, nil
	default:
		return nil, fmt.Errorf("escape: unknown mode %q", name)
	}
}

func ugcPolicy() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy
}
