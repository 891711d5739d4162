// Package config holds the settings an engine is built from.
//
// A Config is a plain value. Deriving one configuration from another copies
// it; nothing is shared or looked up at render time.
package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mustache/pkg/escape"
	"github.com/goliatone/go-mustache/pkg/parse"
)

// DefaultExtension is appended to partial names without an extension.
const DefaultExtension = ".mustache"

// Config describes where templates live and how they render.
type Config struct {
	// TemplatePaths are searched in order for templates and partials.
	TemplatePaths []string `json:"templatePaths" yaml:"templatePaths"`
	// Extension is appended to names without one. It always starts with ".".
	Extension string `json:"extension" yaml:"extension"`
	// Strict makes unresolved names and missing partials fail the render.
	Strict bool `json:"strict" yaml:"strict"`
	// Escape selects the escaping hook: "html" (default), "none" or
	// "sanitize".
	Escape string `json:"escape" yaml:"escape"`
	// Delims are the starting delimiters, e.g. ["<%", "%>"].
	Delims [2]string `json:"delims" yaml:"delims"`
	// Partials are inline partial sources keyed by name.
	Partials map[string]string `json:"partials" yaml:"partials"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		TemplatePaths: []string{"."},
		Extension:     DefaultExtension,
		Escape:        escape.ModeHTML,
	}
}

// Load reads a JSON or YAML configuration file and merges it onto Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS is like Load but reads from fsys.
func LoadFS(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes data as JSON, falling back to YAML, and merges the result onto
// Default. source names the input in error messages.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}

	var parsed Config
	if err := json.Unmarshal(data, &parsed); err != nil {
		parsed = Config{}
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML", source)
		}
	}

	cfg := Default().Merge(parsed)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return cfg, nil
}

// Merge returns a copy of c with the settings of child layered on top. Empty
// child fields inherit the value of c; Strict is kept once either side sets
// it; child partials override same-named partials of c.
func (c Config) Merge(child Config) Config {
	out := c.Clone()
	if len(child.TemplatePaths) > 0 {
		out.TemplatePaths = append([]string(nil), child.TemplatePaths...)
	}
	if ext := normalizeExtension(child.Extension); ext != "" {
		out.Extension = ext
	}
	if child.Strict {
		out.Strict = true
	}
	if strings.TrimSpace(child.Escape) != "" {
		out.Escape = strings.ToLower(strings.TrimSpace(child.Escape))
	}
	if child.Delims != [2]string{} {
		out.Delims = child.Delims
	}
	if len(child.Partials) > 0 {
		if out.Partials == nil {
			out.Partials = make(map[string]string, len(child.Partials))
		}
		for name, src := range child.Partials {
			out.Partials[strings.TrimSpace(name)] = src
		}
	}
	return out
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.TemplatePaths = append([]string(nil), c.TemplatePaths...)
	if c.Partials != nil {
		out.Partials = make(map[string]string, len(c.Partials))
		for name, src := range c.Partials {
			out.Partials[name] = src
		}
	}
	return out
}

// Validate reports settings that cannot be used to build an engine.
func (c Config) Validate() error {
	if _, err := escape.Lookup(c.Escape); err != nil {
		return err
	}
	openDelim, closeDelim := c.Delims[0], c.Delims[1]
	if (openDelim == "") != (closeDelim == "") {
		return fmt.Errorf("delims must set both open and close, got %q %q", openDelim, closeDelim)
	}
	if strings.ContainsAny(openDelim+closeDelim, " \t\r\n=") {
		return fmt.Errorf("delims must not contain whitespace or '=', got %q %q", openDelim, closeDelim)
	}
	return nil
}

// Delimiters returns the starting delimiters, falling back to `{{ }}`.
func (c Config) Delimiters() parse.Delims {
	return parse.Delims{Open: c.Delims[0], Close: c.Delims[1]}.OrDefault()
}

// Escaper returns the escaping hook selected by Escape.
func (c Config) Escaper() (escape.Func, error) {
	return escape.Lookup(c.Escape)
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, ".") {
		trimmed = "." + trimmed
	}
	return trimmed
}
