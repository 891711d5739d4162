package partials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// DefaultExtension is appended to partial names that do not already end with it.
const DefaultExtension = ".mustache"

// FSOption configures an FS resolver.
type FSOption func(*FS)

// WithExtension overrides the file extension used when looking up partials.
func WithExtension(ext string) FSOption {
	return func(r *FS) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		r.extension = trimmed
	}
}

// WithPaths sets the directories, relative to the filesystem root, that are
// searched in order.
func WithPaths(paths ...string) FSOption {
	return func(r *FS) {
		cleaned := make([]string, 0, len(paths))
		for _, p := range paths {
			p = strings.Trim(strings.TrimSpace(p), "/")
			if p == "" {
				p = "."
			}
			cleaned = append(cleaned, path.Clean(p))
		}
		if len(cleaned) > 0 {
			r.paths = cleaned
		}
	}
}

// FS resolves partials from an fs.FS. A partial named `user/card` is looked
// up as `<path>/user/card.mustache` in each search path.
type FS struct {
	fsys      fs.FS
	paths     []string
	extension string
}

// NewFS builds a resolver over fsys.
func NewFS(fsys fs.FS, options ...FSOption) *FS {
	r := &FS{
		fsys:      fsys,
		paths:     []string{"."},
		extension: DefaultExtension,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// NewDir builds a resolver over a directory on disk.
func NewDir(dir string, options ...FSOption) *FS {
	return NewFS(os.DirFS(dir), options...)
}

// Extension returns the configured file extension.
func (r *FS) Extension() string {
	return r.extension
}

// Resolve satisfies Resolver.
func (r *FS) Resolve(_ context.Context, name string) (string, error) {
	if r == nil || r.fsys == nil {
		return "", NotFound(name)
	}
	files := r.fileNames(strings.TrimSpace(name))

	for _, dir := range r.paths {
		for _, file := range files {
			candidate := path.Join(dir, file)
			if !fs.ValidPath(candidate) {
				return "", fmt.Errorf("%w: invalid path %q", NotFound(name), candidate)
			}
			data, err := fs.ReadFile(r.fsys, candidate)
			if err == nil {
				return string(data), nil
			}
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("partials: read %s: %w", candidate, err)
		}
	}
	return "", NotFound(name)
}

// fileNames lists the file names tried for a partial name. The extension is
// appended unless the name already carries it; a name with some other
// extension is also tried as written.
func (r *FS) fileNames(name string) []string {
	if strings.HasSuffix(name, r.extension) {
		return []string{name}
	}
	names := []string{name + r.extension}
	if path.Ext(name) != "" {
		names = append(names, name)
	}
	return names
}
