package partials

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores partial sources in memory. It is safe for concurrent use and
// satisfies Resolver.
type Registry struct {
	mu       sync.RWMutex
	partials map[string]string
}

// NewRegistry creates a registry seeded with the provided partials.
func NewRegistry(seed map[string]string) *Registry {
	r := &Registry{
		partials: make(map[string]string, len(seed)),
	}
	for name, src := range seed {
		r.partials[strings.TrimSpace(name)] = src
	}
	return r
}

// Register adds a partial. Duplicate names return an error; use Set to
// replace an existing entry.
func (r *Registry) Register(name, source string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("partials: partial name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.partials[name]; exists {
		return fmt.Errorf("partials: partial %q already registered", name)
	}
	r.partials[name] = source
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name, source string) {
	if err := r.Register(name, source); err != nil {
		panic(err)
	}
}

// Set adds or replaces a partial.
func (r *Registry) Set(name, source string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials[name] = source
}

// Get returns the source of a partial.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.partials[name]
	return src, ok
}

// Resolve satisfies Resolver.
func (r *Registry) Resolve(_ context.Context, name string) (string, error) {
	if r == nil {
		return "", NotFound(name)
	}
	src, ok := r.Get(name)
	if !ok {
		return "", NotFound(name)
	}
	return src, nil
}

// List returns the registered partial names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.partials))
	for name := range r.partials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a partial is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}
