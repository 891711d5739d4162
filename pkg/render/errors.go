package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContextMiss matches every *ContextMiss via errors.Is.
	ErrContextMiss = errors.New("mustache: context miss")
	// ErrSectionType matches every *SectionTypeError via errors.Is.
	ErrSectionType = errors.New("mustache: section type error")
)

// ContextMiss is returned in strict mode when a tag cannot be resolved against
// any frame, or when a partial cannot be found.
type ContextMiss struct {
	// Path is the dotted name that failed to resolve. For partials it holds
	// the partial name.
	Path    []string
	Partial bool
	// Err carries the resolver error for partial misses.
	Err error
}

func (e *ContextMiss) Error() string {
	if e.Partial {
		return fmt.Sprintf("mustache: can't find partial %q", strings.Join(e.Path, "."))
	}
	return fmt.Sprintf("mustache: can't find %q in context", joinPath(e.Path))
}

// Is reports ErrContextMiss as a match.
func (e *ContextMiss) Is(target error) bool {
	return target == ErrContextMiss
}

// Unwrap exposes the resolver error of a partial miss.
func (e *ContextMiss) Unwrap() error {
	return e.Err
}

// SectionTypeError is returned when a section iterates a sequence whose
// element is not map-like but the section body looks up a name that only such
// an element could provide.
type SectionTypeError struct {
	Section string
	Index   int
	Key     string
	Value   any
}

func (e *SectionTypeError) Error() string {
	return fmt.Sprintf("mustache: all elements in {{#%s}} must be maps or structs; element %d (%T) has no %q",
		e.Section, e.Index, e.Value, e.Key)
}

// Is reports ErrSectionType as a match.
func (e *SectionTypeError) Is(target error) bool {
	return target == ErrSectionType
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, ".")
}
