package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax matches every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("mustache: syntax error")

// SyntaxError reports unclosed tags and sections, mismatched closing tags and
// illegal tag content. Line and Column are 1-based; Column points at the last
// character consumed before the error. LineText is the full source line.
type SyntaxError struct {
	Message  string
	Line     int
	Column   int
	LineText string
}

// Error renders the message followed by the stripped source line and a caret
// under the offending column.
func (e *SyntaxError) Error() string {
	stripped := strings.TrimSpace(e.LineText)
	leading := len(e.LineText) - len(strings.TrimLeft(e.LineText, " \t\r\n"))
	caret := e.Column - 1 - leading
	if caret < 0 {
		caret = 0
	}

	var sb strings.Builder
	sb.WriteString(e.Message)
	fmt.Fprintf(&sb, "\n  Line %d\n", e.Line)
	sb.WriteString("    ")
	sb.WriteString(stripped)
	sb.WriteString("\n    ")
	sb.WriteString(strings.Repeat(" ", caret))
	sb.WriteString("^\n")
	return sb.String()
}

// Is reports ErrSyntax as a match so callers can test the error kind without
// a type assertion.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func newSyntaxError(src string, pos int, message string) *SyntaxError {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	lineStart := strings.LastIndexByte(src[:pos], '\n') + 1
	lineEnd := strings.IndexByte(src[pos:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += pos
	}
	return &SyntaxError{
		Message:  message,
		Line:     strings.Count(src[:pos], "\n") + 1,
		Column:   pos - lineStart,
		LineText: strings.TrimSuffix(src[lineStart:lineEnd], "\r"),
	}
}
