// Package parse turns Mustache template source into an immutable token tree.
//
// The scanner walks the source with a mutable delimiter pair (`{{`/`}}` by
// default, changed with `{{=<% %>=}}`), classifies each tag by its sigil and
// builds a tree of Static, Multi, Variable, Section and Partial nodes. Comment
// and delimiter-change tags leave no node behind. Section tags are balanced at
// parse time; a mismatch is reported as a *SyntaxError carrying the line,
// column and offending source line.
//
// Tags that sit alone on their line (sections, inverted sections, closing
// tags, partials, comments and delimiter changes) consume the line's
// surrounding whitespace and trailing newline so they do not leave blank lines
// in the rendered output.
//
// Trees are never mutated after Parse returns and can be rendered concurrently.
package parse
