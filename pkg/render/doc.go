// Package render walks parsed Mustache trees against a Context.
//
// A Context is a stack of frames. Names are resolved against the frames from
// the top down, so a section body sees the values of every enclosing section
// and of the view. Values are classified at render time:
//
//   - nil and false render nothing in sections. They are empty for inverted
//     sections, as are empty strings and zero-length collections; an empty
//     string or map still renders a positive section once.
//   - slices, arrays, Sequence values and iter.Seq[any] iterate.
//   - maps, structs and values implementing Lookuper or Memberer are pushed
//     as a single frame.
//   - functions are lambdas: variable tags call them without arguments,
//     section tags pass the raw section text. Their result is rendered as a
//     template against the current context.
//
// Unresolved names render as empty text unless the Context is strict, in
// which case rendering fails with a *ContextMiss.
package render
