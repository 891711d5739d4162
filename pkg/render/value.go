package render

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strconv"
)

// SectionFunc is a section lambda. It receives the raw, unrendered text of its
// section; the returned text is parsed with the section's delimiters and
// rendered against the current context.
type SectionFunc func(text string) string

// RenderFunc is a section lambda that renders on its own. render parses and
// renders text against the current context; the returned string is written
// as-is.
type RenderFunc func(text string, render func(string) (string, error)) (string, error)

// Sequence lets custom collections drive section iteration.
type Sequence interface {
	Len() int
	At(i int) any
}

type kind int

const (
	kindNil kind = iota
	kindBool
	kindCallable
	kindSequence
	kindMapping
	kindScalar
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func classify(v any) kind {
	switch v.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case string, []byte:
		return kindScalar
	case RenderFunc, SectionFunc:
		return kindCallable
	case Sequence, iter.Seq[any], func(func(any) bool):
		return kindSequence
	case Lookuper, Memberer:
		return kindMapping
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return kindNil
		}
		if isMapLike(v) {
			return kindMapping
		}
		return classify(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return kindNil
		}
		return kindMapping
	case reflect.Struct:
		return kindMapping
	case reflect.Slice:
		if rv.IsNil() {
			return kindNil
		}
		return kindSequence
	case reflect.Array:
		return kindSequence
	case reflect.Func:
		if rv.IsNil() {
			return kindNil
		}
		return kindCallable
	case reflect.Bool:
		return kindBool
	default:
		return kindScalar
	}
}

// isMapLike reports whether v can answer named lookups.
func isMapLike(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case Lookuper, Memberer:
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}

func isNil(v any) bool {
	return classify(v) == kindNil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}
	switch classify(v) {
	case kindNil:
		return false
	case kindBool:
		return reflect.Indirect(reflect.ValueOf(v)).Bool()
	default:
		return true
	}
}

// isEmpty drives inverted sections: nil, false, "" and zero-length
// collections are empty.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case Sequence:
		return x.Len() == 0
	case iter.Seq[any]:
		return seqEmpty(x)
	case func(func(any) bool):
		return seqEmpty(x)
	}

	switch classify(v) {
	case kindNil:
		return true
	case kindBool:
		return !truthy(v)
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return false
}

func seqEmpty(seq func(func(any) bool)) bool {
	empty := true
	seq(func(any) bool {
		empty = false
		return false
	})
	return empty
}

// each calls fn for every element of a sequence value.
func each(v any, fn func(i int, elem any) error) error {
	switch x := v.(type) {
	case Sequence:
		for i := 0; i < x.Len(); i++ {
			if err := fn(i, x.At(i)); err != nil {
				return err
			}
		}
		return nil
	case iter.Seq[any]:
		return eachSeq(x, fn)
	case func(func(any) bool):
		return eachSeq(x, fn)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		return fn(0, v)
	}
}

func eachSeq(seq func(func(any) bool), fn func(i int, elem any) error) error {
	var err error
	i := 0
	seq(func(elem any) bool {
		err = fn(i, elem)
		i++
		return err == nil
	})
	return err
}

// stringify is the default value-to-text conversion for interpolation.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

var errLambdaSignature = errors.New("unsupported lambda signature")

// invoke calls a callable context value. text is the raw section text, empty
// for variable tags. rendered reports that the callable already rendered its
// output and it must not be parsed again.
func invoke(fn any, text string, render func(string) (string, error)) (out string, rendered bool, err error) {
	switch f := fn.(type) {
	case RenderFunc:
		out, err = f(text, render)
		return out, true, err
	case func(string, func(string) (string, error)) (string, error):
		out, err = f(text, render)
		return out, true, err
	case SectionFunc:
		return f(text), false, nil
	case func(string) string:
		return f(text), false, nil
	case func() string:
		return f(), false, nil
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return "", false, errLambdaSignature
	}
	ft := rv.Type()

	var args []reflect.Value
	switch {
	case ft.NumIn() == 0:
	case ft.NumIn() == 1 && ft.In(0).Kind() == reflect.String:
		args = []reflect.Value{reflect.ValueOf(text).Convert(ft.In(0))}
	default:
		return "", false, fmt.Errorf("%w: %s", errLambdaSignature, ft)
	}

	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1).Implements(errorType):
	default:
		return "", false, fmt.Errorf("%w: %s", errLambdaSignature, ft)
	}

	results := rv.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		return "", false, results[1].Interface().(error)
	}
	return stringify(results[0].Interface()), false, nil
}
