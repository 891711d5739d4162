package render

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lookuper is implemented by mapping-like values.
type Lookuper interface {
	Lookup(key string) (any, bool)
}

// Memberer is implemented by member-like values that expose named
// zero-argument members, e.g. views whose members are computed.
type Memberer interface {
	Member(name string) (any, bool)
}

// Finder resolves a single key against a value. Implementations report a miss
// with ok=false; err is reserved for failures raised by the value itself.
type Finder interface {
	Find(obj any, key string) (value any, ok bool, err error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(obj any, key string) (any, bool, error)

// Find calls f.
func (f FinderFunc) Find(obj any, key string) (any, bool, error) {
	return f(obj, key)
}

// DefaultFinder resolves keys against maps, structs, Lookuper and Memberer
// values.
//
// Struct lookups try, in order: a field whose `mustache` tag equals the key,
// then fields and zero-argument methods named after the key as written, with
// its first letter upper-cased, and camel-cased (`first_name` and
// `first-name` become FirstName; trailing `?` and `!` are dropped). Methods
// with a single string parameter are returned unevaluated as lambdas.
var DefaultFinder Finder = FinderFunc(find)

const tagName = "mustache"

var initialisms = map[string]string{
	"api": "API", "css": "CSS", "html": "HTML", "http": "HTTP", "id": "ID",
	"ip": "IP", "json": "JSON", "sql": "SQL", "uri": "URI", "url": "URL",
	"uuid": "UUID", "xml": "XML",
}

func find(obj any, key string) (any, bool, error) {
	switch o := obj.(type) {
	case nil:
		return nil, false, nil
	case map[string]any:
		v, ok := o[key]
		return v, ok, nil
	case map[string]string:
		v, ok := o[key]
		return v, ok, nil
	case Lookuper:
		v, ok := o.Lookup(key)
		return v, ok, nil
	case Memberer:
		if v, ok := o.Member(key); ok {
			return v, true, nil
		}
		if strings.Contains(key, "-") {
			v, ok := o.Member(strings.ReplaceAll(key, "-", "_"))
			return v, ok, nil
		}
		return nil, false, nil
	}

	rv := reflect.ValueOf(obj)
	outer := rv
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		v, ok := findMapKey(rv, key)
		return v, ok, nil
	case reflect.Struct:
		return findMember(outer, rv, key)
	default:
		return findMethod(outer, key)
	}
}

func findMapKey(m reflect.Value, key string) (any, bool) {
	keyType := m.Type().Key()
	kv := reflect.ValueOf(key)
	switch {
	case keyType.Kind() == reflect.String:
		if v := m.MapIndex(kv.Convert(keyType)); v.IsValid() {
			return v.Interface(), true
		}
		return nil, false
	case kv.Type().AssignableTo(keyType):
		if v := m.MapIndex(kv); v.IsValid() {
			return v.Interface(), true
		}
	}

	// Fall back to the string form of non-string keys.
	iter := m.MapRange()
	for iter.Next() {
		if fmt.Sprint(iter.Key().Interface()) == key {
			return iter.Value().Interface(), true
		}
	}
	return nil, false
}

func findMember(outer, rv reflect.Value, key string) (any, bool, error) {
	if v, ok := findTaggedField(rv, key); ok {
		return v, true, nil
	}
	for _, name := range memberNames(key) {
		if v, ok, err := callMethod(outer, name); ok || err != nil {
			return v, ok, err
		}
		if v, ok := field(rv, name); ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

func findMethod(outer reflect.Value, key string) (any, bool, error) {
	for _, name := range memberNames(key) {
		if v, ok, err := callMethod(outer, name); ok || err != nil {
			return v, ok, err
		}
	}
	return nil, false, nil
}

// callMethod invokes a zero-argument method or returns a one-string-argument
// method unevaluated.
func callMethod(v reflect.Value, name string) (any, bool, error) {
	if !v.IsValid() || !isExported(name) {
		return nil, false, nil
	}
	m := v.MethodByName(name)
	if !m.IsValid() && v.Kind() != reflect.Pointer && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		return nil, false, nil
	}

	mt := m.Type()
	switch {
	case mt.NumIn() == 1 && mt.In(0).Kind() == reflect.String && !mt.IsVariadic():
		return m.Interface(), true, nil
	case mt.NumIn() != 0:
		return nil, false, nil
	}

	switch mt.NumOut() {
	case 1:
		return m.Call(nil)[0].Interface(), true, nil
	case 2:
		if !mt.Out(1).Implements(errorType) {
			return nil, false, nil
		}
		out := m.Call(nil)
		if !out[1].IsNil() {
			return nil, false, fmt.Errorf("mustache: %s: %w", name, out[1].Interface().(error))
		}
		return out[0].Interface(), true, nil
	default:
		return nil, false, nil
	}
}

func field(rv reflect.Value, name string) (any, bool) {
	sf, ok := rv.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return nil, false
	}
	fv, err := rv.FieldByIndexErr(sf.Index)
	if err != nil || !fv.CanInterface() {
		return nil, false
	}
	return fv.Interface(), true
}

func findTaggedField(rv reflect.Value, key string) (any, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get(tagName), ",")
		if tag == "" || tag != key {
			continue
		}
		return rv.Field(i).Interface(), true
	}
	return nil, false
}

// memberNames lists the Go identifiers a template key may refer to.
func memberNames(key string) []string {
	names := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	trimmed := strings.TrimRight(key, "?!")
	add(key)
	add(upperFirst(trimmed))
	add(camelize(trimmed, false))
	add(camelize(trimmed, true))
	return names
}

func camelize(key string, useInitialisms bool) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var sb strings.Builder
	for _, part := range parts {
		if useInitialisms {
			if upper, ok := initialisms[strings.ToLower(part)]; ok {
				sb.WriteString(upper)
				continue
			}
		}
		sb.WriteString(upperFirst(part))
	}
	return sb.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
