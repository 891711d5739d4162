package render

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContext_PushPopNeverDropsView(t *testing.T) {
	c := NewContext("view")
	c.Push("a")
	c.Push("b")
	if got := c.Pop(); got != "b" {
		t.Fatalf("pop = %v", got)
	}
	if got := c.Pop(); got != "a" {
		t.Fatalf("pop = %v", got)
	}
	if got := c.Pop(); got != nil {
		t.Fatalf("view frame popped: %v", got)
	}
	if c.Current() != "view" || c.View() != "view" || c.Depth() != 1 {
		t.Fatalf("unexpected stack state current=%v depth=%d", c.Current(), c.Depth())
	}
}

func TestContext_CopyIsIndependent(t *testing.T) {
	c := NewContext(map[string]any{"x": 1}, WithStrict(true))
	c.Push(map[string]any{"x": 2})

	cp := c.Copy()
	cp.Push(map[string]any{"x": 3})
	if c.Depth() != 2 || cp.Depth() != 3 {
		t.Fatalf("copy shares frames: %d %d", c.Depth(), cp.Depth())
	}
	if !cp.Strict() {
		t.Fatalf("copy lost settings")
	}
	v, err := c.Resolve([]string{"x"})
	if err != nil || v != 2 {
		t.Fatalf("resolve on original = %v, %v", v, err)
	}
}

func TestContext_ResolveScansTopDown(t *testing.T) {
	c := NewContext(map[string]any{"a": "view", "b": "view"})
	c.Push(map[string]any{"a": "top"})

	got := map[string]any{}
	for _, key := range []string{"a", "b"} {
		v, err := c.Resolve([]string{key})
		if err != nil {
			t.Fatalf("resolve %s: %v", key, err)
		}
		got[key] = v
	}
	if diff := cmp.Diff(map[string]any{"a": "top", "b": "view"}, got); diff != "" {
		t.Fatalf("resolution mismatch (-want +got):\n%s", diff)
	}

	v, err := c.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve current: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "top"}, v); diff != "" {
		t.Fatalf("implicit iterator mismatch (-want +got):\n%s", diff)
	}
}

func TestContext_ResolveSkipsItself(t *testing.T) {
	c := NewContext(map[string]any{"name": "view"})
	c.Push(c)
	v, err := c.Resolve([]string{"name"})
	if err != nil || v != "view" {
		t.Fatalf("resolve = %v, %v", v, err)
	}
}

func TestContext_ResolveReturnsCallablesUnevaluated(t *testing.T) {
	called := false
	c := NewContext(map[string]any{"fn": func() string {
		called = true
		return "x"
	}})
	v, err := c.Resolve([]string{"fn"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if called {
		t.Fatalf("lambda invoked during resolution")
	}
	if classify(v) != kindCallable {
		t.Fatalf("expected callable, got %T", v)
	}
}

func TestContext_MissPolicy(t *testing.T) {
	permissive := NewContext(map[string]any{})
	v, err := permissive.Resolve([]string{"missing"})
	if v != nil || err != nil {
		t.Fatalf("permissive miss = %v, %v", v, err)
	}

	strict := NewContext(map[string]any{}, WithStrict(true))
	_, err = strict.Resolve([]string{"missing"})
	var miss *ContextMiss
	if !errors.As(err, &miss) || miss.Partial {
		t.Fatalf("expected context miss, got %v", err)
	}
	if miss.Error() != `mustache: can't find "missing" in context` {
		t.Fatalf("unexpected message %q", miss.Error())
	}
}

func TestContext_ElementFramesReportTypeErrors(t *testing.T) {
	c := NewContext(map[string]any{"outer": 1})
	c.pushElement(map[string]any{"k": 1}, "list", 0)
	if _, err := c.Resolve([]string{"missing"}); err != nil {
		t.Fatalf("map element should follow miss policy, got %v", err)
	}
	c.Pop()

	c.pushElement(5, "list", 3)
	if v, err := c.Resolve([]string{"outer"}); err != nil || v != 1 {
		t.Fatalf("outer names must still resolve: %v, %v", v, err)
	}
	_, err := c.Resolve([]string{"missing"})
	var typeErr *SectionTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected section type error, got %v", err)
	}
	if typeErr.Index != 3 || typeErr.Value != 5 {
		t.Fatalf("unexpected error %+v", typeErr)
	}
}
