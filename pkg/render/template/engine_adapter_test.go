package template_test

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-mustache/pkg/config"
	"github.com/goliatone/go-mustache/pkg/escape"
	"github.com/goliatone/go-mustache/pkg/partials"
	"github.com/goliatone/go-mustache/pkg/render"
	"github.com/goliatone/go-mustache/pkg/render/template/engine"
	"github.com/goliatone/go-mustache/pkg/testsupport"
)

//go:embed testdata/templates/*.mustache
var embeddedTemplates embed.FS

func TestEngine_RenderTemplate(t *testing.T) {
	e := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return e.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	assertGolden(t, "hello.golden", result, written)
}

func TestEngine_GlobalContext(t *testing.T) {
	e := newEngine(t)
	if err := e.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return e.RenderTemplate("use-global", nil, w)
	})

	assertGolden(t, "use-global.golden", result, written)
}

func TestEngine_RegisterFilter(t *testing.T) {
	e := newEngine(t)
	shout := func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	}
	if err := e.RegisterFilter("shout", shout); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := e.RegisterFilter("shout", shout); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return e.RenderTemplate("use-filter", map[string]any{"name": "Ada"}, w)
	})

	assertGolden(t, "use-filter.golden", result, written)
}

func TestEngine_PartialsFromFS(t *testing.T) {
	e := newEngine(t)
	data := map[string]any{
		"title": "List",
		"items": []map[string]any{{"name": "a"}, {"name": "b"}},
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return e.RenderTemplate("page", data, w)
	})

	assertGolden(t, "page.golden", result, written)
}

func TestEngine_RenderDispatch(t *testing.T) {
	e := newEngine(t)

	byName, err := e.Render("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render by name: %v", err)
	}
	if byName != "Hello Ada!\n" {
		t.Fatalf("render by name = %q", byName)
	}

	byContent, err := e.Render("Bye {{name}}", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render content: %v", err)
	}
	if byContent != "Bye Ada" {
		t.Fatalf("render content = %q", byContent)
	}
}

func TestEngine_DataShadowsGlobals(t *testing.T) {
	e, err := engine.New(engine.WithGlobalData(map[string]any{"who": "global", "site": "docs"}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	out, err := e.RenderString("{{who}}@{{site}}", map[string]any{"who": "local"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "local@docs" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_GlobalContextFromStruct(t *testing.T) {
	e, err := engine.New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	type site struct {
		Name string `json:"name"`
	}
	if err := e.GlobalContext(struct {
		Site site `json:"site"`
	}{Site: site{Name: "docs"}}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	out, err := e.RenderString("{{site.name}}", nil)
	if err != nil || out != "docs" {
		t.Fatalf("render = %q, %v", out, err)
	}
}

func TestEngine_StrictAndMissingTemplates(t *testing.T) {
	e := newEngine(t, engine.WithStrict(true))

	_, err := e.RenderString("{{>nope}}", nil)
	if !errors.Is(err, render.ErrContextMiss) {
		t.Fatalf("expected strict partial miss, got %v", err)
	}
	_, err = e.RenderTemplate("does-not-exist", nil)
	if !errors.Is(err, partials.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEngine_WithConfig(t *testing.T) {
	cfg := config.Default().Merge(config.Config{
		TemplatePaths: []string{filepath.Join("testdata", "templates")},
		Escape:        "none",
		Delims:        [2]string{"<%", "%>"},
		Partials:      map[string]string{"sig": "-- <%who%>"},
	})
	e, err := engine.New(engine.WithConfig(cfg))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	out, err := e.RenderString("<%who%> {{kept}}\n<%>sig%>", map[string]any{"who": "<ada>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<ada> {{kept}}\n-- <ada>" {
		t.Fatalf("unexpected output %q", out)
	}

	if err := e.RegisterPartial("sig", "dup"); err == nil {
		t.Fatalf("expected duplicate partial error")
	}

	if _, err := engine.New(engine.WithConfig(config.Config{Escape: "xml"})); err == nil {
		t.Fatalf("expected invalid config error")
	}
}

func TestEngine_TemplateFuncsAndEscaper(t *testing.T) {
	e, err := engine.New(
		engine.WithTemplateFunc(map[string]any{
			"year":    func() string { return "2024" },
			"ignored": "not a func",
		}),
		engine.WithEscaper(escape.Sanitize),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	out, err := e.RenderString("{{year}}|{{ignored}}|{{html}}", map[string]any{
		"html": `<b>ok</b><script>x()</script>`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "2024||<b>ok</b>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEngine_LogsAndCaches(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := newEngine(t, engine.WithLogger(logger))
	for i := 0; i < 2; i++ {
		if _, err := e.RenderTemplate("page", map[string]any{"items": []any{map[string]any{"name": "x"}}}); err != nil {
			t.Fatalf("render: %v", err)
		}
	}

	if !strings.Contains(logs.String(), "partial resolved") || !strings.Contains(logs.String(), "name=item") {
		t.Fatalf("expected partial resolution log, got:\n%s", logs.String())
	}
	stats := e.Stats()
	if stats.Entries != 2 || stats.Hits == 0 {
		t.Fatalf("unexpected cache stats %+v", stats)
	}
}

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	e, err := engine.New(append([]engine.Option{engine.WithFS(templatesFS)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()

	path := filepath.Join("testdata", name)
	if testsupport.WriteMaybeGolden(t, path, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, path)
	if diff := testsupport.CompareGolden(want, result); diff != "" {
		t.Fatalf("render template mismatch result (-want +got):\n%s", diff)
	}
	if diff := testsupport.CompareGolden(want, written); diff != "" {
		t.Fatalf("render template mismatch writer (-want +got):\n%s", diff)
	}
}
