package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mustache/pkg/parse"
)

type stubDriver struct {
	inputs     []string
	confirm    []bool
	inputPos   int
	confirmPos int
	asked      []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.asked = append(s.asked, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	s.asked = append(s.asked, cfg.Message)
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func mustParse(t *testing.T, src string) *parse.Template {
	t.Helper()
	tmpl, err := parse.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tmpl
}

func TestMissing(t *testing.T) {
	tmpl := mustParse(t, "{{name}} {{{raw}}} {{name}} {{a.b}} {{.}}{{#admin}}{{inner}}{{/admin}}{{^empty}}x{{/empty}}{{>part}}")

	got := Missing(tmpl, map[string]any{"raw": "ok"})
	want := []Field{
		{Name: "name", Kind: KindText},
		{Name: "admin", Kind: KindToggle},
		{Name: "empty", Kind: KindToggle},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missing fields mismatch (-want +got):\n%s", diff)
	}

	if got := Missing(nil, nil); got != nil {
		t.Fatalf("nil template should report nothing, got %v", got)
	}
}

func TestFill(t *testing.T) {
	tmpl := mustParse(t, "{{greeting}}, {{name}}!{{#admin}} (admin){{/admin}}")
	data := map[string]any{"greeting": "Hi"}
	driver := &stubDriver{inputs: []string{"Ada"}, confirm: []bool{true}}

	got, err := Fill(context.Background(), driver, tmpl, data)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{"greeting": "Hi", "name": "Ada", "admin": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filled data mismatch (-want +got):\n%s", diff)
	}
	if len(data) != 1 {
		t.Fatalf("input data was modified: %v", data)
	}
	if diff := cmp.Diff([]string{"name", `Render section "admin"?`}, driver.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_PropagatesDriverErrors(t *testing.T) {
	tmpl := mustParse(t, "{{name}}")

	_, err := Fill(context.Background(), &stubDriver{}, tmpl, nil)
	if err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if got := translateSurveyErr(terminal.InterruptErr); !errors.Is(got, ErrAborted) {
		t.Fatalf("interrupt should map to ErrAborted, got %v", got)
	}
	other := errors.New("boom")
	if got := translateSurveyErr(other); got != other {
		t.Fatalf("unexpected translation %v", got)
	}
}
