package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Suite is a YAML conformance fixture: a list of template cases sharing a
// topic.
type Suite struct {
	Overview string `yaml:"overview"`
	Tests    []Case `yaml:"tests"`
}

// Case is a single conformance case. Error, when set, is a substring the
// render error must contain; Expected is ignored in that case.
type Case struct {
	Name     string            `yaml:"name"`
	Desc     string            `yaml:"desc"`
	Data     any               `yaml:"data"`
	Template string            `yaml:"template"`
	Partials map[string]string `yaml:"partials"`
	Expected string            `yaml:"expected"`
	Strict   bool              `yaml:"strict"`
	Error    string            `yaml:"error"`
}

// LoadSuite reads a YAML fixture. Testing helpers fail the test on error to
// keep conformance tests concise.
func LoadSuite(t *testing.T, path string) Suite {
	t.Helper()

	suite, err := LoadSuiteFromPath(path)
	if err != nil {
		t.Fatalf("load suite: %v", err)
	}
	return suite
}

// LoadSuiteFromPath returns a Suite without requiring testing.T.
func LoadSuiteFromPath(path string) (Suite, error) {
	if path == "" {
		return Suite{}, errors.New("testsupport: suite path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("testsupport: read suite: %w", err)
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("testsupport: decode suite %s: %w", path, err)
	}
	if len(suite.Tests) == 0 {
		return Suite{}, fmt.Errorf("testsupport: suite %s has no tests", path)
	}
	return suite, nil
}

// LoadSuites loads every *.yml and *.yaml fixture in dir.
func LoadSuites(t *testing.T, dir string) map[string]Suite {
	t.Helper()

	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			t.Fatalf("glob suites: %v", err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		t.Fatalf("no suites found in %s", dir)
	}

	out := make(map[string]Suite, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		out[name[:len(name)-len(filepath.Ext(name))]] = LoadSuite(t, path)
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
