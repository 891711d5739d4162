package render_test

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mustache/pkg/partials"
	"github.com/goliatone/go-mustache/pkg/render"
	"github.com/goliatone/go-mustache/pkg/testsupport"
)

func TestConformance(t *testing.T) {
	suites := testsupport.LoadSuites(t, filepath.Join("testdata", "conformance"))

	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		suite := suites[name]
		t.Run(name, func(t *testing.T) {
			for _, tc := range suite.Tests {
				t.Run(tc.Name, func(t *testing.T) {
					opts := []render.ContextOption{render.WithStrict(tc.Strict)}
					if len(tc.Partials) > 0 {
						opts = append(opts, render.WithPartials(partials.NewRegistry(tc.Partials)))
					}

					got, err := render.RenderString(tc.Template, tc.Data, opts...)
					if tc.Error != "" {
						if err == nil {
							t.Fatalf("expected error containing %q, got output %q", tc.Error, got)
						}
						if !strings.Contains(err.Error(), tc.Error) {
							t.Fatalf("error %q does not contain %q", err, tc.Error)
						}
						if got != "" {
							t.Fatalf("failed render returned partial output %q", got)
						}
						return
					}
					if err != nil {
						t.Fatalf("render: %v", err)
					}
					if diff := cmp.Diff(tc.Expected, got); diff != "" {
						t.Fatalf("%s\n(-want +got):\n%s", tc.Desc, diff)
					}
				})
			}
		})
	}
}
