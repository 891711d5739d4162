package partials

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-mustache/pkg/testsupport"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQL_PutAndResolve(t *testing.T) {
	ctx := testsupport.Context()
	r := NewSQL(openMemoryDB(t), WithTable("templates"))

	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := r.Put(ctx, "row", "<li>{{name}}</li>"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := r.Put(ctx, "row", "<tr>{{name}}</tr>"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := r.Resolve(ctx, "row")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "<tr>{{name}}</tr>" {
		t.Fatalf("unexpected source %q", got)
	}

	if _, err := r.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQL_InvalidTableIgnored(t *testing.T) {
	r := NewSQL(nil, WithTable("drop table; --"))
	if r.table != defaultTable {
		t.Fatalf("invalid table name should be ignored, got %q", r.table)
	}
	if _, err := r.Resolve(testsupport.Context(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nil db should report not found, got %v", err)
	}
}
