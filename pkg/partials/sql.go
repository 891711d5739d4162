package partials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

const defaultTable = "partials"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLOption configures a SQL resolver.
type SQLOption func(*SQL)

// WithTable overrides the table partials are read from. Invalid identifiers
// are ignored.
func WithTable(table string) SQLOption {
	return func(r *SQL) {
		if identifierPattern.MatchString(table) {
			r.table = table
		}
	}
}

// SQL resolves partials stored as (name, source) rows. The queries use plain
// `?` placeholders and upsert syntax understood by SQLite.
type SQL struct {
	db    *sql.DB
	table string
}

// NewSQL builds a resolver over db.
func NewSQL(db *sql.DB, options ...SQLOption) *SQL {
	r := &SQL{db: db, table: defaultTable}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// EnsureSchema creates the partials table when it does not exist.
func (r *SQL) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name   TEXT PRIMARY KEY,
		source TEXT NOT NULL
	)`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("partials: create table %s: %w", r.table, err)
	}
	return nil
}

// Put stores or replaces a partial.
func (r *SQL) Put(ctx context.Context, name, source string) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, source) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source`, r.table)
	if _, err := r.db.ExecContext(ctx, query, name, source); err != nil {
		return fmt.Errorf("partials: store %q: %w", name, err)
	}
	return nil
}

// Resolve satisfies Resolver.
func (r *SQL) Resolve(ctx context.Context, name string) (string, error) {
	if r == nil || r.db == nil {
		return "", NotFound(name)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var source string
	query := fmt.Sprintf(`SELECT source FROM %s WHERE name = ?`, r.table)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&source)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", NotFound(name)
	case err != nil:
		return "", fmt.Errorf("partials: query %q: %w", name, err)
	}
	return source, nil
}
