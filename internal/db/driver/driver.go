// Package driver hides the dialect differences between SQLite and
// PostgreSQL behind a single connection interface. Entity code above it
// writes ?-placeholder SQL; the postgres driver rewrites placeholders on
// the way through.
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
)

// Dialect names a supported database backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) String() string { return string(d) }

// ParseDialect maps common dialect spellings to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unknown dialect: %s", s)
}

// Driver is a dialect-specific database connection. Exec, Query and
// QueryRow accept ?-placeholder SQL regardless of dialect.
type Driver interface {
	Open(dsn string) error
	Close() error

	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)

	// Migrate applies pending schema files named {prefix}NNN.sql from the
	// embedded schema tree, each in its own transaction.
	Migrate(ctx context.Context, schema fs.FS, prefix string) error

	Dialect() Dialect
	DB() *sql.DB
}

// Tx is a transaction over a Driver, with the same placeholder contract.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Commit() error
	Rollback() error
}

// New returns an unopened driver for the dialect.
func New(dialect Dialect) (Driver, error) {
	switch dialect {
	case DialectSQLite:
		return NewSQLite(), nil
	case DialectPostgres:
		return NewPostgres(), nil
	}
	return nil, fmt.Errorf("unsupported dialect: %s", dialect)
}

// wrappedTx adapts sql.Tx to the Tx interface. A nil rewrite func passes
// queries through untouched; the postgres driver supplies placeholder
// rewriting.
type wrappedTx struct {
	tx      *sql.Tx
	rewrite func(string) string
}

func (t *wrappedTx) sql(query string) string {
	if t.rewrite == nil {
		return query
	}
	return t.rewrite(query)
}

func (t *wrappedTx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.sql(query), args...)
}

func (t *wrappedTx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.sql(query), args...)
}

func (t *wrappedTx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.sql(query), args...)
}

func (t *wrappedTx) Commit() error   { return t.tx.Commit() }
func (t *wrappedTx) Rollback() error { return t.tx.Rollback() }
