// Package db provides database persistence for techo.
//
// A single database holds every resource: todos, goals, schedules, habits
// and their logs, diary entries, period notes, budget entries, wish items,
// routines and feature requests. One file per entity.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkoseki/techo/internal/db/driver"
)

//go:embed schema
var schemaFS embed.FS

// DB wraps a database connection with driver abstraction.
type DB struct {
	driver driver.Driver
	path   string
}

// Open opens (and migrates) a SQLite database at the given path.
// Creates the parent directory if it doesn't exist.
func Open(path string) (*DB, error) {
	return OpenWithDialect(path, driver.DialectSQLite)
}

// OpenInMemory opens an in-memory SQLite database with migrations applied.
// Each call creates a new isolated database; ideal for testing.
func OpenInMemory() (*DB, error) {
	drv, err := driver.New(driver.DialectSQLite)
	if err != nil {
		return nil, err
	}

	if err := drv.Open(":memory:"); err != nil {
		return nil, err
	}

	d := &DB{driver: drv, path: ":memory:"}
	if err := d.Migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// OpenWithDialect opens a database with a specific dialect and applies
// pending migrations.
func OpenWithDialect(dsn string, dialect driver.Dialect) (*DB, error) {
	// For SQLite, create parent directory if needed
	if dialect == driver.DialectSQLite {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	drv, err := driver.New(dialect)
	if err != nil {
		return nil, err
	}

	if err := drv.Open(dsn); err != nil {
		return nil, err
	}

	d := &DB{driver: drv, path: dsn}
	if err := d.Migrate(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.driver.Close()
}

// Path returns the database DSN/path.
func (d *DB) Path() string {
	return d.path
}

// DB returns the underlying sql.DB for advanced operations.
func (d *DB) DB() *sql.DB {
	return d.driver.DB()
}

// Dialect returns the database dialect.
func (d *DB) Dialect() driver.Dialect {
	return d.driver.Dialect()
}

// Migrate applies pending techo_NNN.sql migrations.
func (d *DB) Migrate() error {
	return d.driver.Migrate(context.Background(), schemaFS, "techo_")
}

// Exec executes a query without returning rows.
func (d *DB) Exec(query string, args ...any) (sql.Result, error) {
	return d.driver.Exec(context.Background(), query, args...)
}

// ExecContext executes a query without returning rows with context.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.driver.Exec(ctx, query, args...)
}

// Query executes a query that returns rows.
func (d *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return d.driver.Query(context.Background(), query, args...)
}

// QueryContext executes a query that returns rows with context.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.driver.Query(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row.
func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	return d.driver.QueryRow(context.Background(), query, args...)
}

// QueryRowContext executes a query that returns at most one row with context.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.driver.QueryRow(ctx, query, args...)
}

// BeginTx starts a transaction.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (driver.Tx, error) {
	return d.driver.BeginTx(ctx, opts)
}

// TxOps provides query operations bound to an open transaction.
type TxOps struct {
	tx  driver.Tx
	ctx context.Context
}

// Exec executes a statement within the transaction.
func (t *TxOps) Exec(query string, args ...any) (sql.Result, error) {
	return t.tx.Exec(t.ctx, query, args...)
}

// Query executes a query within the transaction.
func (t *TxOps) Query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.Query(t.ctx, query, args...)
}

// QueryRow executes a single-row query within the transaction.
func (t *TxOps) QueryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRow(t.ctx, query, args...)
}

// Context returns the transaction context.
func (t *TxOps) Context() context.Context {
	return t.ctx
}

// RunInTx executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (d *DB) RunInTx(ctx context.Context, fn func(tx *TxOps) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ops := &TxOps{tx: tx, ctx: ctx}

	if err := fn(ops); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
