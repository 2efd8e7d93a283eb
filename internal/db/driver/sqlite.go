package driver

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"
)

// sqlitePragmas run once per connection open. Foreign keys must be on for
// goal cascade deletes and the habit log FK; WAL and the busy timeout keep
// concurrent readers from tripping over the single writer.
var sqlitePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// SQLiteDriver serves file-backed and in-memory SQLite databases.
type SQLiteDriver struct {
	db *sql.DB
}

func NewSQLite() *SQLiteDriver {
	return &SQLiteDriver{}
}

// Open opens the database at dsn (a file path, or :memory:) and applies
// the connection pragmas.
func (d *SQLiteDriver) Open(dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	d.db = db
	return nil
}

func (d *SQLiteDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *SQLiteDriver) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

func (d *SQLiteDriver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *SQLiteDriver) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

func (d *SQLiteDriver) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &wrappedTx{tx: tx}, nil
}

func (d *SQLiteDriver) Migrate(ctx context.Context, schema fs.FS, prefix string) error {
	return migrate(ctx, d.db, schema, "schema", prefix,
		`CREATE TABLE IF NOT EXISTS _migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT DEFAULT (datetime('now'))
		)`,
		"INSERT INTO _migrations (version) VALUES (?)")
}

func (d *SQLiteDriver) Dialect() Dialect { return DialectSQLite }

func (d *SQLiteDriver) DB() *sql.DB { return d.db }
