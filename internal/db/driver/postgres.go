package driver

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDriver serves PostgreSQL over the pgx stdlib adapter. Entity SQL
// stays in the ?-placeholder form; rebind rewrites it to $N on the way in.
// Postgres schema files live under schema/postgres.
type PostgresDriver struct {
	db *sql.DB
}

func NewPostgres() *PostgresDriver {
	return &PostgresDriver{}
}

// Open connects and pings, so a bad DSN fails at startup rather than on
// the first request.
func (d *PostgresDriver) Open(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	d.db = db
	return nil
}

func (d *PostgresDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *PostgresDriver) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, rebind(query), args...)
}

func (d *PostgresDriver) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, rebind(query), args...)
}

func (d *PostgresDriver) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, rebind(query), args...)
}

func (d *PostgresDriver) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &wrappedTx{tx: tx, rewrite: rebind}, nil
}

func (d *PostgresDriver) Migrate(ctx context.Context, schema fs.FS, prefix string) error {
	return migrate(ctx, d.db, schema, "schema/postgres", prefix,
		`CREATE TABLE IF NOT EXISTS _migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		"INSERT INTO _migrations (version) VALUES ($1)")
}

func (d *PostgresDriver) Dialect() Dialect { return DialectPostgres }

func (d *PostgresDriver) DB() *sql.DB { return d.db }

// rebind rewrites ? placeholders to $1..$N. Literal question marks inside
// strings do not occur in any techo query.
func rebind(query string) string {
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			out = append(out, query[i])
			continue
		}
		n++
		out = append(out, '$')
		out = strconv.AppendInt(out, int64(n), 10)
	}
	return string(out)
}
