package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	techoerrors "github.com/mkoseki/techo/internal/errors"
)

// querier is the subset of DB/TxOps the shared list helpers need, so they
// run identically inside and outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// OrderPair is one (id, sort_order) assignment in a bulk reorder.
type OrderPair struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sort_order"`
}

// nextSortOrder returns max(sort_order)+1 for the table, or 1 when empty.
// New items always append at the end of the manual ordering.
func nextSortOrder(q querier, table string) (int, error) {
	var next int
	err := q.QueryRow("SELECT COALESCE(MAX(sort_order), 0) + 1 FROM " + table).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sort order for %s: %w", table, err)
	}
	return next, nil
}

// reorder applies a bulk set of (id, sort_order) pairs to table as a single
// transaction. If any id does not exist, nothing is applied.
func (d *DB) reorder(ctx context.Context, table string, pairs []OrderPair) error {
	return d.RunInTx(ctx, func(tx *TxOps) error {
		for _, p := range pairs {
			res, err := tx.Exec("UPDATE "+table+" SET sort_order = ? WHERE id = ?", p.SortOrder, p.ID)
			if err != nil {
				return fmt.Errorf("reorder %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("reorder %s: %w", table, err)
			}
			if n == 0 {
				return techoerrors.ErrNotFound(table, p.ID)
			}
		}
		return nil
	})
}

// deleteByID removes a row by id. Idempotent: deleting an absent id is not
// an error.
func (d *DB) deleteByID(table string, id int64) error {
	if _, err := d.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// nowStamp returns the canonical stored timestamp format.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// nullableString returns a pointer to s if non-empty, nil otherwise.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// fromNull unwraps a nullable text column into a plain string.
func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// parseStamp parses a stored timestamp, tolerating the space-separated form
// SQLite's datetime() produces.
func parseStamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}
