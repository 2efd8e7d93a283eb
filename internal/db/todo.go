package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

// Todo is a single item on the daily todo list.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	Date      string    `json:"date,omitempty"` // YYYY-MM-DD, unscheduled when empty
	Memo      string    `json:"memo,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoPatch is the merge-patch shape for updating a todo. Absent fields keep
// their stored value; explicit null clears nullable columns.
type TodoPatch struct {
	Title patch.Field[string] `json:"title"`
	Done  patch.Field[bool]   `json:"done"`
	Date  patch.Field[string] `json:"date"`
	Memo  patch.Field[string] `json:"memo"`
}

// CreateTodo inserts a todo at the end of the list (sort_order = max+1).
func (d *DB) CreateTodo(t *Todo) error {
	next, err := nextSortOrder(d, "todos")
	if err != nil {
		return err
	}
	t.SortOrder = next
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO todos (title, done, date, memo, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Title, boolToInt(t.Done), nullableString(t.Date), nullableString(t.Memo), t.SortOrder, now)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	t.CreatedAt = parseStamp(now)
	return nil
}

// GetTodo retrieves a single todo by ID, or nil when absent.
func (d *DB) GetTodo(id int64) (*Todo, error) {
	row := d.QueryRow(`
		SELECT id, title, done, date, memo, sort_order, created_at
		FROM todos WHERE id = ?
	`, id)
	return scanTodo(row)
}

// ListTodos returns all todos in manual order. When date is non-empty only
// todos scheduled for that day are returned.
func (d *DB) ListTodos(date string) ([]Todo, error) {
	query := `
		SELECT id, title, done, date, memo, sort_order, created_at
		FROM todos`
	var args []any
	if date != "" {
		query += " WHERE date = ?"
		args = append(args, date)
	}
	query += " ORDER BY sort_order ASC, created_at ASC, id ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		t, err := scanTodoRows(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

// UpdateTodo merges the patch onto the stored todo and returns the result.
// Returns a not-found error when the id does not exist.
func (d *DB) UpdateTodo(id int64, p *TodoPatch) (*Todo, error) {
	existing, err := d.GetTodo(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("todo", id)
	}

	existing.Title = p.Title.Or(existing.Title)
	if p.Done.Present() {
		existing.Done = p.Done.Value()
	}
	if p.Date.Present() {
		existing.Date = p.Date.Value() // null clears
	}
	if p.Memo.Present() {
		existing.Memo = p.Memo.Value()
	}

	_, err = d.Exec(`
		UPDATE todos SET title = ?, done = ?, date = ?, memo = ? WHERE id = ?
	`, existing.Title, boolToInt(existing.Done), nullableString(existing.Date), nullableString(existing.Memo), id)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return existing, nil
}

// DeleteTodo removes a todo. Idempotent.
func (d *DB) DeleteTodo(id int64) error {
	return d.deleteByID("todos", id)
}

// ReorderTodos atomically applies a bulk manual reordering.
func (d *DB) ReorderTodos(ctx context.Context, pairs []OrderPair) error {
	return d.reorder(ctx, "todos", pairs)
}

func scanTodo(row *sql.Row) (*Todo, error) {
	t, err := scanTodoFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func scanTodoRows(rows *sql.Rows) (*Todo, error) {
	return scanTodoFrom(rows.Scan)
}

func scanTodoFrom(scan func(...any) error) (*Todo, error) {
	var t Todo
	var done int
	var date, memo sql.NullString
	var created string

	if err := scan(&t.ID, &t.Title, &done, &date, &memo, &t.SortOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	t.Done = done != 0
	t.Date = fromNull(date)
	t.Memo = fromNull(memo)
	t.CreatedAt = parseStamp(created)
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
