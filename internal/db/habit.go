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

// Habit is a tracked daily habit.
type Habit struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// HabitPatch is the merge-patch shape for updating a habit.
type HabitPatch struct {
	Name  patch.Field[string] `json:"name"`
	Color patch.Field[string] `json:"color"`
}

// HabitLog marks a habit as done on a date. (habit_id, date) is unique;
// logging the same pair again toggles the mark off.
type HabitLog struct {
	ID      int64  `json:"id"`
	HabitID int64  `json:"habit_id"`
	Date    string `json:"date"` // YYYY-MM-DD
}

// CreateHabit inserts a habit at the end of the list.
func (d *DB) CreateHabit(h *Habit) error {
	next, err := nextSortOrder(d, "habits")
	if err != nil {
		return err
	}
	h.SortOrder = next
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO habits (name, color, sort_order, created_at)
		VALUES (?, ?, ?, ?)
	`, h.Name, nullableString(h.Color), h.SortOrder, now)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	h.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	h.CreatedAt = parseStamp(now)
	return nil
}

// GetHabit retrieves a single habit by ID, or nil when absent.
func (d *DB) GetHabit(id int64) (*Habit, error) {
	row := d.QueryRow("SELECT id, name, color, sort_order, created_at FROM habits WHERE id = ?", id)
	h, err := scanHabitFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

// ListHabits returns all habits in manual order.
func (d *DB) ListHabits() ([]Habit, error) {
	rows, err := d.Query(`
		SELECT id, name, color, sort_order, created_at
		FROM habits ORDER BY sort_order ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h, err := scanHabitFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return habits, nil
}

// UpdateHabit merges the patch onto the stored habit.
func (d *DB) UpdateHabit(id int64, p *HabitPatch) (*Habit, error) {
	existing, err := d.GetHabit(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("habit", id)
	}

	existing.Name = p.Name.Or(existing.Name)
	if p.Color.Present() {
		existing.Color = p.Color.Value()
	}

	_, err = d.Exec("UPDATE habits SET name = ?, color = ? WHERE id = ?",
		existing.Name, nullableString(existing.Color), id)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

// DeleteHabit removes a habit and its logs (FK cascade). Idempotent.
func (d *DB) DeleteHabit(id int64) error {
	return d.deleteByID("habits", id)
}

// ToggleHabitLog flips the log for (habitID, date): inserts when absent,
// deletes when present. The uniqueness of the pair is what makes the
// second call a toggle-off, not an error. Returns the resulting presence.
func (d *DB) ToggleHabitLog(ctx context.Context, habitID int64, date string) (bool, error) {
	habit, err := d.GetHabit(habitID)
	if err != nil {
		return false, err
	}
	if habit == nil {
		return false, techoerrors.ErrNotFound("habit", habitID)
	}

	var logged bool
	err = d.RunInTx(ctx, func(tx *TxOps) error {
		res, err := tx.Exec("DELETE FROM habit_logs WHERE habit_id = ? AND date = ?", habitID, date)
		if err != nil {
			return fmt.Errorf("toggle habit log: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("toggle habit log: %w", err)
		}
		if n > 0 {
			logged = false
			return nil
		}

		if _, err := tx.Exec(`
			INSERT INTO habit_logs (habit_id, date, created_at) VALUES (?, ?, ?)
		`, habitID, date, nowStamp()); err != nil {
			return fmt.Errorf("toggle habit log: %w", err)
		}
		logged = true
		return nil
	})
	return logged, err
}

// ListHabitLogs returns logs for one habit, optionally windowed by date.
// habitID 0 returns logs for all habits (calendar heat view).
func (d *DB) ListHabitLogs(habitID int64, from, to string) ([]HabitLog, error) {
	query := "SELECT id, habit_id, date FROM habit_logs"
	var conds []string
	var args []any
	if habitID != 0 {
		conds = append(conds, "habit_id = ?")
		args = append(args, habitID)
	}
	if from != "" && to != "" {
		conds = append(conds, "date BETWEEN ? AND ?")
		args = append(args, from, to)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY date ASC, habit_id ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()

	var logs []HabitLog
	for rows.Next() {
		var l HabitLog
		if err := rows.Scan(&l.ID, &l.HabitID, &l.Date); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habit logs: %w", err)
	}
	return logs, nil
}

func scanHabitFrom(scan func(...any) error) (*Habit, error) {
	var h Habit
	var color sql.NullString
	var created string

	if err := scan(&h.ID, &h.Name, &color, &h.SortOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan habit: %w", err)
	}

	h.Color = fromNull(color)
	h.CreatedAt = parseStamp(created)
	return &h, nil
}
