package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

// Routine is a recurring daily/weekly routine entry.
// Days holds lowercase three-letter day names ("mon".."sun"); empty means
// every day.
type Routine struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Days      []string  `json:"days,omitempty"`
	TimeOfDay string    `json:"time_of_day,omitempty"` // HH:MM
	Active    bool      `json:"active"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// RoutinePatch is the merge-patch shape for updating a routine.
type RoutinePatch struct {
	Title     patch.Field[string]   `json:"title"`
	Days      patch.Field[[]string] `json:"days"`
	TimeOfDay patch.Field[string]   `json:"time_of_day"`
	Active    patch.Field[bool]     `json:"active"`
}

// matchesDay reports whether the routine runs on the given day name.
func (r *Routine) matchesDay(day string) bool {
	if len(r.Days) == 0 {
		return true
	}
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// CreateRoutine inserts a routine at the end of the list.
func (d *DB) CreateRoutine(r *Routine) error {
	next, err := nextSortOrder(d, "routines")
	if err != nil {
		return err
	}
	r.SortOrder = next
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO routines (title, days, time_of_day, active, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Title, nullableString(strings.Join(r.Days, ",")), nullableString(r.TimeOfDay), boolToInt(r.Active), r.SortOrder, now)
	if err != nil {
		return fmt.Errorf("create routine: %w", err)
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create routine: %w", err)
	}
	r.CreatedAt = parseStamp(now)
	return nil
}

// GetRoutine retrieves a single routine by ID, or nil when absent.
func (d *DB) GetRoutine(id int64) (*Routine, error) {
	row := d.QueryRow(`
		SELECT id, title, days, time_of_day, active, sort_order, created_at
		FROM routines WHERE id = ?
	`, id)
	r, err := scanRoutineFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListRoutines returns routines in manual order. When day is non-empty only
// routines scheduled for that day name are returned.
func (d *DB) ListRoutines(day string) ([]Routine, error) {
	rows, err := d.Query(`
		SELECT id, title, days, time_of_day, active, sort_order, created_at
		FROM routines ORDER BY sort_order ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var routines []Routine
	for rows.Next() {
		r, err := scanRoutineFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		if day != "" && !r.matchesDay(day) {
			continue
		}
		routines = append(routines, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routines: %w", err)
	}
	return routines, nil
}

// UpdateRoutine merges the patch onto the stored routine and returns the result.
func (d *DB) UpdateRoutine(id int64, p *RoutinePatch) (*Routine, error) {
	existing, err := d.GetRoutine(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("routine", id)
	}

	existing.Title = p.Title.Or(existing.Title)
	if p.Days.Present() {
		existing.Days = p.Days.Value()
	}
	if p.TimeOfDay.Present() {
		existing.TimeOfDay = p.TimeOfDay.Value()
	}
	if p.Active.Present() {
		existing.Active = p.Active.Value()
	}

	_, err = d.Exec(`
		UPDATE routines SET title = ?, days = ?, time_of_day = ?, active = ? WHERE id = ?
	`, existing.Title, nullableString(strings.Join(existing.Days, ",")), nullableString(existing.TimeOfDay), boolToInt(existing.Active), id)
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	return existing, nil
}

// DeleteRoutine removes a routine. Idempotent.
func (d *DB) DeleteRoutine(id int64) error {
	return d.deleteByID("routines", id)
}

// ReorderRoutines atomically applies a bulk manual reordering.
func (d *DB) ReorderRoutines(ctx context.Context, pairs []OrderPair) error {
	return d.reorder(ctx, "routines", pairs)
}

func scanRoutineFrom(scan func(...any) error) (*Routine, error) {
	var r Routine
	var active int
	var days, timeOfDay sql.NullString
	var created string

	if err := scan(&r.ID, &r.Title, &days, &timeOfDay, &active, &r.SortOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan routine: %w", err)
	}

	r.Active = active != 0
	if s := fromNull(days); s != "" {
		r.Days = strings.Split(s, ",")
	}
	r.TimeOfDay = fromNull(timeOfDay)
	r.CreatedAt = parseStamp(created)
	return &r, nil
}
