package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

// Schedule is a single event on the daily timeline. Flat: no hierarchy,
// no manual ordering — the timeline sorts by date and start time.
type Schedule struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`                 // YYYY-MM-DD
	StartTime string    `json:"start_time,omitempty"` // HH:MM
	EndTime   string    `json:"end_time,omitempty"`   // HH:MM
	Memo      string    `json:"memo,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SchedulePatch is the merge-patch shape for updating a schedule.
type SchedulePatch struct {
	Title     patch.Field[string] `json:"title"`
	Date      patch.Field[string] `json:"date"`
	StartTime patch.Field[string] `json:"start_time"`
	EndTime   patch.Field[string] `json:"end_time"`
	Memo      patch.Field[string] `json:"memo"`
	Source    patch.Field[string] `json:"source"`
}

// CreateSchedule inserts a scheduled event.
func (d *DB) CreateSchedule(s *Schedule) error {
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO schedules (title, date, start_time, end_time, memo, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.Title, s.Date, nullableString(s.StartTime), nullableString(s.EndTime),
		nullableString(s.Memo), nullableString(s.Source), now)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	s.CreatedAt = parseStamp(now)
	return nil
}

// GetSchedule retrieves a single event by ID, or nil when absent.
func (d *DB) GetSchedule(id int64) (*Schedule, error) {
	row := d.QueryRow(`
		SELECT id, title, date, start_time, end_time, memo, source, created_at
		FROM schedules WHERE id = ?
	`, id)
	s, err := scanScheduleFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListSchedules returns events for one day (date set) or a window (from/to
// set, date BETWEEN). With no filter, all events are returned.
func (d *DB) ListSchedules(date, from, to string) ([]Schedule, error) {
	query := `
		SELECT id, title, date, start_time, end_time, memo, source, created_at
		FROM schedules`
	var args []any
	switch {
	case date != "":
		query += " WHERE date = ?"
		args = append(args, date)
	case from != "" && to != "":
		query += " WHERE date BETWEEN ? AND ?"
		args = append(args, from, to)
	}
	query += " ORDER BY date ASC, start_time ASC, id ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		s, err := scanScheduleFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

// UpdateSchedule merges the patch onto the stored event.
func (d *DB) UpdateSchedule(id int64, p *SchedulePatch) (*Schedule, error) {
	existing, err := d.GetSchedule(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("schedule", id)
	}

	existing.Title = p.Title.Or(existing.Title)
	existing.Date = p.Date.Or(existing.Date)
	if p.StartTime.Present() {
		existing.StartTime = p.StartTime.Value()
	}
	if p.EndTime.Present() {
		existing.EndTime = p.EndTime.Value()
	}
	if p.Memo.Present() {
		existing.Memo = p.Memo.Value()
	}
	if p.Source.Present() {
		existing.Source = p.Source.Value()
	}

	_, err = d.Exec(`
		UPDATE schedules SET title = ?, date = ?, start_time = ?, end_time = ?, memo = ?, source = ?
		WHERE id = ?
	`, existing.Title, existing.Date, nullableString(existing.StartTime),
		nullableString(existing.EndTime), nullableString(existing.Memo),
		nullableString(existing.Source), id)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return existing, nil
}

// DeleteSchedule removes an event. Idempotent.
func (d *DB) DeleteSchedule(id int64) error {
	return d.deleteByID("schedules", id)
}

func scanScheduleFrom(scan func(...any) error) (*Schedule, error) {
	var s Schedule
	var startTime, endTime, memo, source sql.NullString
	var created string

	if err := scan(&s.ID, &s.Title, &s.Date, &startTime, &endTime, &memo, &source, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	s.StartTime = fromNull(startTime)
	s.EndTime = fromNull(endTime)
	s.Memo = fromNull(memo)
	s.Source = fromNull(source)
	s.CreatedAt = parseStamp(created)
	return &s, nil
}
