package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PeriodNote is the goal note for one period: a month ("2024-05") or an
// ISO week ("2024-W23"). Body is the same opaque block tree the diary uses.
type PeriodNote struct {
	Period    string    `json:"period"`
	Body      string    `json:"body"`
	Preview   string    `json:"preview,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// GetPeriodNote returns the note for a period, or a default empty shape
// when absent (never a not-found error).
func (d *DB) GetPeriodNote(period string) (*PeriodNote, error) {
	row := d.QueryRow("SELECT period, body, updated_at FROM period_notes WHERE period = ?", period)

	var n PeriodNote
	var updated string
	err := row.Scan(&n.Period, &n.Body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &PeriodNote{Period: period, Body: ""}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get period note: %w", err)
	}

	n.Preview = blockTreePreview(n.Body)
	n.UpdatedAt = parseStamp(updated)
	return &n, nil
}

// PutPeriodNote upserts the note body for a period (full replace).
func (d *DB) PutPeriodNote(period, body string) (*PeriodNote, error) {
	now := nowStamp()
	_, err := d.Exec(`
		INSERT INTO period_notes (period, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, period, body, now)
	if err != nil {
		return nil, fmt.Errorf("put period note: %w", err)
	}
	return &PeriodNote{
		Period:    period,
		Body:      body,
		Preview:   blockTreePreview(body),
		UpdatedAt: parseStamp(now),
	}, nil
}

// DeletePeriodNote removes the note for a period. Idempotent.
func (d *DB) DeletePeriodNote(period string) error {
	if _, err := d.Exec("DELETE FROM period_notes WHERE period = ?", period); err != nil {
		return fmt.Errorf("delete period note: %w", err)
	}
	return nil
}
