package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DiaryEntry is the diary page for one date. Body is the editor's
// serialized block tree, stored opaquely as a JSON string; techo never
// interprets its structure beyond validity and text extraction.
type DiaryEntry struct {
	ID        string    `json:"id"` // the date, YYYY-MM-DD
	Date      string    `json:"date"`
	Body      string    `json:"body"`
	Mood      string    `json:"mood,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// GetDiaryEntry returns the entry for a date. A date with no entry yields
// a default empty shape, never a not-found error — the editor always has
// something to open.
func (d *DB) GetDiaryEntry(date string) (*DiaryEntry, error) {
	row := d.QueryRow("SELECT date, body, mood, updated_at FROM diary_entries WHERE date = ?", date)
	e, err := scanDiaryFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return &DiaryEntry{ID: date, Date: date, Body: ""}, nil
	}
	return e, err
}

// PutDiaryEntry upserts the entry for a date (full replace, not merge).
func (d *DB) PutDiaryEntry(date, body, mood string) (*DiaryEntry, error) {
	now := nowStamp()
	_, err := d.Exec(`
		INSERT INTO diary_entries (date, body, mood, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET body = excluded.body, mood = excluded.mood,
			updated_at = excluded.updated_at
	`, date, body, nullableString(mood), now)
	if err != nil {
		return nil, fmt.Errorf("put diary entry: %w", err)
	}
	return &DiaryEntry{
		ID:        date,
		Date:      date,
		Body:      body,
		Mood:      mood,
		Preview:   blockTreePreview(body),
		UpdatedAt: parseStamp(now),
	}, nil
}

// ListDiaryEntries returns entries with date in [from, to], oldest first.
func (d *DB) ListDiaryEntries(from, to string) ([]DiaryEntry, error) {
	query := "SELECT date, body, mood, updated_at FROM diary_entries"
	var args []any
	if from != "" && to != "" {
		query += " WHERE date BETWEEN ? AND ?"
		args = append(args, from, to)
	}
	query += " ORDER BY date ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diary entries: %w", err)
	}
	defer rows.Close()

	var entries []DiaryEntry
	for rows.Next() {
		e, err := scanDiaryFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diary entries: %w", err)
	}
	return entries, nil
}

// DeleteDiaryEntry removes the entry for a date. Idempotent.
func (d *DB) DeleteDiaryEntry(date string) error {
	if _, err := d.Exec("DELETE FROM diary_entries WHERE date = ?", date); err != nil {
		return fmt.Errorf("delete diary entry: %w", err)
	}
	return nil
}

// ValidBlockTree reports whether body is acceptable as a stored block tree:
// empty, or well-formed JSON. Structure beyond that is the editor's contract.
func ValidBlockTree(body string) bool {
	return body == "" || gjson.Valid(body)
}

// blockTreePreview extracts a short plain-text preview from a serialized
// block tree by collecting every "text" leaf in document order.
func blockTreePreview(body string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}

	var parts []string
	var walk func(v gjson.Result)
	walk = func(v gjson.Result) {
		if len(parts) >= 20 {
			return
		}
		switch v.Type {
		case gjson.JSON:
			if v.IsObject() {
				if t := v.Get("text"); t.Type == gjson.String && t.Str != "" {
					parts = append(parts, t.Str)
				}
			}
			v.ForEach(func(_, child gjson.Result) bool {
				if child.IsObject() || child.IsArray() {
					walk(child)
				}
				return len(parts) < 20
			})
		}
	}
	walk(gjson.Parse(body))

	preview := strings.Join(parts, " ")
	if len(preview) > 120 {
		preview = preview[:120]
	}
	return preview
}

func scanDiaryFrom(scan func(...any) error) (*DiaryEntry, error) {
	var e DiaryEntry
	var mood sql.NullString
	var updated string

	if err := scan(&e.Date, &e.Body, &mood, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan diary entry: %w", err)
	}

	e.ID = e.Date
	e.Mood = fromNull(mood)
	e.Preview = blockTreePreview(e.Body)
	e.UpdatedAt = parseStamp(updated)
	return &e, nil
}
