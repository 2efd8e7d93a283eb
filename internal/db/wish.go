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

// Wish is an entry on the wish / bucket list.
type Wish struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	Achieved  bool      `json:"achieved"`
	Memo      string    `json:"memo,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// WishPatch is the merge-patch shape for updating a wish.
type WishPatch struct {
	Title    patch.Field[string] `json:"title"`
	Category patch.Field[string] `json:"category"`
	Achieved patch.Field[bool]   `json:"achieved"`
	Memo     patch.Field[string] `json:"memo"`
}

// CreateWish inserts a wish at the end of the list.
func (d *DB) CreateWish(w *Wish) error {
	next, err := nextSortOrder(d, "wishes")
	if err != nil {
		return err
	}
	w.SortOrder = next
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO wishes (title, category, achieved, memo, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.Title, nullableString(w.Category), boolToInt(w.Achieved), nullableString(w.Memo), w.SortOrder, now)
	if err != nil {
		return fmt.Errorf("create wish: %w", err)
	}

	w.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create wish: %w", err)
	}
	w.CreatedAt = parseStamp(now)
	return nil
}

// GetWish retrieves a single wish by ID, or nil when absent.
func (d *DB) GetWish(id int64) (*Wish, error) {
	row := d.QueryRow(`
		SELECT id, title, category, achieved, memo, sort_order, created_at
		FROM wishes WHERE id = ?
	`, id)
	w, err := scanWishFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// ListWishes returns all wishes in manual order.
func (d *DB) ListWishes() ([]Wish, error) {
	rows, err := d.Query(`
		SELECT id, title, category, achieved, memo, sort_order, created_at
		FROM wishes ORDER BY sort_order ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list wishes: %w", err)
	}
	defer rows.Close()

	var wishes []Wish
	for rows.Next() {
		w, err := scanWishFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		wishes = append(wishes, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishes: %w", err)
	}
	return wishes, nil
}

// UpdateWish merges the patch onto the stored wish and returns the result.
func (d *DB) UpdateWish(id int64, p *WishPatch) (*Wish, error) {
	existing, err := d.GetWish(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("wish", id)
	}

	existing.Title = p.Title.Or(existing.Title)
	if p.Category.Present() {
		existing.Category = p.Category.Value()
	}
	if p.Achieved.Present() {
		existing.Achieved = p.Achieved.Value()
	}
	if p.Memo.Present() {
		existing.Memo = p.Memo.Value()
	}

	_, err = d.Exec(`
		UPDATE wishes SET title = ?, category = ?, achieved = ?, memo = ? WHERE id = ?
	`, existing.Title, nullableString(existing.Category), boolToInt(existing.Achieved), nullableString(existing.Memo), id)
	if err != nil {
		return nil, fmt.Errorf("update wish: %w", err)
	}
	return existing, nil
}

// DeleteWish removes a wish. Idempotent.
func (d *DB) DeleteWish(id int64) error {
	return d.deleteByID("wishes", id)
}

// ReorderWishes atomically applies a bulk manual reordering.
func (d *DB) ReorderWishes(ctx context.Context, pairs []OrderPair) error {
	return d.reorder(ctx, "wishes", pairs)
}

func scanWishFrom(scan func(...any) error) (*Wish, error) {
	var w Wish
	var achieved int
	var category, memo sql.NullString
	var created string

	if err := scan(&w.ID, &w.Title, &category, &achieved, &memo, &w.SortOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan wish: %w", err)
	}

	w.Achieved = achieved != 0
	w.Category = fromNull(category)
	w.Memo = fromNull(memo)
	w.CreatedAt = parseStamp(created)
	return &w, nil
}
