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

// FeatureStatus tracks the internal backlog state of a feature request.
type FeatureStatus string

const (
	FeatureOpen    FeatureStatus = "open"
	FeaturePlanned FeatureStatus = "planned"
	FeatureDone    FeatureStatus = "done"
)

// FeatureRequest is an entry in the internal improvement backlog.
type FeatureRequest struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Detail    string        `json:"detail,omitempty"`
	Status    FeatureStatus `json:"status"`
	SortOrder int           `json:"sort_order"`
	CreatedAt time.Time     `json:"created_at"`
}

// FeatureRequestPatch is the merge-patch shape for updating a feature request.
type FeatureRequestPatch struct {
	Title  patch.Field[string]        `json:"title"`
	Detail patch.Field[string]        `json:"detail"`
	Status patch.Field[FeatureStatus] `json:"status"`
}

// CreateFeatureRequest inserts a feature request at the end of the backlog.
func (d *DB) CreateFeatureRequest(f *FeatureRequest) error {
	if f.Status == "" {
		f.Status = FeatureOpen
	}
	next, err := nextSortOrder(d, "feature_requests")
	if err != nil {
		return err
	}
	f.SortOrder = next
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO feature_requests (title, detail, status, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.Title, nullableString(f.Detail), f.Status, f.SortOrder, now)
	if err != nil {
		return fmt.Errorf("create feature request: %w", err)
	}

	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create feature request: %w", err)
	}
	f.CreatedAt = parseStamp(now)
	return nil
}

// GetFeatureRequest retrieves a single feature request by ID, or nil when absent.
func (d *DB) GetFeatureRequest(id int64) (*FeatureRequest, error) {
	row := d.QueryRow(`
		SELECT id, title, detail, status, sort_order, created_at
		FROM feature_requests WHERE id = ?
	`, id)
	f, err := scanFeatureFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

// ListFeatureRequests returns the backlog in manual order.
func (d *DB) ListFeatureRequests() ([]FeatureRequest, error) {
	rows, err := d.Query(`
		SELECT id, title, detail, status, sort_order, created_at
		FROM feature_requests ORDER BY sort_order ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list feature requests: %w", err)
	}
	defer rows.Close()

	var features []FeatureRequest
	for rows.Next() {
		f, err := scanFeatureFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		features = append(features, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature requests: %w", err)
	}
	return features, nil
}

// UpdateFeatureRequest merges the patch onto the stored record.
func (d *DB) UpdateFeatureRequest(id int64, p *FeatureRequestPatch) (*FeatureRequest, error) {
	existing, err := d.GetFeatureRequest(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("feature request", id)
	}

	existing.Title = p.Title.Or(existing.Title)
	if p.Detail.Present() {
		existing.Detail = p.Detail.Value()
	}
	existing.Status = p.Status.Or(existing.Status)

	_, err = d.Exec(`
		UPDATE feature_requests SET title = ?, detail = ?, status = ? WHERE id = ?
	`, existing.Title, nullableString(existing.Detail), existing.Status, id)
	if err != nil {
		return nil, fmt.Errorf("update feature request: %w", err)
	}
	return existing, nil
}

// DeleteFeatureRequest removes a feature request. Idempotent.
func (d *DB) DeleteFeatureRequest(id int64) error {
	return d.deleteByID("feature_requests", id)
}

// ReorderFeatureRequests atomically applies a bulk manual reordering.
func (d *DB) ReorderFeatureRequests(ctx context.Context, pairs []OrderPair) error {
	return d.reorder(ctx, "feature_requests", pairs)
}

func scanFeatureFrom(scan func(...any) error) (*FeatureRequest, error) {
	var f FeatureRequest
	var detail sql.NullString
	var created string

	if err := scan(&f.ID, &f.Title, &detail, &f.Status, &f.SortOrder, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan feature request: %w", err)
	}

	f.Detail = fromNull(detail)
	f.CreatedAt = parseStamp(created)
	return &f, nil
}
