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

// IssueType classifies a goal in the WBS hierarchy. The containment order
// (epic > story > task > subtask) is a UI convention, not enforced here.
type IssueType string

const (
	IssueEpic    IssueType = "epic"
	IssueStory   IssueType = "story"
	IssueTask    IssueType = "task"
	IssueSubtask IssueType = "subtask"
)

// GoalStatus is the workflow state of a goal.
type GoalStatus string

const (
	GoalTodo       GoalStatus = "todo"
	GoalInProgress GoalStatus = "in_progress"
	GoalDone       GoalStatus = "done"
)

// Goal is a hierarchical work item with an inclusive date span.
//
// Invariant: a goal with children always has start_date = min(children) and
// end_date = max(children). The store maintains this eagerly: every mutation
// that can move a child's span runs syncParentDates inside the same
// transaction, walking the ancestor chain to the root.
type Goal struct {
	ID                int64      `json:"id"`
	ParentID          *int64     `json:"parent_id,omitempty"`
	IssueType         IssueType  `json:"issue_type"`
	Title             string     `json:"title"`
	StartDate         string     `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate           string     `json:"end_date"`   // YYYY-MM-DD, inclusive
	Status            GoalStatus `json:"status"`
	Progress          int        `json:"progress"`
	SortOrder         int        `json:"sort_order"`
	Color             string     `json:"color,omitempty"`
	ScheduledTime     string     `json:"scheduled_time,omitempty"` // HH:MM
	ScheduledDuration int        `json:"scheduled_duration,omitempty"`
	Memo              string     `json:"memo,omitempty"`
	Note              string     `json:"note,omitempty"`
	Category          string     `json:"category,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// GoalPatch is the merge-patch shape for updating a goal. ParentID
// distinguishes "absent" (keep current parent) from explicit null (detach
// to root). Progress is never changed implicitly; callers set it.
type GoalPatch struct {
	ParentID          patch.Field[int64]      `json:"parent_id"`
	IssueType         patch.Field[IssueType]  `json:"issue_type"`
	Title             patch.Field[string]     `json:"title"`
	StartDate         patch.Field[string]     `json:"start_date"`
	EndDate           patch.Field[string]     `json:"end_date"`
	Status            patch.Field[GoalStatus] `json:"status"`
	Progress          patch.Field[int]        `json:"progress"`
	Color             patch.Field[string]     `json:"color"`
	ScheduledTime     patch.Field[string]     `json:"scheduled_time"`
	ScheduledDuration patch.Field[int]        `json:"scheduled_duration"`
	Memo              patch.Field[string]     `json:"memo"`
	Note              patch.Field[string]     `json:"note"`
	Category          patch.Field[string]     `json:"category"`
}

const goalColumns = `id, parent_id, issue_type, title, start_date, end_date,
	status, progress, sort_order, color, scheduled_time, scheduled_duration,
	memo, note, category, created_at, updated_at`

// CreateGoal inserts a goal and re-syncs the parent chain in one transaction.
func (d *DB) CreateGoal(ctx context.Context, g *Goal) error {
	if g.IssueType == "" {
		g.IssueType = IssueTask
	}
	if g.Status == "" {
		g.Status = GoalTodo
	}
	now := nowStamp()

	return d.RunInTx(ctx, func(tx *TxOps) error {
		if g.ParentID != nil {
			if err := validateParent(tx, 0, *g.ParentID); err != nil {
				return err
			}
		}

		// sort_order is per sibling group
		var next int
		var err error
		if g.ParentID == nil {
			err = tx.QueryRow("SELECT COALESCE(MAX(sort_order), 0) + 1 FROM goals WHERE parent_id IS NULL").Scan(&next)
		} else {
			err = tx.QueryRow("SELECT COALESCE(MAX(sort_order), 0) + 1 FROM goals WHERE parent_id = ?", *g.ParentID).Scan(&next)
		}
		if err != nil {
			return fmt.Errorf("next goal sort order: %w", err)
		}
		g.SortOrder = next

		res, err := tx.Exec(`
			INSERT INTO goals (parent_id, issue_type, title, start_date, end_date,
				status, progress, sort_order, color, scheduled_time, scheduled_duration,
				memo, note, category, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, g.ParentID, g.IssueType, g.Title, g.StartDate, g.EndDate,
			g.Status, g.Progress, g.SortOrder, nullableString(g.Color),
			nullableString(g.ScheduledTime), g.ScheduledDuration,
			nullableString(g.Memo), nullableString(g.Note), nullableString(g.Category),
			now, now)
		if err != nil {
			return fmt.Errorf("create goal: %w", err)
		}

		g.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create goal: %w", err)
		}
		g.CreatedAt = parseStamp(now)
		g.UpdatedAt = g.CreatedAt

		return syncParentDates(tx, g.ParentID)
	})
}

// GetGoal retrieves a single goal by ID, or nil when absent.
func (d *DB) GetGoal(id int64) (*Goal, error) {
	row := d.QueryRow("SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	g, err := scanGoalFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// ListGoals returns goals ordered for display. When from and to are both
// set, only goals whose span overlaps [from, to] are returned — overlap,
// not containment, so partially visible goals appear in calendar windows.
func (d *DB) ListGoals(from, to string) ([]Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals"
	var args []any
	if from != "" && to != "" {
		query += " WHERE start_date <= ? AND end_date >= ?"
		args = append(args, to, from)
	}
	query += " ORDER BY sort_order ASC, created_at ASC, id ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoalFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// ListChildren returns the direct children of a goal in sibling order.
func (d *DB) ListChildren(parentID int64) ([]Goal, error) {
	rows, err := d.Query("SELECT "+goalColumns+` FROM goals WHERE parent_id = ?
		ORDER BY sort_order ASC, created_at ASC, id ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoalFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return goals, nil
}

// UpdateGoal merges the patch onto the stored goal and re-syncs every
// affected lineage. Reparenting syncs both the former and the new parent
// chain; the cycle guard rejects a parent that is the goal itself or any
// of its descendants.
func (d *DB) UpdateGoal(ctx context.Context, id int64, p *GoalPatch) (*Goal, error) {
	var updated *Goal

	err := d.RunInTx(ctx, func(tx *TxOps) error {
		existing, err := getGoalTx(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return techoerrors.ErrGoalNotFound(id)
		}

		oldParent := existing.ParentID

		if p.ParentID.Present() {
			if p.ParentID.Valid() {
				newParent := p.ParentID.Value()
				if err := validateParent(tx, id, newParent); err != nil {
					return err
				}
				existing.ParentID = &newParent
			} else {
				existing.ParentID = nil // detach to root
			}
		}

		existing.IssueType = p.IssueType.Or(existing.IssueType)
		existing.Title = p.Title.Or(existing.Title)
		existing.StartDate = p.StartDate.Or(existing.StartDate)
		existing.EndDate = p.EndDate.Or(existing.EndDate)
		existing.Status = p.Status.Or(existing.Status)
		if p.Progress.Present() {
			existing.Progress = p.Progress.Value()
		}
		if p.Color.Present() {
			existing.Color = p.Color.Value()
		}
		if p.ScheduledTime.Present() {
			existing.ScheduledTime = p.ScheduledTime.Value()
		}
		if p.ScheduledDuration.Present() {
			existing.ScheduledDuration = p.ScheduledDuration.Value()
		}
		if p.Memo.Present() {
			existing.Memo = p.Memo.Value()
		}
		if p.Note.Present() {
			existing.Note = p.Note.Value()
		}
		if p.Category.Present() {
			existing.Category = p.Category.Value()
		}

		now := nowStamp()
		existing.UpdatedAt = parseStamp(now)

		_, err = tx.Exec(`
			UPDATE goals SET parent_id = ?, issue_type = ?, title = ?,
				start_date = ?, end_date = ?, status = ?, progress = ?,
				color = ?, scheduled_time = ?, scheduled_duration = ?,
				memo = ?, note = ?, category = ?, updated_at = ?
			WHERE id = ?
		`, existing.ParentID, existing.IssueType, existing.Title,
			existing.StartDate, existing.EndDate, existing.Status, existing.Progress,
			nullableString(existing.Color), nullableString(existing.ScheduledTime),
			existing.ScheduledDuration, nullableString(existing.Memo),
			nullableString(existing.Note), nullableString(existing.Category),
			now, id)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}

		// Resulting parent first, then the former lineage if it changed.
		if err := syncParentDates(tx, existing.ParentID); err != nil {
			return err
		}
		if !sameParent(oldParent, existing.ParentID) {
			if err := syncParentDates(tx, oldParent); err != nil {
				return err
			}
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteGoal removes a goal and all of its descendants (FK cascade), then
// re-syncs the former parent chain. Idempotent.
func (d *DB) DeleteGoal(ctx context.Context, id int64) error {
	return d.RunInTx(ctx, func(tx *TxOps) error {
		existing, err := getGoalTx(tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		if _, err := tx.Exec("DELETE FROM goals WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}

		return syncParentDates(tx, existing.ParentID)
	})
}

// ReorderGoals atomically applies a bulk sibling reordering.
func (d *DB) ReorderGoals(ctx context.Context, pairs []OrderPair) error {
	return d.reorder(ctx, "goals", pairs)
}

// syncParentDates walks the ancestor chain starting at parentID, setting
// each ancestor's span to the min/max over its direct children. Iterative,
// so tree depth is unbounded without stack growth. An ancestor that has no
// children keeps its last-known span and the walk stops there.
func syncParentDates(tx *TxOps, parentID *int64) error {
	pid := parentID
	for pid != nil {
		var grand sql.NullInt64
		err := tx.QueryRow("SELECT parent_id FROM goals WHERE id = ?", *pid).Scan(&grand)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load parent %d: %w", *pid, err)
		}

		var minStart, maxEnd sql.NullString
		err = tx.QueryRow(`
			SELECT MIN(start_date), MAX(end_date) FROM goals WHERE parent_id = ?
		`, *pid).Scan(&minStart, &maxEnd)
		if err != nil {
			return fmt.Errorf("aggregate child span of %d: %w", *pid, err)
		}

		if !minStart.Valid || !maxEnd.Valid {
			// Last child gone: keep the parent's previous span.
			return nil
		}

		if _, err := tx.Exec(`
			UPDATE goals SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?
		`, minStart.String, maxEnd.String, nowStamp(), *pid); err != nil {
			return fmt.Errorf("sync parent %d: %w", *pid, err)
		}

		if grand.Valid {
			g := grand.Int64
			pid = &g
		} else {
			pid = nil
		}
	}
	return nil
}

// validateParent rejects a parent assignment that would create a cycle:
// the proposed parent must exist and must not be the goal itself or one of
// its descendants. goalID 0 means a not-yet-inserted goal (create path),
// which can never be on the ancestor chain.
func validateParent(tx *TxOps, goalID, parentID int64) error {
	if goalID != 0 && parentID == goalID {
		return techoerrors.ErrGoalCycle(goalID, parentID)
	}

	cur := parentID
	for {
		var next sql.NullInt64
		err := tx.QueryRow("SELECT parent_id FROM goals WHERE id = ?", cur).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			if cur == parentID {
				return techoerrors.ErrGoalNotFound(parentID)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("walk ancestors of %d: %w", parentID, err)
		}
		if !next.Valid {
			return nil
		}
		if goalID != 0 && next.Int64 == goalID {
			return techoerrors.ErrGoalCycle(goalID, parentID)
		}
		cur = next.Int64
	}
}

func getGoalTx(tx *TxOps, id int64) (*Goal, error) {
	row := tx.QueryRow("SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	g, err := scanGoalFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func scanGoalFrom(scan func(...any) error) (*Goal, error) {
	var g Goal
	var parent sql.NullInt64
	var color, schedTime, memo, note, category sql.NullString
	var schedDur sql.NullInt64
	var created, updated string

	if err := scan(&g.ID, &parent, &g.IssueType, &g.Title, &g.StartDate, &g.EndDate,
		&g.Status, &g.Progress, &g.SortOrder, &color, &schedTime, &schedDur,
		&memo, &note, &category, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}

	if parent.Valid {
		p := parent.Int64
		g.ParentID = &p
	}
	g.Color = fromNull(color)
	g.ScheduledTime = fromNull(schedTime)
	if schedDur.Valid {
		g.ScheduledDuration = int(schedDur.Int64)
	}
	g.Memo = fromNull(memo)
	g.Note = fromNull(note)
	g.Category = fromNull(category)
	g.CreatedAt = parseStamp(created)
	g.UpdatedAt = parseStamp(updated)
	return &g, nil
}
