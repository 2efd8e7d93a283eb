package db

import (
	"context"
	"errors"
	"testing"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

func mustCreateGoal(t *testing.T, d *DB, parent *int64, title, start, end string) *Goal {
	t.Helper()
	g := &Goal{ParentID: parent, Title: title, StartDate: start, EndDate: end}
	if err := d.CreateGoal(context.Background(), g); err != nil {
		t.Fatalf("CreateGoal(%s) failed: %v", title, err)
	}
	return g
}

func goalSpan(t *testing.T, d *DB, id int64) (string, string) {
	t.Helper()
	g, err := d.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal(%d) failed: %v", id, err)
	}
	if g == nil {
		t.Fatalf("goal %d missing", id)
	}
	return g.StartDate, g.EndDate
}

func TestGoalDatePropagationUpward(t *testing.T) {
	d := NewTestDB(t)

	// Three levels: epic > story > task.
	epic := mustCreateGoal(t, d, nil, "epic", "2024-03-01", "2024-03-01")
	story := mustCreateGoal(t, d, &epic.ID, "story", "2024-03-05", "2024-03-10")

	// Creating the story must already have widened the epic.
	if s, e := goalSpan(t, d, epic.ID); s != "2024-03-05" || e != "2024-03-10" {
		t.Errorf("epic span = %s..%s, want 2024-03-05..2024-03-10", s, e)
	}

	task := mustCreateGoal(t, d, &story.ID, "task", "2024-03-01", "2024-03-20")

	// The task's wider span propagates through the story to the epic.
	if s, e := goalSpan(t, d, story.ID); s != "2024-03-01" || e != "2024-03-20" {
		t.Errorf("story span = %s..%s, want 2024-03-01..2024-03-20", s, e)
	}
	if s, e := goalSpan(t, d, epic.ID); s != "2024-03-01" || e != "2024-03-20" {
		t.Errorf("epic span = %s..%s, want 2024-03-01..2024-03-20", s, e)
	}

	// Shrinking the task shrinks both ancestors.
	_, err := d.UpdateGoal(context.Background(), task.ID, &GoalPatch{
		StartDate: patch.Set("2024-03-08"),
		EndDate:   patch.Set("2024-03-09"),
	})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	if s, e := goalSpan(t, d, story.ID); s != "2024-03-08" || e != "2024-03-09" {
		t.Errorf("story span after shrink = %s..%s, want 2024-03-08..2024-03-09", s, e)
	}
	if s, e := goalSpan(t, d, epic.ID); s != "2024-03-08" || e != "2024-03-09" {
		t.Errorf("epic span after shrink = %s..%s, want 2024-03-08..2024-03-09", s, e)
	}
}

func TestGoalNoOrphanReset(t *testing.T) {
	d := NewTestDB(t)

	parent := mustCreateGoal(t, d, nil, "parent", "2024-01-01", "2024-01-01")
	child := mustCreateGoal(t, d, &parent.ID, "child", "2024-02-01", "2024-02-15")

	if s, e := goalSpan(t, d, parent.ID); s != "2024-02-01" || e != "2024-02-15" {
		t.Fatalf("parent span = %s..%s, want child span", s, e)
	}

	// Deleting the last child keeps the parent's last-known span.
	if err := d.DeleteGoal(context.Background(), child.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
	if s, e := goalSpan(t, d, parent.ID); s != "2024-02-01" || e != "2024-02-15" {
		t.Errorf("parent span after losing last child = %s..%s, want unchanged", s, e)
	}
}

func TestGoalReparentUpdatesBothLineages(t *testing.T) {
	d := NewTestDB(t)

	a := mustCreateGoal(t, d, nil, "A", "2024-01-01", "2024-01-01")
	b := mustCreateGoal(t, d, nil, "B", "2024-06-01", "2024-06-01")
	keeper := mustCreateGoal(t, d, &a.ID, "keeper", "2024-01-10", "2024-01-20")
	mover := mustCreateGoal(t, d, &a.ID, "mover", "2024-03-01", "2024-03-31")

	if s, e := goalSpan(t, d, a.ID); s != "2024-01-10" || e != "2024-03-31" {
		t.Fatalf("A span = %s..%s", s, e)
	}

	// Move "mover" from A to B.
	_, err := d.UpdateGoal(context.Background(), mover.ID, &GoalPatch{
		ParentID: patch.Set(b.ID),
	})
	if err != nil {
		t.Fatalf("reparent failed: %v", err)
	}

	// A shrinks back to the keeper's span.
	if s, e := goalSpan(t, d, a.ID); s != keeper.StartDate || e != keeper.EndDate {
		t.Errorf("A span after move = %s..%s, want %s..%s", s, e, keeper.StartDate, keeper.EndDate)
	}
	// B grows to include the mover.
	if s, e := goalSpan(t, d, b.ID); s != "2024-03-01" || e != "2024-03-31" {
		t.Errorf("B span after move = %s..%s, want mover span", s, e)
	}
}

func TestGoalCycleGuard(t *testing.T) {
	d := NewTestDB(t)

	root := mustCreateGoal(t, d, nil, "root", "2024-01-01", "2024-01-31")
	mid := mustCreateGoal(t, d, &root.ID, "mid", "2024-01-05", "2024-01-10")
	leaf := mustCreateGoal(t, d, &mid.ID, "leaf", "2024-01-06", "2024-01-07")

	// root under leaf would be a cycle through mid.
	_, err := d.UpdateGoal(context.Background(), root.ID, &GoalPatch{
		ParentID: patch.Set(leaf.ID),
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	var terr *techoerrors.TechoError
	if !errors.As(err, &terr) || terr.Code != techoerrors.CodeGoalCycle {
		t.Errorf("error = %v, want GOAL_CYCLE", err)
	}

	// Self-parenting is also a cycle.
	if _, err := d.UpdateGoal(context.Background(), mid.ID, &GoalPatch{
		ParentID: patch.Set(mid.ID),
	}); err == nil {
		t.Error("expected self-parent to be rejected")
	}

	// Unknown parent is a distinct error.
	_, err = d.UpdateGoal(context.Background(), leaf.ID, &GoalPatch{
		ParentID: patch.Set(int64(9999)),
	})
	if !errors.As(err, &terr) || terr.Code != techoerrors.CodeGoalNotFound {
		t.Errorf("error = %v, want GOAL_NOT_FOUND", err)
	}
}

func TestGoalDetachToRoot(t *testing.T) {
	d := NewTestDB(t)

	parent := mustCreateGoal(t, d, nil, "parent", "2024-01-01", "2024-01-01")
	keeper := mustCreateGoal(t, d, &parent.ID, "keeper", "2024-01-02", "2024-01-03")
	child := mustCreateGoal(t, d, &parent.ID, "child", "2024-02-01", "2024-02-28")

	// Explicit null parent_id detaches; absent parent_id keeps the parent.
	got, err := d.UpdateGoal(context.Background(), child.ID, &GoalPatch{
		ParentID: patch.Null[int64](),
	})
	if err != nil {
		t.Fatalf("detach failed: %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *got.ParentID)
	}

	// Former parent shrank to the remaining child.
	if s, e := goalSpan(t, d, parent.ID); s != keeper.StartDate || e != keeper.EndDate {
		t.Errorf("parent span after detach = %s..%s, want %s..%s", s, e, keeper.StartDate, keeper.EndDate)
	}
}

func TestGoalPatchMergeSemantics(t *testing.T) {
	d := NewTestDB(t)

	g := &Goal{
		Title: "write report", StartDate: "2024-04-01", EndDate: "2024-04-05",
		Memo: "draft first", Category: "work", Progress: 40,
	}
	if err := d.CreateGoal(context.Background(), g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	got, err := d.UpdateGoal(context.Background(), g.ID, &GoalPatch{
		Status: patch.Set(GoalDone),
	})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}

	if got.Status != GoalDone {
		t.Errorf("Status = %s, want done", got.Status)
	}
	// Everything else, progress included, stays put.
	if got.Title != "write report" || got.Memo != "draft first" || got.Category != "work" {
		t.Errorf("unrelated fields changed: %+v", got)
	}
	if got.Progress != 40 {
		t.Errorf("Progress = %d, want 40 (never implicitly changed)", got.Progress)
	}
}

func TestGoalCascadeDelete(t *testing.T) {
	d := NewTestDB(t)

	root := mustCreateGoal(t, d, nil, "root", "2024-01-01", "2024-01-31")
	mid := mustCreateGoal(t, d, &root.ID, "mid", "2024-01-05", "2024-01-10")
	leaf := mustCreateGoal(t, d, &mid.ID, "leaf", "2024-01-06", "2024-01-07")

	if err := d.DeleteGoal(context.Background(), mid.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}

	for _, id := range []int64{mid.ID, leaf.ID} {
		g, err := d.GetGoal(id)
		if err != nil {
			t.Fatalf("GetGoal failed: %v", err)
		}
		if g != nil {
			t.Errorf("goal %d survived cascade delete", id)
		}
	}

	// Deleting again is a no-op.
	if err := d.DeleteGoal(context.Background(), mid.ID); err != nil {
		t.Errorf("repeat delete should be idempotent, got %v", err)
	}
}

func TestGoalRangeOverlapQuery(t *testing.T) {
	d := NewTestDB(t)

	mustCreateGoal(t, d, nil, "before", "2024-01-01", "2024-01-31")
	overlapLeft := mustCreateGoal(t, d, nil, "overlap-left", "2024-02-10", "2024-02-16")
	inside := mustCreateGoal(t, d, nil, "inside", "2024-02-16", "2024-02-17")
	spanning := mustCreateGoal(t, d, nil, "spanning", "2024-01-01", "2024-03-31")
	mustCreateGoal(t, d, nil, "after", "2024-03-01", "2024-03-05")

	goals, err := d.ListGoals("2024-02-15", "2024-02-21")
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}

	want := map[int64]bool{overlapLeft.ID: true, inside.ID: true, spanning.ID: true}
	if len(goals) != len(want) {
		t.Fatalf("got %d goals, want %d", len(goals), len(want))
	}
	for _, g := range goals {
		if !want[g.ID] {
			t.Errorf("unexpected goal %q in window", g.Title)
		}
	}
}

func TestGoalSiblingSortOrder(t *testing.T) {
	d := NewTestDB(t)

	parent := mustCreateGoal(t, d, nil, "parent", "2024-01-01", "2024-01-31")
	c1 := mustCreateGoal(t, d, &parent.ID, "c1", "2024-01-01", "2024-01-02")
	c2 := mustCreateGoal(t, d, &parent.ID, "c2", "2024-01-03", "2024-01-04")

	if c1.SortOrder != 1 || c2.SortOrder != 2 {
		t.Errorf("sibling sort orders = %d, %d, want 1, 2", c1.SortOrder, c2.SortOrder)
	}

	// Another root gets its own numbering partition.
	other := mustCreateGoal(t, d, nil, "other-root", "2024-01-01", "2024-01-02")
	if other.SortOrder != parent.SortOrder+1 {
		t.Errorf("root sort order = %d, want %d", other.SortOrder, parent.SortOrder+1)
	}
}
