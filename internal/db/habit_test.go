package db

import (
	"context"
	"errors"
	"testing"

	techoerrors "github.com/mkoseki/techo/internal/errors"
)

func TestHabitLogToggle(t *testing.T) {
	d := NewTestDB(t)

	habit := &Habit{Name: "stretch"}
	if err := d.CreateHabit(habit); err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}

	ctx := context.Background()
	date := "2024-05-01"

	logged, err := d.ToggleHabitLog(ctx, habit.ID, date)
	if err != nil {
		t.Fatalf("toggle 1 failed: %v", err)
	}
	if !logged {
		t.Error("first toggle should log")
	}

	logged, err = d.ToggleHabitLog(ctx, habit.ID, date)
	if err != nil {
		t.Fatalf("toggle 2 failed: %v", err)
	}
	if logged {
		t.Error("second toggle should remove the log")
	}

	logs, err := d.ListHabitLogs(habit.ID, "", "")
	if err != nil {
		t.Fatalf("ListHabitLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("after even toggles got %d logs, want 0", len(logs))
	}

	// Odd number of toggles leaves exactly one row.
	if _, err := d.ToggleHabitLog(ctx, habit.ID, date); err != nil {
		t.Fatalf("toggle 3 failed: %v", err)
	}
	logs, err = d.ListHabitLogs(habit.ID, "", "")
	if err != nil {
		t.Fatalf("ListHabitLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("after odd toggles got %d logs, want 1", len(logs))
	}
}

func TestHabitLogToggleUnknownHabit(t *testing.T) {
	d := NewTestDB(t)

	_, err := d.ToggleHabitLog(context.Background(), 77, "2024-05-01")
	var terr *techoerrors.TechoError
	if !errors.As(err, &terr) || terr.Code != techoerrors.CodeNotFound {
		t.Errorf("error = %v, want RESOURCE_NOT_FOUND", err)
	}
}

func TestHabitLogWindow(t *testing.T) {
	d := NewTestDB(t)

	a := &Habit{Name: "run"}
	b := &Habit{Name: "read"}
	for _, h := range []*Habit{a, b} {
		if err := d.CreateHabit(h); err != nil {
			t.Fatalf("CreateHabit failed: %v", err)
		}
	}

	ctx := context.Background()
	for _, date := range []string{"2024-05-01", "2024-05-02", "2024-06-01"} {
		if _, err := d.ToggleHabitLog(ctx, a.ID, date); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}
	if _, err := d.ToggleHabitLog(ctx, b.ID, "2024-05-01"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	// One habit, windowed.
	logs, err := d.ListHabitLogs(a.ID, "2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("ListHabitLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("windowed logs = %d, want 2", len(logs))
	}

	// All habits in the window.
	logs, err = d.ListHabitLogs(0, "2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("ListHabitLogs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("all-habit logs = %d, want 3", len(logs))
	}
}

func TestHabitDeleteCascadesLogs(t *testing.T) {
	d := NewTestDB(t)

	habit := &Habit{Name: "journal"}
	if err := d.CreateHabit(habit); err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if _, err := d.ToggleHabitLog(context.Background(), habit.ID, "2024-05-01"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := d.DeleteHabit(habit.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	logs, err := d.ListHabitLogs(0, "", "")
	if err != nil {
		t.Fatalf("ListHabitLogs failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("logs survived habit delete: %+v", logs)
	}
}
