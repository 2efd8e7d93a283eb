package db

import (
	"context"
	"errors"
	"testing"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

func TestTodoCreateAssignsSortOrder(t *testing.T) {
	d := NewTestDB(t)

	titles := []string{"first", "second", "third"}
	for i, title := range titles {
		todo := &Todo{Title: title}
		if err := d.CreateTodo(todo); err != nil {
			t.Fatalf("CreateTodo failed: %v", err)
		}
		if todo.SortOrder != i+1 {
			t.Errorf("sort_order = %d, want %d", todo.SortOrder, i+1)
		}
	}

	todos, err := d.ListTodos("")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if len(todos) != 3 {
		t.Fatalf("got %d todos, want 3", len(todos))
	}
	for i, todo := range todos {
		if todo.Title != titles[i] {
			t.Errorf("todos[%d] = %q, want %q", i, todo.Title, titles[i])
		}
	}
}

func TestTodoListByDate(t *testing.T) {
	d := NewTestDB(t)

	for _, todo := range []*Todo{
		{Title: "today", Date: "2024-05-01"},
		{Title: "tomorrow", Date: "2024-05-02"},
		{Title: "unscheduled"},
	} {
		if err := d.CreateTodo(todo); err != nil {
			t.Fatalf("CreateTodo failed: %v", err)
		}
	}

	todos, err := d.ListTodos("2024-05-01")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "today" {
		t.Errorf("filtered list = %+v, want only 'today'", todos)
	}
}

func TestTodoPatchMerge(t *testing.T) {
	d := NewTestDB(t)

	todo := &Todo{Title: "buy milk", Date: "2024-05-01", Memo: "two bottles"}
	if err := d.CreateTodo(todo); err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}

	// Only done supplied: title, date, memo must survive.
	got, err := d.UpdateTodo(todo.ID, &TodoPatch{Done: patch.Set(true)})
	if err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}
	if !got.Done || got.Title != "buy milk" || got.Date != "2024-05-01" || got.Memo != "two bottles" {
		t.Errorf("merge result = %+v", got)
	}

	// Explicit null clears the date; memo untouched.
	got, err = d.UpdateTodo(todo.ID, &TodoPatch{Date: patch.Null[string]()})
	if err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}
	if got.Date != "" {
		t.Errorf("Date = %q, want cleared", got.Date)
	}
	if got.Memo != "two bottles" {
		t.Errorf("Memo = %q, want untouched", got.Memo)
	}
}

func TestTodoUpdateNotFound(t *testing.T) {
	d := NewTestDB(t)

	_, err := d.UpdateTodo(42, &TodoPatch{Title: patch.Set("x")})
	var terr *techoerrors.TechoError
	if !errors.As(err, &terr) || terr.Code != techoerrors.CodeNotFound {
		t.Errorf("error = %v, want RESOURCE_NOT_FOUND", err)
	}
}

func TestTodoDeleteIdempotent(t *testing.T) {
	d := NewTestDB(t)

	todo := &Todo{Title: "gone"}
	if err := d.CreateTodo(todo); err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}
	if err := d.DeleteTodo(todo.ID); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	if err := d.DeleteTodo(todo.ID); err != nil {
		t.Errorf("second delete should succeed, got %v", err)
	}
}

func TestTodoReorder(t *testing.T) {
	d := NewTestDB(t)

	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		todo := &Todo{Title: title}
		if err := d.CreateTodo(todo); err != nil {
			t.Fatalf("CreateTodo failed: %v", err)
		}
		ids = append(ids, todo.ID)
	}

	// Reverse the order.
	err := d.ReorderTodos(context.Background(), []OrderPair{
		{ID: ids[0], SortOrder: 3},
		{ID: ids[1], SortOrder: 2},
		{ID: ids[2], SortOrder: 1},
	})
	if err != nil {
		t.Fatalf("ReorderTodos failed: %v", err)
	}

	todos, err := d.ListTodos("")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if todos[0].Title != "c" || todos[2].Title != "a" {
		t.Errorf("reordered list = %v", todos)
	}
}

func TestTodoReorderAtomicity(t *testing.T) {
	d := NewTestDB(t)

	var ids []int64
	for _, title := range []string{"a", "b"} {
		todo := &Todo{Title: title}
		if err := d.CreateTodo(todo); err != nil {
			t.Fatalf("CreateTodo failed: %v", err)
		}
		ids = append(ids, todo.ID)
	}

	// One bad id: the valid reassignment must not apply either.
	err := d.ReorderTodos(context.Background(), []OrderPair{
		{ID: ids[0], SortOrder: 99},
		{ID: 12345, SortOrder: 1},
	})
	if err == nil {
		t.Fatal("expected reorder with unknown id to fail")
	}

	todos, err := d.ListTodos("")
	if err != nil {
		t.Fatalf("ListTodos failed: %v", err)
	}
	if todos[0].SortOrder != 1 || todos[0].Title != "a" {
		t.Errorf("partial reorder applied: %+v", todos)
	}
}
