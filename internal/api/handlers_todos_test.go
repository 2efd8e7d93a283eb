package api

import (
	"net/http"
	"testing"

	"github.com/mkoseki/techo/internal/db"
)

func TestTodoCRUD(t *testing.T) {
	_, ts := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/api/todos", map[string]any{
		"title": "buy milk",
		"date":  "2024-05-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", resp.StatusCode, raw)
	}
	var created db.Todo
	decode(t, raw, &created)
	if created.ID == 0 {
		t.Fatal("created todo has no id")
	}
	if created.SortOrder != 1 {
		t.Errorf("SortOrder = %d, want 1", created.SortOrder)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/todos?date=2024-05-01", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var todos []db.Todo
	decode(t, raw, &todos)
	if len(todos) != 1 {
		t.Fatalf("len(todos) = %d, want 1", len(todos))
	}

	// Merge patch: toggling done must not touch title.
	resp, raw = doJSON(t, http.MethodPatch, ts.URL+"/api/todos/1", map[string]any{
		"done": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200: %s", resp.StatusCode, raw)
	}
	var patched db.Todo
	decode(t, raw, &patched)
	if !patched.Done {
		t.Error("Done = false after patch")
	}
	if patched.Title != "buy milk" {
		t.Errorf("Title = %q, patch must not clobber it", patched.Title)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/todos/1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Idempotent delete.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/todos/1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", resp.StatusCode)
	}
}

func TestTodoPatchNullClearsDate(t *testing.T) {
	_, ts := newTestServer(t)

	doJSON(t, http.MethodPost, ts.URL+"/api/todos", map[string]any{
		"title": "someday",
		"date":  "2024-05-01",
	})

	resp, raw := doJSON(t, http.MethodPatch, ts.URL+"/api/todos/1", map[string]any{
		"date": nil,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200: %s", resp.StatusCode, raw)
	}
	var patched db.Todo
	decode(t, raw, &patched)
	if patched.Date != "" {
		t.Errorf("Date = %q, explicit null must clear it", patched.Date)
	}
}

func TestTodoNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/todos/99", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/api/todos/99", map[string]any{"done": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("patch status = %d, want 404", resp.StatusCode)
	}
}

func TestTodoReorder(t *testing.T) {
	_, ts := newTestServer(t)

	for _, title := range []string{"a", "b", "c"} {
		doJSON(t, http.MethodPost, ts.URL+"/api/todos", map[string]any{"title": title})
	}

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/api/todos/reorder", map[string]any{
		"orders": []map[string]any{
			{"id": 3, "sort_order": 1},
			{"id": 1, "sort_order": 2},
			{"id": 2, "sort_order": 3},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, want 200: %s", resp.StatusCode, raw)
	}

	_, raw = doJSON(t, http.MethodGet, ts.URL+"/api/todos", nil)
	var todos []db.Todo
	decode(t, raw, &todos)
	if len(todos) != 3 || todos[0].ID != 3 || todos[1].ID != 1 || todos[2].ID != 2 {
		t.Errorf("unexpected order after reorder: %+v", todos)
	}
}

func TestTodoReorderUnknownIDFails(t *testing.T) {
	_, ts := newTestServer(t)

	doJSON(t, http.MethodPost, ts.URL+"/api/todos", map[string]any{"title": "only"})

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/todos/reorder", map[string]any{
		"orders": []map[string]any{
			{"id": 1, "sort_order": 5},
			{"id": 99, "sort_order": 6},
		},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("reorder status = %d, want 404", resp.StatusCode)
	}

	// Nothing may be applied when any id is unknown.
	_, raw := doJSON(t, http.MethodGet, ts.URL+"/api/todos", nil)
	var todos []db.Todo
	decode(t, raw, &todos)
	if len(todos) != 1 || todos[0].SortOrder != 1 {
		t.Errorf("partial reorder applied: %+v", todos)
	}
}
