package patch

import (
	"encoding/json"
	"testing"
)

type sample struct {
	Title Field[string] `json:"title"`
	Memo  Field[string] `json:"memo"`
	Count Field[int]    `json:"count"`
}

func TestFieldAbsent(t *testing.T) {
	var s sample
	if err := json.Unmarshal([]byte(`{}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if s.Title.Present() || s.Memo.Present() || s.Count.Present() {
		t.Error("fields missing from the body must not be present")
	}
}

func TestFieldNull(t *testing.T) {
	var s sample
	if err := json.Unmarshal([]byte(`{"memo": null}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !s.Memo.Present() {
		t.Error("explicit null must be present")
	}
	if s.Memo.Valid() {
		t.Error("explicit null must not be valid")
	}
	if s.Title.Present() {
		t.Error("title was absent")
	}
}

func TestFieldValue(t *testing.T) {
	var s sample
	if err := json.Unmarshal([]byte(`{"title": "groceries", "count": 0}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !s.Title.Valid() || s.Title.Value() != "groceries" {
		t.Errorf("Title = %+v, want groceries", s.Title)
	}
	// Zero values are still explicitly-set values, not absence.
	if !s.Count.Valid() || s.Count.Value() != 0 {
		t.Errorf("Count = %+v, want explicit 0", s.Count)
	}
}

func TestFieldOr(t *testing.T) {
	var s sample
	if err := json.Unmarshal([]byte(`{"title": "new"}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := s.Title.Or("old"); got != "new" {
		t.Errorf("Or = %q, want new", got)
	}
	if got := s.Memo.Or("kept"); got != "kept" {
		t.Errorf("Or = %q, want kept", got)
	}
}
