package db

import (
	"strings"
	"testing"
)

func TestDiaryAbsentReturnsEmptyShape(t *testing.T) {
	d := NewTestDB(t)

	e, err := d.GetDiaryEntry("2024-05-01")
	if err != nil {
		t.Fatalf("GetDiaryEntry failed: %v", err)
	}
	if e == nil {
		t.Fatal("absent entry must yield a default shape, not nil")
	}
	if e.Date != "2024-05-01" || e.Body != "" {
		t.Errorf("empty shape = %+v", e)
	}
}

func TestDiaryUpsert(t *testing.T) {
	d := NewTestDB(t)

	body := `{"blocks":[{"type":"paragraph","text":"slow morning"}]}`
	if _, err := d.PutDiaryEntry("2024-05-01", body, "calm"); err != nil {
		t.Fatalf("PutDiaryEntry failed: %v", err)
	}

	// Second put replaces, not merges.
	body2 := `{"blocks":[{"type":"paragraph","text":"better afternoon"}]}`
	if _, err := d.PutDiaryEntry("2024-05-01", body2, ""); err != nil {
		t.Fatalf("PutDiaryEntry failed: %v", err)
	}

	e, err := d.GetDiaryEntry("2024-05-01")
	if err != nil {
		t.Fatalf("GetDiaryEntry failed: %v", err)
	}
	if e.Body != body2 {
		t.Errorf("Body = %q, want replaced", e.Body)
	}
	if e.Mood != "" {
		t.Errorf("Mood = %q, want cleared by replace", e.Mood)
	}
}

func TestDiaryListWindow(t *testing.T) {
	d := NewTestDB(t)

	for _, date := range []string{"2024-04-30", "2024-05-01", "2024-05-15", "2024-06-01"} {
		if _, err := d.PutDiaryEntry(date, "", ""); err != nil {
			t.Fatalf("PutDiaryEntry failed: %v", err)
		}
	}

	entries, err := d.ListDiaryEntries("2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("ListDiaryEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("windowed entries = %d, want 2", len(entries))
	}
}

func TestBlockTreePreview(t *testing.T) {
	body := `{"blocks":[
		{"type":"heading","text":"Trip notes"},
		{"type":"list","items":[{"text":"pack bags"},{"text":"book hotel"}]}
	]}`

	preview := blockTreePreview(body)
	for _, want := range []string{"Trip notes", "pack bags", "book hotel"} {
		if !strings.Contains(preview, want) {
			t.Errorf("preview %q missing %q", preview, want)
		}
	}

	if got := blockTreePreview(""); got != "" {
		t.Errorf("empty body preview = %q", got)
	}
	if got := blockTreePreview("{not json"); got != "" {
		t.Errorf("invalid body preview = %q", got)
	}
}

func TestValidBlockTree(t *testing.T) {
	if !ValidBlockTree("") {
		t.Error("empty body is valid")
	}
	if !ValidBlockTree(`{"blocks":[]}`) {
		t.Error("well-formed JSON is valid")
	}
	if ValidBlockTree("{oops") {
		t.Error("malformed JSON must be rejected")
	}
}

func TestPeriodNoteUpsert(t *testing.T) {
	d := NewTestDB(t)

	// Absent period yields the empty shape.
	n, err := d.GetPeriodNote("2024-05")
	if err != nil {
		t.Fatalf("GetPeriodNote failed: %v", err)
	}
	if n.Period != "2024-05" || n.Body != "" {
		t.Errorf("empty shape = %+v", n)
	}

	if _, err := d.PutPeriodNote("2024-05", `{"blocks":[{"text":"ship v2"}]}`); err != nil {
		t.Fatalf("PutPeriodNote failed: %v", err)
	}
	// Weekly keys share the same table.
	if _, err := d.PutPeriodNote("2024-W23", `{"blocks":[{"text":"rest"}]}`); err != nil {
		t.Fatalf("PutPeriodNote failed: %v", err)
	}

	n, err = d.GetPeriodNote("2024-05")
	if err != nil {
		t.Fatalf("GetPeriodNote failed: %v", err)
	}
	if !strings.Contains(n.Preview, "ship v2") {
		t.Errorf("Preview = %q", n.Preview)
	}
}
