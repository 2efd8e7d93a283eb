package db

import (
	"testing"

	"github.com/mkoseki/techo/internal/patch"
)

func TestBudgetMonthFilterAndSummary(t *testing.T) {
	d := NewTestDB(t)

	for _, e := range []*BudgetEntry{
		{Date: "2024-05-01", Title: "salary", Amount: 300000, Kind: BudgetIncome},
		{Date: "2024-05-03", Title: "groceries", Amount: 8200, Kind: BudgetExpense},
		{Date: "2024-05-20", Title: "rent", Amount: 90000, Kind: BudgetExpense},
		{Date: "2024-06-01", Title: "salary", Amount: 300000, Kind: BudgetIncome},
	} {
		if err := d.CreateBudgetEntry(e); err != nil {
			t.Fatalf("CreateBudgetEntry failed: %v", err)
		}
	}

	entries, err := d.ListBudgetEntries("2024-05")
	if err != nil {
		t.Fatalf("ListBudgetEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("may entries = %d, want 3", len(entries))
	}

	s, err := d.SummarizeBudget("2024-05")
	if err != nil {
		t.Fatalf("SummarizeBudget failed: %v", err)
	}
	if s.Income != 300000 || s.Expense != 98200 || s.Balance != 201800 {
		t.Errorf("summary = %+v", s)
	}
}

func TestBudgetDefaultKindAndPatch(t *testing.T) {
	d := NewTestDB(t)

	e := &BudgetEntry{Date: "2024-05-04", Title: "coffee", Amount: 450}
	if err := d.CreateBudgetEntry(e); err != nil {
		t.Fatalf("CreateBudgetEntry failed: %v", err)
	}
	if e.Kind != BudgetExpense {
		t.Errorf("Kind = %s, want default expense", e.Kind)
	}

	got, err := d.UpdateBudgetEntry(e.ID, &BudgetPatch{Amount: patch.Set(int64(500))})
	if err != nil {
		t.Fatalf("UpdateBudgetEntry failed: %v", err)
	}
	if got.Amount != 500 || got.Title != "coffee" || got.Date != "2024-05-04" {
		t.Errorf("patched entry = %+v", got)
	}
}
