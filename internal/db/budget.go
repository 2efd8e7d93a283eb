package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	techoerrors "github.com/mkoseki/techo/internal/errors"
	"github.com/mkoseki/techo/internal/patch"
)

// BudgetKind distinguishes income from expense entries.
type BudgetKind string

const (
	BudgetIncome  BudgetKind = "income"
	BudgetExpense BudgetKind = "expense"
)

// BudgetEntry is one row in the household budget ledger. Amount is stored
// in minor units (yen, cents) to avoid floating point.
type BudgetEntry struct {
	ID        int64      `json:"id"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Title     string     `json:"title"`
	Amount    int64      `json:"amount"`
	Kind      BudgetKind `json:"kind"`
	Category  string     `json:"category,omitempty"`
	Memo      string     `json:"memo,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// BudgetPatch is the merge-patch shape for updating a budget entry.
type BudgetPatch struct {
	Date     patch.Field[string]     `json:"date"`
	Title    patch.Field[string]     `json:"title"`
	Amount   patch.Field[int64]      `json:"amount"`
	Kind     patch.Field[BudgetKind] `json:"kind"`
	Category patch.Field[string]     `json:"category"`
	Memo     patch.Field[string]     `json:"memo"`
}

// BudgetSummary aggregates one month of the ledger.
type BudgetSummary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

// CreateBudgetEntry inserts a ledger row.
func (d *DB) CreateBudgetEntry(b *BudgetEntry) error {
	if b.Kind == "" {
		b.Kind = BudgetExpense
	}
	now := nowStamp()

	res, err := d.Exec(`
		INSERT INTO budget_entries (date, title, amount, kind, category, memo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.Date, b.Title, b.Amount, b.Kind, nullableString(b.Category), nullableString(b.Memo), now)
	if err != nil {
		return fmt.Errorf("create budget entry: %w", err)
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create budget entry: %w", err)
	}
	b.CreatedAt = parseStamp(now)
	return nil
}

// GetBudgetEntry retrieves a single entry by ID, or nil when absent.
func (d *DB) GetBudgetEntry(id int64) (*BudgetEntry, error) {
	row := d.QueryRow(`
		SELECT id, date, title, amount, kind, category, memo, created_at
		FROM budget_entries WHERE id = ?
	`, id)
	b, err := scanBudgetFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// ListBudgetEntries returns ledger rows, optionally restricted to one
// month ("YYYY-MM"), oldest first.
func (d *DB) ListBudgetEntries(month string) ([]BudgetEntry, error) {
	query := `
		SELECT id, date, title, amount, kind, category, memo, created_at
		FROM budget_entries`
	var args []any
	if month != "" {
		query += " WHERE date LIKE ?"
		args = append(args, month+"-%")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budget entries: %w", err)
	}
	defer rows.Close()

	var entries []BudgetEntry
	for rows.Next() {
		b, err := scanBudgetFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget entries: %w", err)
	}
	return entries, nil
}

// SummarizeBudget totals income and expenses for one month.
func (d *DB) SummarizeBudget(month string) (*BudgetSummary, error) {
	row := d.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount ELSE 0 END), 0)
		FROM budget_entries WHERE date LIKE ?
	`, month+"-%")

	var s BudgetSummary
	if err := row.Scan(&s.Income, &s.Expense); err != nil {
		return nil, fmt.Errorf("summarize budget: %w", err)
	}
	s.Balance = s.Income - s.Expense
	return &s, nil
}

// UpdateBudgetEntry merges the patch onto the stored entry.
func (d *DB) UpdateBudgetEntry(id int64, p *BudgetPatch) (*BudgetEntry, error) {
	existing, err := d.GetBudgetEntry(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, techoerrors.ErrNotFound("budget entry", id)
	}

	existing.Date = p.Date.Or(existing.Date)
	existing.Title = p.Title.Or(existing.Title)
	if p.Amount.Present() {
		existing.Amount = p.Amount.Value()
	}
	existing.Kind = p.Kind.Or(existing.Kind)
	if p.Category.Present() {
		existing.Category = p.Category.Value()
	}
	if p.Memo.Present() {
		existing.Memo = p.Memo.Value()
	}

	_, err = d.Exec(`
		UPDATE budget_entries SET date = ?, title = ?, amount = ?, kind = ?, category = ?, memo = ?
		WHERE id = ?
	`, existing.Date, existing.Title, existing.Amount, existing.Kind,
		nullableString(existing.Category), nullableString(existing.Memo), id)
	if err != nil {
		return nil, fmt.Errorf("update budget entry: %w", err)
	}
	return existing, nil
}

// DeleteBudgetEntry removes a ledger row. Idempotent.
func (d *DB) DeleteBudgetEntry(id int64) error {
	return d.deleteByID("budget_entries", id)
}

func scanBudgetFrom(scan func(...any) error) (*BudgetEntry, error) {
	var b BudgetEntry
	var category, memo sql.NullString
	var created string

	if err := scan(&b.ID, &b.Date, &b.Title, &b.Amount, &b.Kind, &category, &memo, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan budget entry: %w", err)
	}

	b.Category = fromNull(category)
	b.Memo = fromNull(memo)
	b.CreatedAt = parseStamp(created)
	return &b, nil
}
