package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createBudgetRequest is the request body for creating a budget entry.
// Amount is in minor currency units.
type createBudgetRequest struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Amount   int64  `json:"amount"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Memo     string `json:"memo"`
}

// validMonth reports whether s is a YYYY-MM month key.
func validMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// handleListBudgetEntries returns the ledger for ?month=YYYY-MM.
func (s *Server) handleListBudgetEntries(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" && !validMonth(month) {
		s.jsonError(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	entries, err := s.db.ListBudgetEntries(month)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if entries == nil {
		entries = []db.BudgetEntry{}
	}
	s.jsonResponse(w, entries)
}

// handleCreateBudgetEntry creates a ledger row. Kind defaults to expense.
func (s *Server) handleCreateBudgetEntry(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if !validDate(req.Date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	kind := db.BudgetKind(req.Kind)
	if kind != "" && kind != db.BudgetIncome && kind != db.BudgetExpense {
		s.jsonError(w, "kind must be income or expense", http.StatusBadRequest)
		return
	}

	entry := &db.BudgetEntry{
		Date:     req.Date,
		Title:    req.Title,
		Amount:   req.Amount,
		Kind:     kind,
		Category: req.Category,
		Memo:     req.Memo,
	}
	if err := s.db.CreateBudgetEntry(entry); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "budget", strconv.FormatInt(entry.ID, 10), entry)
	JSONResponseStatus(w, entry, http.StatusCreated)
}

// handleGetBudgetEntry retrieves a single ledger row.
func (s *Server) handleGetBudgetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	entry, err := s.db.GetBudgetEntry(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if entry == nil {
		s.jsonError(w, "budget entry not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, entry)
}

// handleUpdateBudgetEntry applies a merge patch to a ledger row.
func (s *Server) handleUpdateBudgetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.BudgetPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.Date.Valid() && !validDate(p.Date.Value()) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	if p.Kind.Valid() && p.Kind.Value() != db.BudgetIncome && p.Kind.Value() != db.BudgetExpense {
		s.jsonError(w, "kind must be income or expense", http.StatusBadRequest)
		return
	}

	entry, err := s.db.UpdateBudgetEntry(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "budget", strconv.FormatInt(id, 10), entry)
	s.jsonResponse(w, entry)
}

// handleDeleteBudgetEntry deletes a ledger row. Idempotent.
func (s *Server) handleDeleteBudgetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteBudgetEntry(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "budget", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleBudgetSummary returns income, expense, and balance totals for
// ?month=YYYY-MM.
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if !validMonth(month) {
		s.jsonError(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	summary, err := s.db.SummarizeBudget(month)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, summary)
}
