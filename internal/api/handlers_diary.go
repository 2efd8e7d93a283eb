package api

import (
	"encoding/json"
	"net/http"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// putDiaryRequest is the request body for writing a diary entry. Body holds
// the editor's block tree as JSON text.
type putDiaryRequest struct {
	Body string `json:"body"`
	Mood string `json:"mood"`
}

// handleListDiaryEntries returns entries in the ?from=&to= window.
func (s *Server) handleListDiaryEntries(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		s.jsonError(w, "from and to are required", http.StatusBadRequest)
		return
	}
	if !validDate(from) || !validDate(to) {
		s.jsonError(w, "from and to must be YYYY-MM-DD dates", http.StatusBadRequest)
		return
	}

	entries, err := s.db.ListDiaryEntries(from, to)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if entries == nil {
		entries = []db.DiaryEntry{}
	}
	s.jsonResponse(w, entries)
}

// handleGetDiaryEntry returns the entry for a date. Dates with no entry
// yield an empty shape so the editor always has something to open.
func (s *Server) handleGetDiaryEntry(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validDate(date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	entry, err := s.db.GetDiaryEntry(date)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, entry)
}

// handlePutDiaryEntry replaces the entry for a date (full replace, not
// merge). The body must be empty or a valid block tree.
func (s *Server) handlePutDiaryEntry(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validDate(date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	var req putDiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !db.ValidBlockTree(req.Body) {
		s.jsonError(w, "body must be a valid block tree", http.StatusBadRequest)
		return
	}

	entry, err := s.db.PutDiaryEntry(date, req.Body, req.Mood)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "diary", date, entry)
	s.jsonResponse(w, entry)
}

// handleDeleteDiaryEntry deletes the entry for a date. Idempotent.
func (s *Server) handleDeleteDiaryEntry(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validDate(date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteDiaryEntry(date); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "diary", date, nil)
	NoContent(w)
}
