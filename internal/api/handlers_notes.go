package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// putNoteRequest is the request body for writing a period note.
type putNoteRequest struct {
	Body string `json:"body"`
}

// validPeriod accepts monthly keys ("2024-05") and ISO week keys
// ("2024-W21").
func validPeriod(period string) bool {
	if _, err := time.Parse("2006-01", period); err == nil {
		return true
	}
	year, week, ok := strings.Cut(period, "-W")
	if !ok || len(year) != 4 || len(week) != 2 {
		return false
	}
	if _, err := strconv.Atoi(year); err != nil {
		return false
	}
	n, err := strconv.Atoi(week)
	return err == nil && n >= 1 && n <= 53
}

// handleGetPeriodNote returns the note for a month or week. Absent periods
// yield an empty shape, not a 404.
func (s *Server) handleGetPeriodNote(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	if !validPeriod(period) {
		s.jsonError(w, "period must be YYYY-MM or YYYY-Www", http.StatusBadRequest)
		return
	}

	note, err := s.db.GetPeriodNote(period)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, note)
}

// handlePutPeriodNote replaces the note for a period. The body must be
// empty or a valid block tree.
func (s *Server) handlePutPeriodNote(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	if !validPeriod(period) {
		s.jsonError(w, "period must be YYYY-MM or YYYY-Www", http.StatusBadRequest)
		return
	}

	var req putNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !db.ValidBlockTree(req.Body) {
		s.jsonError(w, "body must be a valid block tree", http.StatusBadRequest)
		return
	}

	note, err := s.db.PutPeriodNote(period, req.Body)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "notes", period, note)
	s.jsonResponse(w, note)
}

// handleDeletePeriodNote deletes the note for a period. Idempotent.
func (s *Server) handleDeletePeriodNote(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	if !validPeriod(period) {
		s.jsonError(w, "period must be YYYY-MM or YYYY-Www", http.StatusBadRequest)
		return
	}

	if err := s.db.DeletePeriodNote(period); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "notes", period, nil)
	NoContent(w)
}
