package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createRoutineRequest is the request body for creating a routine.
type createRoutineRequest struct {
	Title     string   `json:"title"`
	Days      []string `json:"days"`
	TimeOfDay string   `json:"time_of_day"`
	Active    *bool    `json:"active"`
}

// handleListRoutines returns routines, optionally filtered to those that
// run on ?day=mon..sun. Routines with no days run every day.
func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := s.db.ListRoutines(r.URL.Query().Get("day"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if routines == nil {
		routines = []db.Routine{}
	}
	s.jsonResponse(w, routines)
}

// handleCreateRoutine creates a routine at the end of the list. New
// routines default to active unless the body says otherwise.
func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req createRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	routine := &db.Routine{
		Title:     req.Title,
		Days:      req.Days,
		TimeOfDay: req.TimeOfDay,
		Active:    active,
	}
	if err := s.db.CreateRoutine(routine); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "routines", strconv.FormatInt(routine.ID, 10), routine)
	JSONResponseStatus(w, routine, http.StatusCreated)
}

// handleGetRoutine retrieves a single routine.
func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	routine, err := s.db.GetRoutine(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if routine == nil {
		s.jsonError(w, "routine not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, routine)
}

// handleUpdateRoutine applies a merge patch to a routine.
func (s *Server) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.RoutinePatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	routine, err := s.db.UpdateRoutine(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "routines", strconv.FormatInt(id, 10), routine)
	s.jsonResponse(w, routine)
}

// handleDeleteRoutine deletes a routine. Idempotent.
func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteRoutine(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "routines", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleReorderRoutines applies a bulk sort_order assignment atomically.
func (s *Server) handleReorderRoutines(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		s.jsonError(w, "orders is required", http.StatusBadRequest)
		return
	}

	if err := s.db.ReorderRoutines(r.Context(), req.Orders); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventReordered, "routines", "", req.Orders)
	s.jsonResponse(w, map[string]string{"status": "ok"})
}
