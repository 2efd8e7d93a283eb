package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createHabitRequest is the request body for creating a habit.
type createHabitRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// toggleHabitRequest is the request body for toggling a habit log.
type toggleHabitRequest struct {
	Date string `json:"date"`
}

// handleListHabits returns all habits in manual order.
func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.db.ListHabits()
	if err != nil {
		s.handleError(w, err)
		return
	}
	if habits == nil {
		habits = []db.Habit{}
	}
	s.jsonResponse(w, habits)
}

// handleCreateHabit creates a habit at the end of the list.
func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		s.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}

	habit := &db.Habit{Name: req.Name, Color: req.Color}
	if err := s.db.CreateHabit(habit); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "habits", strconv.FormatInt(habit.ID, 10), habit)
	JSONResponseStatus(w, habit, http.StatusCreated)
}

// handleGetHabit retrieves a single habit.
func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	habit, err := s.db.GetHabit(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if habit == nil {
		s.jsonError(w, "habit not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, habit)
}

// handleUpdateHabit applies a merge patch to a habit.
func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.HabitPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	habit, err := s.db.UpdateHabit(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "habits", strconv.FormatInt(id, 10), habit)
	s.jsonResponse(w, habit)
}

// handleDeleteHabit deletes a habit and its logs. Idempotent.
func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteHabit(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "habits", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleToggleHabit flips the done mark for one habit on one date. The
// response reports the resulting state, not the action taken.
func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var req toggleHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !validDate(req.Date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	logged, err := s.db.ToggleHabitLog(r.Context(), id, req.Date)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "habits", strconv.FormatInt(id, 10), map[string]any{
		"date":   req.Date,
		"logged": logged,
	})
	s.jsonResponse(w, map[string]any{
		"habit_id": id,
		"date":     req.Date,
		"logged":   logged,
	})
}

// handleListHabitLogs returns one habit's logs in the ?from=&to= window.
func (s *Server) handleListHabitLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	logs, err := s.db.ListHabitLogs(id, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if logs == nil {
		logs = []db.HabitLog{}
	}
	s.jsonResponse(w, logs)
}

// handleListAllHabitLogs returns every habit's logs in the ?from=&to=
// window, for rendering a whole tracker grid in one request.
func (s *Server) handleListAllHabitLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.db.ListHabitLogs(0, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if logs == nil {
		logs = []db.HabitLog{}
	}
	s.jsonResponse(w, logs)
}
