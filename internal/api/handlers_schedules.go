package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createScheduleRequest is the request body for creating a schedule.
type createScheduleRequest struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Memo      string `json:"memo"`
	Source    string `json:"source"`
}

// handleListSchedules returns schedules for ?date= or the ?from=&to= window.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	from := q.Get("from")
	to := q.Get("to")

	if date != "" && !validDate(date) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	if (from == "") != (to == "") {
		s.jsonError(w, "from and to must be given together", http.StatusBadRequest)
		return
	}

	schedules, err := s.db.ListSchedules(date, from, to)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if schedules == nil {
		schedules = []db.Schedule{}
	}
	s.jsonResponse(w, schedules)
}

// handleCreateSchedule creates a scheduled event.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
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

	schedule := &db.Schedule{
		Title:     req.Title,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Memo:      req.Memo,
		Source:    req.Source,
	}
	if err := s.db.CreateSchedule(schedule); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "schedules", strconv.FormatInt(schedule.ID, 10), schedule)
	JSONResponseStatus(w, schedule, http.StatusCreated)
}

// handleGetSchedule retrieves a single schedule.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	schedule, err := s.db.GetSchedule(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if schedule == nil {
		s.jsonError(w, "schedule not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, schedule)
}

// handleUpdateSchedule applies a merge patch to a schedule.
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.SchedulePatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.Date.Valid() && !validDate(p.Date.Value()) {
		s.jsonError(w, "date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	schedule, err := s.db.UpdateSchedule(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "schedules", strconv.FormatInt(id, 10), schedule)
	s.jsonResponse(w, schedule)
}

// handleDeleteSchedule deletes a schedule. Idempotent.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteSchedule(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "schedules", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}
