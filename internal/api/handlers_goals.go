package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
	"github.com/mkoseki/techo/internal/layout"
)

// createGoalRequest is the request body for creating a goal.
type createGoalRequest struct {
	ParentID          *int64 `json:"parent_id"`
	IssueType         string `json:"issue_type"`
	Title             string `json:"title"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Color             string `json:"color"`
	ScheduledTime     string `json:"scheduled_time"`
	ScheduledDuration int    `json:"scheduled_duration"`
	Memo              string `json:"memo"`
	Note              string `json:"note"`
	Category          string `json:"category"`
}

const dateLayout = "2006-01-02"

// validDate reports whether s is a YYYY-MM-DD calendar date.
func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// handleListGoals returns goals overlapping the ?from=&to= window, or all
// goals when no window is given.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if (from == "") != (to == "") {
		s.jsonError(w, "from and to must be given together", http.StatusBadRequest)
		return
	}
	if from != "" && (!validDate(from) || !validDate(to)) {
		s.jsonError(w, "from and to must be YYYY-MM-DD dates", http.StatusBadRequest)
		return
	}

	goals, err := s.db.ListGoals(from, to)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if goals == nil {
		goals = []db.Goal{}
	}
	s.jsonResponse(w, goals)
}

// handleCreateGoal creates a goal. When the goal has a parent, the parent
// chain's date spans re-sync in the same transaction.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if !validDate(req.StartDate) || !validDate(req.EndDate) {
		s.jsonError(w, "start_date and end_date must be YYYY-MM-DD dates", http.StatusBadRequest)
		return
	}
	if req.EndDate < req.StartDate {
		s.jsonError(w, "end_date must not precede start_date", http.StatusBadRequest)
		return
	}

	goal := &db.Goal{
		ParentID:          req.ParentID,
		IssueType:         db.IssueType(req.IssueType),
		Title:             req.Title,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Color:             req.Color,
		ScheduledTime:     req.ScheduledTime,
		ScheduledDuration: req.ScheduledDuration,
		Memo:              req.Memo,
		Note:              req.Note,
		Category:          req.Category,
	}
	if err := s.db.CreateGoal(r.Context(), goal); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "goals", strconv.FormatInt(goal.ID, 10), goal)
	JSONResponseStatus(w, goal, http.StatusCreated)
}

// handleGetGoal retrieves a single goal.
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	goal, err := s.db.GetGoal(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if goal == nil {
		s.jsonError(w, "goal not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, goal)
}

// handleListGoalChildren returns the direct children of a goal.
func (s *Server) handleListGoalChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	children, err := s.db.ListChildren(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if children == nil {
		children = []db.Goal{}
	}
	s.jsonResponse(w, children)
}

// handleUpdateGoal applies a merge patch to a goal. parent_id distinguishes
// absent (keep parent) from null (detach to root); reparenting re-syncs
// both the old and the new lineage.
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.GoalPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.StartDate.Valid() && !validDate(p.StartDate.Value()) {
		s.jsonError(w, "start_date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	if p.EndDate.Valid() && !validDate(p.EndDate.Value()) {
		s.jsonError(w, "end_date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	if p.Progress.Valid() && (p.Progress.Value() < 0 || p.Progress.Value() > 100) {
		s.jsonError(w, "progress must be between 0 and 100", http.StatusBadRequest)
		return
	}

	goal, err := s.db.UpdateGoal(r.Context(), id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "goals", strconv.FormatInt(id, 10), goal)
	s.jsonResponse(w, goal)
}

// handleDeleteGoal deletes a goal and its whole subtree, then re-syncs the
// former parent chain. Idempotent.
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteGoal(r.Context(), id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "goals", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleReorderGoals applies a bulk sort_order assignment atomically.
func (s *Server) handleReorderGoals(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		s.jsonError(w, "orders is required", http.StatusBadRequest)
		return
	}

	if err := s.db.ReorderGoals(r.Context(), req.Orders); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventReordered, "goals", "", req.Orders)
	s.jsonResponse(w, map[string]string{"status": "ok"})
}

// goalLayoutResponse is the body of the goal layout endpoint.
type goalLayoutResponse struct {
	WeekStart string        `json:"week_start"`
	WeekEnd   string        `json:"week_end"`
	Bands     []layout.Band `json:"bands"`
}

// handleGoalLayout returns the lane-packed band layout for the seven days
// starting at ?week_start=YYYY-MM-DD.
func (s *Server) handleGoalLayout(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("week_start")
	weekStart, err := time.Parse(dateLayout, raw)
	if err != nil {
		s.jsonError(w, "week_start must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}
	weekEnd := weekStart.AddDate(0, 0, layout.DaysPerWeek-1)

	goals, err := s.db.ListGoals(weekStart.Format(dateLayout), weekEnd.Format(dateLayout))
	if err != nil {
		s.handleError(w, err)
		return
	}

	items := make([]layout.Item, 0, len(goals))
	for _, g := range goals {
		start, err := time.Parse(dateLayout, g.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse(dateLayout, g.EndDate)
		if err != nil {
			continue
		}
		items = append(items, layout.Item{
			ID:        g.ID,
			ParentID:  g.ParentID,
			Title:     g.Title,
			Color:     g.Color,
			Start:     start,
			End:       end,
			SortOrder: g.SortOrder,
		})
	}

	bands := layout.Week(items, weekStart)
	if bands == nil {
		bands = []layout.Band{}
	}
	s.jsonResponse(w, goalLayoutResponse{
		WeekStart: weekStart.Format(dateLayout),
		WeekEnd:   weekEnd.Format(dateLayout),
		Bands:     bands,
	})
}
