package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createTodoRequest is the request body for creating a todo.
type createTodoRequest struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Memo  string `json:"memo"`
}

// reorderRequest carries a full sort_order assignment for a list.
type reorderRequest struct {
	Orders []db.OrderPair `json:"orders"`
}

// handleListTodos returns todos, optionally filtered by ?date=YYYY-MM-DD.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.db.ListTodos(r.URL.Query().Get("date"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if todos == nil {
		todos = []db.Todo{}
	}
	s.jsonResponse(w, todos)
}

// handleCreateTodo creates a todo at the end of the list.
func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	todo := &db.Todo{Title: req.Title, Date: req.Date, Memo: req.Memo}
	if err := s.db.CreateTodo(todo); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "todos", strconv.FormatInt(todo.ID, 10), todo)
	JSONResponseStatus(w, todo, http.StatusCreated)
}

// handleGetTodo retrieves a single todo.
func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	todo, err := s.db.GetTodo(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if todo == nil {
		s.jsonError(w, "todo not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, todo)
}

// handleUpdateTodo applies a merge patch. Absent fields keep their value;
// explicit nulls clear nullable ones.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	todo, err := s.db.UpdateTodo(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "todos", strconv.FormatInt(id, 10), todo)
	s.jsonResponse(w, todo)
}

// handleDeleteTodo deletes a todo. Idempotent.
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteTodo(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "todos", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleReorderTodos applies a bulk sort_order assignment atomically.
func (s *Server) handleReorderTodos(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		s.jsonError(w, "orders is required", http.StatusBadRequest)
		return
	}

	if err := s.db.ReorderTodos(r.Context(), req.Orders); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventReordered, "todos", "", req.Orders)
	s.jsonResponse(w, map[string]string{"status": "ok"})
}
