package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createWishRequest is the request body for creating a wish.
type createWishRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Memo     string `json:"memo"`
}

// handleListWishes returns the full wish list.
func (s *Server) handleListWishes(w http.ResponseWriter, r *http.Request) {
	wishes, err := s.db.ListWishes()
	if err != nil {
		s.handleError(w, err)
		return
	}
	if wishes == nil {
		wishes = []db.Wish{}
	}
	s.jsonResponse(w, wishes)
}

// handleCreateWish creates a wish at the end of the list.
func (s *Server) handleCreateWish(w http.ResponseWriter, r *http.Request) {
	var req createWishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	wish := &db.Wish{Title: req.Title, Category: req.Category, Memo: req.Memo}
	if err := s.db.CreateWish(wish); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "wishes", strconv.FormatInt(wish.ID, 10), wish)
	JSONResponseStatus(w, wish, http.StatusCreated)
}

// handleGetWish retrieves a single wish.
func (s *Server) handleGetWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	wish, err := s.db.GetWish(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if wish == nil {
		s.jsonError(w, "wish not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, wish)
}

// handleUpdateWish applies a merge patch to a wish.
func (s *Server) handleUpdateWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.WishPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wish, err := s.db.UpdateWish(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "wishes", strconv.FormatInt(id, 10), wish)
	s.jsonResponse(w, wish)
}

// handleDeleteWish deletes a wish. Idempotent.
func (s *Server) handleDeleteWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteWish(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "wishes", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleReorderWishes applies a bulk sort_order assignment atomically.
func (s *Server) handleReorderWishes(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		s.jsonError(w, "orders is required", http.StatusBadRequest)
		return
	}

	if err := s.db.ReorderWishes(r.Context(), req.Orders); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventReordered, "wishes", "", req.Orders)
	s.jsonResponse(w, map[string]string{"status": "ok"})
}
