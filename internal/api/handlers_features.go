package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/events"
)

// createFeatureRequest is the request body for creating a feature request.
type createFeatureRequest struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// handleListFeatures returns the feature request backlog.
func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.db.ListFeatureRequests()
	if err != nil {
		s.handleError(w, err)
		return
	}
	if features == nil {
		features = []db.FeatureRequest{}
	}
	s.jsonResponse(w, features)
}

// handleCreateFeature creates a feature request with status "open".
func (s *Server) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	var req createFeatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		s.jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	feature := &db.FeatureRequest{Title: req.Title, Detail: req.Detail}
	if err := s.db.CreateFeatureRequest(feature); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventCreated, "features", strconv.FormatInt(feature.ID, 10), feature)
	JSONResponseStatus(w, feature, http.StatusCreated)
}

// handleGetFeature retrieves a single feature request.
func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	feature, err := s.db.GetFeatureRequest(id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if feature == nil {
		s.jsonError(w, "feature request not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, feature)
}

// handleUpdateFeature applies a merge patch to a feature request.
func (s *Server) handleUpdateFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var p db.FeatureRequestPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if p.Status.Valid() {
		switch p.Status.Value() {
		case db.FeatureOpen, db.FeaturePlanned, db.FeatureDone:
		default:
			s.jsonError(w, "invalid status: must be open, planned, or done", http.StatusBadRequest)
			return
		}
	}

	feature, err := s.db.UpdateFeatureRequest(id, &p)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventUpdated, "features", strconv.FormatInt(id, 10), feature)
	s.jsonResponse(w, feature)
}

// handleDeleteFeature deletes a feature request. Idempotent.
func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.db.DeleteFeatureRequest(id); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventDeleted, "features", strconv.FormatInt(id, 10), nil)
	NoContent(w)
}

// handleReorderFeatures applies a bulk sort_order assignment atomically.
func (s *Server) handleReorderFeatures(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		s.jsonError(w, "orders is required", http.StatusBadRequest)
		return
	}

	if err := s.db.ReorderFeatureRequests(r.Context(), req.Orders); err != nil {
		s.handleError(w, err)
		return
	}

	s.publish(events.EventReordered, "features", "", req.Orders)
	s.jsonResponse(w, map[string]string{"status": "ok"})
}
