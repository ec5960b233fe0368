// Package social serves follow and like toggles
package social

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/graph"
)

// Handler serves the toggle endpoints
type Handler struct {
	graph graph.Service
}

// NewHandler creates a social graph handler
func NewHandler(service graph.Service) *Handler {
	return &Handler{graph: service}
}

// HandleToggleFollow flips whether the caller follows the user
// PUT /users/{user}/toggle-follow
//
// Response: { "state": "followed" | "unfollowed" }
func (h *Handler) HandleToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	state, err := h.graph.ToggleFollow(r.Context(), userID, chi.URLParam(r, "user"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, graph.ToggleFollowResponse{State: state})
}

// HandleToggleLike flips whether the caller likes the post
// POST /posts/{id}/toggle-like
//
// Response: { "liked": true | false }
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	liked, err := h.graph.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, graph.ToggleLikeResponse{Liked: liked})
}
