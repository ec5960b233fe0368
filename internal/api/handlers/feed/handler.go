// Package feed serves the home feed
package feed

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers"
	"Flock/internal/api/middleware"
	"Flock/internal/core/feed"
)

// Handler serves /posts/feed
type Handler struct {
	service feed.Service
}

// NewHandler creates a feed handler
func NewHandler(service feed.Service) *Handler {
	return &Handler{service: service}
}

// HandleFeed returns a page of posts by the users the caller follows
// GET /posts/feed/{offset}?limit=N
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if !handlers.RequireUser(w, userID) {
		return
	}

	offset, err := strconv.Atoi(chi.URLParam(r, "offset"))
	if err != nil || offset < 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "offset must be a non-negative integer")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a positive integer")
			return
		}
	}

	page, err := h.service.BuildFeed(r.Context(), userID, offset, limit)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if page == nil {
		page = []*feed.FeedPost{}
	}
	handlers.WriteJSON(w, http.StatusOK, page)
}
