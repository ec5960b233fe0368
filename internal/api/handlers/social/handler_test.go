package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"Flock/internal/api/middleware"
	"Flock/internal/core/apperr"
	"Flock/internal/core/graph"
	"Flock/internal/core/users"
)

type mockGraphService struct {
	graph.Service
	followErr error
	likeErr   error
	following map[string]bool
	liked     map[string]bool
}

func (m *mockGraphService) ToggleFollow(ctx context.Context, actorID, targetID string) (graph.FollowState, error) {
	if m.followErr != nil {
		return "", m.followErr
	}
	m.following[targetID] = !m.following[targetID]
	if m.following[targetID] {
		return graph.FollowStateFollowed, nil
	}
	return graph.FollowStateUnfollowed, nil
}

func (m *mockGraphService) ToggleLike(ctx context.Context, actorID, postID string) (bool, error) {
	if m.likeErr != nil {
		return false, m.likeErr
	}
	m.liked[postID] = !m.liked[postID]
	return m.liked[postID], nil
}

func newRouter(svc graph.Service, userID string) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(middleware.SetTestUserID(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Put("/users/{user}/toggle-follow", h.HandleToggleFollow)
	r.Post("/posts/{id}/toggle-like", h.HandleToggleLike)
	return r
}

func TestHandleToggleFollow_Alternates(t *testing.T) {
	svc := &mockGraphService{following: map[string]bool{}, liked: map[string]bool{}}
	router := newRouter(svc, "alice")

	for _, want := range []string{`{"state":"followed"}`, `{"state":"unfollowed"}`, `{"state":"followed"}`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/bob/toggle-follow", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}
}

func TestHandleToggleFollow_Errors(t *testing.T) {
	tests := []struct {
		err    error
		name   string
		userID string
		status int
	}{
		{name: "unauthenticated", status: http.StatusUnauthorized},
		{name: "self follow", userID: "alice", err: graph.ErrSelfFollow, status: http.StatusBadRequest},
		{name: "unknown target", userID: "alice", err: users.ErrUserNotFound, status: http.StatusNotFound},
		{name: "conflict", userID: "alice", err: graph.ErrToggleConflict, status: http.StatusConflict},
		{name: "store down", userID: "alice", err: apperr.Unavailable(errors.New("timeout")), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockGraphService{followErr: tt.err, following: map[string]bool{}}
			w := httptest.NewRecorder()
			newRouter(svc, tt.userID).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/bob/toggle-follow", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleToggleLike(t *testing.T) {
	svc := &mockGraphService{following: map[string]bool{}, liked: map[string]bool{}}
	router := newRouter(svc, "alice")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/p1/toggle-like", nil))
	assert.JSONEq(t, `{"liked":true}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/p1/toggle-like", nil))
	assert.JSONEq(t, `{"liked":false}`, w.Body.String())

	svc.likeErr = graph.ErrLikeSetNotFound
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/missing/toggle-like", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
