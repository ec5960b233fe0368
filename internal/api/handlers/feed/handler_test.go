package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"Flock/internal/api/middleware"
	"Flock/internal/core/feed"
	"Flock/internal/core/posts"
)

type fakeFeedService struct {
	gotOffset, gotLimit int
}

func (f *fakeFeedService) BuildFeed(ctx context.Context, userID string, offset, pageSize int) ([]*feed.FeedPost, error) {
	f.gotOffset, f.gotLimit = offset, pageSize
	if offset > 0 {
		return nil, nil
	}
	return []*feed.FeedPost{{Post: &posts.Post{ID: "p1", AuthorID: userID}, Likes: []string{}}}, nil
}

func serve(svc feed.Service, target string) *httptest.ResponseRecorder {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/posts/feed/{offset}", func(w http.ResponseWriter, req *http.Request) {
		h.HandleFeed(w, req.WithContext(middleware.SetTestUserID(req.Context(), "alice")))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandleFeed(t *testing.T) {
	svc := &fakeFeedService{}

	w := serve(svc, "/posts/feed/0")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"p1"`)
	assert.Equal(t, 0, svc.gotLimit)

	w = serve(svc, "/posts/feed/10?limit=20")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 10, svc.gotOffset)
	assert.Equal(t, 20, svc.gotLimit)
}

func TestHandleFeed_BadParams(t *testing.T) {
	for _, target := range []string{"/posts/feed/abc", "/posts/feed/-1", "/posts/feed/0?limit=0"} {
		w := serve(&fakeFeedService{}, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}
