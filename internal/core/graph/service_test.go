package graph

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"Flock/internal/core/apperr"
	"Flock/internal/core/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements both repositories with per-statement atomicity and the
// same conditional semantics as the SQL statements
type memStore struct {
	mu        sync.Mutex
	followers map[string][]string
	following map[string][]string
	likes     map[string][]string

	// failures maps an operation name to the error it returns
	failures map[string]error
	// before runs ahead of an operation, outside the lock
	before map[string]func()
}

func newMemStore() *memStore {
	return &memStore{
		followers: make(map[string][]string),
		following: make(map[string][]string),
		likes:     make(map[string][]string),
		failures:  make(map[string]error),
		before:    make(map[string]func()),
	}
}

func (m *memStore) enter(op string) error {
	if hook := m.before[op]; hook != nil {
		hook()
	}
	m.mu.Lock()
	return m.failures[op]
}

func addTo(set map[string][]string, owner, id string) bool {
	if slices.Contains(set[owner], id) {
		return false
	}
	set[owner] = append(set[owner], id)
	return true
}

func removeFrom(set map[string][]string, owner, id string) bool {
	i := slices.Index(set[owner], id)
	if i < 0 {
		return false
	}
	set[owner] = slices.Delete(set[owner], i, i+1)
	return true
}

func (m *memStore) AddFollower(ctx context.Context, owner, id string) (bool, error) {
	err := m.enter("AddFollower")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	return addTo(m.followers, owner, id), nil
}

func (m *memStore) AddFollowing(ctx context.Context, owner, id string) (bool, error) {
	err := m.enter("AddFollowing")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	return addTo(m.following, owner, id), nil
}

func (m *memStore) RemoveFollower(ctx context.Context, owner, id string) (bool, error) {
	err := m.enter("RemoveFollower")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	return removeFrom(m.followers, owner, id), nil
}

func (m *memStore) RemoveFollowing(ctx context.Context, owner, id string) (bool, error) {
	err := m.enter("RemoveFollowing")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	return removeFrom(m.following, owner, id), nil
}

func (m *memStore) GetFollowers(ctx context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.followers[id]), nil
}

func (m *memStore) GetFollowing(ctx context.Context, id string) ([]string, error) {
	err := m.enter("GetFollowing")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return slices.Clone(m.following[id]), nil
}

func (m *memStore) ScanFollowingEdges(ctx context.Context) ([]FollowEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FollowEdge
	for owner, ids := range m.following {
		for _, id := range ids {
			out = append(out, FollowEdge{FollowerID: owner, FollowingID: id})
		}
	}
	return out, nil
}

func (m *memStore) ScanFollowerEdges(ctx context.Context) ([]FollowEdge, error) {
	err := m.enter("ScanFollowerEdges")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []FollowEdge
	for owner, ids := range m.followers {
		for _, id := range ids {
			out = append(out, FollowEdge{FollowerID: id, FollowingID: owner})
		}
	}
	return out, nil
}

func (m *memStore) AddLike(ctx context.Context, postID, id string) (bool, error) {
	err := m.enter("AddLike")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	if _, ok := m.likes[postID]; !ok {
		return false, ErrLikeSetNotFound
	}
	return addTo(m.likes, postID, id), nil
}

func (m *memStore) RemoveLike(ctx context.Context, postID, id string) (bool, error) {
	err := m.enter("RemoveLike")
	defer m.mu.Unlock()
	if err != nil {
		return false, err
	}
	if _, ok := m.likes[postID]; !ok {
		return false, ErrLikeSetNotFound
	}
	return removeFrom(m.likes, postID, id), nil
}

func (m *memStore) GetLikes(ctx context.Context, postID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.likes[postID]
	if !ok {
		return nil, ErrLikeSetNotFound
	}
	return slices.Clone(ids), nil
}

type fakeUsers map[string]*users.User

func (f fakeUsers) GetByID(ctx context.Context, id string) (*users.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, users.ErrUserNotFound
}

type countingRecorder struct {
	mu         sync.Mutex
	divergence map[string]int
	conflicts  map[string]int
}

func (r *countingRecorder) MirrorDivergence(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.divergence[op]++
}

func (r *countingRecorder) ToggleConflict(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts[kind]++
}

func newTestService() (Service, *memStore, *countingRecorder) {
	store := newMemStore()
	u := fakeUsers{
		"alice": {ID: "alice", Username: "alice"},
		"bob":   {ID: "bob", Username: "bob"},
	}
	rec := &countingRecorder{divergence: map[string]int{}, conflicts: map[string]int{}}
	return NewService(store, store, u, rec, nil), store, rec
}

func TestToggleFollow_Alternates(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		state, err := svc.ToggleFollow(ctx, "alice", "bob")
		require.NoError(t, err)

		if i%2 == 1 {
			assert.Equal(t, FollowStateFollowed, state)
			assert.Equal(t, []string{"alice"}, store.followers["bob"])
			assert.Equal(t, []string{"bob"}, store.following["alice"])
		} else {
			assert.Equal(t, FollowStateUnfollowed, state)
			assert.Empty(t, store.followers["bob"])
			assert.Empty(t, store.following["alice"])
		}
	}

	following, err := svc.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, following)
}

func TestToggleFollow_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ToggleFollow(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfFollow)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.ToggleFollow(ctx, "alice", " ")
	assert.True(t, apperr.IsValidationError(err))

	_, err = svc.ToggleFollow(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleFollow_HalfPresentEdgeIsRemoved(t *testing.T) {
	svc, store, _ := newTestService()
	store.following["alice"] = []string{"bob"}

	state, err := svc.ToggleFollow(context.Background(), "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, FollowStateUnfollowed, state)
	assert.Empty(t, store.followers["bob"])
	assert.Empty(t, store.following["alice"])
}

func TestToggleFollow_OneMirrorFails(t *testing.T) {
	svc, store, rec := newTestService()
	store.failures["AddFollower"] = errors.New("connection reset")

	state, err := svc.ToggleFollow(context.Background(), "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, FollowStateFollowed, state)
	assert.Equal(t, []string{"bob"}, store.following["alice"])
	assert.Empty(t, store.followers["bob"])
	assert.Equal(t, 1, rec.divergence["follow"])
}

func TestToggleFollow_FollowingWriteFails(t *testing.T) {
	svc, store, rec := newTestService()
	store.failures["AddFollowing"] = errors.New("connection reset")

	_, err := svc.ToggleFollow(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.Empty(t, store.followers["bob"], "followers must not move without following")
	assert.Zero(t, rec.divergence["follow"])
}

func TestToggleFollow_InterleavedTogglesConverge(t *testing.T) {
	svc, store, rec := newTestService()
	ctx := context.Background()

	// A second toggle runs to completion after ours decided "followed" but
	// before ours writes the followers row
	var inner FollowState
	interleaved := false
	store.before["AddFollower"] = func() {
		if interleaved {
			return
		}
		interleaved = true
		var err error
		inner, err = svc.ToggleFollow(ctx, "alice", "bob")
		require.NoError(t, err)
	}

	outer, err := svc.ToggleFollow(ctx, "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, FollowStateFollowed, outer)
	assert.Equal(t, FollowStateUnfollowed, inner)
	assert.Empty(t, store.following["alice"])
	assert.Empty(t, store.followers["bob"])
	assert.Zero(t, rec.divergence["follow"])

	report, err := svc.PlanReconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestToggleFollow_RacedRemovalRetries(t *testing.T) {
	svc, store, rec := newTestService()
	store.following["alice"] = []string{"bob"}
	store.followers["bob"] = []string{"alice"}

	// A concurrent unfollow lands between our insert and our removal, once
	raced := false
	store.before["RemoveFollowing"] = func() {
		if raced {
			return
		}
		raced = true
		store.mu.Lock()
		removeFrom(store.followers, "bob", "alice")
		removeFrom(store.following, "alice", "bob")
		store.mu.Unlock()
	}

	state, err := svc.ToggleFollow(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// The retry starts from the top and finds the edge gone
	assert.Equal(t, FollowStateFollowed, state)
	assert.Equal(t, []string{"alice"}, store.followers["bob"])
	assert.Zero(t, rec.conflicts["follow"])
}

func TestToggleFollow_ConflictAfterRetry(t *testing.T) {
	svc, store, rec := newTestService()
	store.following["alice"] = []string{"bob"}
	store.followers["bob"] = []string{"alice"}

	// Every removal finds the edge already removed and every insert finds it back
	store.before["AddFollowing"] = func() {
		store.mu.Lock()
		addTo(store.followers, "bob", "alice")
		addTo(store.following, "alice", "bob")
		store.mu.Unlock()
	}
	store.before["RemoveFollowing"] = func() {
		store.mu.Lock()
		removeFrom(store.followers, "bob", "alice")
		removeFrom(store.following, "alice", "bob")
		store.mu.Unlock()
	}

	_, err := svc.ToggleFollow(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, ErrToggleConflict)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, rec.conflicts["follow"])
}

func TestToggleFollow_ConcurrentMirrorsAgree(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleFollow(ctx, "alice", "bob")
			if err != nil {
				assert.ErrorIs(t, err, ErrToggleConflict)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(store.followers["bob"]), 1)
	assert.LessOrEqual(t, len(store.following["alice"]), 1)

	report, err := svc.PlanReconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestToggleLike(t *testing.T) {
	svc, store, _ := newTestService()
	store.likes["p1"] = []string{}
	ctx := context.Background()

	liked, err := svc.ToggleLike(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, "bob", "p1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err := svc.GetLikes(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, likes)
}

func TestToggleLike_MissingPost(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ToggleLike(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrLikeSetNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleLike_ConflictAfterRetry(t *testing.T) {
	svc, store, rec := newTestService()
	store.likes["p1"] = []string{"alice"}

	store.before["AddLike"] = func() {
		store.mu.Lock()
		addTo(store.likes, "p1", "alice")
		store.mu.Unlock()
	}
	store.before["RemoveLike"] = func() {
		store.mu.Lock()
		removeFrom(store.likes, "p1", "alice")
		store.mu.Unlock()
	}

	_, err := svc.ToggleLike(context.Background(), "alice", "p1")
	assert.ErrorIs(t, err, ErrToggleConflict)
	assert.Equal(t, 1, rec.conflicts["like"])
}

func TestToggleLike_ConcurrentNoDuplicates(t *testing.T) {
	svc, store, _ := newTestService()
	store.likes["p1"] = []string{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ToggleLike(context.Background(), "alice", "p1")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(store.likes["p1"]), 1)
}
