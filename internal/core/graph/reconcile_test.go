package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_FollowingIsAuthoritative(t *testing.T) {
	svc, store, _ := newTestService()
	store.following["alice"] = []string{"bob", "carol"}
	store.followers["carol"] = []string{"alice"}
	store.followers["bob"] = []string{"dave"}

	plan, err := svc.PlanReconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, plan.DryRun)
	assert.Equal(t, []FollowEdge{{FollowerID: "alice", FollowingID: "bob"}}, plan.MissingFollowers)
	assert.Equal(t, []FollowEdge{{FollowerID: "dave", FollowingID: "bob"}}, plan.OrphanFollowers)
	assert.Equal(t, []string{"dave"}, store.followers["bob"], "dry run must not write")

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.False(t, report.DryRun)
	assert.Equal(t, 2, report.Repaired)
	assert.Zero(t, report.Failed)
	assert.Equal(t, []string{"alice"}, store.followers["bob"])
	assert.Equal(t, []string{"alice"}, store.followers["carol"])

	after, err := svc.PlanReconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, after.Consistent())
}

func TestReconcile_CountsFailures(t *testing.T) {
	svc, store, _ := newTestService()
	store.following["alice"] = []string{"bob"}
	store.failures["AddFollower"] = errors.New("timeout")

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Repaired)
}

func TestReconcile_SkipsEdgeFollowedAfterScan(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	// The follow lands between the two mirror scans, so the diff sees an orphan
	followed := false
	store.before["ScanFollowerEdges"] = func() {
		if followed {
			return
		}
		followed = true
		_, err := svc.ToggleFollow(ctx, "alice", "bob")
		require.NoError(t, err)
	}

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FollowEdge{{FollowerID: "alice", FollowingID: "bob"}}, report.OrphanFollowers)
	assert.Zero(t, report.Repaired)
	assert.Equal(t, 1, report.Skipped)

	assert.Equal(t, []string{"bob"}, store.following["alice"])
	assert.Equal(t, []string{"alice"}, store.followers["bob"])

	after, err := svc.PlanReconcile(ctx)
	require.NoError(t, err)
	assert.True(t, after.Consistent())
}

func TestReconcile_CountsUnreadableFollowingAsFailure(t *testing.T) {
	svc, store, _ := newTestService()
	store.followers["bob"] = []string{"alice"}
	store.failures["GetFollowing"] = errors.New("timeout")

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"alice"}, store.followers["bob"])
}
