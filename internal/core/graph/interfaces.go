package graph

import (
	"context"

	"Flock/internal/core/users"
)

// FollowRepository mutates the two follow mirrors. Every mutation is a single
// conditional statement and reports whether it changed anything.
type FollowRepository interface {
	// AddFollower appends followerID to followers(ownerID) unless already present
	AddFollower(ctx context.Context, ownerID, followerID string) (bool, error)
	// AddFollowing appends followingID to following(ownerID) unless already present
	AddFollowing(ctx context.Context, ownerID, followingID string) (bool, error)
	RemoveFollower(ctx context.Context, ownerID, followerID string) (bool, error)
	RemoveFollowing(ctx context.Context, ownerID, followingID string) (bool, error)

	GetFollowers(ctx context.Context, userID string) ([]string, error)
	GetFollowing(ctx context.Context, userID string) ([]string, error)

	// ScanFollowingEdges and ScanFollowerEdges flatten each mirror into edges
	ScanFollowingEdges(ctx context.Context) ([]FollowEdge, error)
	ScanFollowerEdges(ctx context.Context) ([]FollowEdge, error)
}

// LikeRepository mutates the per-post like set. Mutations return
// ErrLikeSetNotFound when the post has no like set.
type LikeRepository interface {
	AddLike(ctx context.Context, postID, likerID string) (bool, error)
	RemoveLike(ctx context.Context, postID, likerID string) (bool, error)
	GetLikes(ctx context.Context, postID string) ([]string, error)
}

// UserLookup resolves follow targets
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Recorder counts graph anomalies. Implemented by the metrics package.
type Recorder interface {
	MirrorDivergence(op string)
	ToggleConflict(kind string)
}

// Service defines social graph operations
type Service interface {
	ToggleFollow(ctx context.Context, actorID, targetID string) (FollowState, error)
	ToggleLike(ctx context.Context, actorID, postID string) (bool, error)

	IsFollowing(ctx context.Context, actorID, targetID string) (bool, error)
	GetFollowing(ctx context.Context, userID string) ([]string, error)
	GetFollowers(ctx context.Context, userID string) ([]string, error)
	GetLikes(ctx context.Context, postID string) ([]string, error)

	// Reconcile repairs the symmetric difference between the follow mirrors
	Reconcile(ctx context.Context) (*ReconcileReport, error)
	// PlanReconcile computes the same report without writing anything
	PlanReconcile(ctx context.Context) (*ReconcileReport, error)
}
