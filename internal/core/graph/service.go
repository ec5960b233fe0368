package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"Flock/internal/core/apperr"
)

// maxToggleAttempts bounds how often a toggle restarts after a concurrent
// toggle removed the edge underneath it
const maxToggleAttempts = 2

// maxConvergeRounds bounds how often the followers mirror is re-synced after
// a concurrent toggle changed the following row it was synced from
const maxConvergeRounds = 8

type graphService struct {
	follows  FollowRepository
	likes    LikeRepository
	users    UserLookup
	recorder Recorder
	logger   *slog.Logger
}

// NewService creates a new social graph service. recorder may be nil.
func NewService(follows FollowRepository, likes LikeRepository, users UserLookup, recorder Recorder, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &graphService{
		follows:  follows,
		likes:    likes,
		users:    users,
		recorder: recorder,
		logger:   logger,
	}
}

// ToggleFollow flips the actor->target edge. following(actor) decides the
// outcome with one conditional statement; followers(target) is then synced to
// whatever following(actor) holds, re-reading it until the two agree.
// A followers failure is reported as divergence for Reconcile to repair and
// the toggle still returns the state following(actor) reached.
func (s *graphService) ToggleFollow(ctx context.Context, actorID, targetID string) (FollowState, error) {
	targetID = strings.TrimSpace(targetID)
	if actorID == "" {
		return "", apperr.NewValidationError("actor", "actor is required")
	}
	if targetID == "" {
		return "", apperr.NewValidationError("target", "target is required")
	}
	if actorID == targetID {
		return "", ErrSelfFollow
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", err
	}

	durable := context.WithoutCancel(ctx)
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		state, err := s.flipFollowing(durable, actorID, targetID)
		if errors.Is(err, errToggleRaced) {
			s.logger.Warn("follow toggle raced, retrying",
				"actor", actorID,
				"target", targetID,
				"attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}

		op := "follow"
		if state == FollowStateUnfollowed {
			op = "unfollow"
		}
		if _, err := s.syncFollower(durable, actorID, targetID); err != nil {
			s.reportDivergence(op, actorID, targetID, err)
		}
		return state, nil
	}

	s.recorder.ToggleConflict("follow")
	return "", ErrToggleConflict
}

// flipFollowing adds target to following(actor), or removes it when it was
// already there
func (s *graphService) flipFollowing(ctx context.Context, actorID, targetID string) (FollowState, error) {
	added, err := s.follows.AddFollowing(ctx, actorID, targetID)
	if err != nil {
		return "", fmt.Errorf("failed to follow: %w", apperr.Unavailable(err))
	}
	if added {
		return FollowStateFollowed, nil
	}

	removed, err := s.follows.RemoveFollowing(ctx, actorID, targetID)
	if err != nil {
		return "", fmt.Errorf("failed to unfollow: %w", apperr.Unavailable(err))
	}
	if !removed {
		return "", errToggleRaced
	}
	return FollowStateUnfollowed, nil
}

// syncFollower makes followers(target) agree with following(actor) for this
// one edge. It reports whether the followers row changed.
func (s *graphService) syncFollower(ctx context.Context, actorID, targetID string) (bool, error) {
	following, err := s.hasFollowing(ctx, actorID, targetID)
	if err != nil {
		return false, err
	}

	changed := false
	for round := 0; round < maxConvergeRounds; round++ {
		var wrote bool
		if following {
			wrote, err = s.follows.AddFollower(ctx, targetID, actorID)
		} else {
			wrote, err = s.follows.RemoveFollower(ctx, targetID, actorID)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || wrote

		now, err := s.hasFollowing(ctx, actorID, targetID)
		if err != nil {
			return changed, err
		}
		if now == following {
			return changed, nil
		}
		following = now
	}
	return changed, errMirrorUnsettled
}

func (s *graphService) hasFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	ids, err := s.follows.GetFollowing(ctx, actorID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, targetID), nil
}

func (s *graphService) reportDivergence(op, actorID, targetID string, err error) {
	s.logger.Error("follow mirrors diverged",
		"op", op,
		"actor", actorID,
		"target", targetID,
		"failed_mirror", "followers",
		"error", err)
	s.recorder.MirrorDivergence(op)
}

// ToggleLike flips the actor's membership in the post's like set
func (s *graphService) ToggleLike(ctx context.Context, actorID, postID string) (bool, error) {
	postID = strings.TrimSpace(postID)
	if actorID == "" {
		return false, apperr.NewValidationError("actor", "actor is required")
	}
	if postID == "" {
		return false, apperr.NewValidationError("post", "post is required")
	}

	durable := context.WithoutCancel(ctx)
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		liked, err := s.toggleLikeOnce(durable, actorID, postID)
		if !errors.Is(err, errToggleRaced) {
			return liked, err
		}
		s.logger.Warn("like toggle raced, retrying",
			"actor", actorID,
			"post", postID,
			"attempt", attempt)
	}

	s.recorder.ToggleConflict("like")
	return false, ErrToggleConflict
}

func (s *graphService) toggleLikeOnce(ctx context.Context, actorID, postID string) (bool, error) {
	added, err := s.likes.AddLike(ctx, postID, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	if added {
		return true, nil
	}

	removed, err := s.likes.RemoveLike(ctx, postID, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %w", err)
	}
	if !removed {
		return false, errToggleRaced
	}
	return false, nil
}

func (s *graphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	following, err := s.GetFollowing(ctx, actorID)
	if err != nil {
		return false, err
	}
	return slices.Contains(following, targetID), nil
}

func (s *graphService) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return ids, nil
}

func (s *graphService) GetFollowers(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return ids, nil
}

func (s *graphService) GetLikes(ctx context.Context, postID string) ([]string, error) {
	ids, err := s.likes.GetLikes(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}
	return ids, nil
}

type nopRecorder struct{}

func (nopRecorder) MirrorDivergence(string) {}
func (nopRecorder) ToggleConflict(string)   {}
