package graph

import (
	"context"
	"fmt"
)

func (s *graphService) PlanReconcile(ctx context.Context) (*ReconcileReport, error) {
	report, err := s.diffMirrors(ctx)
	if err != nil {
		return nil, err
	}
	report.DryRun = true
	return report, nil
}

// Reconcile treats following as the source of truth. The scans only nominate
// edges: each one is re-checked against the current following row before the
// followers row is touched, so an edge toggled after the scan is left alone.
// Individual repair failures are counted and logged, they do not abort the pass.
func (s *graphService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report, err := s.diffMirrors(ctx)
	if err != nil {
		return nil, err
	}

	suspects := make([]FollowEdge, 0, len(report.MissingFollowers)+len(report.OrphanFollowers))
	suspects = append(suspects, report.MissingFollowers...)
	suspects = append(suspects, report.OrphanFollowers...)

	for _, e := range suspects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		changed, err := s.syncFollower(ctx, e.FollowerID, e.FollowingID)
		if err != nil {
			report.Failed++
			s.logger.Error("failed to repair follower edge",
				"follower", e.FollowerID,
				"following", e.FollowingID,
				"error", err)
			continue
		}
		if changed {
			report.Repaired++
		} else {
			report.Skipped++
		}
	}

	s.logger.Info("follow mirrors reconciled",
		"following_edges", report.FollowingEdges,
		"follower_edges", report.FollowerEdges,
		"missing_followers", len(report.MissingFollowers),
		"orphan_followers", len(report.OrphanFollowers),
		"repaired", report.Repaired,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

func (s *graphService) diffMirrors(ctx context.Context) (*ReconcileReport, error) {
	following, err := s.follows.ScanFollowingEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan following mirror: %w", err)
	}
	followers, err := s.follows.ScanFollowerEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan followers mirror: %w", err)
	}

	inFollowing := make(map[FollowEdge]struct{}, len(following))
	for _, e := range following {
		inFollowing[e] = struct{}{}
	}
	inFollowers := make(map[FollowEdge]struct{}, len(followers))
	for _, e := range followers {
		inFollowers[e] = struct{}{}
	}

	report := &ReconcileReport{
		MissingFollowers: []FollowEdge{},
		OrphanFollowers:  []FollowEdge{},
		FollowingEdges:   len(inFollowing),
		FollowerEdges:    len(inFollowers),
	}
	for e := range inFollowing {
		if _, ok := inFollowers[e]; !ok {
			report.MissingFollowers = append(report.MissingFollowers, e)
		}
	}
	for e := range inFollowers {
		if _, ok := inFollowing[e]; !ok {
			report.OrphanFollowers = append(report.OrphanFollowers, e)
		}
	}
	return report, nil
}
