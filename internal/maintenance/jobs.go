package maintenance

import (
	"context"
	"log/slog"

	"Flock/internal/core/graph"
	"Flock/internal/metrics"
)

const (
	ReconcileFollowsJob = "reconcile-follows"
	PurgeOrphansJob     = "purge-orphan-messages"
)

// Reconciler repairs follow mirror divergence
type Reconciler interface {
	Reconcile(ctx context.Context) (*graph.ReconcileReport, error)
}

// OrphanPurger deletes messages whose dialog no longer exists
type OrphanPurger interface {
	PurgeOrphanMessages(ctx context.Context) (int64, error)
}

// NewReconcileJob reconciles the follow mirrors on the given schedule
func NewReconcileJob(cron string, reconciler Reconciler, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name: ReconcileFollowsJob,
		Cron: cron,
		Run: func(ctx context.Context) error {
			report, err := reconciler.Reconcile(ctx)
			if report != nil {
				metrics.ObserveReconcile(report.Repaired, report.Failed)
				if !report.Consistent() {
					logger.Warn("follow mirrors had diverged",
						"missing_followers", len(report.MissingFollowers),
						"orphan_followers", len(report.OrphanFollowers),
						"repaired", report.Repaired,
						"failed", report.Failed)
				}
			}
			return err
		},
	}
}

// NewPurgeOrphansJob purges messages of deleted dialogs on the given schedule
func NewPurgeOrphansJob(cron string, purger OrphanPurger, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name: PurgeOrphansJob,
		Cron: cron,
		Run: func(ctx context.Context) error {
			n, err := purger.PurgeOrphanMessages(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged orphan messages", "count", n)
			}
			return nil
		},
	}
}
