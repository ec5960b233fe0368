// cmd/reconcile-follows/main.go
// One-shot tool to repair divergence between the followers and following mirrors.
// The following mirror is authoritative.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"Flock/internal/config"
	"Flock/internal/core/graph"
	postgresRepo "Flock/internal/db/postgres"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report divergence without repairing it")
	verbose := flag.Bool("v", false, "log every divergent edge")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline for the run")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Only the database settings are needed here, so skip full validation
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Error("DATABASE_URL is not set and config could not be loaded", "error", err)
			os.Exit(1)
		}
		dbURL = cfg.DatabaseURL
	}

	logger.Info("connecting to database")
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	followRepo := postgresRepo.NewFollowRepository(db, postgresRepo.DefaultStoreTimeout)
	likeRepo := postgresRepo.NewLikeRepository(db, postgresRepo.DefaultStoreTimeout)
	userRepo := postgresRepo.NewUserRepository(db, postgresRepo.DefaultStoreTimeout)
	service := graph.NewService(followRepo, likeRepo, userRepo, nil, logger)

	var report *graph.ReconcileReport
	if *dryRun {
		report, err = service.PlanReconcile(ctx)
	} else {
		report, err = service.Reconcile(ctx)
	}
	if err != nil {
		logger.Error("reconcile failed", "error", err)
		if report == nil {
			os.Exit(1)
		}
	}

	if *verbose {
		for _, e := range report.MissingFollowers {
			logger.Info("missing follower entry", "follower", e.FollowerID, "following", e.FollowingID)
		}
		for _, e := range report.OrphanFollowers {
			logger.Info("orphan follower entry", "follower", e.FollowerID, "following", e.FollowingID)
		}
	}

	logger.Info("reconcile finished",
		"dry_run", report.DryRun,
		"following_edges", report.FollowingEdges,
		"follower_edges", report.FollowerEdges,
		"missing_followers", len(report.MissingFollowers),
		"orphan_followers", len(report.OrphanFollowers),
		"repaired", report.Repaired,
		"skipped", report.Skipped,
		"failed", report.Failed)

	if err != nil || report.Failed > 0 {
		os.Exit(1)
	}
}
