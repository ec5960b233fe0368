package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"Flock/internal/api/middleware"
	"Flock/internal/api/routes"
	"Flock/internal/config"
	"Flock/internal/core/dialogs"
	"Flock/internal/core/feed"
	"Flock/internal/core/graph"
	"Flock/internal/core/messages"
	"Flock/internal/core/posts"
	"Flock/internal/core/receipts"
	"Flock/internal/core/users"
	"Flock/internal/db/migrations"
	postgresRepo "Flock/internal/db/postgres"
	"Flock/internal/maintenance"
	"Flock/internal/metrics"
	"Flock/internal/realtime"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("connected to database")

	if err := migrations.Up(db); err != nil {
		return err
	}
	logger.Info("migrations completed successfully")

	// Repositories
	userRepo := postgresRepo.NewUserRepository(db, cfg.StoreTimeout)
	followRepo := postgresRepo.NewFollowRepository(db, cfg.StoreTimeout)
	likeRepo := postgresRepo.NewLikeRepository(db, cfg.StoreTimeout)
	postRepo := postgresRepo.NewPostRepository(db, cfg.StoreTimeout)
	feedRepo := postgresRepo.NewFeedRepository(db, cfg.StoreTimeout)
	dialogRepo := postgresRepo.NewDialogRepository(db, cfg.StoreTimeout)
	messageRepo := postgresRepo.NewMessageRepository(db, cfg.StoreTimeout)
	receiptRepo := postgresRepo.NewReceiptRepository(db, cfg.StoreTimeout)
	maintenanceRepo := postgresRepo.NewMaintenanceRepository(db, cfg.StoreTimeout)

	// Realtime bus
	hub := realtime.NewHub(metrics.BusRecorder{}, logger.With("component", "realtime"))
	notifier := realtime.NewNotifier(hub)

	// Services
	userService := users.NewUserService(userRepo)
	graphService := graph.NewService(followRepo, likeRepo, userRepo, metrics.GraphRecorder{}, logger.With("component", "graph"))
	postService := posts.NewPostService(postRepo, userRepo, logger.With("component", "posts"))
	feedService := feed.NewFeedService(feedRepo)
	dialogService := dialogs.NewService(dialogRepo, userRepo, notifier, logger.With("component", "dialogs"))
	coordinator := receipts.NewCoordinator(receiptRepo, dialogService, notifier, logger.With("component", "receipts"))
	messageService := messages.NewService(messageRepo, dialogService, userRepo, coordinator, notifier, logger.With("component", "messages"))

	wsServer := realtime.NewServer(hub, dialogService, realtime.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		QueueSize:       cfg.SessionQueueSize,
		TypingPerSecond: cfg.TypingPerSecond,
	}, logger.With("component", "realtime"))

	scheduler, err := maintenance.NewScheduler(logger.With("component", "maintenance"),
		maintenance.NewReconcileJob(cfg.ReconcileCron, graphService, logger),
		maintenance.NewPurgeOrphansJob(cfg.OrphanPurgeCron, maintenanceRepo, logger),
	)
	if err != nil {
		return err
	}

	// HTTP
	authMiddleware := middleware.NewJWTAuthMiddleware(cfg.JWTAccessSecret, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(routes.CORS(cfg.AllowedOrigins))

	routes.RegisterSystemRoutes(r, wsServer, authMiddleware)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.OptionalAuth)
		r.Use(rateLimiter.Middleware)
		r.Use(middleware.TouchLastSeen(userService, logger))

		routes.RegisterUserRoutes(r, userService, graphService, authMiddleware, cfg.JWTAccessSecret)
		routes.RegisterPostRoutes(r, postService, graphService, feedService, authMiddleware)
		routes.RegisterDialogRoutes(r, dialogService, messageService, coordinator, authMiddleware)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Flock server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		wsServer.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
