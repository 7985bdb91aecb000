// Copyright (c) 2026 Aldex. All rights reserved.

// Command api is the entry point for the Aldex HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and the cover backfill worker pool.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qdes/aldex/internal/api"
	"github.com/qdes/aldex/internal/auth"
	"github.com/qdes/aldex/internal/blob"
	"github.com/qdes/aldex/internal/catalog"
	"github.com/qdes/aldex/internal/cover"
	"github.com/qdes/aldex/internal/library"
	"github.com/qdes/aldex/internal/musicbrainz"
	"github.com/qdes/aldex/internal/platform/config"
	"github.com/qdes/aldex/internal/platform/constants"
	"github.com/qdes/aldex/internal/platform/migration"
	pgstore "github.com/qdes/aldex/internal/platform/postgres"
	redisstore "github.com/qdes/aldex/internal/platform/redis"
	"github.com/qdes/aldex/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "aldex"))
	slog.SetDefault(log)

	log.Info("[Aldex] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "aldex"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Auth Service ───────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewPostgresUserRepository(pool)
	sessionRepository := auth.NewCachedSessionRepository(auth.NewPostgresSessionRepository(pool), rdb)
	authService := auth.NewService(userRepository, sessionRepository, jwtSvc)
	authHandler := auth.NewHandler(authService)

	blobStore := blob.NewPostgresStore(pool)
	blobHandler := blob.NewHandler(blobStore)

	albumRepository := catalog.NewPostgresRepository(pool)
	catalogService := catalog.NewService(albumRepository, log)
	catalogHandler := catalog.NewHandler(catalogService)

	mbzClient := musicbrainz.NewClient(
		cfg.MusicBrainzBaseURL, cfg.CoverArtBaseURL,
		&http.Client{Timeout: constants.CoverFetchTimeout},
		musicbrainz.NewRedisCache(rdb),
	)
	searchHandler := musicbrainz.NewHandler(mbzClient)

	libraryRepository := library.NewPostgresRepository(pool)

	coverPipeline := cover.NewPipeline(
		albumRepository, libraryRepository, blobStore,
		&http.Client{Timeout: constants.CoverFetchTimeout},
		mbzClient, log,
	)
	coverScheduler := cover.NewScheduler(coverPipeline, cfg.CoverWorkers, cfg.CoverQueueSize, log)

	libraryService := library.NewService(libraryRepository, catalogService, coverScheduler, blobStore, log)
	libraryHandler := library.NewHandler(libraryService)

	// Worker pool lifecycle is bound to this context; canceling it drains
	// the pool during shutdown.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := coverScheduler.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cover scheduler stopped", slog.Any("error", err))
		}
	}()

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Library:   libraryHandler,
		Catalog:   catalogHandler,
		Covers:    blobHandler,
		Search:    searchHandler,
	}

	server := api.NewServer(workerCtx, cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Stop the cover workers after the HTTP surface is closed so no new
	// tasks can arrive mid-drain.
	workerCancel()
	<-workerDone

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
