// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Comunidad HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the relational store: PostgreSQL with migrations, or the in-process
//     memory store when DATABASE_URL is empty.
//  4. Connect to Redis for notification fan-out, when configured.
//  5. Build the query cache, the authorization gate and the domain services.
//  6. Start background janitors and the HTTP server with graceful shutdown.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/comunidad/internal/api"
	"github.com/taibuivan/comunidad/internal/core/post"
	"github.com/taibuivan/comunidad/internal/core/stats"
	"github.com/taibuivan/comunidad/internal/core/tag"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/config"
	"github.com/taibuivan/comunidad/internal/platform/constants"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/middleware"
	"github.com/taibuivan/comunidad/internal/platform/migration"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	pgstore "github.com/taibuivan/comunidad/internal/platform/postgres"
	redisstore "github.com/taibuivan/comunidad/internal/platform/redis"
	"github.com/taibuivan/comunidad/internal/platform/sec"
	"github.com/taibuivan/comunidad/internal/platform/store"
	"github.com/taibuivan/comunidad/internal/users/profile"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("memory_store", cfg.UsesMemoryStore()),
	)

	// Bounded startup so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Background janitors stop with this context.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var health api.HealthDependencies

	// ── 3. Relational Store ───────────────────────────────────────────────
	var client store.Client
	if cfg.UsesMemoryStore() {
		log.Warn("using_memory_store", slog.String("reason", "DATABASE_URL is empty"))
		client = store.NewMemory(schema.MemoryTables()...)
	} else {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		client = store.NewPostgres(pool)
		health.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		}
	}

	// ── 4. Notifications ──────────────────────────────────────────────────
	sinks := []notify.Sink{notify.NewLogSink(log)}
	var redisSink *notify.RedisSink
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		redisSink = notify.NewRedisSink(rdb, cfg.NotifyChannel, constants.NotifyTimeout, log)
		sinks = append(sinks, redisSink)
		health.CheckNotifier = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}
	sink := notify.Multi(sinks...)

	// ── 5. Cache, Gate, Token Verification ────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	coordinator := cache.New(
		cache.WithMetrics(cache.NewMetrics(registry)),
		cache.WithStaleAfter(cfg.CacheStaleAfter),
	)
	go coordinator.Run(runCtx, cfg.CachePruneInterval, cfg.CacheMaxIdle)

	gate := authz.NewGate(authz.ClaimsProvider{})

	tokens, err := sec.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	must(log, err, "initialize token verification")

	limiter := middleware.NewRateLimiter(constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)
	go limiter.Run(runCtx, constants.RateLimitCleanupInterval, constants.RateLimitClientTTL)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	tagService := tag.NewService(tag.NewRelationalRepository(client), coordinator, gate, sink, log)
	postService := post.NewService(post.NewRelationalRepository(client), coordinator, gate, sink, log)
	profileService := profile.NewService(profile.NewRelationalRepository(client), coordinator, gate, sink, log)
	statsService := stats.NewService(stats.NewRepository(client), coordinator, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Post:      post.NewHandler(postService),
		Tag:       tag.NewHandler(tagService),
		Profile:   profile.NewHandler(profileService),
		Stats:     stats.NewHandler(statsService),
	}

	server := api.NewServer(cfg, log, tokens, limiter, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
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
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	stopRun()
	if redisSink != nil {
		// Let in-flight publishes finish before the client closes.
		redisSink.Wait()
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
