package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemimartinez77/clubdn-sub002/internal/config"
	"github.com/chemimartinez77/clubdn-sub002/internal/infrastructure/postgres"
	"github.com/chemimartinez77/clubdn-sub002/internal/infrastructure/rabbitmq"
	"github.com/chemimartinez77/clubdn-sub002/internal/infrastructure/redis"
	"github.com/chemimartinez77/clubdn-sub002/internal/pkg/logger"
	"github.com/chemimartinez77/clubdn-sub002/internal/security"
	"github.com/chemimartinez77/clubdn-sub002/internal/service"
	"github.com/chemimartinez77/clubdn-sub002/internal/transport/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Logger.With().
		Str("service", "clubdn-server").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := pgxpool.New(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool create failed")
	}
	defer dbPool.Close()

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		defer cancel()

		if err := dbPool.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")
	}

	store := postgres.New(dbPool)

	// ---- Redis (optional) ----
	var cache service.Cache
	if cfg.RedisAddr != "" {
		rc := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		if err := rc.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
		cancel()

		cache = rc
	}

	// ---- Application services ----
	clock := service.UTCClock{}
	events := service.NewEventService(store, cache, clock)
	registrations := service.NewRegistrationService(store, cache, clock)
	notifications := service.NewNotificationService(store, clock)

	// ---- JWT verifier ----
	verifier := security.NewHS256Verifier(cfg.JWTSecret)

	// ---- Router ----
	deps := rest.RouterDeps{
		Handler:   rest.NewHandler(events, registrations, notifications),
		Verifier:  verifier,
		JWTIssuer: cfg.JWTIssuer,
		Cache:     cache,
	}
	if cfg.RLEnabled {
		deps.RLLimit = cfg.RLLimit
		deps.RLWindow = cfg.RLWindow
	}
	httpHandler := rest.NewRouter(deps)

	// ---- MQ consumer (stores in-app notifications) ----
	if cfg.NotifierEnabled {
		mqConsumer := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, store)
		if err := mqConsumer.Start(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("rabbitmq consumer start failed")
		}
	}

	// ---- Outbox worker (outbound registration.* events) ----
	if cfg.OutboxEnabled {
		store.StartOutboxWorker(rootCtx, cfg.RabbitURL, cfg.RabbitExchange)
		log.Info().Msg("outbox worker started")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
