package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/realm-provisioner/internal/adapter/api"
	"github.com/V4T54L/realm-provisioner/internal/adapter/keycloak"
	"github.com/V4T54L/realm-provisioner/internal/adapter/metrics"
	"github.com/V4T54L/realm-provisioner/internal/adapter/pii"
	"github.com/V4T54L/realm-provisioner/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/realm-provisioner/internal/adapter/repository/redis"
	"github.com/V4T54L/realm-provisioner/internal/domain"
	"github.com/V4T54L/realm-provisioner/internal/pkg/config"
	"github.com/V4T54L/realm-provisioner/internal/pkg/logger"
	"github.com/V4T54L/realm-provisioner/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewRealmMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Warn("postgres not reachable yet, readiness will report it", "error", err)
	}
	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			logger.Error("failed to apply realm schema", "error", err)
			os.Exit(1)
		}
		logger.Info("realm schema ensured", "schema", postgres.SchemaName)
	}

	// --- Realm events (optional) ---
	var events domain.EventPublisher
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, realm events will be dropped until it recovers", "error", err)
		}
		redactor := pii.NewRedactor(cfg.RedactFields, logger)
		events = redisrepo.NewEventPublisher(redisClient, logger, cfg.EventsStream, cfg.EventsStreamMaxLen, redactor)
	} else {
		logger.Info("REDIS_URL not set, realm events disabled")
	}

	// --- Identity Provider ---
	idp := keycloak.NewClient(keycloak.Config{
		BaseURL:            cfg.Keycloak.URL,
		Username:           cfg.Keycloak.AdminUser,
		Password:           cfg.Keycloak.AdminPassword,
		AdminRealm:         cfg.Keycloak.AdminRealm,
		ClientID:           cfg.Keycloak.ClientID,
		InsecureSkipVerify: cfg.Keycloak.InsecureSkipVerify,
		Timeout:            cfg.Keycloak.Timeout,
		RateLimit:          cfg.Keycloak.RateLimit,
	}, logger, m)
	if cfg.Keycloak.InsecureSkipVerify {
		logger.Warn("TLS verification disabled for identity provider", "url", cfg.Keycloak.URL)
	}

	// --- Use Case ---
	repo := postgres.NewRealmRepository(db, logger)
	realmService := usecase.NewRealmService(idp, repo, events, logger, m)

	// --- Metrics Server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	// --- API Server ---
	apiServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(logger, realmService, m, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting realm api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("realm api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("realm api server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
