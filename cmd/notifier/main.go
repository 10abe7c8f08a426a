package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/haiphamcoder/tracehub/internal/adapter/api"
	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/adapter/notifier"
	"github.com/haiphamcoder/tracehub/internal/adapter/opensearch"
	redisrepo "github.com/haiphamcoder/tracehub/internal/adapter/repository/redis"
	"github.com/haiphamcoder/tracehub/internal/pkg/config"
	"github.com/haiphamcoder/tracehub/internal/pkg/logger"
	"github.com/haiphamcoder/tracehub/internal/usecase"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewNotifierMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Rule Registry ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	registry := redisrepo.NewRuleRegistry(redisClient, logger)
	if cfg.SeedSampleRule {
		sample := usecase.SampleFailureRule(cfg.SampleRuleTenant, cfg.SampleRuleWebhook)
		if err := registry.SeedIfEmpty(ctx, sample); err != nil {
			logger.Warn("failed to seed sample alert rule", "error", err)
		}
	}

	// --- Search Store (counting backend) ---
	store, err := opensearch.NewStore(opensearch.Config{
		Addresses: cfg.OpenSearchAddrs,
		Username:  cfg.OpenSearchUsername,
		Password:  cfg.OpenSearchPassword,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize opensearch store", "error", err)
		os.Exit(1)
	}
	go store.StartHealthCheck(ctx, 5*time.Second)

	counter := usecase.NewSearchLogsUseCase(store, logger, metrics.NewQueryMetrics(), cfg.MaxIndexSpanDays)

	// --- Alert Monitor ---
	sink := notifier.NewDispatcher(
		notifier.NewWebhookNotifier(cfg.WebhookTimeout, logger),
		notifier.NewStdoutNotifier(),
	)
	monitor := usecase.NewAlertMonitorUseCase(registry, counter, sink, logger, m, cfg.EvaluationInterval)
	go monitor.Run(ctx)

	// --- Rule API Server ---
	ruleServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewNotifierRouter(registry, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting alert rule server", "addr", ruleServer.Addr)
		if err := ruleServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("alert rule server failed", "error", err)
			stop()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := ruleServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("alert rule server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
