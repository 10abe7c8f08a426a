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

	"github.com/haiphamcoder/tracehub/internal/adapter/api"
	"github.com/haiphamcoder/tracehub/internal/adapter/api/handler"
	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/adapter/opensearch"
	"github.com/haiphamcoder/tracehub/internal/pkg/config"
	"github.com/haiphamcoder/tracehub/internal/pkg/logger"
	"github.com/haiphamcoder/tracehub/internal/usecase"
)

func main() {
	cfg, err := config.LoadQuery()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewQueryMetrics()

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

	// --- Search Store ---
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

	// --- Initialize Use Cases and HTTP Server ---
	searchUseCase := usecase.NewSearchLogsUseCase(store, logger, m, cfg.MaxIndexSpanDays)
	searchHandler := handler.NewSearchHandler(searchUseCase, logger)

	queryServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewQueryRouter(searchHandler, logger, cfg.CORSAllowedOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting query server", "addr", queryServer.Addr)
		if err := queryServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("query server failed", "error", err)
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
	if err := queryServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("query server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
