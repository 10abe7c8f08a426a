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
	"github.com/haiphamcoder/tracehub/internal/adapter/api/middleware"
	"github.com/haiphamcoder/tracehub/internal/adapter/kafka"
	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/pkg/config"
	"github.com/haiphamcoder/tracehub/internal/pkg/logger"
	"github.com/haiphamcoder/tracehub/internal/usecase"
)

func main() {
	cfg, err := config.LoadIngest()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewIngestMetrics()

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

	// --- Broker Producer ---
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close()

	// --- Initialize Use Cases and HTTP Server ---
	ingestUseCase := usecase.NewIngestLogUseCase(producer, logger, m)
	limiter := middleware.NewTenantLimiter(cfg.TenantRatePerSec, cfg.TenantRateBurst)
	ingestHandler := handler.NewIngestHandler(ingestUseCase, limiter, logger, cfg.MaxEventSize)

	ingestServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewIngestRouter(ingestHandler, logger, cfg.CORSAllowedOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting ingest server", "addr", ingestServer.Addr)
		if err := ingestServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ingest server failed", "error", err)
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
	if err := ingestServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ingest server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
