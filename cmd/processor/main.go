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

	"github.com/haiphamcoder/tracehub/internal/adapter/kafka"
	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/adapter/opensearch"
	"github.com/haiphamcoder/tracehub/internal/pkg/config"
	"github.com/haiphamcoder/tracehub/internal/pkg/logger"
	"github.com/haiphamcoder/tracehub/internal/pkg/routing"
	"github.com/haiphamcoder/tracehub/internal/usecase"
)

func main() {
	cfg, err := config.LoadProcessor()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	// The id derivation is the idempotency contract with the search store.
	// Refuse to start if it drifts.
	if err := routing.SelfCheck(); err != nil {
		logger.Error("document id self-check failed", "error", err)
		os.Exit(1)
	}

	m := metrics.NewProcessorMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
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
		Shards:    cfg.IndexShards,
		Replicas:  cfg.IndexReplicas,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize opensearch store", "error", err)
		os.Exit(1)
	}
	go store.StartHealthCheck(ctx, 5*time.Second)

	// --- Broker Consumer and DLQ ---
	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, logger)
	defer consumer.Close()

	dlq := kafka.NewDeadLetterPublisher(cfg.KafkaBrokers, cfg.KafkaDLQTopic, logger)
	defer dlq.Close()

	// --- Run Processor ---
	processor := usecase.NewProcessRecordsUseCase(consumer, store, dlq, logger, m, usecase.ProcessorOptions{
		ProcessorID: cfg.ProcessorID,
		MaxRetries:  cfg.MaxRetries,
		BaseBackoff: cfg.RetryBackoff,
		MaxBackoff:  cfg.MaxRetryBackoff,
		QueueSize:   cfg.WorkerQueueSize,
	})

	logger.Info("starting processor",
		"topic", cfg.KafkaTopic, "group_id", cfg.KafkaGroupID, "processor_id", cfg.ProcessorID)
	if err := processor.Run(ctx); err != nil {
		logger.Error("processor stopped with error", "error", err)
		stop()
	}

	// --- Shutdown ---
	logger.Info("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}

	logger.Info("processor shut down gracefully")
}
