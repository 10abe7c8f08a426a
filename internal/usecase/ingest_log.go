package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/domain"
)

// IngestLogUseCase validates incoming events and hands them to the broker.
// The handoff is non-blocking with respect to indexing: once the broker
// acknowledges the record the caller gets a success, and downstream
// indexing failures are never visible to it.
type IngestLogUseCase struct {
	publisher  domain.EventPublisher
	logger     *slog.Logger
	metrics    *metrics.IngestMetrics
	producerID string
}

// NewIngestLogUseCase creates a new IngestLogUseCase with a unique
// producer id for this gateway instance.
func NewIngestLogUseCase(publisher domain.EventPublisher, logger *slog.Logger, m *metrics.IngestMetrics) *IngestLogUseCase {
	uc := &IngestLogUseCase{
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
		producerID: uuid.NewString(),
	}
	logger.Info("ingest gateway initialized", "producer_id", uc.producerID)
	return uc
}

// ProducerID returns this gateway instance's producer id.
func (uc *IngestLogUseCase) ProducerID() string {
	return uc.producerID
}

// Ingest validates and publishes one event, keyed by tenant so all events
// of a tenant land on the same partition in order.
func (uc *IngestLogUseCase) Ingest(ctx context.Context, event *domain.LogEvent) error {
	ctx, span := otel.Tracer("ingest-service").Start(ctx, "Ingest")
	defer span.End()

	event.Canonicalize()
	if err := event.Validate(); err != nil {
		uc.metrics.EventsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		uc.metrics.EventsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("failed to marshal log event: %w", err)
	}

	if err := uc.publisher.Publish(ctx, event.TenantID, payload); err != nil {
		uc.metrics.EventsTotal.WithLabelValues("publish_error").Inc()
		uc.logger.Error("failed to publish log event", "tenant_id", event.TenantID, "error", err)
		return fmt.Errorf("failed to publish log event: %w", err)
	}

	uc.metrics.EventsTotal.WithLabelValues("accepted").Inc()
	uc.metrics.BytesTotal.Add(float64(len(payload)))
	uc.logger.Debug("accepted log event", "tenant_id", event.TenantID, "action", event.Action)
	return nil
}
