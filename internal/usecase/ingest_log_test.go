package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/domain/mocks"
)

// Prometheus collectors register globally, so each service's metrics are
// created once and shared across the package's tests.
var (
	testIngestMetrics    = metrics.NewIngestMetrics()
	testProcessorMetrics = metrics.NewProcessorMetrics()
	testQueryMetrics     = metrics.NewQueryMetrics()
	testNotifierMetrics  = metrics.NewNotifierMetrics()
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validEvent() domain.LogEvent {
	return domain.LogEvent{
		Timestamp: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		TenantID:  "acme",
		UserID:    "user-1",
		Action:    "user.login",
		Status:    domain.StatusSuccess,
		ActorIP:   "10.0.0.1",
		Message:   "login succeeded",
	}
}

func TestIngestLogUseCase_Ingest(t *testing.T) {
	logger := testLogger()

	t.Run("Successful Ingest", func(t *testing.T) {
		publisher := &mocks.MockEventPublisher{}
		uc := NewIngestLogUseCase(publisher, logger, testIngestMetrics)

		event := validEvent()
		if err := uc.Ingest(context.Background(), &event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(publisher.Payloads) != 1 {
			t.Fatalf("expected 1 published payload, got %d", len(publisher.Payloads))
		}
		if publisher.Keys[0] != "acme" {
			t.Errorf("expected record keyed by tenant, got %q", publisher.Keys[0])
		}

		var published domain.LogEvent
		if err := json.Unmarshal(publisher.Payloads[0], &published); err != nil {
			t.Fatalf("published payload is not valid JSON: %v", err)
		}
		if published.TenantID != event.TenantID || published.Action != event.Action {
			t.Errorf("published event does not match input: %+v", published)
		}
	})

	t.Run("Timestamp Canonicalized Before Publish", func(t *testing.T) {
		publisher := &mocks.MockEventPublisher{}
		uc := NewIngestLogUseCase(publisher, logger, testIngestMetrics)

		event := validEvent()
		event.Timestamp = time.Date(2024, 3, 1, 17, 30, 45, 999000000, time.FixedZone("UTC+7", 7*3600))

		if err := uc.Ingest(context.Background(), &event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var published domain.LogEvent
		if err := json.Unmarshal(publisher.Payloads[0], &published); err != nil {
			t.Fatalf("published payload is not valid JSON: %v", err)
		}
		want := time.Date(2024, 3, 1, 10, 30, 45, 0, time.UTC)
		if !published.Timestamp.Equal(want) {
			t.Errorf("expected canonical timestamp %v, got %v", want, published.Timestamp)
		}
	})

	t.Run("Validation Failure", func(t *testing.T) {
		publisher := &mocks.MockEventPublisher{}
		uc := NewIngestLogUseCase(publisher, logger, testIngestMetrics)

		event := validEvent()
		event.TenantID = ""

		err := uc.Ingest(context.Background(), &event)
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
		if validationErr.Field != "tenantId" {
			t.Errorf("expected error on tenantId, got %q", validationErr.Field)
		}
		if len(publisher.Payloads) != 0 {
			t.Error("invalid event must not be published")
		}
	})

	t.Run("Publish Failure", func(t *testing.T) {
		publisher := &mocks.MockEventPublisher{PublishErr: errors.New("broker unreachable")}
		uc := NewIngestLogUseCase(publisher, logger, testIngestMetrics)

		event := validEvent()
		if err := uc.Ingest(context.Background(), &event); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
