package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/haiphamcoder/tracehub/internal/adapter/api/middleware"
	"github.com/haiphamcoder/tracehub/internal/domain"
)

// IngestUseCase is the gateway behavior the handler depends on.
type IngestUseCase interface {
	Ingest(ctx context.Context, event *domain.LogEvent) error
}

// IngestHandler accepts single log events and returns 202 once the broker
// has acknowledged the record; indexing completion is not awaited.
type IngestHandler struct {
	useCase      IngestUseCase
	limiter      *middleware.TenantLimiter
	logger       *slog.Logger
	maxEventSize int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(uc IngestUseCase, limiter *middleware.TenantLimiter, logger *slog.Logger, maxEventSize int64) *IngestHandler {
	return &IngestHandler{
		useCase:      uc,
		limiter:      limiter,
		logger:       logger,
		maxEventSize: maxEventSize,
	}
}

// ServeHTTP processes POST /api/v1/logs.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxEventSize)

	var event domain.LogEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if h.limiter != nil && event.TenantID != "" && !h.limiter.Allow(event.TenantID) {
		respondError(w, http.StatusTooManyRequests, "tenant rate limit exceeded")
		return
	}

	if err := h.useCase.Ingest(r.Context(), &event); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		h.logger.Error("failed to ingest log event", "error", err)
		respondError(w, http.StatusServiceUnavailable, "event could not be accepted")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
