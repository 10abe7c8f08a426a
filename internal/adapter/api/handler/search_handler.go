package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/usecase"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// SearchUseCase is the query-engine behavior the handler depends on.
type SearchUseCase interface {
	Search(ctx context.Context, p usecase.SearchParams) (*usecase.SearchPage, error)
}

// searchRequest is the wire shape of POST /api/v1/search.
type searchRequest struct {
	TenantID    string `json:"tenantId"`
	From        string `json:"from"`
	To          string `json:"to"`
	Action      string `json:"action,omitempty"`
	Status      string `json:"status,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ActorIP     string `json:"actorIp,omitempty"`
	Q           string `json:"q,omitempty"`
	Size        int    `json:"size,omitempty"`
	SearchAfter string `json:"searchAfter,omitempty"`
}

// searchResponse is the wire shape of the search result page.
type searchResponse struct {
	Hits          []domain.LogEvent `json:"hits"`
	Total         int64             `json:"total"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
	HasMore       bool              `json:"hasMore"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// SearchHandler serves tenant-scoped, cursor-paginated log queries.
type SearchHandler struct {
	useCase SearchUseCase
	logger  *slog.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(uc SearchUseCase, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{useCase: uc, logger: logger}
}

// ServeHTTP processes POST /api/v1/search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	params, err := req.toParams()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.useCase.Search(r.Context(), params)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		if errors.Is(err, domain.ErrInvalidCursor) {
			respondError(w, http.StatusBadRequest, "invalid searchAfter token")
			return
		}
		h.logger.Error("search failed", "tenant_id", req.TenantID, "error", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondJSON(w, http.StatusOK, searchResponse{
		Hits:          page.Events,
		Total:         page.Total,
		NextPageToken: page.NextPageToken,
		HasMore:       page.HasMore,
		Warnings:      page.Warnings,
	})
}

func (r *searchRequest) toParams() (usecase.SearchParams, error) {
	from, err := parseTimestamp(r.From)
	if err != nil {
		return usecase.SearchParams{}, fmt.Errorf("invalid from timestamp: %v", err)
	}
	to, err := parseTimestamp(r.To)
	if err != nil {
		return usecase.SearchParams{}, fmt.Errorf("invalid to timestamp: %v", err)
	}

	return usecase.SearchParams{
		TenantID:  r.TenantID,
		From:      from,
		To:        to,
		Action:    r.Action,
		Status:    r.Status,
		UserID:    r.UserID,
		ActorIP:   r.ActorIP,
		Text:      r.Q,
		Size:      r.Size,
		PageToken: r.SearchAfter,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("is required")
	}
	ts, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Accept full RFC 3339 as well (offsets, fractional seconds).
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, errors.New("must be formatted as yyyy-MM-dd'T'HH:mm:ss'Z'")
		}
	}
	return ts.UTC(), nil
}
