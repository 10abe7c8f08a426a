package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/pkg/cursor"
	"github.com/haiphamcoder/tracehub/internal/pkg/routing"
)

const (
	// DefaultSearchSize is used when the caller does not request a size.
	DefaultSearchSize = 100
	// MaxSearchSize caps a single page.
	MaxSearchSize = 1000
	// MaxTextQueryLength bounds the free-text query.
	MaxTextQueryLength = 1000
)

// StoreDegradedWarning is attached to responses served while the search
// store is unreachable, so callers can tell "no matches" from "degraded".
const StoreDegradedWarning = "search store unavailable; results may be incomplete"

// SearchParams is a tenant-scoped, time-ranged query with optional filters
// and an optional resume cursor.
type SearchParams struct {
	TenantID  string
	From      time.Time
	To        time.Time
	Action    string
	Status    string
	UserID    string
	ActorIP   string
	Text      string
	Size      int
	PageToken string
}

// CountParams is the aggregate form used by the alert monitor.
type CountParams struct {
	TenantID    string
	From        time.Time
	To          time.Time
	FilterField string
	FilterValue string
	Action      string
}

// SearchPage is one ordered page of results plus a continuation cursor.
type SearchPage struct {
	Events        []domain.LogEvent
	Total         int64
	NextPageToken string
	HasMore       bool
	Warnings      []string
}

// SearchLogsUseCase turns tenant-scoped queries into store queries,
// restricting the searched index set to the daily buckets overlapping the
// range and paginating via search-after cursors.
type SearchLogsUseCase struct {
	store       domain.SearchStore
	logger      *slog.Logger
	metrics     *metrics.QueryMetrics
	maxSpanDays int
}

// NewSearchLogsUseCase creates a new SearchLogsUseCase. maxSpanDays bounds
// how many daily indices are enumerated before falling back to the alias.
func NewSearchLogsUseCase(store domain.SearchStore, logger *slog.Logger, m *metrics.QueryMetrics, maxSpanDays int) *SearchLogsUseCase {
	if maxSpanDays <= 0 {
		maxSpanDays = 30
	}
	return &SearchLogsUseCase{
		store:       store,
		logger:      logger,
		metrics:     m,
		maxSpanDays: maxSpanDays,
	}
}

// Search returns one page of matching events in (timestamp, document id)
// order. The tenant filter is mandatory and cannot be bypassed by any other
// parameter. One extra row beyond the requested size is fetched so HasMore
// is exact rather than a page-size heuristic.
func (uc *SearchLogsUseCase) Search(ctx context.Context, p SearchParams) (*SearchPage, error) {
	ctx, span := otel.Tracer("query-service").Start(ctx, "Search")
	defer span.End()

	start := time.Now()
	defer func() { uc.metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	size, err := uc.validate(&p)
	if err != nil {
		uc.metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var after *domain.SortKey
	if p.PageToken != "" {
		key, err := cursor.Decode(p.PageToken)
		if err != nil {
			uc.metrics.SearchesTotal.WithLabelValues("invalid").Inc()
			return nil, err
		}
		after = &key
	}

	if !uc.store.Available() {
		uc.metrics.SearchesTotal.WithLabelValues("degraded").Inc()
		return uc.degradedPage(), nil
	}

	query := domain.SearchQuery{
		TenantID:  p.TenantID,
		From:      p.From,
		To:        p.To,
		Action:    p.Action,
		Status:    p.Status,
		UserID:    p.UserID,
		ActorIP:   p.ActorIP,
		Text:      p.Text,
		Size:      size + 1, // over-fetch one row to disambiguate the page boundary
		After:     after,
		Ascending: true,
		Indices:   uc.indicesFor(p.From, p.To),
	}

	result, err := uc.store.Search(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			uc.metrics.SearchesTotal.WithLabelValues("degraded").Inc()
			uc.logger.Warn("serving degraded search result", "tenant_id", p.TenantID, "error", err)
			return uc.degradedPage(), nil
		}
		uc.metrics.SearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	hits := result.Hits
	hasMore := len(hits) > size
	if hasMore {
		hits = hits[:size]
	}

	page := &SearchPage{
		Events:  make([]domain.LogEvent, 0, len(hits)),
		Total:   result.Total,
		HasMore: hasMore,
	}
	for _, hit := range hits {
		page.Events = append(page.Events, hit.Event)
	}
	if hasMore && len(hits) > 0 {
		page.NextPageToken = cursor.Encode(hits[len(hits)-1].Sort)
	}

	uc.metrics.SearchesTotal.WithLabelValues("ok").Inc()
	return page, nil
}

// Count evaluates an aggregate over the same tenant-mandatory query path.
func (uc *SearchLogsUseCase) Count(ctx context.Context, p CountParams) (int64, error) {
	ctx, span := otel.Tracer("query-service").Start(ctx, "Count")
	defer span.End()

	if p.TenantID == "" {
		return 0, &domain.ValidationError{Field: "tenantId", Reason: "is required"}
	}
	if !p.From.Before(p.To) {
		return 0, &domain.ValidationError{Field: "from", Reason: "must be before to"}
	}

	query := domain.SearchQuery{
		TenantID: p.TenantID,
		From:     p.From,
		To:       p.To,
		Action:   p.Action,
		Indices:  uc.indicesFor(p.From, p.To),
	}
	switch p.FilterField {
	case "status":
		query.Status = p.FilterValue
	case "action":
		query.Action = p.FilterValue
	case "userId":
		query.UserID = p.FilterValue
	case "actorIp":
		query.ActorIP = p.FilterValue
	case "":
	default:
		return 0, &domain.ValidationError{Field: "filterField", Reason: "must be one of: status, action, userId, actorIp"}
	}

	return uc.store.Count(ctx, query)
}

func (uc *SearchLogsUseCase) validate(p *SearchParams) (int, error) {
	if p.TenantID == "" {
		return 0, &domain.ValidationError{Field: "tenantId", Reason: "is required"}
	}
	if p.From.IsZero() || p.To.IsZero() {
		return 0, &domain.ValidationError{Field: "from", Reason: "from and to are required"}
	}
	if !p.From.Before(p.To) {
		return 0, &domain.ValidationError{Field: "from", Reason: "must be before to"}
	}
	if len(p.Text) > MaxTextQueryLength {
		return 0, &domain.ValidationError{Field: "q", Reason: fmt.Sprintf("must not exceed %d characters", MaxTextQueryLength)}
	}

	size := p.Size
	if size <= 0 {
		size = DefaultSearchSize
	}
	if size > MaxSearchSize {
		size = MaxSearchSize
	}
	return size, nil
}

// indicesFor enumerates the daily buckets overlapping [from, to), falling
// back to the wildcard alias when the span is too wide to enumerate.
func (uc *SearchLogsUseCase) indicesFor(from, to time.Time) []string {
	if to.Sub(from) > time.Duration(uc.maxSpanDays)*24*time.Hour {
		return []string{routing.IndexAlias}
	}
	indices := routing.DailyIndices(from, to)
	if len(indices) == 0 {
		return []string{routing.IndexAlias}
	}
	return indices
}

func (uc *SearchLogsUseCase) degradedPage() *SearchPage {
	return &SearchPage{
		Events:   []domain.LogEvent{},
		Warnings: []string{StoreDegradedWarning},
	}
}
