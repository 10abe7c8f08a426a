package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/domain/mocks"
	"github.com/haiphamcoder/tracehub/internal/pkg/cursor"
)

func searchParams() SearchParams {
	return SearchParams{
		TenantID: "acme",
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
	}
}

func hitsFor(n int) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, n)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		event := validEvent()
		event.Timestamp = base.Add(time.Duration(i) * time.Second)
		hits = append(hits, domain.SearchHit{
			Event: event,
			DocID: string(rune('a' + i)),
			Sort:  domain.SortKey{TimestampMillis: event.Timestamp.UnixMilli(), DocID: string(rune('a' + i))},
		})
	}
	return hits
}

func TestSearchLogsUseCase_Search(t *testing.T) {
	logger := testLogger()

	t.Run("Tenant Filter Is Mandatory", func(t *testing.T) {
		store := &mocks.MockSearchStore{}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		p := searchParams()
		p.TenantID = ""

		_, err := uc.Search(context.Background(), p)
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) || validationErr.Field != "tenantId" {
			t.Fatalf("expected tenantId validation error, got %v", err)
		}
		if len(store.Queries) != 0 {
			t.Error("store must not be queried without a tenant")
		}
	})

	t.Run("From Must Precede To", func(t *testing.T) {
		uc := NewSearchLogsUseCase(&mocks.MockSearchStore{}, logger, testQueryMetrics, 30)

		p := searchParams()
		p.From, p.To = p.To, p.From

		if _, err := uc.Search(context.Background(), p); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})

	t.Run("Invalid Cursor Is Rejected", func(t *testing.T) {
		uc := NewSearchLogsUseCase(&mocks.MockSearchStore{}, logger, testQueryMetrics, 30)

		p := searchParams()
		p.PageToken = "!!not-a-token!!"

		_, err := uc.Search(context.Background(), p)
		if !errors.Is(err, domain.ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor, got %v", err)
		}
	})

	t.Run("Over-Fetch Trims and Sets Cursor", func(t *testing.T) {
		hits := hitsFor(3)
		store := &mocks.MockSearchStore{
			SearchFunc: func(q domain.SearchQuery) (*domain.SearchResult, error) {
				return &domain.SearchResult{Hits: hits, Total: 42}, nil
			},
		}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		p := searchParams()
		p.Size = 2

		page, err := uc.Search(context.Background(), p)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(page.Events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(page.Events))
		}
		if !page.HasMore {
			t.Error("expected HasMore with an extra row fetched")
		}
		if page.Total != 42 {
			t.Errorf("expected total 42, got %d", page.Total)
		}
		if want := cursor.Encode(hits[1].Sort); page.NextPageToken != want {
			t.Errorf("expected cursor for last returned hit, got %q", page.NextPageToken)
		}

		q := store.Queries[0]
		if q.Size != 3 {
			t.Errorf("expected over-fetch size 3, got %d", q.Size)
		}
		if !q.Ascending {
			t.Error("expected ascending sort")
		}
		if q.TenantID != "acme" {
			t.Errorf("expected tenant filter, got %q", q.TenantID)
		}
	})

	t.Run("Exact Page Has No Cursor", func(t *testing.T) {
		store := &mocks.MockSearchStore{
			SearchFunc: func(q domain.SearchQuery) (*domain.SearchResult, error) {
				return &domain.SearchResult{Hits: hitsFor(2), Total: 2}, nil
			},
		}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		p := searchParams()
		p.Size = 2

		page, err := uc.Search(context.Background(), p)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.HasMore {
			t.Error("expected HasMore to be false")
		}
		if page.NextPageToken != "" {
			t.Errorf("expected no cursor, got %q", page.NextPageToken)
		}
	})

	t.Run("Cursor Is Forwarded as Search-After", func(t *testing.T) {
		store := &mocks.MockSearchStore{}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		key := domain.SortKey{TimestampMillis: 1709287200000, DocID: "doc-1"}
		p := searchParams()
		p.PageToken = cursor.Encode(key)

		if _, err := uc.Search(context.Background(), p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		q := store.Queries[0]
		if q.After == nil || *q.After != key {
			t.Errorf("expected search-after %+v, got %+v", key, q.After)
		}
	})

	t.Run("Size Defaults and Caps", func(t *testing.T) {
		testCases := []struct {
			name     string
			size     int
			wantSize int
		}{
			{"zero uses default", 0, DefaultSearchSize + 1},
			{"negative uses default", -5, DefaultSearchSize + 1},
			{"over max is capped", 5000, MaxSearchSize + 1},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				store := &mocks.MockSearchStore{}
				uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

				p := searchParams()
				p.Size = tc.size

				if _, err := uc.Search(context.Background(), p); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got := store.Queries[0].Size; got != tc.wantSize {
					t.Errorf("expected store query size %d, got %d", tc.wantSize, got)
				}
			})
		}
	})

	t.Run("Narrow Range Enumerates Daily Indices", func(t *testing.T) {
		store := &mocks.MockSearchStore{}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		if _, err := uc.Search(context.Background(), searchParams()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"logs-tracehub-2024.03.01", "logs-tracehub-2024.03.02"}
		got := store.Queries[0].Indices
		if len(got) != len(want) {
			t.Fatalf("expected indices %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected indices %v, got %v", want, got)
			}
		}
	})

	t.Run("Wide Range Falls Back to Alias", func(t *testing.T) {
		store := &mocks.MockSearchStore{}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		p := searchParams()
		p.To = p.From.AddDate(0, 0, 90)

		if _, err := uc.Search(context.Background(), p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := store.Queries[0].Indices
		if len(got) != 1 || got[0] != "logs-tracehub-*" {
			t.Errorf("expected alias fallback, got %v", got)
		}
	})

	t.Run("Unavailable Store Serves Degraded Page", func(t *testing.T) {
		store := &mocks.MockSearchStore{Unavailable: true}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		page, err := uc.Search(context.Background(), searchParams())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Events) != 0 {
			t.Errorf("expected empty page, got %d events", len(page.Events))
		}
		if len(page.Warnings) != 1 || page.Warnings[0] != StoreDegradedWarning {
			t.Errorf("expected degraded warning, got %v", page.Warnings)
		}
		if len(store.Queries) != 0 {
			t.Error("unavailable store must not be queried")
		}
	})

	t.Run("Store Unavailable Error Serves Degraded Page", func(t *testing.T) {
		store := &mocks.MockSearchStore{
			SearchFunc: func(q domain.SearchQuery) (*domain.SearchResult, error) {
				return nil, domain.ErrStoreUnavailable
			},
		}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		page, err := uc.Search(context.Background(), searchParams())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Warnings) != 1 {
			t.Errorf("expected degraded warning, got %v", page.Warnings)
		}
	})

	t.Run("Other Store Errors Propagate", func(t *testing.T) {
		store := &mocks.MockSearchStore{
			SearchFunc: func(q domain.SearchQuery) (*domain.SearchResult, error) {
				return nil, errors.New("mapping conflict")
			},
		}
		uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

		if _, err := uc.Search(context.Background(), searchParams()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}

func TestSearchLogsUseCase_Count(t *testing.T) {
	logger := testLogger()

	t.Run("Filter Field Maps to Query", func(t *testing.T) {
		testCases := []struct {
			field string
			check func(q domain.SearchQuery) bool
		}{
			{"status", func(q domain.SearchQuery) bool { return q.Status == "FAILURE" }},
			{"action", func(q domain.SearchQuery) bool { return q.Action == "FAILURE" }},
			{"userId", func(q domain.SearchQuery) bool { return q.UserID == "FAILURE" }},
			{"actorIp", func(q domain.SearchQuery) bool { return q.ActorIP == "FAILURE" }},
		}
		for _, tc := range testCases {
			t.Run(tc.field, func(t *testing.T) {
				store := &mocks.MockSearchStore{
					CountFunc: func(q domain.SearchQuery) (int64, error) { return 12, nil },
				}
				uc := NewSearchLogsUseCase(store, logger, testQueryMetrics, 30)

				count, err := uc.Count(context.Background(), CountParams{
					TenantID:    "acme",
					From:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
					To:          time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC),
					FilterField: tc.field,
					FilterValue: "FAILURE",
				})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if count != 12 {
					t.Errorf("expected count 12, got %d", count)
				}
				if q := store.CountQueries[0]; !tc.check(q) || q.TenantID != "acme" {
					t.Errorf("filter not mapped into query: %+v", q)
				}
			})
		}
	})

	t.Run("Tenant Is Required", func(t *testing.T) {
		uc := NewSearchLogsUseCase(&mocks.MockSearchStore{}, logger, testQueryMetrics, 30)

		_, err := uc.Count(context.Background(), CountParams{
			From: time.Now().Add(-time.Hour),
			To:   time.Now(),
		})
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) || validationErr.Field != "tenantId" {
			t.Fatalf("expected tenantId validation error, got %v", err)
		}
	})

	t.Run("Unknown Filter Field Is Rejected", func(t *testing.T) {
		uc := NewSearchLogsUseCase(&mocks.MockSearchStore{}, logger, testQueryMetrics, 30)

		_, err := uc.Count(context.Background(), CountParams{
			TenantID:    "acme",
			From:        time.Now().Add(-time.Hour),
			To:          time.Now(),
			FilterField: "severity",
			FilterValue: "high",
		})
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}
