package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/pkg/routing"
)

// errMissingTenant guards the tenant-isolation invariant at the lowest
// level: no query reaches the cluster without a tenant filter.
var errMissingTenant = errors.New("search query without tenant id")

// Search runs a filtered, sorted query with optional search-after resume.
func (s *Store) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	body, err := buildSearchBody(q, true)
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.SearchRequest{
		Index:             q.Indices,
		Body:              bytes.NewReader(body),
		IgnoreUnavailable: boolPtr(true),
	}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return nil, fmt.Errorf("search failed: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer res.Body.Close()

	if res.IsError() {
		if transientStatus(res.StatusCode) {
			return nil, fmt.Errorf("search returned status %d: %w", res.StatusCode, domain.ErrStoreUnavailable)
		}
		detail, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search returned status %d: %s", res.StatusCode, detail)
	}

	s.markAvailable()
	return parseSearchResponse(res.Body)
}

// Count returns the number of documents matching the query's filters.
func (s *Store) Count(ctx context.Context, q domain.SearchQuery) (int64, error) {
	body, err := buildSearchBody(q, false)
	if err != nil {
		return 0, err
	}

	res, err := opensearchapi.CountRequest{
		Index:             q.Indices,
		Body:              bytes.NewReader(body),
		IgnoreUnavailable: boolPtr(true),
	}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return 0, fmt.Errorf("count failed: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer res.Body.Close()

	if res.IsError() {
		if transientStatus(res.StatusCode) {
			return 0, fmt.Errorf("count returned status %d: %w", res.StatusCode, domain.ErrStoreUnavailable)
		}
		detail, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("count returned status %d: %s", res.StatusCode, detail)
	}

	s.markAvailable()

	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return parsed.Count, nil
}

// buildSearchBody renders the request body. Structural filters go into the
// bool filter context; free text becomes a scored match clause on message.
// Sort, size and search_after are only emitted for searches.
func buildSearchBody(q domain.SearchQuery, withSort bool) ([]byte, error) {
	if q.TenantID == "" {
		return nil, errMissingTenant
	}

	filters := []any{
		map[string]any{"term": map[string]any{"tenantId": q.TenantID}},
		map[string]any{"range": map[string]any{"@timestamp": map[string]any{
			"gte": routing.CanonicalTimestamp(q.From),
			"lt":  routing.CanonicalTimestamp(q.To),
		}}},
	}
	for field, value := range map[string]string{
		"action":  q.Action,
		"status":  q.Status,
		"userId":  q.UserID,
		"actorIp": q.ActorIP,
	} {
		if value != "" {
			filters = append(filters, map[string]any{"term": map[string]any{field: value}})
		}
	}

	boolQuery := map[string]any{"filter": filters}
	if q.Text != "" {
		boolQuery["must"] = []any{
			map[string]any{"match": map[string]any{"message": q.Text}},
		}
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
	}

	if withSort {
		order := "desc"
		if q.Ascending {
			order = "asc"
		}
		body["size"] = q.Size
		body["track_total_hits"] = true
		body["sort"] = []any{
			map[string]any{"@timestamp": map[string]any{"order": order}},
			map[string]any{"_id": map[string]any{"order": "asc"}},
		}
		if q.After != nil {
			body["search_after"] = []any{q.After.TimestampMillis, q.After.DocID}
		}
	}

	return json.Marshal(body)
}

func parseSearchResponse(r io.Reader) (*domain.SearchResult, error) {
	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
				Sort   []any           `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &domain.SearchResult{Total: parsed.Hits.Total.Value}
	for _, hit := range parsed.Hits.Hits {
		event, err := fromDocument(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hit %s: %w", hit.ID, err)
		}

		sortKey := domain.SortKey{DocID: hit.ID}
		if len(hit.Sort) > 0 {
			if millis, ok := hit.Sort[0].(float64); ok {
				sortKey.TimestampMillis = int64(millis)
			}
		}
		if sortKey.TimestampMillis == 0 {
			sortKey.TimestampMillis = event.Timestamp.UnixMilli()
		}

		result.Hits = append(result.Hits, domain.SearchHit{
			Event: event,
			DocID: hit.ID,
			Sort:  sortKey,
		})
	}
	return result, nil
}

func fromDocument(source json.RawMessage) (domain.LogEvent, error) {
	var doc document
	if err := json.Unmarshal(source, &doc); err != nil {
		return domain.LogEvent{}, err
	}

	ts, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		return domain.LogEvent{}, fmt.Errorf("bad @timestamp %q: %w", doc.Timestamp, err)
	}

	return domain.LogEvent{
		Timestamp: ts.UTC(),
		TenantID:  doc.TenantID,
		UserID:    doc.UserID,
		Action:    doc.Action,
		Status:    doc.Status,
		ActorIP:   doc.ActorIP,
		Message:   doc.Message,
		Metadata:  doc.Metadata,
	}, nil
}

func boolPtr(b bool) *bool { return &b }
