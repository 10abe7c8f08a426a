package opensearch

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

func baseQuery() domain.SearchQuery {
	return domain.SearchQuery{
		TenantID:  "acme",
		From:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Size:      101,
		Ascending: true,
	}
}

func TestBuildSearchBody(t *testing.T) {
	t.Run("Rejects Missing Tenant", func(t *testing.T) {
		q := baseQuery()
		q.TenantID = ""

		if _, err := buildSearchBody(q, true); !errors.Is(err, errMissingTenant) {
			t.Fatalf("expected errMissingTenant, got %v", err)
		}
	})

	t.Run("Includes Tenant and Range Filters", func(t *testing.T) {
		body, err := buildSearchBody(baseQuery(), true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}

		s := string(body)
		for _, fragment := range []string{
			`"tenantId":"acme"`,
			`"gte":"2024-03-01T00:00:00Z"`,
			`"lt":"2024-03-02T00:00:00Z"`,
			`"track_total_hits":true`,
			`"size":101`,
		} {
			if !strings.Contains(s, fragment) {
				t.Errorf("body missing %s: %s", fragment, s)
			}
		}
	})

	t.Run("Emits Search-After", func(t *testing.T) {
		q := baseQuery()
		q.After = &domain.SortKey{TimestampMillis: 1709287200000, DocID: "doc-1"}

		body, err := buildSearchBody(q, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(body), `"search_after":[1709287200000,"doc-1"]`) {
			t.Errorf("body missing search_after: %s", body)
		}
	})

	t.Run("Count Body Has No Sort or Size", func(t *testing.T) {
		body, err := buildSearchBody(baseQuery(), false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		s := string(body)
		if strings.Contains(s, "sort") || strings.Contains(s, "size") || strings.Contains(s, "search_after") {
			t.Errorf("count body must only carry the query: %s", s)
		}
	})

	t.Run("Free Text Becomes Match Clause", func(t *testing.T) {
		q := baseQuery()
		q.Text = "failed login"

		body, err := buildSearchBody(q, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(body), `"match":{"message":"failed login"}`) {
			t.Errorf("body missing match clause: %s", body)
		}
	})
}

func TestParseSearchResponse(t *testing.T) {
	payload := `{
		"hits": {
			"total": {"value": 7},
			"hits": [
				{
					"_id": "doc-1",
					"_source": {
						"@timestamp": "2024-03-01T10:30:00Z",
						"tenantId": "acme",
						"userId": "user-1",
						"action": "user.login",
						"status": "SUCCESS",
						"actorIp": "10.0.0.1",
						"message": "login succeeded"
					},
					"sort": [1709289000000, "doc-1"]
				}
			]
		}
	}`

	result, err := parseSearchResponse(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Total != 7 {
		t.Errorf("expected total 7, got %d", result.Total)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(result.Hits))
	}

	hit := result.Hits[0]
	if hit.DocID != "doc-1" {
		t.Errorf("expected doc-1, got %q", hit.DocID)
	}
	if hit.Sort.TimestampMillis != 1709289000000 {
		t.Errorf("expected sort millis from response, got %d", hit.Sort.TimestampMillis)
	}
	if hit.Event.TenantID != "acme" || hit.Event.Action != "user.login" {
		t.Errorf("unexpected event: %+v", hit.Event)
	}
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if !hit.Event.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, hit.Event.Timestamp)
	}
}
