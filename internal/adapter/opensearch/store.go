// Package opensearch implements the search-store collaborator: lazy index
// creation with a fixed mapping, create-only document inserts, and sorted
// search-after queries.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	opensearchclient "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/pkg/routing"
)

// Store is an OpenSearch-backed domain.SearchStore. Reachability is tracked
// so callers can fail degraded instead of surfacing opaque errors.
type Store struct {
	client      *opensearchclient.Client
	logger      *slog.Logger
	shards      int
	replicas    int
	isAvailable atomic.Bool
}

// Config holds connection and index settings for the store.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Shards    int
	Replicas  int
}

// NewStore creates a Store. It does not require the cluster to be reachable
// at construction time; availability is tracked from live traffic and the
// health check loop.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := opensearchclient.NewClient(opensearchclient.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	shards := cfg.Shards
	if shards <= 0 {
		shards = 3
	}
	replicas := cfg.Replicas
	if replicas < 0 {
		replicas = 1
	}

	s := &Store{
		client:   client,
		logger:   logger.With("component", "opensearch_store"),
		shards:   shards,
		replicas: replicas,
	}
	s.isAvailable.Store(true)
	return s, nil
}

// Available reports the last observed reachability of the cluster.
func (s *Store) Available() bool {
	return s.isAvailable.Load()
}

// Ping checks cluster reachability and updates the availability flag.
func (s *Store) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return fmt.Errorf("opensearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.markUnavailable(fmt.Errorf("status %d", res.StatusCode))
		return fmt.Errorf("opensearch ping returned status %d", res.StatusCode)
	}

	s.markAvailable()
	return nil
}

// StartHealthCheck monitors cluster reachability until ctx is cancelled.
func (s *Store) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Ping(ctx)
		}
	}
}

// EnsureIndex creates the index with the audit-log mapping if it does not
// exist. A concurrent creator winning the race is treated as success.
func (s *Store) EnsureIndex(ctx context.Context, name string) error {
	existsRes, err := opensearchapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return fmt.Errorf("failed to check index %s: %v: %w", name, err, domain.ErrStoreUnavailable)
	}
	existsRes.Body.Close()

	switch existsRes.StatusCode {
	case http.StatusOK:
		s.markAvailable()
		return nil
	case http.StatusNotFound:
		// fall through to create
	default:
		return fmt.Errorf("unexpected status %d checking index %s: %w", existsRes.StatusCode, name, domain.ErrStoreUnavailable)
	}

	createRes, err := opensearchapi.IndicesCreateRequest{
		Index: name,
		Body:  strings.NewReader(s.indexBody()),
	}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return fmt.Errorf("failed to create index %s: %v: %w", name, err, domain.ErrStoreUnavailable)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		if createRes.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
			// Another processor created it first.
			return nil
		}
		if transientStatus(createRes.StatusCode) {
			return fmt.Errorf("create index %s returned status %d: %w", name, createRes.StatusCode, domain.ErrStoreUnavailable)
		}
		return fmt.Errorf("create index %s returned status %d: %s", name, createRes.StatusCode, body)
	}

	s.markAvailable()
	s.logger.Info("created index", "index", name)
	return nil
}

// CreateDocument performs a create-only insert. A conflict on the document
// id means the event was already indexed by a prior delivery.
func (s *Store) CreateDocument(ctx context.Context, index, id string, event domain.LogEvent) error {
	body, err := json.Marshal(toDocument(event))
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %v: %w", id, err, domain.ErrBadDocument)
	}

	res, err := opensearchapi.CreateRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		s.markUnavailable(err)
		return fmt.Errorf("failed to create document %s: %v: %w", id, err, domain.ErrStoreUnavailable)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusCreated || res.StatusCode == http.StatusOK:
		s.markAvailable()
		return nil
	case res.StatusCode == http.StatusConflict:
		return domain.ErrDocumentExists
	case transientStatus(res.StatusCode):
		return fmt.Errorf("create document %s returned status %d: %w", id, res.StatusCode, domain.ErrStoreUnavailable)
	default:
		detail, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create document %s returned status %d: %s: %w", id, res.StatusCode, detail, domain.ErrBadDocument)
	}
}

// indexBody renders the index settings and the fixed field mapping applied
// once at creation.
func (s *Store) indexBody() string {
	return fmt.Sprintf(`{
  "settings": {
    "number_of_shards": %d,
    "number_of_replicas": %d,
    "refresh_interval": "1s"
  },
  "mappings": {
    "properties": {
      "@timestamp": {"type": "date"},
      "tenantId": {"type": "keyword"},
      "userId": {"type": "keyword"},
      "action": {"type": "keyword"},
      "status": {"type": "keyword"},
      "actorIp": {"type": "ip"},
      "message": {"type": "text"},
      "metadata": {"type": "flat_object"}
    }
  }
}`, s.shards, s.replicas)
}

func (s *Store) markUnavailable(err error) {
	if s.isAvailable.CompareAndSwap(true, false) {
		s.logger.Error("opensearch connection lost", "error", err)
	}
}

func (s *Store) markAvailable() {
	if s.isAvailable.CompareAndSwap(false, true) {
		s.logger.Info("opensearch connection recovered")
	}
}

// transientStatus reports whether an HTTP status indicates a retryable
// condition (rate limiting or server-side failure).
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// document is the stored shape of a log event.
type document struct {
	Timestamp string         `json:"@timestamp"`
	TenantID  string         `json:"tenantId"`
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	ActorIP   string         `json:"actorIp"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func toDocument(event domain.LogEvent) document {
	return document{
		Timestamp: routing.CanonicalTimestamp(event.Timestamp),
		TenantID:  event.TenantID,
		UserID:    event.UserID,
		Action:    event.Action,
		Status:    event.Status,
		ActorIP:   event.ActorIP,
		Message:   event.Message,
		Metadata:  event.Metadata,
	}
}
