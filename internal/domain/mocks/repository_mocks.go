package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// MockEventPublisher records published payloads for assertions.
type MockEventPublisher struct {
	mu         sync.Mutex
	Keys       []string
	Payloads   [][]byte
	PublishErr error
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Keys = append(m.Keys, key)
	m.Payloads = append(m.Payloads, payload)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// MockRecordConsumer yields a scripted sequence of records and records
// commits. Fetch returns io.EOF once the script is exhausted.
type MockRecordConsumer struct {
	mu        sync.Mutex
	Records   []domain.Record
	next      int
	Committed []domain.Record
	FetchErr  error
	CommitErr error
}

func (m *MockRecordConsumer) Fetch(ctx context.Context) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return domain.Record{}, m.FetchErr
	}
	if m.next >= len(m.Records) {
		return domain.Record{}, io.EOF
	}
	rec := m.Records[m.next]
	m.next++
	return rec, nil
}

func (m *MockRecordConsumer) Commit(ctx context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Committed = append(m.Committed, rec)
	return nil
}

func (m *MockRecordConsumer) Close() error { return nil }

// MockDeadLetterSink records dead-lettered records and reasons.
type MockDeadLetterSink struct {
	mu      sync.Mutex
	Records []domain.Record
	Reasons []string
	SendErr error
}

func (m *MockDeadLetterSink) Send(ctx context.Context, rec domain.Record, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Records = append(m.Records, rec)
	m.Reasons = append(m.Reasons, reason)
	return nil
}

// MockSearchStore simulates a create-only document store. Documents live in
// an in-memory map keyed by index/id, so duplicate creates surface
// ErrDocumentExists just like the real store.
type MockSearchStore struct {
	mu             sync.Mutex
	Documents      map[string]domain.LogEvent
	EnsuredIndices []string
	Queries        []domain.SearchQuery
	CountQueries   []domain.SearchQuery

	EnsureErr    error
	CreateErr    error
	CreateErrSeq []error // consumed one per call before CreateErr applies
	SearchFunc   func(q domain.SearchQuery) (*domain.SearchResult, error)
	CountFunc    func(q domain.SearchQuery) (int64, error)
	Unavailable  bool
}

func (m *MockSearchStore) EnsureIndex(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnsureErr != nil {
		return m.EnsureErr
	}
	m.EnsuredIndices = append(m.EnsuredIndices, name)
	return nil
}

func (m *MockSearchStore) CreateDocument(ctx context.Context, index, id string, event domain.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.CreateErrSeq) > 0 {
		err := m.CreateErrSeq[0]
		m.CreateErrSeq = m.CreateErrSeq[1:]
		if err != nil {
			return err
		}
	} else if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Documents == nil {
		m.Documents = make(map[string]domain.LogEvent)
	}
	key := index + "/" + id
	if _, ok := m.Documents[key]; ok {
		return domain.ErrDocumentExists
	}
	m.Documents[key] = event
	return nil
}

func (m *MockSearchStore) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	fn := m.SearchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(q)
	}
	return &domain.SearchResult{}, nil
}

func (m *MockSearchStore) Count(ctx context.Context, q domain.SearchQuery) (int64, error) {
	m.mu.Lock()
	m.CountQueries = append(m.CountQueries, q)
	fn := m.CountFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(q)
	}
	return 0, nil
}

func (m *MockSearchStore) Available() bool { return !m.Unavailable }

// MockRuleRegistry is an in-memory rule registry.
type MockRuleRegistry struct {
	mu      sync.RWMutex
	Rules   map[string]*domain.AlertRule
	ListErr error
}

func (m *MockRuleRegistry) List(ctx context.Context) ([]*domain.AlertRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	rules := make([]*domain.AlertRule, 0, len(m.Rules))
	for _, r := range m.Rules {
		copied := *r
		rules = append(rules, &copied)
	}
	return rules, nil
}

func (m *MockRuleRegistry) Get(ctx context.Context, name string) (*domain.AlertRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.Rules[name]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	copied := *rule
	return &copied, nil
}

func (m *MockRuleRegistry) Put(ctx context.Context, rule *domain.AlertRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rules == nil {
		m.Rules = make(map[string]*domain.AlertRule)
	}
	copied := *rule
	m.Rules[rule.Name] = &copied
	return nil
}

func (m *MockRuleRegistry) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Rules[name]; !ok {
		return domain.ErrRuleNotFound
	}
	delete(m.Rules, name)
	return nil
}
