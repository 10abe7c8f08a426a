package domain

import "context"

// Record is one consumed broker record. Partition and Offset are stable
// across redeliveries and together form the per-processor sequence source
// for idempotent document ids.
type Record struct {
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
}

// EventPublisher publishes keyed payloads to the durable log. Records with
// the same key land on the same partition.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// RecordConsumer yields broker records with at-least-once redelivery.
// Commit advances the committed offset past the given record; it must only
// be called after the record's outcome is durable downstream.
type RecordConsumer interface {
	Fetch(ctx context.Context) (Record, error)
	Commit(ctx context.Context, rec Record) error
	Close() error
}

// DeadLetterSink receives records that cannot be processed, preserving the
// original payload and the failure reason for inspection.
type DeadLetterSink interface {
	Send(ctx context.Context, rec Record, reason string) error
}

// SearchStore is the schema-on-write, time-partitioned document store.
type SearchStore interface {
	// EnsureIndex creates the index with its mapping if it does not exist.
	// A concurrent "already exists" outcome is success.
	EnsureIndex(ctx context.Context, name string) error

	// CreateDocument performs a create-only insert. It returns
	// ErrDocumentExists if the id is already present, ErrBadDocument for
	// permanent rejections, and ErrStoreUnavailable for transient failures.
	CreateDocument(ctx context.Context, index, id string, event LogEvent) error

	// Search runs a sorted, paginated query over the query's index set.
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)

	// Count returns the number of documents matching the query's filters.
	Count(ctx context.Context, q SearchQuery) (int64, error)

	// Available reports the last observed reachability of the store.
	Available() bool
}

// RuleRegistry holds alert rules. Implementations must guarantee that
// concurrent readers never observe a partially written rule.
type RuleRegistry interface {
	List(ctx context.Context) ([]*AlertRule, error)
	Get(ctx context.Context, name string) (*AlertRule, error)
	Put(ctx context.Context, rule *AlertRule) error
	Remove(ctx context.Context, name string) error
}
