package domain

import "time"

// SortKey is the (timestamp, document id) tuple that totally orders search
// results. Timestamps are carried as epoch milliseconds, matching the sort
// values the search store returns.
type SortKey struct {
	TimestampMillis int64
	DocID           string
}

// SearchQuery is the store-level query built by the query engine. TenantID
// is mandatory; the store adapter must refuse to run a query without it.
type SearchQuery struct {
	TenantID  string
	From      time.Time
	To        time.Time
	Action    string
	Status    string
	UserID    string
	ActorIP   string
	Text      string
	Size      int
	After     *SortKey
	Ascending bool
	Indices   []string
}

// SearchHit is one matching document with its id and sort key.
type SearchHit struct {
	Event LogEvent
	DocID string
	Sort  SortKey
}

// SearchResult is a raw page of hits from the store.
type SearchResult struct {
	Hits  []SearchHit
	Total int64
}
