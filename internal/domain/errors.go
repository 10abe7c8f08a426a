package domain

import "errors"

var (
	// ErrDocumentExists is returned by a create-only write when the target
	// document id is already present. Under at-least-once delivery this is
	// the expected duplicate signal and is treated as success.
	ErrDocumentExists = errors.New("document already exists")

	// ErrStoreUnavailable marks a transient search-store failure that may
	// be retried with backoff.
	ErrStoreUnavailable = errors.New("search store unavailable")

	// ErrBadDocument marks a permanent write failure (mapping conflict or
	// corrupt payload) that must not be retried.
	ErrBadDocument = errors.New("document rejected by search store")

	// ErrInvalidCursor is returned when a page token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid page token")

	// ErrRuleNotFound is returned by the rule registry for unknown names.
	ErrRuleNotFound = errors.New("alert rule not found")
)
