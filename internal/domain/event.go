package domain

import (
	"fmt"
	"net"
	"regexp"
	"time"
)

// Valid status values for a log event.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
	StatusWarn    = "WARN"
	StatusInfo    = "INFO"
	StatusError   = "ERROR"
)

const (
	MaxTenantIDLength = 50
	MaxUserIDLength   = 100
	MaxActionLength   = 100
	MaxMessageLength  = 10000
)

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var validStatuses = map[string]struct{}{
	StatusSuccess: {},
	StatusFailure: {},
	StatusWarn:    {},
	StatusInfo:    {},
	StatusError:   {},
}

// LogEvent is the canonical audit event flowing through the pipeline.
// It is created once at the ingest boundary and never mutated afterwards.
type LogEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenantId"`
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	ActorIP   string         `json:"actorIp"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ValidationError describes a rejected event field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Canonicalize normalizes the event timestamp to whole-second UTC so that
// the derived idempotency key is stable across JSON round-trips.
func (e *LogEvent) Canonicalize() {
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Second)
}

// Validate checks all required fields and bounds. It returns a
// *ValidationError describing the first violation found.
func (e *LogEvent) Validate() error {
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	if e.TenantID == "" {
		return &ValidationError{Field: "tenantId", Reason: "is required"}
	}
	if len(e.TenantID) > MaxTenantIDLength {
		return &ValidationError{Field: "tenantId", Reason: fmt.Sprintf("must not exceed %d characters", MaxTenantIDLength)}
	}
	if !tenantIDPattern.MatchString(e.TenantID) {
		return &ValidationError{Field: "tenantId", Reason: "must contain only alphanumeric characters, hyphens, and underscores"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	if len(e.UserID) > MaxUserIDLength {
		return &ValidationError{Field: "userId", Reason: fmt.Sprintf("must not exceed %d characters", MaxUserIDLength)}
	}
	if e.Action == "" {
		return &ValidationError{Field: "action", Reason: "is required"}
	}
	if len(e.Action) > MaxActionLength {
		return &ValidationError{Field: "action", Reason: fmt.Sprintf("must not exceed %d characters", MaxActionLength)}
	}
	if _, ok := validStatuses[e.Status]; !ok {
		return &ValidationError{Field: "status", Reason: "must be one of: SUCCESS, FAILURE, WARN, INFO, ERROR"}
	}
	if net.ParseIP(e.ActorIP) == nil {
		return &ValidationError{Field: "actorIp", Reason: "must be a valid IPv4 or IPv6 address"}
	}
	if e.Message == "" {
		return &ValidationError{Field: "message", Reason: "is required"}
	}
	if len(e.Message) > MaxMessageLength {
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("must not exceed %d characters", MaxMessageLength)}
	}
	return nil
}
