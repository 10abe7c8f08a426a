package domain

import "time"

// AlertRule is a registry entry evaluated by the alert monitor on every tick.
// Rules are stored and read as whole records; a reader never observes a
// partially updated rule.
type AlertRule struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	TenantID          string `json:"tenantId"`
	FilterField       string `json:"filterField"`
	FilterValue       string `json:"filterValue"`
	ActionFilter      string `json:"actionFilter,omitempty"`
	TimeWindowMinutes int    `json:"timeWindowMinutes"`
	Threshold         int64  `json:"threshold"`
	CooldownMinutes   int    `json:"cooldownMinutes"`
	WebhookURL        string `json:"webhookUrl"`
}

// Fields a rule predicate may filter on.
var ruleFilterFields = map[string]struct{}{
	"status":  {},
	"action":  {},
	"userId":  {},
	"actorIp": {},
}

// Window returns the trailing evaluation window.
func (r *AlertRule) Window() time.Duration {
	return time.Duration(r.TimeWindowMinutes) * time.Minute
}

// Cooldown returns the minimum interval between two firings of this rule.
func (r *AlertRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// Validate checks that the rule is well-formed enough to evaluate.
func (r *AlertRule) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if r.TenantID == "" {
		return &ValidationError{Field: "tenantId", Reason: "is required"}
	}
	if _, ok := ruleFilterFields[r.FilterField]; !ok {
		return &ValidationError{Field: "filterField", Reason: "must be one of: status, action, userId, actorIp"}
	}
	if r.FilterValue == "" {
		return &ValidationError{Field: "filterValue", Reason: "is required"}
	}
	if r.TimeWindowMinutes <= 0 {
		return &ValidationError{Field: "timeWindowMinutes", Reason: "must be positive"}
	}
	if r.Threshold <= 0 {
		return &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	if r.CooldownMinutes < 0 {
		return &ValidationError{Field: "cooldownMinutes", Reason: "must not be negative"}
	}
	// WebhookURL may be empty; such rules are delivered to the fallback sink.
	return nil
}
