package notifier

import (
	"context"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// Dispatcher routes each alert to the webhook sink when the rule carries a
// webhook URL and to the fallback sink otherwise.
type Dispatcher struct {
	webhook  Notifier
	fallback Notifier
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(webhook, fallback Notifier) *Dispatcher {
	return &Dispatcher{webhook: webhook, fallback: fallback}
}

// Notify delivers the alert through the sink matching the rule.
func (d *Dispatcher) Notify(ctx context.Context, rule *domain.AlertRule, count int64) error {
	if rule.WebhookURL != "" {
		return d.webhook.Notify(ctx, rule, count)
	}
	return d.fallback.Notify(ctx, rule, count)
}
