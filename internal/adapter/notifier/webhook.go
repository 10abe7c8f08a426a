package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// WebhookNotifier posts alert payloads to each rule's webhook target.
type WebhookNotifier struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier with the given call timeout.
func NewWebhookNotifier(timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook_notifier"),
	}
}

type webhookPayload struct {
	Rule        string    `json:"rule"`
	Description string    `json:"description"`
	TenantID    string    `json:"tenantId"`
	Threshold   int64     `json:"threshold"`
	Count       int64     `json:"count"`
	FiredAt     time.Time `json:"firedAt"`
}

// Notify posts the alert to the rule's webhook URL.
func (n *WebhookNotifier) Notify(ctx context.Context, rule *domain.AlertRule, count int64) error {
	body, err := json.Marshal(webhookPayload{
		Rule:        rule.Name,
		Description: rule.Description,
		TenantID:    rule.TenantID,
		Threshold:   rule.Threshold,
		Count:       count,
		FiredAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rule.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call failed: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", res.StatusCode)
	}

	n.logger.Info("alert notification delivered", "rule", rule.Name, "count", count)
	return nil
}
