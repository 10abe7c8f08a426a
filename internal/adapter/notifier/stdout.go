package notifier

import (
	"context"
	"fmt"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// StdoutNotifier prints alerts to standard output. Useful for local runs
// and as a fallback sink.
type StdoutNotifier struct{}

// NewStdoutNotifier creates a StdoutNotifier.
func NewStdoutNotifier() *StdoutNotifier {
	return &StdoutNotifier{}
}

// Notify prints the alert details to stdout.
func (n *StdoutNotifier) Notify(ctx context.Context, rule *domain.AlertRule, count int64) error {
	fmt.Printf(
		"--- ALERT TRIGGERED ---\nRule Name: %s\nTenant ID: %s\nThreshold: %d\nActual Count: %d\n-----------------------\n",
		rule.Name,
		rule.TenantID,
		rule.Threshold,
		count,
	)
	return nil
}
