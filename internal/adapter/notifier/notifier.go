package notifier

import (
	"context"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// Notifier delivers alert notifications. Delivery is fire-and-observe:
// failures are reported to the caller for logging but never retried here.
type Notifier interface {
	Notify(ctx context.Context, rule *domain.AlertRule, count int64) error
}
