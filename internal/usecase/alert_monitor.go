package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/adapter/notifier"
	"github.com/haiphamcoder/tracehub/internal/domain"
)

// EventCounter evaluates a rule predicate as an aggregate count over the
// tenant-isolated query path.
type EventCounter interface {
	Count(ctx context.Context, p CountParams) (int64, error)
}

// AlertMonitorUseCase evaluates alert rules on a fixed interval. Ticks
// never overlap: a tick due while the previous one still runs is skipped.
// The evaluate-then-fire-then-record sequence is serialized per rule name,
// so two concurrent evaluations of the same rule cannot both fire.
type AlertMonitorUseCase struct {
	registry domain.RuleRegistry
	counter  EventCounter
	sink     notifier.Notifier
	logger   *slog.Logger
	metrics  *metrics.NotifierMetrics
	interval time.Duration

	running   atomic.Bool
	ruleLocks sync.Map // rule name -> *sync.Mutex

	mu        sync.Mutex
	lastFired map[string]time.Time

	now func() time.Time
}

// NewAlertMonitorUseCase creates a new AlertMonitorUseCase.
func NewAlertMonitorUseCase(
	registry domain.RuleRegistry,
	counter EventCounter,
	sink notifier.Notifier,
	logger *slog.Logger,
	m *metrics.NotifierMetrics,
	interval time.Duration,
) *AlertMonitorUseCase {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &AlertMonitorUseCase{
		registry:  registry,
		counter:   counter,
		sink:      sink,
		logger:    logger,
		metrics:   m,
		interval:  interval,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Run evaluates rules on the configured interval until ctx is cancelled.
func (uc *AlertMonitorUseCase) Run(ctx context.Context) {
	ticker := time.NewTicker(uc.interval)
	defer ticker.Stop()

	uc.logger.Info("alert monitor started", "interval", uc.interval)

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("alert monitor stopped")
			return
		case <-ticker.C:
			uc.Tick(ctx)
		}
	}
}

// Tick evaluates every registered rule once. If a previous tick is still
// running the call returns immediately.
func (uc *AlertMonitorUseCase) Tick(ctx context.Context) {
	if !uc.running.CompareAndSwap(false, true) {
		uc.metrics.TicksTotal.WithLabelValues("skipped_overlap").Inc()
		uc.logger.Debug("previous tick still running, skipping")
		return
	}
	defer uc.running.Store(false)

	ctx, span := otel.Tracer("notifier-service").Start(ctx, "Tick")
	defer span.End()

	rules, err := uc.registry.List(ctx)
	if err != nil {
		uc.metrics.TicksTotal.WithLabelValues("registry_error").Inc()
		uc.logger.Error("failed to list alert rules", "error", err)
		return
	}

	uc.metrics.TicksTotal.WithLabelValues("run").Inc()
	for _, rule := range rules {
		if _, err := uc.EvaluateRule(ctx, rule); err != nil {
			uc.metrics.EvaluationsTotal.WithLabelValues("error").Inc()
			uc.logger.Error("failed to evaluate alert rule", "rule", rule.Name, "error", err)
		}
	}
}

// EvaluateRule runs one rule through the cooldown check, predicate count,
// and firing sequence. It reports whether the rule fired.
func (uc *AlertMonitorUseCase) EvaluateRule(ctx context.Context, rule *domain.AlertRule) (bool, error) {
	lock := uc.ruleLock(rule.Name)
	lock.Lock()
	defer lock.Unlock()

	now := uc.now()
	if last, ok := uc.getLastFired(rule.Name); ok && now.Sub(last) < rule.Cooldown() {
		uc.metrics.EvaluationsTotal.WithLabelValues("cooldown").Inc()
		uc.logger.Debug("rule in cooldown", "rule", rule.Name)
		return false, nil
	}

	count, err := uc.counter.Count(ctx, CountParams{
		TenantID:    rule.TenantID,
		From:        now.Add(-rule.Window()),
		To:          now,
		FilterField: rule.FilterField,
		FilterValue: rule.FilterValue,
		Action:      rule.ActionFilter,
	})
	if err != nil {
		return false, err
	}

	if count < rule.Threshold {
		uc.metrics.EvaluationsTotal.WithLabelValues("below_threshold").Inc()
		return false, nil
	}

	uc.logger.Info("firing alert", "rule", rule.Name, "count", count, "threshold", rule.Threshold)
	if err := uc.sink.Notify(ctx, rule, count); err != nil {
		// Fire-and-observe: delivery failures are logged, not retried.
		uc.logger.Error("alert notification failed", "rule", rule.Name, "error", err)
	}

	uc.setLastFired(rule.Name, now)
	uc.metrics.EvaluationsTotal.WithLabelValues("fired").Inc()
	uc.metrics.AlertsFiredTotal.WithLabelValues(rule.Name).Inc()
	return true, nil
}

func (uc *AlertMonitorUseCase) ruleLock(name string) *sync.Mutex {
	lock, _ := uc.ruleLocks.LoadOrStore(name, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (uc *AlertMonitorUseCase) getLastFired(name string) (time.Time, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	t, ok := uc.lastFired[name]
	return t, ok
}

func (uc *AlertMonitorUseCase) setLastFired(name string, t time.Time) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.lastFired[name] = t
}

// SampleFailureRule is the default seed rule: more than 10 FAILURE events
// within 5 minutes for the given tenant.
func SampleFailureRule(tenantID, webhookURL string) *domain.AlertRule {
	return &domain.AlertRule{
		Name:              "high-failure-rate",
		Description:       "High failure rate detected",
		TenantID:          tenantID,
		FilterField:       "status",
		FilterValue:       domain.StatusFailure,
		TimeWindowMinutes: 5,
		Threshold:         10,
		CooldownMinutes:   5,
		WebhookURL:        webhookURL,
	}
}
