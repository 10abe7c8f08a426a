package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/domain/mocks"
)

type stubCounter struct {
	mu     sync.Mutex
	count  int64
	err    error
	params []CountParams
}

func (s *stubCounter) Count(ctx context.Context, p CountParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, p)
	return s.count, s.err
}

type stubNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubNotifier) Notify(ctx context.Context, rule *domain.AlertRule, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func monitorRule() *domain.AlertRule {
	return &domain.AlertRule{
		Name:              "high-failure-rate",
		TenantID:          "acme",
		FilterField:       "status",
		FilterValue:       domain.StatusFailure,
		TimeWindowMinutes: 5,
		Threshold:         10,
		CooldownMinutes:   5,
	}
}

func TestAlertMonitorUseCase_EvaluateRule(t *testing.T) {
	logger := testLogger()

	t.Run("Fires at Threshold", func(t *testing.T) {
		counter := &stubCounter{count: 10}
		sink := &stubNotifier{}
		uc := NewAlertMonitorUseCase(&mocks.MockRuleRegistry{}, counter, sink, logger, testNotifierMetrics, time.Second)

		fired, err := uc.EvaluateRule(context.Background(), monitorRule())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !fired {
			t.Error("expected rule to fire at threshold")
		}
		if sink.calls != 1 {
			t.Errorf("expected 1 notification, got %d", sink.calls)
		}

		p := counter.params[0]
		if p.TenantID != "acme" || p.FilterField != "status" || p.FilterValue != domain.StatusFailure {
			t.Errorf("rule predicate not mapped into count: %+v", p)
		}
		if got := p.To.Sub(p.From); got != 5*time.Minute {
			t.Errorf("expected 5m trailing window, got %v", got)
		}
	})

	t.Run("Below Threshold Does Not Fire", func(t *testing.T) {
		counter := &stubCounter{count: 9}
		sink := &stubNotifier{}
		uc := NewAlertMonitorUseCase(&mocks.MockRuleRegistry{}, counter, sink, logger, testNotifierMetrics, time.Second)

		fired, err := uc.EvaluateRule(context.Background(), monitorRule())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fired || sink.calls != 0 {
			t.Error("rule must not fire below threshold")
		}
	})

	t.Run("Cooldown Suppresses Refiring", func(t *testing.T) {
		counter := &stubCounter{count: 100}
		sink := &stubNotifier{}
		uc := NewAlertMonitorUseCase(&mocks.MockRuleRegistry{}, counter, sink, logger, testNotifierMetrics, time.Second)

		now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return now }

		if fired, _ := uc.EvaluateRule(context.Background(), monitorRule()); !fired {
			t.Fatal("expected first evaluation to fire")
		}

		now = now.Add(4 * time.Minute)
		if fired, _ := uc.EvaluateRule(context.Background(), monitorRule()); fired {
			t.Error("expected cooldown to suppress refiring")
		}
		if len(counter.params) != 1 {
			t.Errorf("cooled-down rule must not be counted, got %d counts", len(counter.params))
		}

		now = now.Add(time.Minute)
		if fired, _ := uc.EvaluateRule(context.Background(), monitorRule()); !fired {
			t.Error("expected rule to fire again after cooldown")
		}
		if sink.calls != 2 {
			t.Errorf("expected 2 notifications, got %d", sink.calls)
		}
	})

	t.Run("Notification Failure Still Starts Cooldown", func(t *testing.T) {
		counter := &stubCounter{count: 100}
		sink := &stubNotifier{err: errors.New("webhook returned status 500")}
		uc := NewAlertMonitorUseCase(&mocks.MockRuleRegistry{}, counter, sink, logger, testNotifierMetrics, time.Second)

		now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return now }

		fired, err := uc.EvaluateRule(context.Background(), monitorRule())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !fired {
			t.Error("expected rule to record a firing despite delivery failure")
		}

		now = now.Add(time.Minute)
		if fired, _ := uc.EvaluateRule(context.Background(), monitorRule()); fired {
			t.Error("expected cooldown after failed delivery")
		}
	})

	t.Run("Counter Error Propagates", func(t *testing.T) {
		counter := &stubCounter{err: errors.New("store unreachable")}
		uc := NewAlertMonitorUseCase(&mocks.MockRuleRegistry{}, counter, &stubNotifier{}, logger, testNotifierMetrics, time.Second)

		if _, err := uc.EvaluateRule(context.Background(), monitorRule()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})
}

func TestAlertMonitorUseCase_Tick(t *testing.T) {
	logger := testLogger()

	t.Run("Evaluates All Rules", func(t *testing.T) {
		second := monitorRule()
		second.Name = "error-burst"
		second.FilterValue = domain.StatusError
		registry := &mocks.MockRuleRegistry{Rules: map[string]*domain.AlertRule{
			"high-failure-rate": monitorRule(),
			"error-burst":       second,
		}}
		counter := &stubCounter{count: 0}
		uc := NewAlertMonitorUseCase(registry, counter, &stubNotifier{}, logger, testNotifierMetrics, time.Second)

		uc.Tick(context.Background())

		if len(counter.params) != 2 {
			t.Errorf("expected 2 rule evaluations, got %d", len(counter.params))
		}
	})

	t.Run("Overlapping Tick Is Skipped", func(t *testing.T) {
		registry := &mocks.MockRuleRegistry{Rules: map[string]*domain.AlertRule{
			"high-failure-rate": monitorRule(),
		}}
		counter := &stubCounter{}
		uc := NewAlertMonitorUseCase(registry, counter, &stubNotifier{}, logger, testNotifierMetrics, time.Second)

		uc.running.Store(true)
		uc.Tick(context.Background())

		if len(counter.params) != 0 {
			t.Errorf("expected overlapping tick to be skipped, got %d evaluations", len(counter.params))
		}
	})

	t.Run("Registry Error Aborts Tick", func(t *testing.T) {
		registry := &mocks.MockRuleRegistry{ListErr: errors.New("redis connection failed")}
		counter := &stubCounter{}
		uc := NewAlertMonitorUseCase(registry, counter, &stubNotifier{}, logger, testNotifierMetrics, time.Second)

		uc.Tick(context.Background())

		if len(counter.params) != 0 {
			t.Errorf("expected no evaluations, got %d", len(counter.params))
		}
	})
}
