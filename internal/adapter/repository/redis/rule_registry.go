package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

const rulesKey = "tracehub:alert_rules"

// RuleRegistry stores alert rules as whole JSON values in a Redis hash.
// Each rule is written and read as a single field, so a concurrent reader
// observes either the full old record or the full new one, never a torn
// mixture. Admin mutations from other processes are visible on the next
// monitor tick.
type RuleRegistry struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRuleRegistry creates a Redis-backed rule registry.
func NewRuleRegistry(client *redis.Client, logger *slog.Logger) *RuleRegistry {
	return &RuleRegistry{
		client: client,
		logger: logger.With("component", "rule_registry"),
	}
}

// List returns all registered rules. Records that fail to decode are
// skipped and logged rather than failing the whole tick.
func (r *RuleRegistry) List(ctx context.Context) ([]*domain.AlertRule, error) {
	entries, err := r.client.HGetAll(ctx, rulesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}

	rules := make([]*domain.AlertRule, 0, len(entries))
	for name, raw := range entries {
		var rule domain.AlertRule
		if err := json.Unmarshal([]byte(raw), &rule); err != nil {
			r.logger.Warn("skipping undecodable alert rule", "rule", name, "error", err)
			continue
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

// Get returns one rule by name.
func (r *RuleRegistry) Get(ctx context.Context, name string) (*domain.AlertRule, error) {
	raw, err := r.client.HGet(ctx, rulesKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert rule %s: %w", name, err)
	}

	var rule domain.AlertRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return nil, fmt.Errorf("failed to decode alert rule %s: %w", name, err)
	}
	return &rule, nil
}

// Put creates or replaces a rule.
func (r *RuleRegistry) Put(ctx context.Context, rule *domain.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode alert rule %s: %w", rule.Name, err)
	}
	if err := r.client.HSet(ctx, rulesKey, rule.Name, raw).Err(); err != nil {
		return fmt.Errorf("failed to store alert rule %s: %w", rule.Name, err)
	}

	r.logger.Info("stored alert rule", "rule", rule.Name)
	return nil
}

// Remove deletes a rule by name.
func (r *RuleRegistry) Remove(ctx context.Context, name string) error {
	removed, err := r.client.HDel(ctx, rulesKey, name).Result()
	if err != nil {
		return fmt.Errorf("failed to remove alert rule %s: %w", name, err)
	}
	if removed == 0 {
		return domain.ErrRuleNotFound
	}

	r.logger.Info("removed alert rule", "rule", name)
	return nil
}

// SeedIfEmpty installs default rules when the registry has none yet.
func (r *RuleRegistry) SeedIfEmpty(ctx context.Context, rules ...*domain.AlertRule) error {
	size, err := r.client.HLen(ctx, rulesKey).Result()
	if err != nil {
		return fmt.Errorf("failed to inspect alert rules: %w", err)
	}
	if size > 0 {
		return nil
	}

	for _, rule := range rules {
		if err := r.Put(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}
