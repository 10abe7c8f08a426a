package middleware

import (
	"sync"

	"golang.org/x/time/rate"
)

// TenantLimiter applies a token-bucket rate limit per tenant id. Limiters
// are created lazily on first sight of a tenant.
type TenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewTenantLimiter creates a TenantLimiter allowing perSec events per
// second with the given burst per tenant.
func NewTenantLimiter(perSec float64, burst int) *TenantLimiter {
	return &TenantLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSec),
		burst:    burst,
	}
}

// Allow reports whether the tenant may ingest one more event now.
func (t *TenantLimiter) Allow(tenantID string) bool {
	t.mu.Lock()
	limiter, ok := t.limiters[tenantID]
	if !ok {
		limiter = rate.NewLimiter(t.rate, t.burst)
		t.limiters[tenantID] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}
