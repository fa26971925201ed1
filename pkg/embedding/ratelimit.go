package embedding

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultRateLimitBackoff applies after a 429 without a usable Retry-After.
const defaultRateLimitBackoff = 30 * time.Second

// RateLimiter throttles embedding requests with a token bucket and honors
// backoff periods after the provider reports rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter. A non-positive rps disables throttling.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// RecordRateLimitError delays all subsequent requests by backoff.
func (r *RateLimiter) RecordRateLimitError(backoff time.Duration) {
	if backoff <= 0 {
		backoff = defaultRateLimitBackoff
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(backoff)
}
