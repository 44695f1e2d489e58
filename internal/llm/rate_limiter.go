package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing completion requests on the client side so a run
// of back-to-back tasks stays under provider request quotas.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows requestsPerSecond requests with a burst of one.
// A non-positive rate disables pacing.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Wait blocks until the next request may be sent or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return ctx.Err()
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Enabled reports whether requests are paced
func (r *RateLimiter) Enabled() bool {
	return r != nil && r.limiter != nil
}

// Limit returns the configured requests per second, 0 when unpaced
func (r *RateLimiter) Limit() float64 {
	if !r.Enabled() {
		return 0
	}
	return float64(r.limiter.Limit())
}
