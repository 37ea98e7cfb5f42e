package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per remote endpoint. A single
// instance is shared by the chain gateway, the custody client, and the
// matching-engine client, so one chatty endpoint cannot starve the others.
type RateLimiter struct {
	limiters sync.Map // endpoint -> *rate.Limiter
	rateLim  rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained
// requests per endpoint with the given burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		rateLim: rate.Limit(ratePerSecond),
		burst:   burst,
	}
}

// DefaultRateLimiter returns a limiter suitable for public gateways:
// 5 requests/second per endpoint, burst of 10.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// Wait blocks until a request to the endpoint is allowed or the context is
// canceled.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.limiterFor(endpoint).Wait(ctx)
}

func (r *RateLimiter) limiterFor(endpoint string) *rate.Limiter {
	if v, ok := r.limiters.Load(endpoint); ok {
		return v.(*rate.Limiter)
	}
	v, _ := r.limiters.LoadOrStore(endpoint, rate.NewLimiter(r.rateLim, r.burst))
	return v.(*rate.Limiter)
}
