package searchindex

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultThrottleBackoff applies when a throttled reply carries no Retry-After.
const defaultThrottleBackoff = 5 * time.Second

// maxThrottleBackoff caps what a Retry-After header can impose.
const maxThrottleBackoff = 60 * time.Second

// RateLimiter spaces outgoing requests with a token bucket and pauses all
// requests after the service reports throttling.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing rps sustained requests with bursts.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// RecordThrottle pauses requests for the delay a throttled reply asked for.
func (r *RateLimiter) RecordThrottle(header http.Header) time.Duration {
	delay := retryAfter(header)

	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(delay); until.After(r.retryAt) {
		r.retryAt = until
	}
	return delay
}

// retryAfter reads the delay from Retry-After (seconds or HTTP date) or
// retry-after-ms.
func retryAfter(header http.Header) time.Duration {
	if ms := header.Get("retry-after-ms"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			return clampBackoff(time.Duration(n) * time.Millisecond)
		}
	}
	v := header.Get("Retry-After")
	if v == "" {
		return defaultThrottleBackoff
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return clampBackoff(time.Duration(n) * time.Second)
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return clampBackoff(d)
		}
	}
	return defaultThrottleBackoff
}

func clampBackoff(d time.Duration) time.Duration {
	if d > maxThrottleBackoff {
		return maxThrottleBackoff
	}
	return d
}
