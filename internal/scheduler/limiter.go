package scheduler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TriggerLimiter throttles manual refresh requests with a token bucket.
type TriggerLimiter struct {
	limiter       *rate.Limiter
	mu            sync.RWMutex
	acceptedCount int64
	limitedCount  int64
}

// NewTriggerLimiter allows one trigger per every, with up to burst at once.
// A non-positive every disables limiting.
func NewTriggerLimiter(every time.Duration, burst int) *TriggerLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &TriggerLimiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Allow reports whether a trigger may proceed now.
func (tl *TriggerLimiter) Allow() bool {
	return tl.AllowAt(time.Now())
}

// AllowAt reports whether a trigger may proceed at t.
func (tl *TriggerLimiter) AllowAt(t time.Time) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	allowed := tl.limiter.AllowN(t, 1)
	if allowed {
		tl.acceptedCount++
	} else {
		tl.limitedCount++
	}
	return allowed
}

// GetStats returns counts of accepted and limited triggers.
func (tl *TriggerLimiter) GetStats() (accepted, limited int64) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	return tl.acceptedCount, tl.limitedCount
}
