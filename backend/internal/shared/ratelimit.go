// ============================================================================
// backend/internal/shared/ratelimit.go
// In-memory sliding-window rate limiter keyed by (user, action)
// ============================================================================

package shared

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a per-key sliding window: at most Max events per
// Window. Entries older than the window are pruned on every check.
type RateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	events map[string][]time.Time
	now    func() time.Time // overridable clock for tests
}

// NewRateLimiter creates a limiter allowing max events per window per key.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:    max,
		window: window,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Key builds the (user, action) limiter key.
func (r *RateLimiter) Key(userID, action string) string {
	return fmt.Sprintf("%s:%s", userID, action)
}

// Allow records one event for the key if under the limit. When the limit is
// exceeded it returns false with the duration after which a retry can succeed.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	recent := r.events[key][:0]
	for _, t := range r.events[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.max {
		retryAfter := recent[0].Add(r.window).Sub(now)
		r.events[key] = recent
		return false, retryAfter
	}

	r.events[key] = append(recent, now)
	return true, 0
}

// Reset clears the window for a key.
func (r *RateLimiter) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, key)
}

// SetClock replaces the limiter's clock. Tests only.
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
