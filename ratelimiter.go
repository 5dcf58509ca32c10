package pnwkit

import "sync"

// RateLimiter tracks the token-bucket-with-reset accounting described by
// §4.3: it is seeded from response headers on first use, then decremented
// on every Hit until the window rolls over.
//
// Hit and HandleTooManyRequests only ever mutate state while holding mu;
// they never sleep themselves; callers are expected to sleep the
// returned duration outside the lock, so no suspension point ever occurs
// while the mutex is held.
type RateLimiter struct {
	mu              sync.Mutex
	limit           uint64
	remaining       uint64
	resetEpoch      uint64
	intervalSeconds uint64
	initialized     bool
}

// NewRateLimiter returns an uninitialized limiter: Hit returns 0 until
// Initialize seeds it. HandleTooManyRequests does not mark the limiter
// initialized.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{}
}

// Initialize seeds the limiter from response headers. Subsequent calls
// overwrite the previous state; the Engine calls it after every non-429
// response that carries the rate-limit headers.
func (rl *RateLimiter) Initialize(limit, remaining, resetEpoch, intervalSeconds uint64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limit = limit
	rl.remaining = remaining
	rl.resetEpoch = resetEpoch
	rl.intervalSeconds = intervalSeconds
	rl.initialized = true
}

// Hit accounts for one outgoing request and reports how long the caller
// must wait (in seconds) before it may proceed. A zero-length wait means
// proceed immediately.
func (rl *RateLimiter) Hit(now uint64) uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.initialized {
		return 0
	}
	if now > rl.resetEpoch {
		rl.remaining = rl.limit - 1
		rl.resetEpoch = now + 1 + rl.intervalSeconds
		return 0
	}
	if rl.remaining == 0 {
		return rl.resetEpoch - now + 1
	}
	rl.remaining--
	return 0
}

// HandleTooManyRequests reacts to an HTTP 429 response: remaining is
// forced to zero and resetEpoch is set from the provided header value
// when present, else left alone if already initialized, else pushed out
// by max(intervalSeconds, 60) seconds. It reports how long the caller
// must wait.
func (rl *RateLimiter) HandleTooManyRequests(now uint64, reset *uint64) uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = 0
	switch {
	case reset != nil:
		rl.resetEpoch = *reset
	case rl.initialized:
		// keep existing resetEpoch
	default:
		interval := rl.intervalSeconds
		if interval < 60 {
			interval = 60
		}
		rl.resetEpoch = now + interval
	}
	if rl.resetEpoch <= now {
		return 0
	}
	return rl.resetEpoch - now
}

// Snapshot returns the limiter's current accounting, for diagnostics and
// tests.
func (rl *RateLimiter) Snapshot() (limit, remaining, resetEpoch, intervalSeconds uint64, initialized bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limit, rl.remaining, rl.resetEpoch, rl.intervalSeconds, rl.initialized
}
