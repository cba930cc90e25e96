// Package ratelimit provides a fixed window rate limiter
package ratelimit

import (
	"sync"
	"time"
)

// Limiter grants a fixed number of slots per window. The window starts
// when the first slot is taken and rolls over lazily, a freshly created
// Limiter always has the full budget available.
type Limiter struct {
	calls  int
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	used        int
}

// New returns a Limiter granting calls slots per window
func New(calls int, window time.Duration) *Limiter {
	return &Limiter{
		calls:  calls,
		window: window,
	}
}

// TryAcquire takes one slot from the current window. It returns false
// without blocking when the budget is exhausted.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.expired(now) {
		l.windowStart = now
		l.used = 0
	}

	if l.used >= l.calls {
		return false
	}

	l.used++

	return true
}

// Remaining returns the number of slots left in the current window
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.expired(time.Now()) {
		return l.calls
	}

	return l.calls - l.used
}

// NextSlot returns the earliest time an acquisition can succeed, which is
// the current time while the budget lasts and the start of the next
// window once it is exhausted
func (l *Limiter) NextSlot() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.expired(now) || l.used < l.calls {
		return now
	}

	return l.windowStart.Add(l.window)
}

// expired reports whether the current window is over. Callers must hold
// the mutex.
func (l *Limiter) expired(now time.Time) bool {
	return l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window
}
