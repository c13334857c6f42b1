package gateway

import (
	"context"
	"sync"
	"time"
)

type admissionCounter struct {
	windowStart time.Time
	count       int
}

// RateLimiter enforces the anonymous budget keyed by source address over a
// fixed window per source (see Consume); it does not keep a sliding window,
// so up to twice the budget can pass around a window boundary. State is
// intentionally process-local: there is no
// consistency requirement across gateway replicas, so this counts
// in-process with a mutex-guarded map rather than a shared Redis limiter.
type RateLimiter struct {
	mu      sync.Mutex
	counts  map[string]*admissionCounter
	budget  int
	window  time.Duration
}

func NewRateLimiter(budget int, window time.Duration) *RateLimiter {
	if budget <= 0 {
		budget = 3
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{
		counts: make(map[string]*admissionCounter),
		budget: budget,
		window: window,
	}
}

// Consume charges one point against source's window, returning false once
// the budget for the current window is exhausted. The window rolls
// forward (resets) once window has elapsed since it was first charged —
// a fixed window per source, not a true sliding one.
func (l *RateLimiter) Consume(_ context.Context, source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	counter, ok := l.counts[source]
	if !ok || now.Sub(counter.windowStart) >= l.window {
		counter = &admissionCounter{windowStart: now, count: 0}
		l.counts[source] = counter
	}

	if counter.count >= l.budget {
		return false
	}
	counter.count++
	return true
}

// Remaining reports the budget left for source in the current window,
// for diagnostics/metrics only.
func (l *RateLimiter) Remaining(source string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counter, ok := l.counts[source]
	if !ok || time.Since(counter.windowStart) >= l.window {
		return l.budget
	}
	remaining := l.budget - counter.count
	if remaining < 0 {
		return 0
	}
	return remaining
}
