package core

import (
	"sync"
	"time"
)

// RequestLimiter enforces a maximum number of requests per fixed time window
// per key (typically the caller's address). If max == 0 the limiter allows
// everything.
type RequestLimiter struct {
	max    int
	window time.Duration
	mu     sync.Mutex
	counts map[string]*windowCount
	now    func() time.Time
}

type windowCount struct {
	start time.Time
	n     int
}

// NewRequestLimiter creates a limiter allowing max requests per window.
func NewRequestLimiter(max int, window time.Duration) *RequestLimiter {
	return &RequestLimiter{
		max:    max,
		window: window,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it fits in the
// current window.
func (l *RequestLimiter) Allow(key string) bool {
	if l.max == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wc, ok := l.counts[key]
	if !ok || now.Sub(wc.start) >= l.window {
		// Opening a new window is also the moment stale keys get swept so
		// the map stays bounded by the number of active callers.
		l.sweepLocked(now)
		l.counts[key] = &windowCount{start: now, n: 1}
		return true
	}

	wc.n++
	return wc.n <= l.max
}

// Remaining returns how many requests are left for key in its current
// window, or -1 when unlimited.
func (l *RequestLimiter) Remaining(key string) int {
	if l.max == 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wc, ok := l.counts[key]
	if !ok || l.now().Sub(wc.start) >= l.window {
		return l.max
	}
	if wc.n >= l.max {
		return 0
	}
	return l.max - wc.n
}

func (l *RequestLimiter) sweepLocked(now time.Time) {
	for k, wc := range l.counts {
		if now.Sub(wc.start) >= l.window {
			delete(l.counts, k)
		}
	}
}
