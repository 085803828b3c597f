package application

import (
	"context"
	"sync"
	"time"
)

const MinTimeBetweenUpdates = 15 * time.Second

// Throttle runs fn at most once per interval. Calls inside the interval get the cached
// outcome of the last attempt, failures included. The check, the call and the caching
// happen under one lock so concurrent callers never trigger parallel calls.
type Throttle[T any] struct {
	interval time.Duration
	fn       func(ctx context.Context) (T, error)
	now      func() time.Time

	mu          sync.Mutex
	attempted   bool
	lastAttempt time.Time
	lastResult  T
	lastErr     error
}

func NewThrottle[T any](interval time.Duration, fn func(ctx context.Context) (T, error), now func() time.Time) *Throttle[T] {
	if now == nil {
		now = time.Now
	}
	return &Throttle[T]{interval: interval, fn: fn, now: now}
}

func (t *Throttle[T]) Do(ctx context.Context) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.attempted && now.Sub(t.lastAttempt) < t.interval {
		return t.lastResult, t.lastErr
	}

	t.lastResult, t.lastErr = t.fn(ctx)
	t.lastAttempt = now
	t.attempted = true
	return t.lastResult, t.lastErr
}

