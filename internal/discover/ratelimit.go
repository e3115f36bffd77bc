// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum delay between consecutive calls to the
// same source. State is process-wide: concurrent requests hitting the same
// source share one schedule, so the per-source pacing holds no matter how
// many pipelines are active.
type RateLimiter struct {
	mu    sync.Mutex
	next  map[string]time.Time
	delay time.Duration
	now   func() time.Time
}

// NewRateLimiter creates a limiter with the given per-source delay. A
// non-positive delay disables pacing.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{
		next:  make(map[string]time.Time),
		delay: delay,
		now:   time.Now,
	}
}

// Wait blocks until the caller may call the named source, or until the
// context is cancelled. The slot is reserved under the lock before
// sleeping, so concurrent waiters queue up rather than racing through
// together.
func (l *RateLimiter) Wait(ctx context.Context, source string) error {
	if l.delay <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	at := l.next[source]
	if at.Before(now) {
		at = now
	}
	l.next[source] = at.Add(l.delay)
	l.mu.Unlock()

	wait := at.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
