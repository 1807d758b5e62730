// Package memory provides in-process implementations of the rate-limiter and
// reset-token ports. They are the default for single-node deployments and
// tests; the redis package holds the shared-store equivalents.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinela/identity-service/internal/core/ports"
)

type attempt struct {
	count       int
	lastFailure time.Time
}

// RateLimiter is a mutex-guarded fixed-count, fixed-window lockout table.
// The single lock serializes read-modify-write on each counter, so two
// concurrent failures can never both observe the same attempts-left value.
type RateLimiter struct {
	mu        sync.Mutex
	attempts  map[string]attempt
	threshold int
	window    time.Duration
	lastGC    time.Time
	now       func() time.Time
}

func NewRateLimiter(threshold int, window time.Duration) *RateLimiter {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	now := func() time.Time { return time.Now().UTC() }
	return &RateLimiter{
		attempts:  make(map[string]attempt),
		threshold: threshold,
		window:    window,
		lastGC:    now(),
		now:       now,
	}
}

// Check reports whether the identifier may attempt a login. Once the window
// has elapsed since the last failure of a maxed-out identifier, its record is
// dropped and the full budget restored.
func (l *RateLimiter) Check(_ context.Context, id string) (ports.LimitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeGC(now)

	a, ok := l.attempts[id]
	if !ok {
		return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold}, nil
	}

	if a.count >= l.threshold {
		elapsed := now.Sub(a.lastFailure)
		if elapsed >= l.window {
			delete(l.attempts, id)
			return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold}, nil
		}
		return ports.LimitDecision{Allowed: false, RetryAfter: l.window - elapsed}, nil
	}

	return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold - a.count}, nil
}

// RecordFailure increments the counter, creating the record if absent.
func (l *RateLimiter) RecordFailure(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.attempts[id]
	a.count++
	a.lastFailure = l.now()
	l.attempts[id] = a
	return nil
}

// Clear removes the record. Clearing an absent identifier is a no-op.
func (l *RateLimiter) Clear(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, id)
	return nil
}

// maybeGC evicts entries whose last failure is older than the lockout
// window, bounding the table's memory. Runs at most once a minute, under the
// caller's lock.
func (l *RateLimiter) maybeGC(now time.Time) {
	if now.Sub(l.lastGC) < time.Minute {
		return
	}
	for id, a := range l.attempts {
		if now.Sub(a.lastFailure) >= l.window {
			delete(l.attempts, id)
		}
	}
	l.lastGC = now
}
