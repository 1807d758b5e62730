package ports

import (
	"context"
	"time"
)

// LimitDecision is the outcome of a rate-limiter check.
type LimitDecision struct {
	Allowed      bool
	AttemptsLeft int
	// RetryAfter is the remaining lockout duration when Allowed is false.
	RetryAfter time.Duration
}

// RateLimiter tracks failed authentication attempts per identifier and
// enforces a fixed-count, fixed-window lockout. Implementations must
// serialize concurrent calls for the same identifier so the threshold
// cannot be raced past.
type RateLimiter interface {
	Check(ctx context.Context, id string) (LimitDecision, error)
	RecordFailure(ctx context.Context, id string) error
	Clear(ctx context.Context, id string) error
}
