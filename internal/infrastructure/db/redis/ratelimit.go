package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinela/identity-service/internal/core/ports"
)

const attemptKeyPrefix = "login_attempts:"

// RateLimiter is the shared-store lockout table for multi-node deployments.
// Each identifier maps to a counter whose TTL is refreshed to the full
// window on every failure, so once the threshold is reached the key's
// remaining TTL is exactly the remaining lockout. INCR is atomic, which
// serializes concurrent failures for the same identifier.
type RateLimiter struct {
	client    *redis.Client
	threshold int
	window    time.Duration
}

func NewRateLimiter(client *redis.Client, threshold int, window time.Duration) *RateLimiter {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{client: client, threshold: threshold, window: window}
}

func (l *RateLimiter) Check(ctx context.Context, id string) (ports.LimitDecision, error) {
	key := attemptKeyPrefix + id

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold}, nil
	}
	if err != nil {
		return ports.LimitDecision{}, fmt.Errorf("rate limit check: %w", err)
	}

	if count >= l.threshold {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return ports.LimitDecision{}, fmt.Errorf("rate limit ttl: %w", err)
		}
		if ttl <= 0 {
			// Expired between GET and TTL; treat as a fresh budget.
			return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold}, nil
		}
		return ports.LimitDecision{Allowed: false, RetryAfter: ttl}, nil
	}

	return ports.LimitDecision{Allowed: true, AttemptsLeft: l.threshold - count}, nil
}

func (l *RateLimiter) RecordFailure(ctx context.Context, id string) error {
	key := attemptKeyPrefix + id

	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

func (l *RateLimiter) Clear(ctx context.Context, id string) error {
	if err := l.client.Del(ctx, attemptKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}
