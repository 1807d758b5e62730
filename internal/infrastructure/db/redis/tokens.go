package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinela/identity-service/internal/core/domain"
)

const resetKeyPrefix = "reset_token:"

// ResetTokenStore keeps password-reset tokens as TTL'd keys. Redemption uses
// GETDEL, so a token can be consumed exactly once even under concurrent
// redemption attempts.
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func (s *ResetTokenStore) Save(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKeyPrefix+token, email, ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) Redeem(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, resetKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return "", fmt.Errorf("redeem reset token: %w", err)
	}
	return email, nil
}
