package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinela/identity-service/internal/core/domain"
)

type resetToken struct {
	email     string
	expiresAt time.Time
}

// ResetTokenStore keeps outstanding password-reset tokens in process memory.
type ResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]resetToken
	now    func() time.Time
}

func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{
		tokens: make(map[string]resetToken),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ResetTokenStore) Save(_ context.Context, token, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = resetToken{email: email, expiresAt: s.now().Add(ttl)}
	return nil
}

// Redeem consumes the token: the delete happens under the same lock as the
// lookup, so a token can be redeemed at most once.
func (s *ResetTokenStore) Redeem(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrInvalidOrExpiredToken
	}
	delete(s.tokens, token)
	if s.now().After(t.expiresAt) {
		return "", domain.ErrInvalidOrExpiredToken
	}
	return t.email, nil
}
