package ports

import (
	"context"
	"time"
)

// ResetTokenStore holds outstanding password-reset tokens. Tokens expire
// after their TTL and are consumed exactly once: a second Redeem with the
// same token must fail even if the first redemption happened a moment ago.
type ResetTokenStore interface {
	Save(ctx context.Context, token, email string, ttl time.Duration) error
	// Redeem returns the email the token authorizes and deletes the token
	// atomically. Unknown and expired tokens both return domain.ErrInvalidOrExpiredToken.
	Redeem(ctx context.Context, token string) (string, error)
}
