package ports

import "context"

// Notifier delivers out-of-band messages to account holders. The core treats
// delivery as fire-and-forget; failures are logged, never surfaced to the
// request that triggered them.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}
