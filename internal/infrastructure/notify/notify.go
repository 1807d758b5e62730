// Package notify holds delivery backends for the Notifier port. The log
// sender stands in for a real mail/SMS integration: it records the reset
// link so an operator (or a development frontend) can pick it up.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type LogSender struct {
	baseURL string
	log     zerolog.Logger
}

func NewLogSender(baseURL string, log zerolog.Logger) *LogSender {
	return &LogSender{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, token string) error {
	link := token
	if s.baseURL != "" {
		link = fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	}
	s.log.Info().
		Str("email", email).
		Str("link", link).
		Msg("password reset link issued")
	return nil
}
