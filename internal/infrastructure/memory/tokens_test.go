package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentinela/identity-service/internal/core/domain"
)

func TestResetTokenRoundTrip(t *testing.T) {
	s := NewResetTokenStore()
	ctx := context.Background()

	if err := s.Save(ctx, "tok-1", "user@email.com", time.Hour); err != nil {
		t.Fatal(err)
	}
	email, err := s.Redeem(ctx, "tok-1")
	if err != nil {
		t.Fatal(err)
	}
	if email != "user@email.com" {
		t.Fatalf("Redeem returned %q", email)
	}

	// Second redemption must fail: the token is consumed.
	if _, err := s.Redeem(ctx, "tok-1"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestResetTokenUnknown(t *testing.T) {
	s := NewResetTokenStore()
	if _, err := s.Redeem(context.Background(), "never-issued"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	s := NewResetTokenStore()
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := s.Save(ctx, "tok-2", "user@email.com", time.Hour); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Hour + time.Second)
	if _, err := s.Redeem(ctx, "tok-2"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	// An expired token is consumed on the failed redemption as well.
	s.mu.Lock()
	_, ok := s.tokens["tok-2"]
	s.mu.Unlock()
	if ok {
		t.Fatalf("expired token should have been deleted")
	}
}
