package ports

import (
	"context"

	"github.com/sentinela/identity-service/internal/core/domain"
)

// AccountRepository defines the persistence boundary for identity accounts.
// Emails passed in are already normalized by the service layer.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateApprovalStatus(ctx context.Context, email string, status domain.ApprovalStatus, approvedBy string) (*domain.Account, error)
	UpdateCredential(ctx context.Context, email, newHash string) error
	ListPending(ctx context.Context) ([]*domain.Account, error)
	// SeedIfEmpty provisions a master account and one sample account per
	// other role when the repository holds no accounts at all. Bootstrap
	// convenience for fresh deployments, not a security control.
	SeedIfEmpty(ctx context.Context, seed []*domain.Account) error
}
