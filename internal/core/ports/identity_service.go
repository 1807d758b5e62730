package ports

import (
	"context"

	"github.com/sentinela/identity-service/internal/core/domain"
)

// RegisterInput carries the self-registration form fields.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     domain.Role
}

// Credentials carries a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// IdentityService is the orchestration core: registration policy, credential
// verification with lockout, approval adjudication, password-reset flows, and
// per-request identity lookup.
type IdentityService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, creds Credentials) (*domain.Account, string, error)
	UpdateApprovalStatus(ctx context.Context, email string, decision domain.ApprovalStatus, approvedBy string) (*domain.Account, error)
	ListPendingAccounts(ctx context.Context) ([]*domain.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CurrentIdentity(ctx context.Context, email string) (*domain.Account, error)
}
