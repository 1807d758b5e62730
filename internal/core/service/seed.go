package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinela/identity-service/internal/core/domain"
)

// devPassword is the shared credential of the bootstrap accounts. Seeding
// only happens on an empty repository; it is deployment convenience, not a
// security control, and real deployments are expected to replace these
// accounts immediately.
const devPassword = "Sentinela#Dev1"

type seedSpec struct {
	email    string
	fullName string
	role     domain.Role
}

var seedSpecs = []seedSpec{
	{email: "master@sentinela.gov.br", fullName: "Master Sentinela", role: domain.RoleMaster},
	{email: "admin@sentinela.gov.br", fullName: "Admin Sentinela", role: domain.RoleAdmin},
	{email: "agente@sentinela.gov.br", fullName: "Agente Sentinela", role: domain.RoleAgent},
	{email: "cidadao@example.com", fullName: "Cidadao Sentinela", role: domain.RoleCitizen},
}

// BootstrapAccounts builds the accounts handed to SeedIfEmpty on a fresh
// deployment: one master plus one sample account per other role, all
// pre-approved so the portal is immediately usable.
func BootstrapAccounts(cfg Config) ([]*domain.Account, error) {
	cfg = cfg.withDefaults()

	hash, err := bcrypt.GenerateFromPassword([]byte(devPassword), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed credential: %w", err)
	}

	now := time.Now().UTC()
	accounts := make([]*domain.Account, 0, len(seedSpecs))
	for _, spec := range seedSpecs {
		a := &domain.Account{
			ID:             uuid.NewString(),
			Email:          spec.email,
			CredentialHash: string(hash),
			FullName:       spec.fullName,
			Phone:          "",
			Role:           spec.role,
			ApprovalStatus: domain.ApprovalApproved,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if spec.role != domain.RoleMaster {
			a.ApprovedBy = "master@sentinela.gov.br"
			t := now
			a.ApprovedAt = &t
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}
