package handler

import (
	"time"

	"github.com/sentinela/identity-service/internal/core/domain"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" validate:"required,oneof=citizen agent admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type approvalRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// accountResponse is the public projection of an account. The credential
// hash never appears here; is_approved is derived from the approval status.
type accountResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone,omitempty"`
	Role           string     `json:"role"`
	ApprovalStatus string     `json:"approval_status"`
	IsApproved     bool       `json:"is_approved"`
	ApprovedBy     string     `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type authResponse struct {
	Token   string           `json:"token,omitempty"`
	Account *accountResponse `json:"account,omitempty"`
}

type identityResponse struct {
	Account     *accountResponse    `json:"account"`
	Permissions []domain.Capability `json:"permissions"`
}

func toAccountResponse(a *domain.Account) *accountResponse {
	if a == nil {
		return nil
	}
	return &accountResponse{
		ID:             a.ID,
		Email:          a.Email,
		FullName:       a.FullName,
		Phone:          a.Phone,
		Role:           string(a.Role),
		ApprovalStatus: string(a.ApprovalStatus),
		IsApproved:     a.IsApproved(),
		ApprovedBy:     a.ApprovedBy,
		ApprovedAt:     a.ApprovedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
