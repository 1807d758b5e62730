package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role is the coarse access level of an account.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAgent   Role = "agent"
	RoleAdmin   Role = "admin"
	RoleMaster  Role = "master"
)

// SelfRegistrable reports whether the role may be chosen at registration.
// Master accounts are provisioned out-of-band via repository seeding.
func (r Role) SelfRegistrable() bool {
	return r == RoleCitizen || r == RoleAgent || r == RoleAdmin
}

// ApprovalStatus is the adjudication state of an account. It is the single
// source of truth for login eligibility; there is no separate approved flag.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// validDecisions defines the allowed adjudication transitions.
var validDecisions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:  {ApprovalApproved, ApprovalRejected},
	ApprovalRejected: {ApprovalApproved},
}

// CanTransitionTo reports whether an adjudication from the current status to
// next is valid. Approved is terminal.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, allowed := range validDecisions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InitialApproval returns the approval status a freshly registered account
// starts in: citizens are auto-approved, agents and admins await adjudication.
func InitialApproval(role Role) ApprovalStatus {
	if role == RoleCitizen {
		return ApprovalApproved
	}
	return ApprovalPending
}

var ErrInvalidEmail = errors.New("invalid email address")
var ErrInvalidName = errors.New("invalid full name")
var ErrInvalidPhone = errors.New("invalid phone number")
var ErrInvalidRole = errors.New("invalid role")
var ErrPhoneRequired = errors.New("phone number required")
var ErrInstitutionalEmailRequired = errors.New("institutional email required")
var ErrDuplicateEmail = errors.New("email already registered")
var ErrAccountNotFound = errors.New("account not found")
var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrAccountPendingApproval = errors.New("account awaiting approval")
var ErrAccountRejected = errors.New("account registration rejected")
var ErrEmailNotFound = errors.New("no account for this email")
var ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
var ErrInvalidDecision = errors.New("invalid approval decision")
var ErrRepositoryUnavailable = errors.New("repository unavailable")

// WeakPasswordError reports a password that failed strength scoring,
// carrying the unmet rules for user-facing display.
type WeakPasswordError struct {
	Score int
	Unmet []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password too weak (score %d)", e.Score)
}

// TooManyAttemptsError reports a locked-out identifier and how long until
// the lockout window elapses.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", FormatLockout(e.RetryAfter))
}

// FormatLockout renders a lockout duration in whole minutes for display.
func FormatLockout(d time.Duration) string {
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}

// Account is the durable identity record.
type Account struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	CredentialHash string         `json:"-"`
	FullName       string         `json:"full_name"`
	Phone          string         `json:"phone,omitempty"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsApproved reports whether the account may log in.
func (a *Account) IsApproved() bool {
	return a.ApprovalStatus == ApprovalApproved
}
