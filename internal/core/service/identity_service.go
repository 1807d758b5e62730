package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinela/identity-service/internal/core/domain"
	"github.com/sentinela/identity-service/internal/core/ports"
	"github.com/sentinela/identity-service/internal/core/validate"
)

// Config carries the tunable policy knobs of the identity core.
type Config struct {
	JWTSecret            string
	JWTTTL               time.Duration
	ResetTokenTTL        time.Duration
	MinPasswordScore     int
	InstitutionalDomains []string
	BcryptCost           int
}

func (c Config) withDefaults() Config {
	if c.JWTTTL <= 0 {
		c.JWTTTL = 24 * time.Hour
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = time.Hour
	}
	if c.MinPasswordScore <= 0 {
		c.MinPasswordScore = 4
	}
	if len(c.InstitutionalDomains) == 0 {
		c.InstitutionalDomains = DefaultInstitutionalDomains
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

// DefaultInstitutionalDomains is the built-in allow-list of government and
// public-safety domain fragments accepted for agent/admin registration.
var DefaultInstitutionalDomains = []string{
	"gov.br",
	"prefeitura.",
	"policia.",
	"bombeiros.",
	"defesacivil.",
	"samu.",
	"pm.",
	"pc.",
	".mil.br",
}

// IdentityService implements registration, login with lockout, approval
// adjudication, and the password-reset flow.
type IdentityService struct {
	repo     ports.AccountRepository
	limiter  ports.RateLimiter
	tokens   ports.ResetTokenStore
	notifier ports.Notifier
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func NewIdentityService(
	repo ports.AccountRepository,
	limiter ports.RateLimiter,
	tokens ports.ResetTokenStore,
	notifier ports.Notifier,
	cfg Config,
	log zerolog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:     repo,
		limiter:  limiter,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register validates the input, applies the role-specific policy, decides
// auto-approval, and persists the account. Citizens come out approved;
// agents and admins start pending adjudication.
func (s *IdentityService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
	fullName := validate.SanitizeText(input.FullName)
	phone := validate.SanitizeText(input.Phone)
	email := validate.NormalizeEmail(validate.SanitizeText(input.Email))

	if !validate.Email(email) {
		return nil, domain.ErrInvalidEmail
	}
	if res := validate.PasswordStrength(input.Password, s.cfg.MinPasswordScore); !res.Valid {
		return nil, &domain.WeakPasswordError{Score: res.Score, Unmet: res.Errors}
	}
	if len([]rune(fullName)) < 2 {
		return nil, domain.ErrInvalidName
	}

	switch input.Role {
	case domain.RoleAgent, domain.RoleAdmin:
		if !validate.InstitutionalEmail(email, s.cfg.InstitutionalDomains) {
			return nil, domain.ErrInstitutionalEmailRequired
		}
		if !validate.FullName(fullName, 2, 50) {
			return nil, domain.ErrInvalidName
		}
		if phone == "" || !validate.PhoneBR(phone) {
			return nil, domain.ErrPhoneRequired
		}
	case domain.RoleCitizen:
		if !validate.FullName(fullName, 2, 100) {
			return nil, domain.ErrInvalidName
		}
		if phone != "" && !validate.PhoneBR(phone) {
			return nil, domain.ErrInvalidPhone
		}
	default:
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, infraErr("find account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	now := s.now()
	account := &domain.Account{
		ID:             uuid.NewString(),
		Email:          email,
		CredentialHash: string(hash),
		FullName:       fullName,
		Phone:          phone,
		Role:           input.Role,
		ApprovalStatus: domain.InitialApproval(input.Role),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, infraErr("create account", err)
	}

	s.log.Info().
		Str("email", created.Email).
		Str("role", string(created.Role)).
		Str("approval_status", string(created.ApprovalStatus)).
		Msg("account registered")

	return scrub(created), nil
}

// Login verifies credentials under the lockout policy and, on success,
// issues a signed session token. The flow order is deliberate:
//
//  1. Lockout check first; a denial is not itself counted as a failure.
//  2. Unknown email and wrong password record a failure and return the same
//     ErrInvalidCredentials, so callers cannot enumerate accounts.
//  3. The approval gate runs only after credentials verify. Pending and
//     rejected accounts neither count as a failure nor clear the counter.
//  4. Success clears the counter for the identifier.
func (s *IdentityService) Login(ctx context.Context, creds ports.Credentials) (*domain.Account, string, error) {
	email := validate.NormalizeEmail(creds.Email)

	decision, err := s.limiter.Check(ctx, email)
	if err != nil {
		return nil, "", infraErr("rate limiter", err)
	}
	if !decision.Allowed {
		return nil, "", &domain.TooManyAttemptsError{RetryAfter: decision.RetryAfter}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.recordFailure(ctx, email)
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", infraErr("find account", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(creds.Password)) != nil {
		s.recordFailure(ctx, email)
		return nil, "", domain.ErrInvalidCredentials
	}

	switch account.ApprovalStatus {
	case domain.ApprovalPending:
		return nil, "", domain.ErrAccountPendingApproval
	case domain.ApprovalRejected:
		return nil, "", domain.ErrAccountRejected
	}

	if err := s.limiter.Clear(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to clear login attempts")
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("email", email).Str("role", string(account.Role)).Msg("login succeeded")
	return scrub(account), token, nil
}

// UpdateApprovalStatus is the administrator-facing adjudication action. The
// decision must be a valid transition from the account's current status:
// approved is terminal, a rejection can be reversed. Authorization to call it
// is enforced at the caller boundary by the capability guard; any approver
// identity is accepted here.
func (s *IdentityService) UpdateApprovalStatus(ctx context.Context, email string, decision domain.ApprovalStatus, approvedBy string) (*domain.Account, error) {
	if decision != domain.ApprovalApproved && decision != domain.ApprovalRejected {
		return nil, domain.ErrInvalidDecision
	}
	email = validate.NormalizeEmail(email)

	current, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, infraErr("find account", err)
	}
	if !current.ApprovalStatus.CanTransitionTo(decision) {
		return nil, domain.ErrInvalidDecision
	}

	account, err := s.repo.UpdateApprovalStatus(ctx, email, decision, approvedBy)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, infraErr("update approval", err)
	}

	s.log.Info().
		Str("email", email).
		Str("decision", string(decision)).
		Str("approved_by", approvedBy).
		Msg("account adjudicated")

	return scrub(account), nil
}

// ListPendingAccounts returns every account awaiting adjudication.
func (s *IdentityService) ListPendingAccounts(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, infraErr("list pending", err)
	}
	for i, a := range accounts {
		accounts[i] = scrub(a)
	}
	return accounts, nil
}

// RequestPasswordReset issues a single-use token and hands it to the
// notifier. Multiple outstanding tokens for the same email may coexist.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)

	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrEmailNotFound
		}
		return infraErr("find account", err)
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.tokens.Save(ctx, token, email, s.cfg.ResetTokenTTL); err != nil {
		return infraErr("save reset token", err)
	}

	// Delivery is fire-and-forget: a notifier failure must not fail the
	// request or reveal anything to the caller.
	if err := s.notifier.SendPasswordReset(ctx, email, token); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("reset notification failed")
	}

	s.log.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// ResetPassword redeems a token exactly once and replaces the credential
// after re-validating the new password's strength.
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.Redeem(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			return domain.ErrInvalidOrExpiredToken
		}
		return infraErr("redeem reset token", err)
	}

	if res := validate.PasswordStrength(newPassword, s.cfg.MinPasswordScore); !res.Valid {
		return &domain.WeakPasswordError{Score: res.Score, Unmet: res.Errors}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}
	if err := s.repo.UpdateCredential(ctx, email, string(hash)); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return infraErr("update credential", err)
	}

	s.log.Info().Str("email", email).Msg("password reset completed")
	return nil
}

// CurrentIdentity resolves the account behind a verified token subject. The
// email argument comes from the request's validated claims, never from a
// process-wide slot, so concurrent requests cannot observe each other.
func (s *IdentityService) CurrentIdentity(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.repo.FindByEmail(ctx, validate.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, infraErr("find account", err)
	}
	return scrub(account), nil
}

func (s *IdentityService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to record login failure")
	}
}

func (s *IdentityService) issueToken(account *domain.Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"role":  string(account.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

// scrub strips the credential hash before an account leaves the core.
func scrub(a *domain.Account) *domain.Account {
	clone := *a
	clone.CredentialHash = ""
	return &clone
}

// newResetToken returns an unguessable 256-bit token, hex-encoded.
func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// infraErr wraps a backend failure so callers can distinguish infrastructure
// trouble from credential or validation failures and retry with backoff.
func infraErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrRepositoryUnavailable, op, err)
}
