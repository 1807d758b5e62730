package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinela/identity-service/internal/core/domain"
	"github.com/sentinela/identity-service/internal/core/ports"
	"github.com/sentinela/identity-service/internal/infrastructure/memory"
)

const (
	testSecret   = "test-secret"
	testPassword = "Gestor#Sp2024"
)

// fakeAccountRepo is an in-memory AccountRepository keyed by email.
type fakeAccountRepo struct {
	accounts map[string]*domain.Account
	failWith error
}

func newFakeRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if _, ok := r.accounts[account.Email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	clone := *account
	r.accounts[account.Email] = &clone
	return account, nil
}

func (r *fakeAccountRepo) UpdateApprovalStatus(_ context.Context, email string, status domain.ApprovalStatus, approvedBy string) (*domain.Account, error) {
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if !a.ApprovalStatus.CanTransitionTo(status) {
		return nil, domain.ErrInvalidDecision
	}
	a.ApprovalStatus = status
	a.ApprovedBy = approvedBy
	now := time.Now().UTC()
	a.ApprovedAt = &now
	a.UpdatedAt = now
	clone := *a
	return &clone, nil
}

func (r *fakeAccountRepo) UpdateCredential(_ context.Context, email, newHash string) error {
	a, ok := r.accounts[email]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.CredentialHash = newHash
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) ListPending(_ context.Context) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.ApprovalStatus == domain.ApprovalPending {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAccountRepo) SeedIfEmpty(_ context.Context, seed []*domain.Account) error {
	if len(r.accounts) > 0 {
		return nil
	}
	for _, a := range seed {
		clone := *a
		r.accounts[a.Email] = &clone
	}
	return nil
}

// capturingNotifier records the last reset token handed to it.
type capturingNotifier struct {
	email string
	token string
	calls int
}

func (n *capturingNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.email = email
	n.token = token
	n.calls++
	return nil
}

type fixture struct {
	svc      *IdentityService
	repo     *fakeAccountRepo
	limiter  *memory.RateLimiter
	notifier *capturingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	limiter := memory.NewRateLimiter(5, 15*time.Minute)
	notifier := &capturingNotifier{}
	svc := NewIdentityService(repo, limiter, memory.NewResetTokenStore(), notifier, Config{
		JWTSecret:  testSecret,
		BcryptCost: 4, // keep the test suite fast
	}, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, limiter: limiter, notifier: notifier}
}

func (f *fixture) register(t *testing.T, input ports.RegisterInput) *domain.Account {
	t.Helper()
	a, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)
	return a
}

func citizenInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:    "maria@email.com",
		Password: testPassword,
		FullName: "Maria Souza",
		Phone:    "(11) 99999-9999",
		Role:     domain.RoleCitizen,
	}
}

func agentInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:    "agente@policia.sp.gov.br",
		Password: testPassword,
		FullName: "Carlos Lima",
		Phone:    "(11) 98888-7777",
		Role:     domain.RoleAgent,
	}
}

func TestRegisterCitizenAutoApproved(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, citizenInput())

	assert.Equal(t, domain.ApprovalApproved, a.ApprovalStatus)
	assert.True(t, a.IsApproved())
	assert.Empty(t, a.CredentialHash, "hash must not leave the core")
	assert.NotEmpty(t, a.ID)

	// The stored account keeps the hash.
	stored := f.repo.accounts["maria@email.com"]
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.CredentialHash)
}

func TestRegisterCitizenWithoutPhone(t *testing.T) {
	f := newFixture(t)
	input := citizenInput()
	input.Phone = ""

	a := f.register(t, input)
	assert.Equal(t, domain.RoleCitizen, a.Role)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	input := citizenInput()
	input.Email = "  Maria@Email.COM "

	a := f.register(t, input)
	assert.Equal(t, "maria@email.com", a.Email)
}

func TestRegisterAgentRequiresInstitutionalEmail(t *testing.T) {
	f := newFixture(t)
	input := agentInput()
	input.Email = "agente@gmail.com"

	_, err := f.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrInstitutionalEmailRequired)
}

func TestRegisterAgentRequiresPhone(t *testing.T) {
	f := newFixture(t)
	input := agentInput()
	input.Phone = ""

	_, err := f.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrPhoneRequired)
}

func TestRegisterAgentStartsPending(t *testing.T) {
	f := newFixture(t)

	a := f.register(t, agentInput())
	assert.Equal(t, domain.ApprovalPending, a.ApprovalStatus)
	assert.False(t, a.IsApproved())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)
	input := citizenInput()
	input.Password = "abacateazul12" // three of five criteria

	_, err := f.svc.Register(context.Background(), input)

	var weak *domain.WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Equal(t, 3, weak.Score)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())

	_, err := f.svc.Register(context.Background(), citizenInput())
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	input := citizenInput()
	input.Role = domain.RoleMaster // not self-registrable

	_, err := f.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestLoginIssuesSignedToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())

	a, token, err := f.svc.Login(context.Background(), ports.Credentials{
		Email:    "maria@email.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Empty(t, a.CredentialHash)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "maria@email.com", claims["email"])
	assert.Equal(t, string(domain.RoleCitizen), claims["role"])
	assert.Equal(t, a.ID, claims["sub"])
}

func TestLoginUnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	ctx := context.Background()

	_, _, errUnknown := f.svc.Login(ctx, ports.Credentials{Email: "nobody@email.com", Password: testPassword})
	_, _, errWrong := f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: "Errad@Senha9x"})

	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	ctx := context.Background()
	bad := ports.Credentials{Email: "maria@email.com", Password: "Errad@Senha9x"}

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.Login(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	// Sixth attempt is denied even with the right password.
	_, _, err := f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: testPassword})
	var locked *domain.TooManyAttemptsError
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, 14*time.Minute)

	// A denial is not itself a failure: the retry horizon does not move.
	_, _, err = f.svc.Login(ctx, bad)
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, 14*time.Minute)
}

func TestLoginSuccessClearsFailureCounter(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, _ = f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: "Errad@Senha9x"})
	}
	_, _, err := f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: testPassword})
	require.NoError(t, err)

	d, err := f.limiter.Check(ctx, "maria@email.com")
	require.NoError(t, err)
	assert.Equal(t, 5, d.AttemptsLeft)
}

func TestLoginPendingAccountBlockedWithoutTouchingLimiter(t *testing.T) {
	f := newFixture(t)
	f.register(t, agentInput())
	ctx := context.Background()

	// Build up failures, then present correct credentials on a pending
	// account: the gate fires after credential verification and must
	// neither count as a failure nor clear the counter.
	for i := 0; i < 3; i++ {
		_, _, _ = f.svc.Login(ctx, ports.Credentials{Email: "agente@policia.sp.gov.br", Password: "Errad@Senha9x"})
	}
	_, _, err := f.svc.Login(ctx, ports.Credentials{Email: "agente@policia.sp.gov.br", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrAccountPendingApproval)

	d, err := f.limiter.Check(ctx, "agente@policia.sp.gov.br")
	require.NoError(t, err)
	assert.Equal(t, 2, d.AttemptsLeft)
}

func TestLoginRejectedAccount(t *testing.T) {
	f := newFixture(t)
	f.register(t, agentInput())
	ctx := context.Background()

	_, err := f.svc.UpdateApprovalStatus(ctx, "agente@policia.sp.gov.br", domain.ApprovalRejected, "master@sentinela.gov.br")
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, ports.Credentials{Email: "agente@policia.sp.gov.br", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrAccountRejected)
}

func TestAdjudicationUnlocksLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, agentInput())
	ctx := context.Background()

	a, err := f.svc.UpdateApprovalStatus(ctx, "agente@policia.sp.gov.br", domain.ApprovalApproved, "master@sentinela.gov.br")
	require.NoError(t, err)
	assert.Equal(t, "master@sentinela.gov.br", a.ApprovedBy)
	require.NotNil(t, a.ApprovedAt)

	_, token, err := f.svc.Login(ctx, ports.Credentials{Email: "agente@policia.sp.gov.br", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAdjudicationRejectsInvalidDecision(t *testing.T) {
	f := newFixture(t)
	f.register(t, agentInput())

	_, err := f.svc.UpdateApprovalStatus(context.Background(), "agente@policia.sp.gov.br", domain.ApprovalPending, "master@sentinela.gov.br")
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestAdjudicationApprovedIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput()) // approved at creation

	_, err := f.svc.UpdateApprovalStatus(context.Background(), "maria@email.com", domain.ApprovalRejected, "master@sentinela.gov.br")
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)

	// The stored account is untouched.
	assert.Equal(t, domain.ApprovalApproved, f.repo.accounts["maria@email.com"].ApprovalStatus)
}

func TestAdjudicationRejectionCanBeReversed(t *testing.T) {
	f := newFixture(t)
	f.register(t, agentInput())
	ctx := context.Background()

	_, err := f.svc.UpdateApprovalStatus(ctx, "agente@policia.sp.gov.br", domain.ApprovalRejected, "master@sentinela.gov.br")
	require.NoError(t, err)

	a, err := f.svc.UpdateApprovalStatus(ctx, "agente@policia.sp.gov.br", domain.ApprovalApproved, "master@sentinela.gov.br")
	require.NoError(t, err)
	assert.True(t, a.IsApproved())
}

func TestAdjudicationUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateApprovalStatus(context.Background(), "nobody@email.com", domain.ApprovalApproved, "master@sentinela.gov.br")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestListPendingAccounts(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	f.register(t, agentInput())

	pending, err := f.svc.ListPendingAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "agente@policia.sp.gov.br", pending[0].Email)
	assert.Empty(t, pending[0].CredentialHash)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "maria@email.com"))
	require.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, "maria@email.com", f.notifier.email)
	require.NotEmpty(t, f.notifier.token)

	const newPassword = "Nov@Credencial7"
	require.NoError(t, f.svc.ResetPassword(ctx, f.notifier.token, newPassword))

	// Old password no longer works, new one does.
	_, _, err := f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, ports.Credentials{Email: "maria@email.com", Password: newPassword})
	assert.NoError(t, err)

	// The token was consumed by the first redemption.
	err = f.svc.ResetPassword(ctx, f.notifier.token, "Outr@Senhora33")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "nobody@email.com")
	assert.ErrorIs(t, err, domain.ErrEmailNotFound)
	assert.Zero(t, f.notifier.calls)
}

func TestPasswordResetRejectsWeakReplacement(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "maria@email.com"))

	err := f.svc.ResetPassword(ctx, f.notifier.token, "fraca")
	var weak *domain.WeakPasswordError
	assert.ErrorAs(t, err, &weak)
}

func TestCurrentIdentity(t *testing.T) {
	f := newFixture(t)
	f.register(t, citizenInput())

	a, err := f.svc.CurrentIdentity(context.Background(), "Maria@Email.com")
	require.NoError(t, err)
	assert.Equal(t, "maria@email.com", a.Email)
	assert.Empty(t, a.CredentialHash)

	_, err = f.svc.CurrentIdentity(context.Background(), "nobody@email.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepositoryFailureSurfacesAsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.repo.failWith = errors.New("connection refused")

	_, _, err := f.svc.Login(context.Background(), ports.Credentials{Email: "maria@email.com", Password: testPassword})
	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestBootstrapAccounts(t *testing.T) {
	seed, err := BootstrapAccounts(Config{BcryptCost: 4})
	require.NoError(t, err)
	require.Len(t, seed, 4)

	roles := make(map[domain.Role]bool)
	for _, a := range seed {
		roles[a.Role] = true
		assert.True(t, a.IsApproved(), "seed accounts must be usable immediately")
		assert.NotEmpty(t, a.CredentialHash)
	}
	for _, r := range []domain.Role{domain.RoleMaster, domain.RoleAdmin, domain.RoleAgent, domain.RoleCitizen} {
		assert.True(t, roles[r], "missing seed role %s", r)
	}
}
