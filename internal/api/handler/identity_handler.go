package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sentinela/identity-service/internal/api/metrics"
	"github.com/sentinela/identity-service/internal/core/domain"
	"github.com/sentinela/identity-service/internal/core/ports"
)

type IdentityHandler struct {
	identity ports.IdentityService
}

func NewIdentityHandler(identity ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *IdentityHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.identity.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(account.Role)).Inc()
	return c.JSON(http.StatusCreated, authResponse{Account: toAccountResponse(account)})
}

// Login authenticates an account and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *IdentityHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	account, token, err := h.identity.Login(c.Request().Context(), ports.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	result := loginResult(err)
	metrics.LoginsTotal.WithLabelValues(result).Inc()
	metrics.LoginDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, Account: toAccountResponse(account)})
}

// Logout ends the client session. Session tokens are not server-revocable;
// the client discards its token and this endpoint exists for interface
// parity with the UI collaborators.
//
// @Summary      Logout
// @Tags         auth
// @Success      204  "no content"
// @Router       /auth/logout [post]
func (h *IdentityHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account with its permission set.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *IdentityHandler) Me(c echo.Context) error {
	email, err := ctxEmail(c)
	if err != nil {
		return err
	}

	account, err := h.identity.CurrentIdentity(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, identityResponse{
		Account:     toAccountResponse(account),
		Permissions: domain.RolePermissions(account.Role),
	})
}

// ForgotPassword issues a password-reset token for the given email.
//
// @Summary      Request password reset
// @Tags         auth
// @Accept       json
// @Param        body  body  forgotPasswordRequest  true  "Account email"
// @Success      202   "accepted"
// @Failure      404   {object}  map[string]string
// @Router       /auth/password/forgot [post]
func (h *IdentityHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.identity.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return c.NoContent(http.StatusAccepted)
}

// ResetPassword redeems a reset token and sets a new credential.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Param        body  body  resetPasswordRequest  true  "Token and new password"
// @Success      204   "no content"
// @Failure      400   {object}  map[string]string
// @Router       /auth/password/reset [post]
func (h *IdentityHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.identity.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			metrics.PasswordResetsTotal.WithLabelValues("invalid_token").Inc()
		}
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	return c.NoContent(http.StatusNoContent)
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountPendingApproval):
		return "pending_approval"
	case errors.Is(err, domain.ErrAccountRejected):
		return "rejected"
	default:
		var locked *domain.TooManyAttemptsError
		if errors.As(err, &locked) {
			return "locked_out"
		}
		return "error"
	}
}
