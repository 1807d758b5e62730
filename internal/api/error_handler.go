package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sentinela/identity-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	// Details carries the unmet password rules on weak-password failures.
	Details []string `json:"details,omitempty"`
	// RetryAfter carries the human-readable remaining lockout on throttling.
	RetryAfter string `json:"retry_after,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Typed failures carrying payloads.
	var weak *domain.WeakPasswordError
	if errors.As(err, &weak) {
		return http.StatusBadRequest, errorResponse{Error: weak.Error(), Details: weak.Unmet}
	}
	var locked *domain.TooManyAttemptsError
	if errors.As(err, &locked) {
		c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(locked.RetryAfter.Seconds())))
		return http.StatusTooManyRequests, errorResponse{
			Error:      "too many failed attempts",
			RetryAfter: domain.FormatLockout(locked.RetryAfter),
		}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrPhoneRequired),
		errors.Is(err, domain.ErrInvalidDecision):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInstitutionalEmailRequired):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid email or password"}
	case errors.Is(err, domain.ErrAccountPendingApproval),
		errors.Is(err, domain.ErrAccountRejected):
		return http.StatusForbidden, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEmailNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		// Retryable: the backend is down, not the caller's input.
		log.Error().Err(err).Str("path", c.Path()).Msg("backend unavailable")
		return http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
