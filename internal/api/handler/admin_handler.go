package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sentinela/identity-service/internal/api/metrics"
	"github.com/sentinela/identity-service/internal/core/domain"
	"github.com/sentinela/identity-service/internal/core/ports"
)

// AdminHandler exposes the account-adjudication surface. Routes using it are
// guarded by the user:approve capability at the router.
type AdminHandler struct {
	identity ports.IdentityService
}

func NewAdminHandler(identity ports.IdentityService) *AdminHandler {
	return &AdminHandler{identity: identity}
}

// ListPending returns every account awaiting adjudication, oldest first.
//
// @Summary      List pending accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   accountResponse
// @Failure      403  {object}  map[string]string
// @Router       /admin/accounts/pending [get]
func (h *AdminHandler) ListPending(c echo.Context) error {
	accounts, err := h.identity.ListPendingAccounts(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]*accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

// Adjudicate approves or rejects a pending account.
//
// @Summary      Adjudicate an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string           true  "Account email"
// @Param        body   body      approvalRequest  true  "Decision"
// @Success      200    {object}  accountResponse
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /admin/accounts/{email}/approval [put]
func (h *AdminHandler) Adjudicate(c echo.Context) error {
	var req approvalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	approver, err := ctxEmail(c)
	if err != nil {
		return err
	}

	account, err := h.identity.UpdateApprovalStatus(
		c.Request().Context(),
		c.Param("email"),
		domain.ApprovalStatus(req.Decision),
		approver,
	)
	if err != nil {
		return err
	}

	metrics.AdjudicationsTotal.WithLabelValues(req.Decision).Inc()
	return c.JSON(http.StatusOK, toAccountResponse(account))
}
