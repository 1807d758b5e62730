package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sentinela/identity-service/internal/core/domain"
)

// RequireCapability allows the request only when the authenticated role
// holds at least one of the given capabilities. Unknown or missing roles
// hold no capabilities and are denied.
func RequireCapability(caps ...domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !domain.HasAnyCapability(domain.Role(role), caps...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRole allows the request only when the authenticated role ranks at
// or above floor in the role hierarchy. Coarse-grained counterpart of
// RequireCapability for routes guarded by level rather than capability.
func RequireRole(floor domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !domain.RoleAtLeast(domain.Role(role), floor) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
