package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxEmail extracts the authenticated email injected by the Auth middleware
// and fast-fails before any service call: presence proves the middleware ran
// and the token carried a usable subject.
func ctxEmail(c echo.Context) (string, error) {
	email, _ := c.Get("email").(string)
	if email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return email, nil
}
