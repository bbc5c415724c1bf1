package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole allows the request when the user holds one of roles. The admin
// role passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether granted contains admin or any of required.
func HasRole(granted []string, required ...string) bool {
	for _, has := range granted {
		if has == "admin" {
			return true
		}
		for _, want := range required {
			if has == want {
				return true
			}
		}
	}
	return false
}
