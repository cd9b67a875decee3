package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// RequireRole enforces a minimum role on the authenticated actor. The actor
// passes when any held role is at or above min in the hierarchy.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, _ := c.Get(CtxRoles).([]domain.Role)
			if len(roles) == 0 || domain.HighestRole(roles).IsLowerThan(min) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
