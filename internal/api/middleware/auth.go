package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/identitykit/identity-core/internal/api/metrics"
	"github.com/identitykit/identity-core/internal/core/domain"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRoles  = "roles"
	CtxClaims = "claims"
)

// TokenVerifier is the slice of the token service the middleware needs.
type TokenVerifier interface {
	Verify(tokenType domain.TokenType, token string) (*domain.Claims, error)
}

// Auth validates the bearer access token and injects its claims into context.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := verifier.Verify(domain.TokenTypeAccess, parts[1])
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(string(domain.TokenTypeAccess), verifyResult(err)).Inc()
				switch {
				case errors.Is(err, domain.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}
			metrics.TokenVerificationsTotal.WithLabelValues(string(domain.TokenTypeAccess), "valid").Inc()

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRoles, claims.Roles)
			c.Set(CtxClaims, claims)

			return next(c)
		}
	}
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenTypeMismatch):
		return "type_mismatch"
	default:
		return "invalid"
	}
}
