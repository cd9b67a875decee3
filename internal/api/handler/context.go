package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitykit/identity-core/internal/api/middleware"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: the user id must be
// non-empty (presence proves the middleware ran).
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, _ := c.Get(middleware.CtxClaims).(*domain.Claims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// resolveActor re-reads the authenticated caller from the store of record.
// Role changes and deactivations take effect on the next request this way,
// even while an already issued access token is still within its lifetime.
func resolveActor(c echo.Context, users ports.UserRepository) (*domain.User, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return nil, err
	}

	actor, err := users.FindByID(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown identity")
		}
		return nil, err
	}
	if !actor.IsActive() {
		return nil, echo.NewHTTPError(http.StatusForbidden, "account is deactivated")
	}
	return actor, nil
}
