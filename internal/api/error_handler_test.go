package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body.Error
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
		{domain.ErrTokenInvalid, http.StatusUnauthorized, "invalid token"},
		{domain.ErrTokenTypeMismatch, http.StatusUnauthorized, "invalid token"},
		{domain.ErrInsufficientPermissions, http.StatusForbidden, "insufficient permissions"},
		{domain.ErrDuplicateEmail, http.StatusConflict, "email already registered"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "invalid role"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{domain.ErrSessionNotFound, http.StatusNotFound, "session not found"},
	}

	for _, tc := range cases {
		code, msg := renderError(t, tc.err)
		if code != tc.wantCode || msg != tc.wantMsg {
			t.Fatalf("%v: got %d %q, want %d %q", tc.err, code, msg, tc.wantCode, tc.wantMsg)
		}
	}
}

func TestHTTPErrorHandler_WeakPasswordKeepsReason(t *testing.T) {
	wrapped := fmt.Errorf("%w: must contain a digit", domain.ErrWeakPassword)
	code, msg := renderError(t, wrapped)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if msg != wrapped.Error() {
		t.Fatalf("the policy reason must reach the client, got %q", msg)
	}
}

func TestHTTPErrorHandler_EnumerationSafeMessages(t *testing.T) {
	// Wrapped credential errors must still render the fixed message, never
	// the wrap text.
	wrapped := fmt.Errorf("find account: %w", domain.ErrInvalidCredentials)
	code, msg := renderError(t, wrapped)
	if code != http.StatusUnauthorized || msg != "invalid credentials" {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestHTTPErrorHandler_EchoErrorsPassThrough(t *testing.T) {
	code, msg := renderError(t, echo.NewHTTPError(http.StatusNotFound, "Not Found"))
	if code != http.StatusNotFound || msg != "Not Found" {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestHTTPErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	code, msg := renderError(t, errors.New("pq: connection reset"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if msg != "internal server error" {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}
