package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identitykit/identity-core/internal/api/metrics"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	tokenService ports.TokenService
	users        ports.UserRepository
}

func NewAuthHandler(authService ports.AuthService, tokenService ports.TokenService, users ports.UserRepository) *AuthHandler {
	return &AuthHandler{authService: authService, tokenService: tokenService, users: users}
}

func clientInfo(c echo.Context) ports.ClientInfo {
	return ports.ClientInfo{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}

func rotationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "revoked"
	default:
		return "invalid"
	}
}

// Register creates a self-service user account and signs it in.
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
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Client:    clientInfo(c),
	})
	if err != nil {
		if errors.Is(err, domain.ErrWeakPassword) {
			metrics.PasswordPolicyViolationsTotal.Inc()
		}
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		User:   toUserResponse(result.User),
		Tokens: toTokenPairResponse(result.Tokens),
	})
}

// Login exchanges email and password for a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.authService.Authenticate(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, authResponse{
		User:   toUserResponse(result.User),
		Tokens: toTokenPairResponse(result.Tokens),
	})
}

// Refresh rotates a refresh token into a fresh token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	pair, err := h.authService.RefreshTokenPair(c.Request().Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues(rotationResult(err)).Inc()
		return err
	}
	metrics.RefreshRotationsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// Logout revokes the presented refresh token.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  true  "Refresh token to revoke"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// LogoutAll revokes every refresh session of the authenticated user.
//
// @Summary      Logout everywhere
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout-all [post]
// @Security     BearerAuth
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.authService.LogoutAll(c.Request().Context(), claims.UserID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "all sessions revoked"})
}

// Sessions lists the caller's active refresh sessions. A refresh token sent
// in the X-Refresh-Token header marks which session is the current one.
//
// @Summary      List active sessions
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionListResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/sessions [get]
// @Security     BearerAuth
func (h *AuthHandler) Sessions(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	current := c.Request().Header.Get("X-Refresh-Token")
	sessions, err := h.tokenService.ListSessions(c.Request().Context(), claims.UserID, current)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSessionListResponse(sessions))
}

// RevokeSession revokes one of the caller's refresh sessions by id.
//
// @Summary      Revoke a session
// @Tags         auth
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/sessions/{id} [delete]
// @Security     BearerAuth
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.tokenService.RevokeSession(c.Request().Context(), claims.UserID, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "session revoked"})
}

// ForgotPassword starts the password-reset flow. The response is identical
// whether or not the email belongs to an account.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "if the account exists, a reset email has been sent"})
}

// ResetPassword completes the reset flow with a purpose token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// ChangePassword updates the caller's password, or another user's when the
// caller is an administrator for that user.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Password change"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/password/change [post]
// @Security     BearerAuth
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	targetID := req.UserID
	if targetID == "" {
		targetID = actor.ID()
	}

	if err := h.authService.ChangePassword(c.Request().Context(), actor, targetID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// RequestEmailVerification re-sends the verification email to the caller.
//
// @Summary      Request email verification
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /auth/verify-email/request [post]
// @Security     BearerAuth
func (h *AuthHandler) RequestEmailVerification(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.authService.RequestEmailVerification(c.Request().Context(), claims.UserID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "verification email sent"})
}

// VerifyEmail completes the email-verification flow with a purpose token.
//
// @Summary      Verify email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.authService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}
