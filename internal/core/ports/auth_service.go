package ports

import (
	"context"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// RegisterInput carries self-registration data. Self-registered accounts
// always start as plain users.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Client    ClientInfo
}

// AuthResult bundles the outcome of a successful authentication.
type AuthResult struct {
	User   *domain.User
	Tokens *TokenPair
}

// AuthService implements the credential-facing flows: registration, login,
// refresh exchange, logout, and the verification/reset token round-trips.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	// Authenticate verifies the password and mints a token pair. Unknown
	// email, wrong password and inactive account are indistinguishable to
	// the caller (domain.ErrInvalidCredentials).
	Authenticate(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error)
	// RefreshTokenPair exchanges a live refresh token for a fresh pair.
	// Exchange rotates: the presented token is revoked before the new pair
	// is issued, so a replay fails with domain.ErrTokenInvalid.
	RefreshTokenPair(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error

	// RequestPasswordReset always reports success to the caller regardless
	// of whether the email exists.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, actor *domain.User, targetID, currentPassword, newPassword string) error

	RequestEmailVerification(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, token string) error
}
