package ports

import (
	"context"
	"time"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// TokenPair is the result of authentication and refresh exchanges.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds, for client-side
	// renewal scheduling.
	ExpiresIn int64
}

// ClientInfo is the request metadata attached to refresh-token records.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// SessionInfo is one active refresh session as rendered to the user.
type SessionInfo struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	UserAgent string
	IPAddress string
	IsCurrent bool
}

// TokenService issues and verifies purpose-scoped signed tokens and manages
// the refresh-token lifecycle.
type TokenService interface {
	// Issue signs a token of the given type for the user. Access and refresh
	// tokens embed the role set; purpose tokens carry only subject and email.
	Issue(tokenType domain.TokenType, user *domain.User) (string, error)
	// Verify checks signature, embedded type tag, and expiry (exclusive).
	Verify(tokenType domain.TokenType, token string) (*domain.Claims, error)
	// ExpirationTime exposes the configured TTL for the type.
	ExpirationTime(tokenType domain.TokenType) time.Duration

	// IssuePair mints an access+refresh pair and records the refresh token
	// in the revocation store together with the client metadata.
	IssuePair(ctx context.Context, user *domain.User, client ClientInfo) (*TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, refreshToken string) (bool, error)
	CountActiveForUser(ctx context.Context, userID string) (int64, error)
	// ListSessions renders the user's live refresh records; currentToken
	// marks the session the call was made with.
	ListSessions(ctx context.Context, userID, currentToken string) ([]SessionInfo, error)
	RevokeSession(ctx context.Context, userID, sessionID string) error
}
