package domain

import "time"

// TokenType identifies the purpose a signed token is scoped to. Each type is
// signed with its own secret and carries its own time-to-live; a token of the
// wrong type is rejected even when otherwise valid.
type TokenType string

const (
	TokenTypeAccess            TokenType = "access"
	TokenTypeRefresh           TokenType = "refresh"
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
)

// TokenTypes lists every defined token type.
var TokenTypes = []TokenType{
	TokenTypeAccess,
	TokenTypeRefresh,
	TokenTypeEmailVerification,
	TokenTypePasswordReset,
}

// Valid reports whether t is one of the defined token types.
func (t TokenType) Valid() bool {
	for _, tt := range TokenTypes {
		if t == tt {
			return true
		}
	}
	return false
}

// Claims is the verified payload of a signed token.
type Claims struct {
	UserID    string
	Email     string
	Roles     []Role
	TokenType TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HighestRole returns the dominating role embedded in the claims.
func (c *Claims) HighestRole() Role { return HighestRole(c.Roles) }

// RefreshTokenRecord is the revocation-store entry created for every issued
// refresh token. It doubles as a session: the client metadata captured at
// issuance is what session listings render.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	UserAgent string
	IPAddress string
	CreatedAt time.Time
}

// IsExpired reports whether the record has passed its expiry at the given
// instant. Expiry is exclusive: a record checked exactly at ExpiresAt is
// expired.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsUsable reports whether the record still backs a valid session.
func (r *RefreshTokenRecord) IsUsable(now time.Time) bool {
	return !r.Revoked && !r.IsExpired(now)
}
