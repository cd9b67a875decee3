package ports

import (
	"context"
	"time"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// RefreshTokenStore persists revocation records for refresh tokens. Revoke
// and IsRevoked must be atomic per token: a revoke racing a verify on the
// same token must never produce a false-valid result.
type RefreshTokenStore interface {
	Create(ctx context.Context, rec *domain.RefreshTokenRecord) error
	// Find returns the record for the exact token string, or
	// domain.ErrSessionNotFound.
	Find(ctx context.Context, token string) (*domain.RefreshTokenRecord, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	CountActiveForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.RefreshTokenRecord, error)
	// DeleteExpired purges records past their expiry or already revoked.
	// Scheduling is the caller's responsibility; the store only exposes the
	// predicate.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RevocationList is the synchronous fast path consulted on every refresh
// verification, backed by a store with per-key TTLs.
type RevocationList interface {
	// Revoke flags the token as unusable for the remainder of its life.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
