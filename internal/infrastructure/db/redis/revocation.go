package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/identitykit/identity-core/internal/core/ports"
)

// RevocationList is the fast-path revocation check backed by Redis.
// Key format: revoked:<token>, expiring with the token's remaining life so
// the list never outgrows the set of tokens that could still be replayed.
type RevocationList struct {
	client *redis.Client
}

var _ ports.RevocationList = (*RevocationList)(nil)

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke flags the token for ttl. SET is atomic, so a concurrent IsRevoked
// observes either the flag or its absence, never a partial write.
func (l *RevocationList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation set: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token has been flagged.
func (l *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (l *RevocationList) key(token string) string {
	return "revoked:" + token
}
