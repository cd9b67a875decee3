// Package security implements the credential hashing contract on bcrypt.
package security

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/identitykit/identity-core/internal/api/metrics"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// DefaultCost is the bcrypt work factor applied when none is configured.
// Kept above bcrypt.DefaultCost: credential hashes outlive hardware.
const DefaultCost = 12

// BcryptHasher is stateless and safe for unrestricted concurrent use; each
// Hash call draws its own salt inside bcrypt.
type BcryptHasher struct {
	cost int
}

var _ ports.CredentialHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher with the given work factor. Costs below
// DefaultCost are raised to it.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < DefaultCost {
		cost = DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash transforms plaintext one-way with a per-call random salt.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	start := time.Now()
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	metrics.HashDuration.Observe(time.Since(start).Seconds())
	return string(out), nil
}

// Compare reports whether plaintext matches hashed. A mismatch is
// (false, nil); a structurally broken hash is (false, ErrMalformedCredential).
func (h *BcryptHasher) Compare(plaintext, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, domain.ErrMalformedCredential
	}
}

// IsHashed reports whether value already looks like a bcrypt hash. Used by
// migration tooling to skip re-hashing.
func (h *BcryptHasher) IsHashed(value string) bool {
	return strings.HasPrefix(value, "$2a$") ||
		strings.HasPrefix(value, "$2b$") ||
		strings.HasPrefix(value, "$2y$")
}

// Describe introspects a stored hash for upgrade tooling.
func (h *BcryptHasher) Describe(hashed string) (ports.HashInfo, bool) {
	if !h.IsHashed(hashed) {
		return ports.HashInfo{}, false
	}
	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		return ports.HashInfo{}, false
	}
	return ports.HashInfo{Algorithm: "bcrypt", Cost: cost}, true
}
