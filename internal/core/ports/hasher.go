package ports

// HashInfo describes a stored credential hash for migration tooling.
type HashInfo struct {
	Algorithm string
	Cost      int
}

// CredentialHasher is the one-way password hashing contract. Implementations
// must be stateless and safe for unrestricted concurrent use.
type CredentialHasher interface {
	// Hash transforms plaintext with a per-call random salt.
	Hash(plaintext string) (string, error)
	// Compare reports whether plaintext matches the hash. A simple mismatch
	// is (false, nil); a structurally broken hash is
	// (false, domain.ErrMalformedCredential).
	Compare(plaintext, hashed string) (bool, error)
	// IsHashed reports whether value already looks like a credential hash.
	IsHashed(value string) bool
	// Describe introspects a hash; ok is false when the value is not one.
	Describe(hashed string) (info HashInfo, ok bool)
}
