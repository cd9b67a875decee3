package domain

import "errors"

// Domain error taxonomy. All of these are recoverable business errors meant
// to be translated into user-facing responses by the transport layer; none
// represent a programming defect.
var (
	// ErrInvalidCredentials covers wrong password, unknown email and inactive
	// account alike, so callers outside the core cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is internal to the core and its direct callers; the
	// login path collapses it into ErrInvalidCredentials before it escapes.
	ErrUserNotFound = errors.New("user not found")

	ErrDuplicateEmail          = errors.New("email already registered")
	ErrWeakPassword            = errors.New("password does not meet policy")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrInvalidOperation        = errors.New("operation not allowed")
	ErrInvalidRole             = errors.New("invalid role")

	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrTokenSecretMissing = errors.New("token signing secret not configured")
	ErrSessionNotFound    = errors.New("session not found")

	// ErrMalformedCredential signals a stored hash that is structurally
	// broken, as opposed to a plaintext that simply does not match.
	ErrMalformedCredential = errors.New("malformed credential hash")
)
