package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// AuthService implements the credential-facing flows. It owns the
// anti-enumeration policy: unknown email, wrong password and inactive account
// are indistinguishable to callers, and password-reset requests report
// success regardless of account existence.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenService
	hasher   ports.CredentialHasher
	notifier ports.Notifier
	policy   domain.PasswordPolicy
	log      zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	hasher ports.CredentialHasher,
	notifier ports.Notifier,
	policy domain.PasswordPolicy,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		policy:   policy,
		log:      log,
	}
}

// Register creates a self-registered account with the plain user role and
// kicks off email verification.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.policy.Enforce(input.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	cred, err := domain.NewCredential(hash)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(email, cred, nil, domain.Profile{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}, "")
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID()).Msg("user registered")
	s.sendVerification(ctx, user)

	pair, err := s.tokens.IssuePair(ctx, user, input.Client)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// Authenticate verifies the password and mints a token pair.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, client ports.ClientInfo) (*ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Msg("login attempt for unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive() {
		s.log.Debug().Str("user_id", user.ID()).Msg("login attempt on inactive account")
		return nil, domain.ErrInvalidCredentials
	}

	match, err := s.hasher.Compare(password, user.Credential().Hash())
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}

	user.UpdateLastLogin()
	if err := s.users.Save(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID()).Msg("failed to record last login")
	}

	pair, err := s.tokens.IssuePair(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID()).Msg("user authenticated")
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// RefreshTokenPair exchanges a live refresh token for a fresh pair. The
// exchange rotates: the presented token is revoked before the new pair is
// issued, so a replayed token fails with ErrTokenInvalid.
func (s *AuthService) RefreshTokenPair(ctx context.Context, refreshToken string, client ports.ClientInfo) (*ports.TokenPair, error) {
	claims, err := s.tokens.Verify(domain.TokenTypeRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.tokens.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrTokenInvalid
	}

	// Re-resolve the user so deactivation and role changes take effect at
	// rotation time, not only at access-token expiry.
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(ctx, user, client)
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// LogoutAll terminates every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// RequestPasswordReset issues a reset token and hands it to the notifier.
// The outcome is identical whether or not the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive() {
		return nil
	}

	token, err := s.tokens.Issue(domain.TokenTypePasswordReset, user)
	if err != nil {
		return err
	}
	s.notify(ctx, ports.Notification{
		Kind:  ports.NotificationPasswordReset,
		Email: user.Email(),
		Name:  displayName(user),
		Token: token,
	})
	return nil
}

// ResetPassword consumes a reset token, enforces the policy on the new
// plaintext, and terminates every existing session.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(domain.TokenTypePasswordReset, token)
	if err != nil {
		return err
	}
	if err := s.policy.Enforce(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID()); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID()).Msg("failed to revoke sessions after password reset")
	}
	s.log.Info().Str("user_id", user.ID()).Msg("password reset completed")
	return nil
}

// ChangePassword updates the target's password under the hierarchy rules.
// Self-changes must present the current password; managers changing a
// subordinate's password do not.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, targetID, currentPassword, newPassword string) error {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !domain.CanManagePassword(actor, target) {
		return domain.ErrInsufficientPermissions
	}

	if actor != nil && actor.ID() == target.ID() {
		match, err := s.hasher.Compare(currentPassword, target.Credential().Hash())
		if err != nil {
			return err
		}
		if !match {
			return domain.ErrInvalidCredentials
		}
	}

	if err := s.policy.Enforce(newPassword); err != nil {
		return err
	}
	if err := s.setPassword(ctx, target, newPassword); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, target.ID()); err != nil {
		s.log.Warn().Err(err).Str("user_id", target.ID()).Msg("failed to revoke sessions after password change")
	}
	return nil
}

// RequestEmailVerification re-issues a verification token for an unverified
// account.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified() {
		return domain.ErrInvalidOperation
	}
	s.sendVerification(ctx, user)
	return nil
}

// VerifyEmail consumes a verification token and marks the address confirmed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(domain.TokenTypeEmailVerification, token)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}
	if user.EmailVerified() {
		return nil
	}

	user.VerifyEmail()
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	s.log.Info().Str("user_id", user.ID()).Msg("email verified")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, plaintext string) error {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	cred, err := domain.NewCredential(hash)
	if err != nil {
		return err
	}
	if err := user.UpdateCredential(cred); err != nil {
		return err
	}
	return s.users.Save(ctx, user)
}

// sendVerification issues a verification token and enqueues delivery.
// Delivery problems never fail the calling flow.
func (s *AuthService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.tokens.Issue(domain.TokenTypeEmailVerification, user)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID()).Msg("failed to issue verification token")
		return
	}
	s.notify(ctx, ports.Notification{
		Kind:  ports.NotificationEmailVerification,
		Email: user.Email(),
		Name:  displayName(user),
		Token: token,
	})
}

func (s *AuthService) notify(ctx context.Context, n ports.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("kind", string(n.Kind)).Msg("notification delivery failed")
	}
}

func displayName(u *domain.User) string {
	p := u.Profile()
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return u.Email()
	}
	return name
}
