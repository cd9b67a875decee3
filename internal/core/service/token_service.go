package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// Default time-to-live per token type. All are overridable through
// TokenSettings.
const (
	DefaultAccessTTL            = 15 * time.Minute
	DefaultRefreshTTL           = 7 * 24 * time.Hour
	DefaultEmailVerificationTTL = 24 * time.Hour
	DefaultPasswordResetTTL     = time.Hour
)

// TokenSettings carries the per-type signing secrets and lifetimes.
type TokenSettings struct {
	Secrets map[domain.TokenType]string
	TTLs    map[domain.TokenType]time.Duration
}

// tokenClaims is the wire shape of the signed payload.
type tokenClaims struct {
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies purpose-scoped HS256 tokens and drives the
// refresh-token lifecycle against the revocation store. Issue and Verify are
// pure CPU plus secret lookup and safe for unrestricted parallelism; only the
// store operations touch shared state.
type TokenService struct {
	secrets map[domain.TokenType][]byte
	ttls    map[domain.TokenType]time.Duration
	store   ports.RefreshTokenStore
	revoked ports.RevocationList
	log     zerolog.Logger
	nowFunc func() time.Time
}

var _ ports.TokenService = (*TokenService)(nil)

// NewTokenService builds a TokenService. Missing TTLs fall back to the
// defaults; missing secrets surface as ErrTokenSecretMissing at use time so a
// partially configured deployment fails on the affected flow only.
func NewTokenService(settings TokenSettings, store ports.RefreshTokenStore, revoked ports.RevocationList, log zerolog.Logger) *TokenService {
	secrets := make(map[domain.TokenType][]byte, len(settings.Secrets))
	for t, s := range settings.Secrets {
		if s != "" {
			secrets[t] = []byte(s)
		}
	}

	ttls := map[domain.TokenType]time.Duration{
		domain.TokenTypeAccess:            DefaultAccessTTL,
		domain.TokenTypeRefresh:           DefaultRefreshTTL,
		domain.TokenTypeEmailVerification: DefaultEmailVerificationTTL,
		domain.TokenTypePasswordReset:     DefaultPasswordResetTTL,
	}
	for t, d := range settings.TTLs {
		if d > 0 {
			ttls[t] = d
		}
	}

	return &TokenService{
		secrets: secrets,
		ttls:    ttls,
		store:   store,
		revoked: revoked,
		log:     log,
		nowFunc: time.Now,
	}
}

// Issue signs a token of the given type for the user. Role claims are
// embedded only in access and refresh tokens; purpose tokens carry just the
// subject and email.
func (s *TokenService) Issue(tokenType domain.TokenType, user *domain.User) (string, error) {
	secret, ok := s.secrets[tokenType]
	if !ok {
		return "", domain.ErrTokenSecretMissing
	}

	now := s.nowFunc().UTC()
	claims := tokenClaims{
		Email:     user.Email(),
		TokenType: string(tokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes two tokens minted in the same second distinct,
			// which the unique index on stored refresh tokens relies on.
			ID:        uuid.NewString(),
			Subject:   user.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttls[tokenType])),
		},
	}
	if tokenType == domain.TokenTypeAccess || tokenType == domain.TokenTypeRefresh {
		for _, r := range user.Roles() {
			claims.Roles = append(claims.Roles, string(r))
		}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks the signature against the type's secret, the embedded type
// tag, and expiry. Expiry is exclusive: a token presented exactly at its
// expiry instant is already expired.
func (s *TokenService) Verify(tokenType domain.TokenType, token string) (*domain.Claims, error) {
	secret, ok := s.secrets[tokenType]
	if !ok {
		return nil, domain.ErrTokenSecretMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.nowFunc),
		jwt.WithExpirationRequired(),
	)

	var claims tokenClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.TokenType != string(tokenType) {
		return nil, domain.ErrTokenTypeMismatch
	}

	out := &domain.Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		TokenType: tokenType,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	for _, r := range claims.Roles {
		role := domain.Role(r)
		if role.Valid() {
			out.Roles = append(out.Roles, role)
		}
	}
	return out, nil
}

// ExpirationTime returns the configured TTL for the type.
func (s *TokenService) ExpirationTime(tokenType domain.TokenType) time.Duration {
	return s.ttls[tokenType]
}

// IssuePair mints an access+refresh pair and records the refresh token with
// the client metadata so it can be listed and revoked later.
func (s *TokenService) IssuePair(ctx context.Context, user *domain.User, client ports.ClientInfo) (*ports.TokenPair, error) {
	access, err := s.Issue(domain.TokenTypeAccess, user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(domain.TokenTypeRefresh, user)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	rec := &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID(),
		Token:     refresh,
		ExpiresAt: now.Add(s.ttls[domain.TokenTypeRefresh]),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.ttls[domain.TokenTypeAccess].Seconds()),
	}, nil
}

// Revoke marks a refresh token unusable in the store and flags it on the
// fast-path revocation list for the remainder of its life.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if err := s.store.Revoke(ctx, refreshToken); err != nil {
		return err
	}
	s.flagRevoked(ctx, refreshToken, s.remainingLife(ctx, refreshToken))
	return nil
}

// RevokeAllForUser terminates every live session of the user.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	recs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	now := s.nowFunc()
	for _, rec := range recs {
		if rec.IsUsable(now) {
			s.flagRevoked(ctx, rec.Token, rec.ExpiresAt.Sub(now))
		}
	}
	return nil
}

// IsRevoked consults the fast path first, then the store of record. Both
// reads happen inside the same logical check so a concurrent Revoke cannot
// slip a revoked token through.
func (s *TokenService) IsRevoked(ctx context.Context, refreshToken string) (bool, error) {
	if flagged, err := s.revoked.IsRevoked(ctx, refreshToken); err == nil && flagged {
		return true, nil
	} else if err != nil {
		s.log.Warn().Err(err).Msg("revocation list unavailable, falling back to store")
	}
	return s.store.IsRevoked(ctx, refreshToken)
}

// CountActiveForUser counts live sessions.
func (s *TokenService) CountActiveForUser(ctx context.Context, userID string) (int64, error) {
	return s.store.CountActiveForUser(ctx, userID, s.nowFunc())
}

// ListSessions renders the user's live refresh records. The record matching
// currentToken is marked IsCurrent.
func (s *TokenService) ListSessions(ctx context.Context, userID, currentToken string) ([]ports.SessionInfo, error) {
	recs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	sessions := make([]ports.SessionInfo, 0, len(recs))
	for _, rec := range recs {
		if !rec.IsUsable(now) {
			continue
		}
		sessions = append(sessions, ports.SessionInfo{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
			UserAgent: rec.UserAgent,
			IPAddress: rec.IPAddress,
			IsCurrent: rec.Token == currentToken,
		})
	}
	return sessions, nil
}

// RevokeSession revokes one session by its record id, scoped to the owning
// user so one user cannot terminate another's session by guessing ids.
func (s *TokenService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	recs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.ID == sessionID {
			return s.Revoke(ctx, rec.Token)
		}
	}
	return domain.ErrSessionNotFound
}

func (s *TokenService) remainingLife(ctx context.Context, refreshToken string) time.Duration {
	if rec, err := s.store.Find(ctx, refreshToken); err == nil {
		if d := rec.ExpiresAt.Sub(s.nowFunc()); d > 0 {
			return d
		}
		return 0
	}
	return s.ttls[domain.TokenTypeRefresh]
}

func (s *TokenService) flagRevoked(ctx context.Context, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.revoked.Revoke(ctx, token, ttl); err != nil {
		s.log.Warn().Err(err).Msg("failed to flag token on revocation list")
	}
}
