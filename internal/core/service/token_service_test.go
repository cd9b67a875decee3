package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

func newTokenService(t *testing.T) (*TokenService, *memTokenStore, *memRevocationList) {
	t.Helper()
	store := newMemTokenStore()
	revoked := newMemRevocationList()
	svc := NewTokenService(testTokenSettings(), store, revoked, zerolog.Nop())
	return svc, store, revoked
}

func tokenTestUser(t *testing.T, roles ...domain.Role) *domain.User {
	t.Helper()
	cred, err := domain.NewCredential("hashed:pw")
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	user, err := domain.NewUser("alice@example.com", cred, roles, domain.Profile{}, "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	return user
}

func TestTokenService_IssueAndVerify_AllTypes(t *testing.T) {
	svc, _, _ := newTokenService(t)
	user := tokenTestUser(t, domain.RoleAdmin)

	for _, tokenType := range domain.TokenTypes {
		signed, err := svc.Issue(tokenType, user)
		if err != nil {
			t.Fatalf("Issue(%s): %v", tokenType, err)
		}

		claims, err := svc.Verify(tokenType, signed)
		if err != nil {
			t.Fatalf("Verify(%s): %v", tokenType, err)
		}
		if claims.UserID != user.ID() {
			t.Fatalf("%s: wrong subject %s", tokenType, claims.UserID)
		}
		if claims.Email != user.Email() {
			t.Fatalf("%s: wrong email %s", tokenType, claims.Email)
		}
		if claims.TokenType != tokenType {
			t.Fatalf("%s: wrong type tag %s", tokenType, claims.TokenType)
		}

		isSession := tokenType == domain.TokenTypeAccess || tokenType == domain.TokenTypeRefresh
		if isSession && len(claims.Roles) == 0 {
			t.Fatalf("%s tokens must carry roles", tokenType)
		}
		if !isSession && len(claims.Roles) != 0 {
			t.Fatalf("purpose tokens must not carry roles, got %v", claims.Roles)
		}
	}
}

func TestTokenService_Verify_TypeMismatch(t *testing.T) {
	svc, _, _ := newTokenService(t)
	// Same secret for both types so the signature passes and only the
	// embedded tag can reject.
	svc = NewTokenService(TokenSettings{
		Secrets: map[domain.TokenType]string{
			domain.TokenTypeAccess:  "shared",
			domain.TokenTypeRefresh: "shared",
		},
	}, newMemTokenStore(), newMemRevocationList(), zerolog.Nop())

	signed, err := svc.Issue(domain.TokenTypeAccess, tokenTestUser(t))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(domain.TokenTypeRefresh, signed); !errors.Is(err, domain.ErrTokenTypeMismatch) {
		t.Fatalf("expected ErrTokenTypeMismatch, got %v", err)
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	svc, _, _ := newTokenService(t)
	signed, err := svc.Issue(domain.TokenTypeAccess, tokenTestUser(t))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenService(TokenSettings{
		Secrets: map[domain.TokenType]string{domain.TokenTypeAccess: "different"},
	}, newMemTokenStore(), newMemRevocationList(), zerolog.Nop())
	if _, err := other.Verify(domain.TokenTypeAccess, signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	svc, _, _ := newTokenService(t)
	if _, err := svc.Verify(domain.TokenTypeAccess, "not.a.jwt"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_MissingSecret(t *testing.T) {
	svc := NewTokenService(TokenSettings{}, newMemTokenStore(), newMemRevocationList(), zerolog.Nop())
	if _, err := svc.Issue(domain.TokenTypeAccess, tokenTestUser(t)); !errors.Is(err, domain.ErrTokenSecretMissing) {
		t.Fatalf("expected ErrTokenSecretMissing on issue, got %v", err)
	}
	if _, err := svc.Verify(domain.TokenTypeAccess, "whatever"); !errors.Is(err, domain.ErrTokenSecretMissing) {
		t.Fatalf("expected ErrTokenSecretMissing on verify, got %v", err)
	}
}

func TestTokenService_ExpiryIsExclusive(t *testing.T) {
	svc, _, _ := newTokenService(t)
	user := tokenTestUser(t)

	issuedAt := time.Now().UTC().Truncate(time.Second)
	svc.nowFunc = func() time.Time { return issuedAt }

	signed, err := svc.Issue(domain.TokenTypeAccess, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One instant before expiry the token is still live.
	svc.nowFunc = func() time.Time { return issuedAt.Add(DefaultAccessTTL - time.Second) }
	if _, err := svc.Verify(domain.TokenTypeAccess, signed); err != nil {
		t.Fatalf("token should be live just before expiry: %v", err)
	}

	// Exactly at the expiry instant it is already expired.
	svc.nowFunc = func() time.Time { return issuedAt.Add(DefaultAccessTTL) }
	if _, err := svc.Verify(domain.TokenTypeAccess, signed); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at the expiry instant, got %v", err)
	}
}

func TestTokenService_IssuePair(t *testing.T) {
	svc, store, _ := newTokenService(t)
	user := tokenTestUser(t)

	pair, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{UserAgent: "cli/1.0", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("pair incomplete: %+v", pair)
	}
	if pair.ExpiresIn != int64(DefaultAccessTTL.Seconds()) {
		t.Fatalf("unexpected ExpiresIn: %d", pair.ExpiresIn)
	}

	rec, err := store.Find(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token not recorded: %v", err)
	}
	if rec.UserID != user.ID() || rec.UserAgent != "cli/1.0" || rec.IPAddress != "10.0.0.1" {
		t.Fatalf("record incomplete: %+v", rec)
	}
}

func TestTokenService_RevokeAndIsRevoked(t *testing.T) {
	svc, _, revoked := newTokenService(t)
	user := tokenTestUser(t)

	pair, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if flagged, err := svc.IsRevoked(context.Background(), pair.RefreshToken); err != nil || flagged {
		t.Fatalf("fresh token should not be revoked: %v %v", flagged, err)
	}

	if err := svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if flagged, err := svc.IsRevoked(context.Background(), pair.RefreshToken); err != nil || !flagged {
		t.Fatalf("revoked token should report revoked: %v %v", flagged, err)
	}
	if !revoked.flagged[pair.RefreshToken] {
		t.Fatalf("fast-path list was not flagged")
	}
}

func TestTokenService_IsRevoked_FastPathFailureFallsBack(t *testing.T) {
	svc, store, revoked := newTokenService(t)
	user := tokenTestUser(t)

	pair, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if err := store.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("store revoke: %v", err)
	}

	revoked.err = errors.New("connection refused")
	flagged, err := svc.IsRevoked(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("IsRevoked should fall back to the store: %v", err)
	}
	if !flagged {
		t.Fatalf("store of record says revoked; fast-path outage must not hide it")
	}
}

func TestTokenService_UnknownTokenIsRevoked(t *testing.T) {
	svc, _, _ := newTokenService(t)
	flagged, err := svc.IsRevoked(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !flagged {
		t.Fatalf("a token with no record must be treated as revoked")
	}
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	svc, _, _ := newTokenService(t)
	user := tokenTestUser(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{}); err != nil {
			t.Fatalf("IssuePair: %v", err)
		}
	}
	count, err := svc.CountActiveForUser(context.Background(), user.ID())
	if err != nil || count != 3 {
		t.Fatalf("expected 3 active sessions, got %d (%v)", count, err)
	}

	if err := svc.RevokeAllForUser(context.Background(), user.ID()); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	count, err = svc.CountActiveForUser(context.Background(), user.ID())
	if err != nil || count != 0 {
		t.Fatalf("expected 0 active sessions, got %d (%v)", count, err)
	}
}

func TestTokenService_Sessions(t *testing.T) {
	svc, _, _ := newTokenService(t)
	user := tokenTestUser(t)

	first, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{UserAgent: "browser"})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	second, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{UserAgent: "phone"})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	sessions, err := svc.ListSessions(context.Background(), user.ID(), second.RefreshToken)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	var currents int
	var currentID string
	for _, s := range sessions {
		if s.IsCurrent {
			currents++
			currentID = s.ID
		}
	}
	if currents != 1 {
		t.Fatalf("exactly one session should be current, got %d", currents)
	}

	// Revoking the other session leaves the current one alone.
	var otherID string
	for _, s := range sessions {
		if s.ID != currentID {
			otherID = s.ID
		}
	}
	if err := svc.RevokeSession(context.Background(), user.ID(), otherID); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	remaining, err := svc.ListSessions(context.Background(), user.ID(), second.RefreshToken)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(remaining) != 1 || !remaining[0].IsCurrent {
		t.Fatalf("expected only the current session to remain: %+v", remaining)
	}

	if flagged, _ := svc.IsRevoked(context.Background(), first.RefreshToken); !flagged {
		t.Fatalf("revoked session's token should be dead")
	}
}

func TestTokenService_RevokeSession_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTokenService(t)
	user := tokenTestUser(t)

	pair, err := svc.IssuePair(context.Background(), user, ports.ClientInfo{})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	sessions, err := svc.ListSessions(context.Background(), user.ID(), pair.RefreshToken)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("ListSessions: %v", err)
	}

	err = svc.RevokeSession(context.Background(), "someone-else", sessions[0].ID)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign owner, got %v", err)
	}
}
