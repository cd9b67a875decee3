package domain

import (
	"testing"
	"time"
)

func TestTokenType_Valid(t *testing.T) {
	for _, tokenType := range TokenTypes {
		if !tokenType.Valid() {
			t.Fatalf("%s should be valid", tokenType)
		}
	}
	if TokenType("session").Valid() {
		t.Fatalf("unknown token type accepted")
	}
}

func TestRefreshTokenRecord_ExpiryBoundary(t *testing.T) {
	expiry := time.Now().UTC()
	rec := RefreshTokenRecord{ExpiresAt: expiry}

	if rec.IsExpired(expiry.Add(-time.Second)) {
		t.Fatalf("record expired before its time")
	}
	// The expiry instant itself is already expired.
	if !rec.IsExpired(expiry) {
		t.Fatalf("record must be expired exactly at ExpiresAt")
	}
	if !rec.IsExpired(expiry.Add(time.Second)) {
		t.Fatalf("record must stay expired after ExpiresAt")
	}
}

func TestRefreshTokenRecord_IsUsable(t *testing.T) {
	now := time.Now().UTC()
	live := RefreshTokenRecord{ExpiresAt: now.Add(time.Hour)}
	if !live.IsUsable(now) {
		t.Fatalf("live record should be usable")
	}

	revoked := RefreshTokenRecord{ExpiresAt: now.Add(time.Hour), Revoked: true}
	if revoked.IsUsable(now) {
		t.Fatalf("revoked record must not be usable")
	}

	expired := RefreshTokenRecord{ExpiresAt: now.Add(-time.Hour)}
	if expired.IsUsable(now) {
		t.Fatalf("expired record must not be usable")
	}
}

func TestClaims_HighestRole(t *testing.T) {
	claims := Claims{Roles: []Role{RoleUser, RoleAdmin}}
	if claims.HighestRole() != RoleAdmin {
		t.Fatalf("expected admin, got %s", claims.HighestRole())
	}
	empty := Claims{}
	if empty.HighestRole() != RoleUser {
		t.Fatalf("empty claims degrade to user")
	}
}
