package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestUser(t *testing.T, email string, roles ...Role) *User {
	t.Helper()
	cred, err := NewCredential("$2a$12$fakehashfakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	user, err := NewUser(email, cred, roles, Profile{}, "")
	if err != nil {
		t.Fatalf("NewUser(%s): %v", email, err)
	}
	return user
}

func TestNewUser(t *testing.T) {
	user := newTestUser(t, "  Alice@Example.COM  ")

	if user.ID() == "" {
		t.Fatalf("expected generated id")
	}
	if user.Email() != "alice@example.com" {
		t.Fatalf("email not normalised: %s", user.Email())
	}
	if !user.IsActive() {
		t.Fatalf("new users start active")
	}
	if user.EmailVerified() {
		t.Fatalf("new users start unverified")
	}
	roles := user.Roles()
	if len(roles) != 1 || roles[0] != RoleUser {
		t.Fatalf("empty role set should default to user, got %v", roles)
	}
}

func TestNewUser_Validation(t *testing.T) {
	cred, _ := NewCredential("hash")

	if _, err := NewUser("", cred, nil, Profile{}, ""); err == nil {
		t.Fatalf("empty email should be rejected")
	}
	if _, err := NewUser("a@b.com", Credential{}, nil, Profile{}, ""); err != ErrMalformedCredential {
		t.Fatalf("empty credential: expected ErrMalformedCredential, got %v", err)
	}
	if _, err := NewUser("a@b.com", cred, []Role{"root"}, Profile{}, ""); err != ErrInvalidRole {
		t.Fatalf("unknown role: expected ErrInvalidRole, got %v", err)
	}
}

func TestNewUser_DeduplicatesRoles(t *testing.T) {
	user := newTestUser(t, "a@b.com", RoleAdmin, RoleAdmin, RoleUser)
	if len(user.Roles()) != 2 {
		t.Fatalf("expected deduplicated roles, got %v", user.Roles())
	}
}

func TestCredentialNeverSerialises(t *testing.T) {
	cred, _ := NewCredential("$2a$12$secret")
	if cred.String() != "" {
		t.Fatalf("String must render empty")
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `""` {
		t.Fatalf("credential leaked through JSON: %s", raw)
	}
	if strings.Contains(string(raw), "secret") {
		t.Fatalf("hash visible in JSON output")
	}
}

func TestUser_RolesReturnsCopy(t *testing.T) {
	user := newTestUser(t, "a@b.com", RoleAdmin)
	roles := user.Roles()
	roles[0] = RoleSystemAdmin
	if user.Roles()[0] != RoleAdmin {
		t.Fatalf("Roles leaked internal state")
	}
}

func TestUser_AddRemoveRole(t *testing.T) {
	user := newTestUser(t, "a@b.com")

	if err := user.AddRole(RoleAdmin); err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	if !user.HasRole(RoleAdmin) {
		t.Fatalf("role not added")
	}
	// Idempotent.
	if err := user.AddRole(RoleAdmin); err != nil {
		t.Fatalf("duplicate AddRole should be a no-op: %v", err)
	}
	if len(user.Roles()) != 2 {
		t.Fatalf("duplicate AddRole grew the role set: %v", user.Roles())
	}

	if err := user.RemoveRole(RoleAdmin); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if user.HasRole(RoleAdmin) {
		t.Fatalf("role not removed")
	}
	// Absent role is a no-op.
	if err := user.RemoveRole(RoleAdmin); err != nil {
		t.Fatalf("removing absent role should be a no-op: %v", err)
	}
	// The last role can never be removed.
	if err := user.RemoveRole(RoleUser); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation removing last role, got %v", err)
	}
}

func TestUser_AddRole_RejectsInvalid(t *testing.T) {
	user := newTestUser(t, "a@b.com")
	if err := user.AddRole("root"); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUser_LifecycleMutators(t *testing.T) {
	user := newTestUser(t, "a@b.com")
	before := user.UpdatedAt()

	user.Deactivate()
	if user.IsActive() {
		t.Fatalf("Deactivate did not take effect")
	}
	user.Activate()
	if !user.IsActive() {
		t.Fatalf("Activate did not take effect")
	}
	user.VerifyEmail()
	if !user.EmailVerified() {
		t.Fatalf("VerifyEmail did not take effect")
	}
	if _, ok := user.LastLoginAt(); ok {
		t.Fatalf("last login should be unset before first login")
	}
	user.UpdateLastLogin()
	if _, ok := user.LastLoginAt(); !ok {
		t.Fatalf("UpdateLastLogin did not record a timestamp")
	}
	if user.UpdatedAt().Before(before) {
		t.Fatalf("mutators must advance updatedAt")
	}
}

func TestUser_RecordRoundTrip(t *testing.T) {
	user := newTestUser(t, "a@b.com", RoleAdmin)
	user.VerifyEmail()
	user.UpdateLastLogin()

	back := UserFromRecord(user.Record())
	if back.ID() != user.ID() || back.Email() != user.Email() {
		t.Fatalf("identity lost in round trip")
	}
	if back.Credential().Hash() != user.Credential().Hash() {
		t.Fatalf("credential lost in round trip")
	}
	if !back.EmailVerified() || !back.HasRole(RoleAdmin) {
		t.Fatalf("state lost in round trip")
	}
	if _, ok := back.LastLoginAt(); !ok {
		t.Fatalf("last login lost in round trip")
	}
}

func TestValidateUserCreation(t *testing.T) {
	sysadmin := newTestUser(t, "root@b.com", RoleSystemAdmin)
	admin := newTestUser(t, "admin@b.com", RoleAdmin)
	plain := newTestUser(t, "user@b.com")

	if err := ValidateUserCreation([]Role{RoleAdmin}, sysadmin); err != nil {
		t.Fatalf("system_admin may create admins: %v", err)
	}
	if err := ValidateUserCreation([]Role{RoleUser}, admin); err != nil {
		t.Fatalf("admin may create plain users: %v", err)
	}
	if err := ValidateUserCreation([]Role{RoleAdmin}, admin); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("admin must not create admins, got %v", err)
	}
	if err := ValidateUserCreation([]Role{RoleUser}, plain); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("plain user must not create accounts, got %v", err)
	}
	if err := ValidateUserCreation([]Role{RoleUser}, nil); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("nil creator must be denied, got %v", err)
	}
}

func TestValidateUserHierarchy(t *testing.T) {
	sysadmin := newTestUser(t, "root@b.com", RoleSystemAdmin)
	admin := newTestUser(t, "admin@b.com", RoleAdmin)
	otherAdmin := newTestUser(t, "admin2@b.com", RoleAdmin)
	plain := newTestUser(t, "user@b.com")

	if err := ValidateUserHierarchy(sysadmin, admin); err != nil {
		t.Fatalf("system_admin manages anyone: %v", err)
	}
	if err := ValidateUserHierarchy(admin, plain); err != nil {
		t.Fatalf("admin manages plain users: %v", err)
	}
	if err := ValidateUserHierarchy(admin, otherAdmin); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("admin must not manage a peer admin, got %v", err)
	}
	if err := ValidateUserHierarchy(plain, plain); err != nil {
		t.Fatalf("self-management is allowed: %v", err)
	}
	if err := ValidateUserHierarchy(plain, admin); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("plain user must not manage an admin, got %v", err)
	}
}

func TestValidateStatusTransition(t *testing.T) {
	sysadmin := newTestUser(t, "root@b.com", RoleSystemAdmin)
	plain := newTestUser(t, "user@b.com")

	if err := ValidateStatusTransition(plain, false, sysadmin); err != nil {
		t.Fatalf("system_admin may deactivate a user: %v", err)
	}
	if err := ValidateStatusTransition(sysadmin, false, sysadmin); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("self-deactivation must be refused, got %v", err)
	}
	// Self-activation is fine.
	if err := ValidateStatusTransition(sysadmin, true, sysadmin); err != nil {
		t.Fatalf("self-activation should pass: %v", err)
	}
}

func TestCanManagePassword(t *testing.T) {
	admin := newTestUser(t, "admin@b.com", RoleAdmin)
	otherAdmin := newTestUser(t, "admin2@b.com", RoleAdmin)
	plain := newTestUser(t, "user@b.com")

	if !CanManagePassword(plain, plain) {
		t.Fatalf("self password change must be allowed")
	}
	if !CanManagePassword(admin, plain) {
		t.Fatalf("admin may manage a plain user's password")
	}
	if CanManagePassword(admin, otherAdmin) {
		t.Fatalf("admin must not manage a peer admin's password")
	}
	if CanManagePassword(nil, plain) {
		t.Fatalf("nil manager must be denied")
	}
}
