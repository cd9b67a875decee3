package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile carries optional display attributes of a user.
type Profile struct {
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Credential wraps an already-hashed secret. Its raw content never leaves the
// core: JSON marshalling and String both render it empty.
type Credential struct {
	hash string
}

// NewCredential wraps a hashed secret. The caller is responsible for having
// hashed the plaintext first; an empty hash is rejected.
func NewCredential(hash string) (Credential, error) {
	if hash == "" {
		return Credential{}, ErrMalformedCredential
	}
	return Credential{hash: hash}, nil
}

// Hash exposes the stored hash for verification and persistence.
func (c Credential) Hash() string { return c.hash }

func (c Credential) String() string { return "" }

// MarshalJSON always emits an empty string so a credential can never leak
// through an entity serialisation.
func (c Credential) MarshalJSON() ([]byte, error) { return []byte(`""`), nil }

// User is the identity aggregate root. All fields are private: state changes
// go through named mutators that advance updatedAt, and collection accessors
// return snapshots.
type User struct {
	id            string
	email         string
	credential    Credential
	roles         []Role
	profile       Profile
	emailVerified bool
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
	lastLoginAt   *time.Time
	createdBy     string
}

// NewUser constructs a user with a fresh identifier and creation timestamp.
// The email is normalised to lowercase; an empty role set defaults to
// {RoleUser}. createdBy is the id of the creating account, empty for
// self-registration.
func NewUser(email string, credential Credential, roles []Role, profile Profile, createdBy string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidOperation)
	}
	if credential.hash == "" {
		return nil, ErrMalformedCredential
	}
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, ErrInvalidRole
		}
	}

	now := time.Now().UTC()
	return &User{
		id:         uuid.NewString(),
		email:      email,
		credential: credential,
		roles:      dedupeRoles(roles),
		profile:    profile,
		active:     true,
		createdAt:  now,
		updatedAt:  now,
		createdBy:  createdBy,
	}, nil
}

// UserRecord is the persistence-facing snapshot of a User. Repositories map
// it to their storage schema; the aggregate itself never exposes setters.
type UserRecord struct {
	ID             string
	Email          string
	CredentialHash string
	Roles          []Role
	Profile        Profile
	EmailVerified  bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time
	CreatedBy      string
}

// UserFromRecord rehydrates a previously persisted user. It trusts the
// record's identifier and timestamps but still normalises the role set.
func UserFromRecord(rec UserRecord) *User {
	roles := rec.Roles
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}
	return &User{
		id:            rec.ID,
		email:         strings.ToLower(rec.Email),
		credential:    Credential{hash: rec.CredentialHash},
		roles:         dedupeRoles(roles),
		profile:       rec.Profile,
		emailVerified: rec.EmailVerified,
		active:        rec.Active,
		createdAt:     rec.CreatedAt,
		updatedAt:     rec.UpdatedAt,
		lastLoginAt:   rec.LastLoginAt,
		createdBy:     rec.CreatedBy,
	}
}

// Record returns the persistence snapshot of the aggregate.
func (u *User) Record() UserRecord {
	return UserRecord{
		ID:             u.id,
		Email:          u.email,
		CredentialHash: u.credential.hash,
		Roles:          u.Roles(),
		Profile:        u.profile,
		EmailVerified:  u.emailVerified,
		Active:         u.active,
		CreatedAt:      u.createdAt,
		UpdatedAt:      u.updatedAt,
		LastLoginAt:    u.lastLoginAt,
		CreatedBy:      u.createdBy,
	}
}

func (u *User) ID() string             { return u.id }
func (u *User) Email() string          { return u.email }
func (u *User) Credential() Credential { return u.credential }
func (u *User) Profile() Profile       { return u.profile }
func (u *User) EmailVerified() bool    { return u.emailVerified }
func (u *User) IsActive() bool         { return u.active }
func (u *User) CreatedAt() time.Time   { return u.createdAt }
func (u *User) UpdatedAt() time.Time   { return u.updatedAt }
func (u *User) CreatedBy() string      { return u.createdBy }

// LastLoginAt returns the last login instant, or a zero time and false when
// the user has never logged in.
func (u *User) LastLoginAt() (time.Time, bool) {
	if u.lastLoginAt == nil {
		return time.Time{}, false
	}
	return *u.lastLoginAt, true
}

// Roles returns a snapshot of the role set.
func (u *User) Roles() []Role {
	out := make([]Role, len(u.roles))
	copy(out, u.roles)
	return out
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.roles {
		if r == role {
			return true
		}
	}
	return false
}

// HighestRole returns the dominating role of the user's set.
func (u *User) HighestRole() Role { return HighestRole(u.roles) }

// IsAdmin reports whether the user holds ADMIN or above.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleSystemAdmin)
}

func (u *User) touch() { u.updatedAt = time.Now().UTC() }

// UpdateProfile replaces the display attributes.
func (u *User) UpdateProfile(p Profile) {
	u.profile = p
	u.touch()
}

// UpdateCredential swaps in a new hashed secret.
func (u *User) UpdateCredential(c Credential) error {
	if c.hash == "" {
		return ErrMalformedCredential
	}
	u.credential = c
	u.touch()
	return nil
}

// VerifyEmail marks the address as confirmed.
func (u *User) VerifyEmail() {
	u.emailVerified = true
	u.touch()
}

// Activate re-enables a deactivated account.
func (u *User) Activate() {
	u.active = true
	u.touch()
}

// Deactivate disables the account. Hierarchy and self-lockout rules are
// checked by ValidateStatusTransition before this is called.
func (u *User) Deactivate() {
	u.active = false
	u.touch()
}

// AddRole grants a role. Adding an already-held role leaves the set
// unchanged.
func (u *User) AddRole(role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if !u.HasRole(role) {
		u.roles = append(u.roles, role)
	}
	u.touch()
	return nil
}

// RemoveRole revokes a role. Removing an absent role is a no-op; removing the
// last role is refused because the role set must stay non-empty.
func (u *User) RemoveRole(role Role) error {
	if !u.HasRole(role) {
		return nil
	}
	if len(u.roles) == 1 {
		return fmt.Errorf("%w: cannot remove the last role", ErrInvalidOperation)
	}
	kept := u.roles[:0]
	for _, r := range u.roles {
		if r != role {
			kept = append(kept, r)
		}
	}
	u.roles = kept
	u.touch()
	return nil
}

// UpdateLastLogin records a successful authentication.
func (u *User) UpdateLastLogin() {
	now := time.Now().UTC()
	u.lastLoginAt = &now
	u.touch()
}

func dedupeRoles(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// --- Hierarchy validation predicates ---
//
// All predicates are side-effect-free and must be evaluated before any
// persistence mutation is attempted.

// ValidateUserCreation checks whether creator may create a user with the
// given role set. SYSTEM_ADMIN may create any role set; ADMIN may create only
// plain users; everyone else is denied.
func ValidateUserCreation(roles []Role, creator *User) error {
	if creator == nil {
		return ErrInsufficientPermissions
	}
	if creator.HasRole(RoleSystemAdmin) {
		return nil
	}
	if creator.HasRole(RoleAdmin) {
		for _, r := range roles {
			if r != RoleUser {
				return ErrInsufficientPermissions
			}
		}
		return nil
	}
	return ErrInsufficientPermissions
}

// CanAssignRole reports whether creator may assign role to another account.
func CanAssignRole(role Role, creator *User) bool {
	if creator == nil {
		return false
	}
	if creator.HasRole(RoleSystemAdmin) {
		return true
	}
	return creator.HasRole(RoleAdmin) && role == RoleUser
}

// ValidateUserHierarchy checks whether manager may manage target.
// SYSTEM_ADMIN manages anyone; ADMIN manages anyone below ADMIN; everyone
// may manage themselves.
func ValidateUserHierarchy(manager, target *User) error {
	if manager == nil || target == nil {
		return ErrInsufficientPermissions
	}
	if manager.id == target.id {
		return nil
	}
	if manager.HasRole(RoleSystemAdmin) {
		return nil
	}
	if manager.HasRole(RoleAdmin) && !target.IsAdmin() {
		return nil
	}
	return ErrInsufficientPermissions
}

// ValidateStatusTransition checks whether manager may move target to the
// given active state. Self-deactivation is always refused to prevent
// lockout; everything else follows the hierarchy rules.
func ValidateStatusTransition(target *User, active bool, manager *User) error {
	if manager != nil && target != nil && manager.id == target.id && !active {
		return fmt.Errorf("%w: cannot deactivate own account", ErrInvalidOperation)
	}
	return ValidateUserHierarchy(manager, target)
}

// CanManagePassword reports whether manager may change target's password.
// Self-management is always allowed.
func CanManagePassword(manager, target *User) bool {
	if manager == nil || target == nil {
		return false
	}
	if manager.id == target.id {
		return true
	}
	return ValidateUserHierarchy(manager, target) == nil
}
