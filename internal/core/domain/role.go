package domain

// Role is the closed set of privilege levels an actor can hold.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleSystemAdmin Role = "system_admin"
)

// roleRank defines the total order among roles. Higher rank dominates lower.
var roleRank = map[Role]int{
	RoleUser:        0,
	RoleAdmin:       1,
	RoleSystemAdmin: 2,
}

// rolePermissions maps each role to the permissions it grants.
// SYSTEM_ADMIN holds the wildcard on every resource; ADMIN holds full CRUD on
// users and profiles plus audit read; USER is limited to its own profile.
var rolePermissions = map[Role][]string{
	RoleSystemAdmin: {"user:*", "profile:*", "audit:*", "system:*"},
	RoleAdmin: {
		"user:create", "user:read", "user:update", "user:delete",
		"profile:create", "profile:read", "profile:update", "profile:delete",
		"audit:read",
	},
	RoleUser: {"profile:read:own", "profile:update:own", "profile:delete:own"},
}

// ParseRole converts a raw string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsHigherThan reports whether r strictly dominates other in the hierarchy.
func (r Role) IsHigherThan(other Role) bool {
	return roleRank[r] > roleRank[other]
}

// IsLowerThan reports whether r is strictly dominated by other.
func (r Role) IsLowerThan(other Role) bool {
	return roleRank[r] < roleRank[other]
}

// CanManage reports whether an actor holding r may manage an actor holding
// target. SYSTEM_ADMIN manages everyone; ADMIN manages only USER; USER
// manages no one. Self-management is decided at the User level, not here.
func (r Role) CanManage(target Role) bool {
	switch r {
	case RoleSystemAdmin:
		return true
	case RoleAdmin:
		return target == RoleUser
	default:
		return false
	}
}

// Permissions returns the permission strings granted by r. The returned slice
// is a copy; callers may not mutate the underlying table.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HighestRole returns the dominating role of a non-empty set. An empty set
// degrades to RoleUser, matching the aggregate's never-empty invariant.
func HighestRole(roles []Role) Role {
	highest := RoleUser
	for _, r := range roles {
		if r.IsHigherThan(highest) {
			highest = r
		}
	}
	return highest
}
