package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

const maxPageSize = 100

// UserService implements administrative user management. Every operation
// passes the authorization table first; mutations additionally run the
// per-target hierarchy predicates, which need the resolved target user.
type UserService struct {
	users  ports.UserRepository
	hasher ports.CredentialHasher
	policy domain.PasswordPolicy
	authz  ports.AuthorizationService
	log    zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(users ports.UserRepository, hasher ports.CredentialHasher, policy domain.PasswordPolicy, authz ports.AuthorizationService, log zerolog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, policy: policy, authz: authz, log: log}
}

// Create provisions an account on behalf of creator. When no password is
// supplied a compliant temporary one is generated and returned exactly once.
func (s *UserService) Create(ctx context.Context, creator *domain.User, input ports.CreateUserInput) (*ports.CreateUserResult, error) {
	if err := s.authz.Authorize(creator, ports.ActionCreate, ports.ResourceUser, ""); err != nil {
		return nil, err
	}
	roles := input.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	if err := domain.ValidateUserCreation(roles, creator); err != nil {
		return nil, err
	}
	for _, r := range roles {
		if !domain.CanAssignRole(r, creator) {
			return nil, domain.ErrInsufficientPermissions
		}
	}

	taken, err := s.users.ExistsByEmail(ctx, input.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	password := input.Password
	generated := ""
	if password == "" {
		password, err = domain.GeneratePassword(16)
		if err != nil {
			return nil, err
		}
		generated = password
	} else if err := s.policy.Enforce(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	cred, err := domain.NewCredential(hash)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(input.Email, cred, roles, input.Profile, creator.ID())
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID()).
		Str("created_by", creator.ID()).
		Msg("user created")

	return &ports.CreateUserResult{User: user, TemporaryPassword: generated}, nil
}

// Get resolves a user the actor is allowed to see.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := s.authz.Authorize(actor, ports.ActionRead, ports.ResourceUser, id); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// List returns a page of users. Admin only.
func (s *UserService) List(ctx context.Context, actor *domain.User, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	if err := s.authz.Authorize(actor, ports.ActionRead, ports.ResourceUser, ""); err != nil {
		return nil, 0, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	return s.users.List(ctx, filter)
}

// UpdateProfile replaces the target's display attributes.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, targetID string, profile domain.Profile) (*domain.User, error) {
	if err := s.authz.Authorize(actor, ports.ActionUpdate, ports.ResourceProfile, targetID); err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateUserHierarchy(actor, target); err != nil {
		return nil, err
	}

	target.UpdateProfile(profile)
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// SetActive flips the target's lifecycle state. Self-deactivation is refused
// regardless of role.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, targetID string, active bool) (*domain.User, error) {
	if err := s.authz.Authorize(actor, ports.ActionManage, ports.ResourceUser, targetID); err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateStatusTransition(target, active, actor); err != nil {
		return nil, err
	}

	if active {
		target.Activate()
	} else {
		target.Deactivate()
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", target.ID()).
		Bool("active", active).
		Str("changed_by", actor.ID()).
		Msg("user status changed")
	return target, nil
}

// AssignRole grants a role to the target.
func (s *UserService) AssignRole(ctx context.Context, actor *domain.User, targetID string, role domain.Role) (*domain.User, error) {
	if err := s.authz.Authorize(actor, ports.ActionManage, ports.ResourceUser, targetID); err != nil {
		return nil, err
	}
	if !domain.CanAssignRole(role, actor) {
		return nil, domain.ErrInsufficientPermissions
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateUserHierarchy(actor, target); err != nil {
		return nil, err
	}
	if err := target.AddRole(role); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// RevokeRole removes a role from the target.
func (s *UserService) RevokeRole(ctx context.Context, actor *domain.User, targetID string, role domain.Role) (*domain.User, error) {
	if err := s.authz.Authorize(actor, ports.ActionManage, ports.ResourceUser, targetID); err != nil {
		return nil, err
	}
	if !domain.CanAssignRole(role, actor) {
		return nil, domain.ErrInsufficientPermissions
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateUserHierarchy(actor, target); err != nil {
		return nil, err
	}
	if err := target.RemoveRole(role); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}
