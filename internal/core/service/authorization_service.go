package service

import (
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// AuthorizationService evaluates the action×resource decision table against
// the actor's role set. It is pure and deterministic: no I/O, no shared
// state, safe for unrestricted concurrent use.
type AuthorizationService struct{}

var _ ports.AuthorizationService = (*AuthorizationService)(nil)

func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

// Authorize is the fail-closed form: anything the table does not explicitly
// allow is denied with ErrInsufficientPermissions.
func (s *AuthorizationService) Authorize(actor *domain.User, action ports.Action, resource ports.Resource, targetUserID string) error {
	if s.allowed(actor, action, resource, targetUserID) {
		return nil
	}
	return domain.ErrInsufficientPermissions
}

// Can is the boolean form built on the same evaluation, for conditional
// branching rather than enforcement.
func (s *AuthorizationService) Can(actor *domain.User, action ports.Action, resource ports.Resource, targetUserID string) bool {
	return s.allowed(actor, action, resource, targetUserID)
}

func (s *AuthorizationService) allowed(actor *domain.User, action ports.Action, resource ports.Resource, targetUserID string) bool {
	if actor == nil {
		return false
	}

	self := targetUserID != "" && targetUserID == actor.ID()

	switch resource {
	case ports.ResourceUser:
		switch action {
		case ports.ActionCreate, ports.ActionManage:
			return actor.IsAdmin()
		case ports.ActionRead:
			return self || actor.IsAdmin()
		case ports.ActionUpdate, ports.ActionDelete:
			// ADMIN passes here; the per-target hierarchy check is the
			// caller's responsibility (it needs the resolved target user).
			return actor.IsAdmin()
		}
	case ports.ResourceProfile:
		switch action {
		case ports.ActionRead, ports.ActionUpdate, ports.ActionDelete:
			return self || actor.IsAdmin()
		}
	case ports.ResourceAudit:
		switch action {
		case ports.ActionRead:
			return actor.IsAdmin()
		case ports.ActionCreate:
			// Any authenticated actor may emit an audit entry.
			return true
		}
	case ports.ResourceSystem:
		return actor.HasRole(domain.RoleSystemAdmin)
	}
	return false
}
