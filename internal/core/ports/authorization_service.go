package ports

import "github.com/identitykit/identity-core/internal/core/domain"

// Action is a permission verb evaluated against a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Resource is a protected resource kind.
type Resource string

const (
	ResourceUser    Resource = "user"
	ResourceProfile Resource = "profile"
	ResourceAudit   Resource = "audit"
	ResourceSystem  Resource = "system"
)

// AuthorizationService decides whether an authenticated actor may perform an
// action on a resource. Authorize is the fail-closed policy-enforcement form;
// Can is the boolean form built on the same evaluation.
type AuthorizationService interface {
	// Authorize returns domain.ErrInsufficientPermissions when denied.
	// targetUserID scopes self-or-admin decisions; empty means "not
	// target-specific".
	Authorize(actor *domain.User, action Action, resource Resource, targetUserID string) error
	Can(actor *domain.User, action Action, resource Resource, targetUserID string) bool
}
