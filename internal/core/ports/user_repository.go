package ports

import (
	"context"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// ListUsersFilter carries all query parameters for listing users.
type ListUsersFilter struct {
	Role   domain.Role // optional: filter by held role
	Active *bool       // optional: filter by lifecycle state
	Search string      // optional: partial match on email or profile name
	Page   int         // 1-based
	Limit  int         // max rows per page (capped at 100 by service)
}

// UserRepository defines persistence operations for the user aggregate.
type UserRepository interface {
	// Save persists the aggregate, inserting or replacing by id.
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmail reports whether the email is taken. When excludeID is
	// non-empty, that user is ignored (email-change checks).
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	// List returns a page of users matching filter and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}
