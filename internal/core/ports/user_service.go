package ports

import (
	"context"

	"github.com/identitykit/identity-core/internal/core/domain"
)

// CreateUserInput carries administrative user-creation data.
type CreateUserInput struct {
	Email    string
	Password string // empty = generate a compliant temporary password
	Roles    []domain.Role
	Profile  domain.Profile
}

// CreateUserResult returns the created aggregate plus the generated temporary
// password, when one was produced. The plaintext is surfaced exactly once and
// never persisted or logged.
type CreateUserResult struct {
	User              *domain.User
	TemporaryPassword string
}

// UserService implements administrative user management under the hierarchy
// rules: every operation validates the acting user against the target before
// any persistence mutation.
type UserService interface {
	Create(ctx context.Context, creator *domain.User, input CreateUserInput) (*CreateUserResult, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	List(ctx context.Context, actor *domain.User, filter ListUsersFilter) ([]*domain.User, int64, error)
	UpdateProfile(ctx context.Context, actor *domain.User, targetID string, profile domain.Profile) (*domain.User, error)
	SetActive(ctx context.Context, actor *domain.User, targetID string, active bool) (*domain.User, error)
	AssignRole(ctx context.Context, actor *domain.User, targetID string, role domain.Role) (*domain.User, error)
	RevokeRole(ctx context.Context, actor *domain.User, targetID string, role domain.Role) (*domain.User, error)
}
