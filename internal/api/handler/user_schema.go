package handler

import "time"

type createUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	// Password is optional; when absent a compliant temporary password is
	// generated and returned exactly once in the response.
	Password    string     `json:"password"`
	Roles       []string   `json:"roles" validate:"required,min=1"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	AvatarURL   string     `json:"avatar_url"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type updateProfileRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	AvatarURL   string     `json:"avatar_url"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type setStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Roles         []string   `json:"roles"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
}

type createUserResponse struct {
	User *userResponse `json:"user"`
	// TemporaryPassword is only present when the server generated one.
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

type userListResponse struct {
	Users []*userResponse `json:"users"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
