package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/identitykit/identity-core/internal/api/metrics"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
	users       ports.UserRepository
}

func NewUserHandler(userService ports.UserService, users ports.UserRepository) *UserHandler {
	return &UserHandler{userService: userService, users: users}
}

// Create provisions a user account on behalf of an administrator.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user details"
// @Success      201   {object}  createUserResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/users [post]
// @Security     BearerAuth
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	roles, err := parseRoles(req.Roles)
	if err != nil {
		return err
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	result, err := h.userService.Create(c.Request().Context(), actor, ports.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Roles:    roles,
		Profile: domain.Profile{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Phone:       req.Phone,
			AvatarURL:   req.AvatarURL,
			DateOfBirth: req.DateOfBirth,
		},
	})
	if err != nil {
		return err
	}
	metrics.UsersCreatedTotal.WithLabelValues(string(result.User.HighestRole())).Inc()

	return c.JSON(http.StatusCreated, createUserResponse{
		User:              toUserResponse(result.User),
		TemporaryPassword: result.TemporaryPassword,
	})
}

// Get returns a single user. Non-admin callers can only read themselves.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [get]
// @Security     BearerAuth
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns a page of users matching the query filters.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        role    query     string  false  "Filter by held role"
// @Param        active  query     bool    false  "Filter by lifecycle state"
// @Param        search  query     string  false  "Partial match on email or name"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Rows per page (max 100)"
// @Success      200     {object}  userListResponse
// @Failure      403     {object}  map[string]string
// @Router       /v1/users [get]
// @Security     BearerAuth
func (h *UserHandler) List(c echo.Context) error {
	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}

	users, total, err := h.userService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserListResponse(users, total, filter.Page, filter.Limit))
}

// UpdateProfile replaces the target user's profile attributes.
//
// @Summary      Update a user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "User id"
// @Param        body  body      updateProfileRequest  true  "Profile attributes"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/users/{id}/profile [put]
// @Security     BearerAuth
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, c.Param("id"), domain.Profile{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		AvatarURL:   req.AvatarURL,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// SetStatus activates or deactivates the target account.
//
// @Summary      Set a user's active status
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "User id"
// @Param        body  body      setStatusRequest  true  "Desired status"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/users/{id}/status [put]
// @Security     BearerAuth
func (h *UserHandler) SetStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	user, err := h.userService.SetActive(c.Request().Context(), actor, c.Param("id"), *req.Active)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// AssignRole grants a role to the target user.
//
// @Summary      Assign a role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      assignRoleRequest  true  "Role to grant"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/users/{id}/roles [post]
// @Security     BearerAuth
func (h *UserHandler) AssignRole(c echo.Context) error {
	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	user, err := h.userService.AssignRole(c.Request().Context(), actor, c.Param("id"), role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// RevokeRole removes a role from the target user.
//
// @Summary      Revoke a role
// @Tags         users
// @Produce      json
// @Param        id    path      string  true  "User id"
// @Param        role  path      string  true  "Role to remove"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/users/{id}/roles/{role} [delete]
// @Security     BearerAuth
func (h *UserHandler) RevokeRole(c echo.Context) error {
	role, err := domain.ParseRole(c.Param("role"))
	if err != nil {
		return err
	}

	actor, err := resolveActor(c, h.users)
	if err != nil {
		return err
	}

	user, err := h.userService.RevokeRole(c.Request().Context(), actor, c.Param("id"), role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

func parseRoles(names []string) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(names))
	for _, name := range names {
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func parseListFilter(c echo.Context) (ports.ListUsersFilter, error) {
	filter := ports.ListUsersFilter{
		Search: c.QueryParam("search"),
		Page:   1,
		Limit:  20,
	}

	if raw := c.QueryParam("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return filter, err
		}
		filter.Role = role
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "active must be a boolean")
		}
		filter.Active = &active
	}
	if raw := c.QueryParam("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	return filter, nil
}
