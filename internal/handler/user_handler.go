package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// UserHandler serves profile and user administration operations.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsersRequest filters the admin user listing.
type ListUsersRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=ADMIN CUSTOMER"`
	Limit  int     `json:"limit" validate:"gte=0,lte=100"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// UserIDRequest addresses one user.
type UserIDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// UpdateUserRequest is a partial profile update.
type UpdateUserRequest struct {
	ID        string  `json:"id" validate:"required,uuid"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// Operations implements OperationProvider.
func (h *UserHandler) Operations() map[string]Operation {
	return map[string]Operation{
		"me":         h.me,
		"users":      h.users,
		"user":       h.user,
		"updateUser": h.updateUser,
		"deleteUser": h.deleteUser,
	}
}

func (h *UserHandler) me(c echo.Context, _ json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	id, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	return h.userService.GetUser(ctx, id.UserID)
}

func (h *UserHandler) users(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req ListUsersRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	filter := repository.UserFilter{Page: repository.Page{Limit: req.Limit, Offset: req.Offset}}
	if req.Role != nil {
		role := model.Role(*req.Role)
		filter.Role = &role
	}
	return h.userService.ListUsers(ctx, filter)
}

func (h *UserHandler) user(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req UserIDRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	return h.userService.GetUser(ctx, id)
}

func (h *UserHandler) updateUser(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if _, err := auth.RequireAuthenticated(ctx); err != nil {
		return nil, err
	}

	var req UpdateUserRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if _, err := auth.RequireOwnerOrAdmin(ctx, id, "Not authorized to update this user"); err != nil {
		return nil, err
	}

	return h.userService.UpdateUser(ctx, id, service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
}

func (h *UserHandler) deleteUser(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req UserIDRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.userService.DeleteUser(ctx, id); err != nil {
		return nil, err
	}
	return true, nil
}
