package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/service"
)

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	authService service.AuthService
	limiter     *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. limiter may be nil.
func NewAuthHandler(authService service.AuthService, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

// SignupRequest represents a customer registration.
type SignupRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// LoginRequest represents a login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Operations implements OperationProvider.
func (h *AuthHandler) Operations() map[string]Operation {
	return map[string]Operation{
		"signup": h.signup,
		"login":  h.login,
		"logout": h.logout,
	}
}

func (h *AuthHandler) signup(c echo.Context, vars json.RawMessage) (interface{}, error) {
	if err := h.limiter.Check(c, "signup"); err != nil {
		return nil, err
	}

	var req SignupRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	return h.authService.Signup(c.Request().Context(), service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
}

func (h *AuthHandler) login(c echo.Context, vars json.RawMessage) (interface{}, error) {
	if err := h.limiter.Check(c, "login"); err != nil {
		return nil, err
	}

	var req LoginRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	return h.authService.Login(c.Request().Context(), req.Email, req.Password)
}

func (h *AuthHandler) logout(c echo.Context, _ json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	id, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.authService.Logout(ctx, id); err != nil {
		return nil, err
	}
	return true, nil
}
