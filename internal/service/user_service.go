package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// ErrUserNotFound is returned when a user id does not exist.
var ErrUserNotFound = apperrors.NotFound("User not found")

// UpdateUserInput is a partial profile update. Nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

// UserService exposes user management operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	store repository.Store
	log   *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(store repository.Store, log *zap.Logger) UserService {
	return &userService{store: store, log: log.With(zap.String("service", "user"))}
}

// GetUser returns a user with their orders, newest first.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.store.Users().FindByIDWithOrders(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	users, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "find user")
	}

	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return nil, apperrors.Validation("first name must not be empty")
		}
		user.FirstName = name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if name == "" {
			return nil, apperrors.Validation("last name must not be empty")
		}
		user.LastName = name
	}
	if in.Phone != nil {
		user.Phone = in.Phone
	}
	if in.Address != nil {
		user.Address = in.Address
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user together with their orders and order items.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Orders().DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("delete orders: %w", err)
		}
		if err := tx.Users().Delete(ctx, id); err != nil {
			return notFoundOr(err, ErrUserNotFound, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

// notFoundOr maps gorm.ErrRecordNotFound to notFound and wraps anything else.
func notFoundOr(err, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
