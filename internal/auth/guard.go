package auth

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/errors"
)

// RequireAuthenticated returns the caller identity or ErrUnauthenticated for anonymous requests.
func RequireAuthenticated(ctx context.Context) (Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, errors.ErrUnauthenticated
	}
	return id, nil
}

// RequireAdmin fails with ErrForbidden unless the caller is an admin.
// Anonymous callers get ErrUnauthenticated.
func RequireAdmin(ctx context.Context) error {
	id, err := RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !id.IsAdmin() {
		return errors.ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin allows the action when the caller owns the resource or is an admin.
// msg is the Forbidden message returned otherwise.
func RequireOwnerOrAdmin(ctx context.Context, ownerID uuid.UUID, msg string) (Identity, error) {
	id, err := RequireAuthenticated(ctx)
	if err != nil {
		return Identity{}, err
	}
	if id.UserID != ownerID && !id.IsAdmin() {
		return Identity{}, errors.Forbidden(msg)
	}
	return id, nil
}
