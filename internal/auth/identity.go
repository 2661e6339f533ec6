package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/model"
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID    uuid.UUID
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached to ctx, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
