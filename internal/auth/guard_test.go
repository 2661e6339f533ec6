package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"storefront/internal/errors"
	"storefront/internal/model"
)

func TestRequireAuthenticated(t *testing.T) {
	_, err := RequireAuthenticated(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnauthenticated)

	want := Identity{UserID: uuid.New(), Role: model.RoleCustomer}
	got, err := RequireAuthenticated(WithIdentity(context.Background(), want))
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"anonymous", context.Background(), errors.ErrUnauthenticated},
		{"customer", WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: model.RoleCustomer}), errors.ErrForbidden},
		{"unknown role", WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: model.Role("admin")}), errors.ErrForbidden},
		{"admin", WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: model.RoleAdmin}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireAdmin(tt.ctx)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := uuid.New()
	msg := "Not authorized to view this order"

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"anonymous", context.Background(), errors.ErrUnauthenticated},
		{"owner", WithIdentity(context.Background(), Identity{UserID: owner, Role: model.RoleCustomer}), nil},
		{"admin", WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: model.RoleAdmin}), nil},
		{"stranger", WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: model.RoleCustomer}), errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequireOwnerOrAdmin(tt.ctx, owner, msg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.name == "stranger" {
				assert.EqualError(t, err, msg)
			}
		})
	}
}
