package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

func TestRun_IsIdempotent(t *testing.T) {
	gormDB := testutil.NewDB(t)
	store := repository.NewStore(gormDB)
	ctx := context.Background()

	first, err := Run(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{ProductsCreated: 10, UsersCreated: 2}, first)

	second, err := Run(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{ProductsUpdated: 10, UsersUpdated: 2}, second)

	all, err := store.Products().List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 10)

	admin, err := store.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, auth.VerifyPassword(DefaultPassword, admin.PasswordHash))

	customer, err := store.Users().FindByEmail(ctx, "customer@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, customer.Role)
}

func TestRun_RestoresStock(t *testing.T) {
	gormDB := testutil.NewDB(t)
	store := repository.NewStore(gormDB)
	ctx := context.Background()

	_, err := Run(ctx, store, zap.NewNop())
	require.NoError(t, err)

	matches, err := store.Products().List(ctx, repository.ProductFilter{Search: "Wireless Earbuds"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	ok, err := store.Products().DecrementStock(ctx, matches[0].ID, 80)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Run(ctx, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 80, testutil.Stock(t, gormDB, matches[0].ID))
}
