// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/db"
	"storefront/internal/model"
)

// NewDB opens a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.Open(db.Options{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// CreateUser inserts a user with password "password123".
func CreateUser(t testing.TB, gormDB *gorm.DB, email string, role model.Role) *model.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	require.NoError(t, gormDB.WithContext(context.Background()).Create(user).Error)
	return user
}

// CreateProduct inserts a product with the given price and stock.
func CreateProduct(t testing.TB, gormDB *gorm.DB, name, price string, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		ImageURL:    "https://picsum.photos/seed/" + name + "/400/300",
	}
	require.NoError(t, gormDB.WithContext(context.Background()).Create(product).Error)
	return product
}

// Stock reads the current stock of a product, including soft-deleted ones.
func Stock(t testing.TB, gormDB *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var product model.Product
	require.NoError(t, gormDB.Unscoped().Where("id = ?", id).First(&product).Error)
	return product.Stock
}

// CountOrders counts all orders and order items.
func CountOrders(t testing.TB, gormDB *gorm.DB) (orders, items int64) {
	t.Helper()

	require.NoError(t, gormDB.Model(&model.Order{}).Count(&orders).Error)
	require.NoError(t, gormDB.Model(&model.OrderItem{}).Count(&items).Error)
	return orders, items
}

// AfterFirstRead runs fn once, right after the first SELECT against table
// completes. fn receives the statement's handle so it can act inside the
// same transaction as the read.
func AfterFirstRead(t testing.TB, gormDB *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()

	var fired atomic.Bool
	name := "testutil:after_read:" + uuid.NewString()
	err := gormDB.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Schema == nil || tx.Statement.Schema.Table != table {
			return
		}
		if fired.CompareAndSwap(false, true) {
			fn(tx.Session(&gorm.Session{NewDB: true}))
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = gormDB.Callback().Query().Remove(name)
	})
}
