package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderPlaced(ctx context.Context, event events.OrderPlacedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type orderFixture struct {
	db        *gorm.DB
	service   OrderService
	publisher *MockPublisher
	customer  *model.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	gormDB := testutil.NewDB(t)
	store := repository.NewStore(gormDB)
	publisher := new(MockPublisher)
	products := NewProductService(store.Products(), nil, zap.NewNop())

	return &orderFixture{
		db:        gormDB,
		service:   NewOrderService(store, products, publisher, zap.NewNop()),
		publisher: publisher,
		customer:  testutil.CreateUser(t, gormDB, "customer@example.com", model.RoleCustomer),
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := newOrderFixture(t)
	camera := testutil.CreateProduct(t, f.db, "Camera", "1299.99", 5)

	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.MatchedBy(func(ev events.OrderPlacedEvent) bool {
		return ev.UserID == f.customer.ID.String() && ev.ItemCount == 3
	})).Return(nil).Once()

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: camera.ID, Quantity: 3}},
		ShippingAddress: "1 Market St",
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, f.customer.ID, order.UserID)
	assert.Equal(t, "1 Market St", order.ShippingAddress)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("3899.97")), "total was %s", order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, order.Items[0].Price.Equal(camera.Price))
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Camera", order.Items[0].Product.Name)

	assert.Equal(t, 2, testutil.Stock(t, f.db, camera.ID))
	orders, items := testutil.CountOrders(t, f.db)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(1), items)

	f.publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrderRejectsWholeOrder(t *testing.T) {
	tests := []struct {
		name    string
		lines   func(a, b *model.Product) []OrderLine
		wantErr error
	}{
		{
			name: "second line exceeds stock",
			lines: func(a, b *model.Product) []OrderLine {
				return []OrderLine{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 3}}
			},
			wantErr: apperrors.ErrInsufficientStock,
		},
		{
			name: "unknown product",
			lines: func(a, _ *model.Product) []OrderLine {
				return []OrderLine{{ProductID: a.ID, Quantity: 1}, {ProductID: uuid.New(), Quantity: 1}}
			},
			wantErr: apperrors.ErrProductNotFound,
		},
		{
			name: "duplicate lines together exceed stock",
			lines: func(_, b *model.Product) []OrderLine {
				return []OrderLine{{ProductID: b.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}}
			},
			wantErr: apperrors.ErrInsufficientStock,
		},
		{
			name: "zero quantity",
			lines: func(a, _ *model.Product) []OrderLine {
				return []OrderLine{{ProductID: a.ID, Quantity: 0}}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "empty cart",
			lines:   func(_, _ *model.Product) []OrderLine { return nil },
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			a := testutil.CreateProduct(t, f.db, "Lamp", "20.00", 10)
			b := testutil.CreateProduct(t, f.db, "Desk", "150.00", 2)

			order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, PlaceOrderInput{
				Items:           tt.lines(a, b),
				ShippingAddress: "1 Market St",
			})

			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 10, testutil.Stock(t, f.db, a.ID))
			assert.Equal(t, 2, testutil.Stock(t, f.db, b.ID))
			orders, items := testutil.CountOrders(t, f.db)
			assert.Zero(t, orders)
			assert.Zero(t, items)
			f.publisher.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_PlaceOrderInsufficientStockNamesProduct(t *testing.T) {
	f := newOrderFixture(t)
	desk := testutil.CreateProduct(t, f.db, "Standing Desk", "450.00", 1)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: desk.ID, Quantity: 2}},
		ShippingAddress: "1 Market St",
	})

	assert.EqualError(t, err, "Insufficient stock for product: Standing Desk")
	var de *apperrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, desk.ID, de.ProductID)
}

func TestOrderService_PlaceOrderRequiresShippingAddress(t *testing.T) {
	f := newOrderFixture(t)
	lamp := testutil.CreateProduct(t, f.db, "Lamp", "20.00", 10)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: lamp.ID, Quantity: 1}},
		ShippingAddress: "   ",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 10, testutil.Stock(t, f.db, lamp.ID))
}

// The in-memory database allows one connection, so these transactions run one
// after the other. TestOrderService_DecrementRejectsStaleRead covers the case
// where stock changes after the availability check.
func TestOrderService_ConcurrentOrdersForLastStock(t *testing.T) {
	f := newOrderFixture(t)
	other := testutil.CreateUser(t, f.db, "other@example.com", model.RoleCustomer)
	earbuds := testutil.CreateProduct(t, f.db, "Wireless Earbuds", "159.99", 4)
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil)

	var (
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	var g errgroup.Group
	for _, buyer := range []uuid.UUID{f.customer.ID, other.ID} {
		g.Go(func() error {
			_, err := f.service.PlaceOrder(context.Background(), buyer, PlaceOrderInput{
				Items:           []OrderLine{{ProductID: earbuds.ID, Quantity: 4}},
				ShippingAddress: "1 Market St",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
			} else {
				succeeded++
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], apperrors.ErrInsufficientStock)
	assert.Equal(t, 0, testutil.Stock(t, f.db, earbuds.ID))
	f.publisher.AssertNumberOfCalls(t, "PublishOrderPlaced", 1)
}

func TestOrderService_DecrementRejectsStaleRead(t *testing.T) {
	f := newOrderFixture(t)
	earbuds := testutil.CreateProduct(t, f.db, "Wireless Earbuds", "159.99", 4)
	ctx := context.Background()

	// Stock drops to zero after the availability check has seen 4 units.
	testutil.AfterFirstRead(t, f.db, "products", func(tx *gorm.DB) {
		ok, err := repository.NewProductRepository(tx).DecrementStock(ctx, earbuds.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
	})

	order, err := f.service.PlaceOrder(ctx, f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: earbuds.ID, Quantity: 4}},
		ShippingAddress: "1 Market St",
	})

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	orders, items := testutil.CountOrders(t, f.db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.GreaterOrEqual(t, testutil.Stock(t, f.db, earbuds.ID), 0)
	f.publisher.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	lamp := testutil.CreateProduct(t, f.db, "Lamp", "20.00", 10)
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(assert.AnError)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: lamp.ID, Quantity: 1}},
		ShippingAddress: "1 Market St",
	})

	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 9, testutil.Stock(t, f.db, lamp.ID))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	lamp := testutil.CreateProduct(t, f.db, "Lamp", "20.00", 10)
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	placed, err := f.service.PlaceOrder(ctx, f.customer.ID, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: lamp.ID, Quantity: 2}},
		ShippingAddress: "1 Market St",
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateStatus(ctx, placed.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
	assert.True(t, updated.Total.Equal(placed.Total))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, placed.Items[0].ID, updated.Items[0].ID)
	assert.Equal(t, 2, updated.Items[0].Quantity)
	assert.Equal(t, 8, testutil.Stock(t, f.db, lamp.ID))

	_, err = f.service.UpdateStatus(ctx, placed.ID, model.OrderStatus("LOST"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.UpdateStatus(ctx, uuid.New(), model.OrderStatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_ListOrdersNewestFirstPerUser(t *testing.T) {
	f := newOrderFixture(t)
	other := testutil.CreateUser(t, f.db, "other@example.com", model.RoleCustomer)
	lamp := testutil.CreateProduct(t, f.db, "Lamp", "20.00", 10)
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	for _, buyer := range []uuid.UUID{f.customer.ID, other.ID, f.customer.ID} {
		_, err := f.service.PlaceOrder(ctx, buyer, PlaceOrderInput{
			Items:           []OrderLine{{ProductID: lamp.ID, Quantity: 1}},
			ShippingAddress: "1 Market St",
		})
		require.NoError(t, err)
	}

	mine, err := f.service.ListOrders(ctx, repository.OrderFilter{UserID: &f.customer.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, f.customer.ID, o.UserID)
	}
	assert.False(t, mine[0].CreatedAt.Before(mine[1].CreatedAt))

	all, err := f.service.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, o := range all {
		assert.NotNil(t, o.User)
	}
}
