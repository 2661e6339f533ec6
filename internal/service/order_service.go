package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "storefront/internal/errors"
	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const publishTimeout = 5 * time.Second

// ErrOrderNotFound is returned when an order id does not exist.
var ErrOrderNotFound = apperrors.NotFound("Order not found")

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput is a checkout request.
type PlaceOrderInput struct {
	Items           []OrderLine
	ShippingAddress string
}

// OrderService exposes order placement and management.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, in PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)
}

// cacheInvalidator drops cached product reads after stock changes.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

type orderService struct {
	store     repository.Store
	products  cacheInvalidator
	publisher events.Publisher
	log       *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(store repository.Store, products cacheInvalidator, publisher events.Publisher, log *zap.Logger) OrderService {
	return &orderService{
		store:     store,
		products:  products,
		publisher: publisher,
		log:       log.With(zap.String("service", "order")),
	}
}

// PlaceOrder validates the requested lines against current stock, prices them at the current
// product price, and persists the order, its items, and the stock decrements in one transaction.
// Any invalid line rejects the whole order.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, in PlaceOrderInput) (*model.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	var placed *model.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		items := make([]model.OrderItem, 0, len(in.Items))
		names := make(map[uuid.UUID]string, len(in.Items))
		total := decimal.Zero

		for i, line := range in.Items {
			product, err := tx.Products().FindByID(ctx, line.ProductID)
			if err != nil {
				return notFoundOr(err, apperrors.ProductNotFound(line.ProductID), "find product")
			}
			if product.Stock < line.Quantity {
				return apperrors.InsufficientStock(product.ID, product.Name)
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			names[product.ID] = product.Name
			items = append(items, model.OrderItem{
				ProductID: product.ID,
				Position:  i,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
		}

		order := &model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			Total:           total,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			Items:           items,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// The guarded decrement sees earlier lines of this order, so duplicate
		// lines and concurrent orders cannot push stock below zero.
		for _, item := range items {
			ok, err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return apperrors.InsufficientStock(item.ProductID, names[item.ProductID])
			}
		}

		loaded, err := tx.Orders().FindByID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		placed = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPlaced(ctx, placed)
	return placed, nil
}

// afterPlaced runs post-commit side effects. Failures are logged only.
func (s *orderService) afterPlaced(ctx context.Context, order *model.Order) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	s.products.Invalidate(ctx, ids...)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(pubCtx, events.NewOrderPlacedEvent(order)); err != nil {
		s.log.Warn("publish order placed failed", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	s.log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrOrderNotFound, "find order")
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	orders, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus sets any of the five statuses. No transition graph is enforced.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid order status %q", status))
	}

	if _, err := s.store.Orders().FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, ErrOrderNotFound, "find order")
	}
	if err := s.store.Orders().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	s.log.Info("order status updated", zap.String("order_id", id.String()), zap.String("status", string(status)))
	return order, nil
}

func validateOrderInput(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return apperrors.Validation("order must contain at least one item")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return apperrors.Validation("shipping address is required")
	}
	for _, line := range in.Items {
		if line.ProductID == uuid.Nil {
			return apperrors.Validation("product id is required")
		}
		if line.Quantity <= 0 {
			return apperrors.Validation("quantity must be greater than 0")
		}
	}
	return nil
}
