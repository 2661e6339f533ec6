package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/model"
)

// OrderRepository defines order persistence operations. Items are written and read through their order.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *uuid.UUID
	Status *model.OrderStatus
	Page
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts an order together with its items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with items, products, and owner.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := withOrderDetails(r.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List lists orders newest first with items, products, and owners joined.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	q := filter.where(withOrderDetails(r.db.WithContext(ctx))).Order("created_at DESC")
	if err := filter.apply(q).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching filter, ignoring paging.
func (r *orderRepository) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	var n int64
	err := filter.where(r.db.WithContext(ctx).Model(&model.Order{})).Count(&n).Error
	return n, err
}

// UpdateStatus sets the status column only.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// DeleteByUserID removes every order owned by userID, items first.
func (r *orderRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	owned := r.db.Model(&model.Order{}).Select("id").Where("user_id = ?", userID)
	if err := r.db.WithContext(ctx).Where("order_id IN (?)", owned).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Order{}).Error
}

func (f OrderFilter) where(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

func withOrderDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", orderedItems).
		Preload("Items.Product", withDeletedProducts).
		Preload("User")
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Historical items still show products that were deleted later.
func withDeletedProducts(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
