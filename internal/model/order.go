package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the fulfilment status of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a placed customer order. It owns its items.
type Order struct {
	ID              uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	UserID          uuid.UUID       `json:"user_id" gorm:"type:char(36);not null;index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text;not null"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// OrderItem is one line of an order. Price is captured at order time; product details come from a live join.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:char(36);not null;index"`
	ProductID uuid.UUID       `json:"product_id" gorm:"type:char(36);not null;index"`
	Position  int             `json:"position" gorm:"not null;default:0"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// BeforeCreate sets UUID before creating the record.
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
