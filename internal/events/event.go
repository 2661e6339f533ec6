// Package events publishes and consumes order lifecycle events over RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// OrderPlacedQueue is the durable queue carrying OrderPlacedEvent messages.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published after an order commits.
type OrderPlacedEvent struct {
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
	Items     []OrderPlacedItem `json:"items"`
	PlacedAt  time.Time         `json:"placed_at"`
}

// OrderPlacedItem is one line of a placed order.
type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NewOrderPlacedEvent builds the event payload for order.
func NewOrderPlacedEvent(order *model.Order) OrderPlacedEvent {
	ev := OrderPlacedEvent{
		OrderID:  order.ID.String(),
		UserID:   order.UserID.String(),
		Total:    order.Total,
		Items:    make([]OrderPlacedItem, 0, len(order.Items)),
		PlacedAt: order.CreatedAt.UTC(),
	}
	for _, item := range order.Items {
		ev.ItemCount += item.Quantity
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return ev
}

// Publisher delivers order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}

// NopPublisher drops every event. Used when messaging is disabled.
type NopPublisher struct{}

// PublishOrderPlaced implements Publisher.
func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlacedEvent) error { return nil }
