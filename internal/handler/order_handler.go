package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// OrderHandler serves checkout, order history and order administration.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest is one cart line.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// CreateOrderRequest is a checkout.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
}

// ListOrdersRequest filters the admin order listing.
type ListOrdersRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	UserID *string `json:"user_id" validate:"omitempty,uuid"`
	Limit  int     `json:"limit" validate:"gte=0,lte=100"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// OrderIDRequest addresses one order.
type OrderIDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// UpdateOrderStatusRequest sets an order's status.
type UpdateOrderStatusRequest struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// Operations implements OperationProvider.
func (h *OrderHandler) Operations() map[string]Operation {
	return map[string]Operation{
		"createOrder":       h.createOrder,
		"orders":            h.orders,
		"order":             h.order,
		"myOrders":          h.myOrders,
		"updateOrderStatus": h.updateOrderStatus,
	}
}

func (h *OrderHandler) createOrder(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	id, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	var req CreateOrderRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := parseID("product_id", item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, service.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}

	return h.orderService.PlaceOrder(ctx, id.UserID, service.PlaceOrderInput{
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
	})
}

func (h *OrderHandler) orders(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req ListOrdersRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	filter := repository.OrderFilter{Page: repository.Page{Limit: req.Limit, Offset: req.Offset}}
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		filter.Status = &status
	}
	if req.UserID != nil {
		userID, err := parseID("user_id", *req.UserID)
		if err != nil {
			return nil, err
		}
		filter.UserID = &userID
	}
	return h.orderService.ListOrders(ctx, filter)
}

func (h *OrderHandler) order(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if _, err := auth.RequireAuthenticated(ctx); err != nil {
		return nil, err
	}

	var req OrderIDRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	order, err := h.orderService.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := auth.RequireOwnerOrAdmin(ctx, order.UserID, "Not authorized to view this order"); err != nil {
		return nil, err
	}
	return order, nil
}

func (h *OrderHandler) myOrders(c echo.Context, _ json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	id, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	return h.orderService.ListOrders(ctx, repository.OrderFilter{UserID: &id.UserID})
}

func (h *OrderHandler) updateOrderStatus(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req UpdateOrderStatusRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	return h.orderService.UpdateStatus(ctx, id, model.OrderStatus(req.Status))
}
