package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// ProductHandler serves the catalogue and its administration.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListProductsRequest filters the public catalogue.
type ListProductsRequest struct {
	Search  string `json:"search" validate:"max=100"`
	InStock bool   `json:"in_stock"`
	Limit   int    `json:"limit" validate:"gte=0,lte=100"`
	Offset  int    `json:"offset" validate:"gte=0"`
}

// ProductIDRequest addresses one product.
type ProductIDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// CreateProductRequest carries a new product.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required" swaggertype:"string"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductRequest is a partial product update.
type UpdateProductRequest struct {
	ID          string           `json:"id" validate:"required,uuid"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
}

// Operations implements OperationProvider.
func (h *ProductHandler) Operations() map[string]Operation {
	return map[string]Operation{
		"products":      h.products,
		"product":       h.product,
		"createProduct": h.createProduct,
		"updateProduct": h.updateProduct,
		"deleteProduct": h.deleteProduct,
	}
}

func (h *ProductHandler) products(c echo.Context, vars json.RawMessage) (interface{}, error) {
	var req ListProductsRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	return h.productService.ListProducts(c.Request().Context(), repository.ProductFilter{
		Search:  req.Search,
		InStock: req.InStock,
		Page:    repository.Page{Limit: req.Limit, Offset: req.Offset},
	})
}

func (h *ProductHandler) product(c echo.Context, vars json.RawMessage) (interface{}, error) {
	var req ProductIDRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	return h.productService.GetProduct(c.Request().Context(), id)
}

func (h *ProductHandler) createProduct(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req CreateProductRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}

	return h.productService.CreateProduct(ctx, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		ImageURL:    req.ImageURL,
	})
}

func (h *ProductHandler) updateProduct(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req UpdateProductRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	return h.productService.UpdateProduct(ctx, id, service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
}

func (h *ProductHandler) deleteProduct(c echo.Context, vars json.RawMessage) (interface{}, error) {
	ctx := c.Request().Context()
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var req ProductIDRequest
	if err := decode(c, vars, &req); err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		return nil, err
	}
	return true, nil
}
