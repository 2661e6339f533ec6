package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	productCacheTTL   = 5 * time.Minute
	catalogueCacheKey = "products:all"
)

// maxPrice is the first value that does not fit decimal(10,2).
var maxPrice = decimal.New(1, 8)

// ErrProductMissing is returned by product reads and admin writes for unknown ids.
var ErrProductMissing = apperrors.NotFound("Product not found")

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
}

// ProductUpdate is a partial product update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
}

// ProductService exposes catalogue operations.
type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// Invalidate drops cached reads for ids and the catalogue listing.
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

type productService struct {
	repo  repository.ProductRepository
	cache *cache.Client
	log   *zap.Logger
}

// NewProductService builds a ProductService with repository and cache.
func NewProductService(repo repository.ProductRepository, cache *cache.Client, log *zap.Logger) ProductService {
	return &productService{repo: repo, cache: cache, log: log.With(zap.String("service", "product"))}
}

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

// ListProducts serves the unfiltered catalogue from cache when possible.
func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	cacheable := filter.IsZero()
	if cacheable {
		var cached []model.Product
		if s.cache.GetJSON(ctx, catalogueCacheKey, &cached) {
			return cached, nil
		}
	}

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if cacheable {
		_ = s.cache.SetJSON(ctx, catalogueCacheKey, products, productCacheTTL)
	}
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var cached model.Product
	if s.cache.GetJSON(ctx, productCacheKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProductMissing, "find product")
	}

	_ = s.cache.SetJSON(ctx, productCacheKey(id), product, productCacheTTL)
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.Invalidate(ctx)

	s.log.Info("product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

// UpdateProduct writes only the fields present in in. Stock moves only when the caller sets it,
// so a concurrent order's decrement is never overwritten.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductUpdate) (*model.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProductMissing, "find product")
	}

	changes := repository.ProductChanges{
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		changes.Name = &name
	}

	merged := *current
	if changes.Name != nil {
		merged.Name = *changes.Name
	}
	if changes.Price != nil {
		merged.Price = *changes.Price
	}
	if changes.Stock != nil {
		merged.Stock = *changes.Stock
	}
	if err := validateProduct(&merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, notFoundOr(err, ErrProductMissing, "update product")
	}
	s.Invalidate(ctx, id)

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrProductMissing, "reload product")
	}
	return product, nil
}

// DeleteProduct soft-deletes a product. Historical order items keep showing it.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrProductMissing, "delete product")
	}
	s.Invalidate(ctx, id)

	s.log.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *productService) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, catalogueCacheKey)
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	_ = s.cache.Delete(ctx, keys...)
}

func validateProduct(p *model.Product) error {
	switch {
	case p.Name == "":
		return apperrors.Validation("name is required")
	case p.Price.IsNegative():
		return apperrors.Validation("price must not be negative")
	case !p.Price.Equal(p.Price.Round(2)):
		return apperrors.Validation("price must have at most 2 decimal places")
	case p.Price.GreaterThanOrEqual(maxPrice):
		return apperrors.Validation("price must be less than 100000000")
	case p.Stock < 0:
		return apperrors.Validation("stock must not be negative")
	}
	return nil
}
