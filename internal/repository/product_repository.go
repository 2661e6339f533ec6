package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/model"
)

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	// Update writes only the columns set in changes. A missing or soft-deleted product
	// yields gorm.ErrRecordNotFound.
	Update(ctx context.Context, id uuid.UUID, changes ProductChanges) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DecrementStock subtracts qty only if at least qty units remain.
	// It reports false when the guard failed and nothing changed.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

// ProductChanges lists the columns an update writes. Nil fields are left untouched,
// so stock is never rewritten from a stale read.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
}

func (c ProductChanges) columns() map[string]interface{} {
	cols := make(map[string]interface{}, 5)
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.Stock != nil {
		cols["stock"] = *c.Stock
	}
	if c.ImageURL != nil {
		cols["image_url"] = *c.ImageURL
	}
	return cols
}

// ProductFilter narrows catalogue listings.
type ProductFilter struct {
	Search  string
	InStock bool
	Page
}

// IsZero reports whether the filter selects the whole catalogue.
func (f ProductFilter) IsZero() bool {
	return f == ProductFilter{}
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update runs UPDATE products SET <changed columns> WHERE id = ? AND deleted_at IS NULL.
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, changes ProductChanges) error {
	cols := changes.columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}

	// MySQL reports zero affected rows when nothing changed, so tell that apart from a missing row.
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a live product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List lists live products, newest first.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.InStock {
		q = q.Where("stock > 0")
	}
	if err := filter.apply(q).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Delete soft-deletes a product so historical order items keep their reference.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock runs UPDATE products SET stock = stock - qty WHERE id = ? AND stock >= qty.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

