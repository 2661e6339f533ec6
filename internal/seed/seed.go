// Package seed loads the demo catalogue and accounts.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Result counts what a seed run changed.
type Result struct {
	ProductsCreated int
	ProductsUpdated int
	UsersCreated    int
	UsersUpdated    int
}

type productSeed struct {
	Name        string
	Description string
	Price       string
	Stock       int
	ImageURL    string
}

var products = []productSeed{
	{"Professional DSLR Camera", "High-end digital camera with 24.2MP sensor, 4K video recording, and advanced autofocus system", "1299.99", 15, "https://picsum.photos/800/600?random=1"},
	{"Wireless Noise-Cancelling Headphones", "Premium over-ear headphones with active noise cancellation, 30-hour battery life, and premium sound quality", "299.99", 50, "https://picsum.photos/800/600?random=2"},
	{"Smart Fitness Watch", "Advanced fitness tracker with heart rate monitoring, GPS, sleep tracking, and 7-day battery life", "199.99", 75, "https://picsum.photos/800/600?random=3"},
	{"Ultra-Slim Laptop", "13-inch laptop with Intel Core i7, 16GB RAM, 512GB SSD, and stunning 4K display", "1499.99", 25, "https://picsum.photos/800/600?random=4"},
	{"Wireless Gaming Mouse", "High-precision gaming mouse with 16000 DPI sensor, programmable buttons, and RGB lighting", "79.99", 100, "https://picsum.photos/800/600?random=5"},
	{"4K Smart TV", "55-inch 4K Ultra HD Smart TV with HDR, built-in streaming apps, and voice control", "699.99", 30, "https://picsum.photos/800/600?random=6"},
	{"Portable Bluetooth Speaker", "Waterproof portable speaker with 20-hour battery life, deep bass, and 360-degree sound", "129.99", 60, "https://picsum.photos/800/600?random=7"},
	{"Smart Home Security Camera", "1080p wireless security camera with night vision, two-way audio, and motion detection", "89.99", 45, "https://picsum.photos/800/600?random=8"},
	{"Mechanical Gaming Keyboard", "RGB mechanical keyboard with Cherry MX switches, multimedia controls, and wrist rest", "149.99", 40, "https://picsum.photos/800/600?random=9"},
	{"Wireless Earbuds", "True wireless earbuds with active noise cancellation, touch controls, and wireless charging case", "159.99", 80, "https://picsum.photos/800/600?random=10"},
}

var users = []model.User{
	{Email: "admin@example.com", FirstName: "Admin", LastName: "User", Role: model.RoleAdmin},
	{Email: "customer@example.com", FirstName: "Customer", LastName: "User", Role: model.RoleCustomer},
}

// Run creates the demo products and accounts, or refreshes them when they already exist.
// Existing passwords are left alone.
func Run(ctx context.Context, store repository.Store, log *zap.Logger) (Result, error) {
	var res Result

	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return res, fmt.Errorf("hash password: %w", err)
	}

	err = store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		res = Result{}
		for _, p := range products {
			created, err := seedProduct(ctx, tx.Products(), p)
			if err != nil {
				return err
			}
			if created {
				res.ProductsCreated++
			} else {
				res.ProductsUpdated++
			}
		}

		for _, u := range users {
			created, err := seedUser(ctx, tx.Users(), u, hash)
			if err != nil {
				return err
			}
			if created {
				res.UsersCreated++
			} else {
				res.UsersUpdated++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("seed completed",
		zap.Int("products_created", res.ProductsCreated),
		zap.Int("products_updated", res.ProductsUpdated),
		zap.Int("users_created", res.UsersCreated),
		zap.Int("users_updated", res.UsersUpdated),
	)
	return res, nil
}

func seedProduct(ctx context.Context, repo repository.ProductRepository, p productSeed) (bool, error) {
	matches, err := repo.List(ctx, repository.ProductFilter{Search: p.Name})
	if err != nil {
		return false, fmt.Errorf("error checking product %q: %w", p.Name, err)
	}

	var existing *model.Product
	for i := range matches {
		if matches[i].Name == p.Name {
			existing = &matches[i]
			break
		}
	}

	if existing != nil {
		price := decimal.RequireFromString(p.Price)
		err := repo.Update(ctx, existing.ID, repository.ProductChanges{
			Description: &p.Description,
			Price:       &price,
			Stock:       &p.Stock,
			ImageURL:    &p.ImageURL,
		})
		if err != nil {
			return false, fmt.Errorf("error updating product %q: %w", p.Name, err)
		}
		return false, nil
	}

	product := &model.Product{
		Name:        p.Name,
		Description: p.Description,
		Price:       decimal.RequireFromString(p.Price),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
	if err := repo.Create(ctx, product); err != nil {
		return false, fmt.Errorf("error creating product %q: %w", p.Name, err)
	}
	return true, nil
}

func seedUser(ctx context.Context, repo repository.UserRepository, u model.User, hash string) (bool, error) {
	existing, err := repo.FindByEmail(ctx, u.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking user %s: %w", u.Email, err)
	}

	if existing != nil && err == nil {
		existing.FirstName = u.FirstName
		existing.LastName = u.LastName
		existing.Role = u.Role
		if err := repo.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("error updating user %s: %w", u.Email, err)
		}
		return false, nil
	}

	user := u
	user.PasswordHash = hash
	if err := repo.Create(ctx, &user); err != nil {
		return false, fmt.Errorf("error creating user %s: %w", u.Email, err)
	}
	return true, nil
}
