package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store is the persistence gateway: typed repositories plus a transactional unit of work.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Orders() OrderRepository
	// WithTransaction runs fn inside one database transaction. Every write made through tx
	// commits together or rolls back together when fn returns an error.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db       *gorm.DB
	users    UserRepository
	products ProductRepository
	orders   OrderRepository
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:       db,
		users:    NewUserRepository(db),
		products: NewProductRepository(db),
		orders:   NewOrderRepository(db),
	}
}

func (s *gormStore) Users() UserRepository       { return s.users }
func (s *gormStore) Products() ProductRepository { return s.products }
func (s *gormStore) Orders() OrderRepository     { return s.orders }

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

// Page limits a listing. Zero values mean no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}
