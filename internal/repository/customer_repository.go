package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// CustomerRepository persists external message senders.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByPlatformRef(ctx context.Context, platform, platformRef string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates the repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (name, phone, email, platform, platform_ref)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.Platform,
		customer.PlatformRef,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) GetByPlatformRef(ctx context.Context, platform, platformRef string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, phone, email, platform, platform_ref, created_at, updated_at
        FROM customers WHERE platform=$1 AND platform_ref=$2`
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, platform, platformRef).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&customer.Platform,
		&customer.PlatformRef,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
