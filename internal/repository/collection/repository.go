package collection

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Collection, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Collection, error)
	// ListProducts returns the collection's products in merchandising order.
	ListProducts(ctx context.Context, handle string) ([]domain.Product, error)
	Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error)
}
