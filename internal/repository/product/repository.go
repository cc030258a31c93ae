package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Product, error)
	// GetVariant returns the variant and the product that owns it.
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, *domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
