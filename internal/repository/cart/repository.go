package cart

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create stores a new cart. ID and CheckoutURL must already be set.
	Create(ctx context.Context, cart domain.Cart) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	// Save replaces the cart's lines and totals when the stored version equals
	// expectedVersion, returning domain.ErrConflict otherwise.
	Save(ctx context.Context, cart domain.Cart, expectedVersion int) (*domain.Cart, error)
}
