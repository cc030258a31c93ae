package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	collectionrepo "storefront/internal/repository/collection"
	productrepo "storefront/internal/repository/product"
)

// Apply inserts a small handmade-goods catalog for manual testing. It is
// idempotent: products and collections are upserted by handle.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	collections := collectionrepo.NewPostgres(pool, logger)
	products := productrepo.NewPostgres(pool, logger)

	for _, c := range Collections() {
		if _, err := collections.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert collection %s: %w", c.Handle, err)
		}
	}
	for _, p := range Products() {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Handle, err)
		}
	}
	return nil
}

func Collections() []domain.Collection {
	return []domain.Collection{
		{ID: "col-kitchen", Handle: "kitchen", Title: "Kitchen", Description: "Wheel-thrown stoneware and linens for the table."},
		{ID: "col-wearables", Handle: "wearables", Title: "Wearables", Description: "Hand-dyed and hand-knit."},
		{ID: "col-gifts", Handle: "gifts", Title: "Gifts"},
	}
}

func Products() []domain.Product {
	stock := func(n int) *int { return &n }
	opts := func(pairs ...string) []domain.SelectedOption {
		out := make([]domain.SelectedOption, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, domain.SelectedOption{Name: pairs[i], Value: pairs[i+1]})
		}
		return out
	}
	usd := func(amount string) domain.Money { return domain.MustMoney(amount, "USD") }

	return []domain.Product{
		{
			ID:          "prod-speckled-mug",
			Handle:      "speckled-mug",
			Title:       "Speckled Mug",
			Description: "Wheel-thrown stoneware mug with a speckled clay body.",
			Collections: []string{"kitchen", "gifts"},
			Options: []domain.ProductOption{
				{Name: "Size", Values: []string{"Small", "Large"}},
				{Name: "Glaze", Values: []string{"Blue", "Rust", "Sage"}},
			},
			Variants: []domain.ProductVariant{
				{ID: "mug-small-blue", Title: "Small / Blue", SKU: "MUG-S-BLU", Price: usd("24.00"), AvailableForSale: true, QuantityAvailable: stock(8), SelectedOptions: opts("Size", "Small", "Glaze", "Blue")},
				{ID: "mug-small-rust", Title: "Small / Rust", SKU: "MUG-S-RST", Price: usd("24.00"), AvailableForSale: false, QuantityAvailable: stock(0), SelectedOptions: opts("Size", "Small", "Glaze", "Rust")},
				{ID: "mug-large-blue", Title: "Large / Blue", SKU: "MUG-L-BLU", Price: usd("30.00"), AvailableForSale: true, QuantityAvailable: stock(3), SelectedOptions: opts("Size", "Large", "Glaze", "Blue")},
				{ID: "mug-large-sage", Title: "Large / Sage", SKU: "MUG-L-SAG", Price: usd("30.00"), AvailableForSale: true, QuantityAvailable: stock(2), SelectedOptions: opts("Size", "Large", "Glaze", "Sage")},
			},
			Images: []domain.Image{
				{URL: "https://cdn.example.com/products/speckled-mug.jpg", AltText: "Speckled mug", Width: 1200, Height: 1200},
			},
		},
		{
			ID:          "prod-wool-beanie",
			Handle:      "wool-beanie",
			Title:       "Hand-knit Wool Beanie",
			Description: "Merino beanie knit to order.",
			Collections: []string{"wearables", "gifts"},
			Options: []domain.ProductOption{
				{Name: "Size", Values: []string{"S", "M", "L"}},
			},
			Variants: []domain.ProductVariant{
				{ID: "beanie-s", Title: "S", SKU: "BEANIE-S", Price: usd("42.50"), AvailableForSale: true, SelectedOptions: opts("Size", "S")},
				{ID: "beanie-m", Title: "M", SKU: "BEANIE-M", Price: usd("42.50"), AvailableForSale: false, SelectedOptions: opts("Size", "M")},
				{ID: "beanie-l", Title: "L", SKU: "BEANIE-L", Price: usd("44.00"), AvailableForSale: true, SelectedOptions: opts("Size", "L")},
			},
			Images: []domain.Image{
				{URL: "https://cdn.example.com/products/wool-beanie.jpg", AltText: "Wool beanie", Width: 1200, Height: 1200},
			},
		},
		{
			ID:          "prod-linen-tea-towel",
			Handle:      "linen-tea-towel",
			Title:       "Linen Tea Towel",
			Description: "Block-printed linen.",
			Collections: []string{"kitchen"},
			Options:     []domain.ProductOption{},
			Variants: []domain.ProductVariant{
				{ID: "tea-towel", Title: "Default Title", SKU: "TOWEL", Price: usd("18.00"), AvailableForSale: true, SelectedOptions: []domain.SelectedOption{}},
			},
		},
	}
}
