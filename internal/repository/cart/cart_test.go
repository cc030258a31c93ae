package cart

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func emptyCart(id string) domain.Cart {
	zero := domain.ZeroMoney("USD")
	return domain.Cart{
		ID:          id,
		CheckoutURL: "https://checkout.example.com/" + id,
		Lines:       []domain.CartLine{},
		Cost:        domain.CartCost{SubtotalAmount: zero, TotalAmount: zero, TotalTaxAmount: zero},
	}
}

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	id := uuid.NewString()
	created, err := repo.Create(ctx, emptyCart(id))
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, fetched.ID)
	assert.Equal(t, "USD", fetched.Cost.TotalAmount.CurrencyCode)
	assert.Empty(t, fetched.Lines)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_SaveChecksVersion(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	id := uuid.NewString()
	created, err := repo.Create(ctx, emptyCart(id))
	require.NoError(t, err)

	next := *created
	next.TotalQuantity = 2
	next.Lines = []domain.CartLine{{
		ID:       uuid.NewString(),
		Quantity: 2,
		Merchandise: domain.Merchandise{
			ID:              "mug-blue",
			Title:           "Blue",
			SelectedOptions: []domain.SelectedOption{{Name: "Glaze", Value: "Blue"}},
			Product:         domain.MerchandiseProduct{ID: "p-mug", Handle: "mug", Title: "Mug"},
		},
		Cost: domain.LineCost{TotalAmount: domain.MustMoney("56", "USD")},
	}}
	next.Cost.SubtotalAmount = domain.MustMoney("56", "USD")
	next.Cost.TotalAmount = domain.MustMoney("56", "USD")

	saved, err := repo.Save(ctx, next, created.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	_, err = repo.Save(ctx, next, created.Version)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.Save(ctx, emptyCart(uuid.NewString()), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, fetched.Lines, 1)
	assert.Equal(t, "mug-blue", fetched.Lines[0].Merchandise.ID)
	assert.Equal(t, "mug", fetched.Lines[0].Merchandise.Product.Handle)
	assert.Equal(t, "56", fetched.Lines[0].Cost.TotalAmount.Amount.String())
	assert.Equal(t, 2, fetched.TotalQuantity)
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "connect db")
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts CASCADE`)
	require.NoError(t, err, "truncate tables")
}
