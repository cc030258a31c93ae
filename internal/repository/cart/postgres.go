package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, cart domain.Cart) (*domain.Cart, error) {
	if cart.ID == "" {
		return nil, errors.New("cart repo: id is required")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO carts (id, checkout_url, currency_code, total_quantity, subtotal, total, total_tax, version)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, 1)
RETURNING version
`
	if err := tx.QueryRow(ctx, q,
		cart.ID,
		cart.CheckoutURL,
		cart.Cost.TotalAmount.CurrencyCode,
		cart.TotalQuantity,
		cart.Cost.SubtotalAmount.Amount.String(),
		cart.Cost.TotalAmount.Amount.String(),
		cart.Cost.TotalTaxAmount.Amount.String(),
	).Scan(&cart.Version); err != nil {
		r.logger.Error("cart repo: create", zap.String("cart_id", cart.ID), zap.Error(err))
		return nil, err
	}
	if err := insertLines(ctx, tx, cart); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("cart repo: created", zap.String("cart_id", cart.ID))
	return &cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id, checkout_url, currency_code, total_quantity, subtotal::text, total::text, total_tax::text, version
FROM carts
WHERE id = $1
`
	var (
		cart                      domain.Cart
		currency                  string
		subtotal, total, totalTax string
	)
	err := r.pool.QueryRow(ctx, cartQuery, id).Scan(
		&cart.ID,
		&cart.CheckoutURL,
		&currency,
		&cart.TotalQuantity,
		&subtotal,
		&total,
		&totalTax,
		&cart.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: get", zap.String("cart_id", id), zap.Error(err))
		return nil, err
	}
	if cart.Cost.SubtotalAmount, err = domain.NewMoney(subtotal, currency); err != nil {
		return nil, fmt.Errorf("cart repo: subtotal: %w", err)
	}
	if cart.Cost.TotalAmount, err = domain.NewMoney(total, currency); err != nil {
		return nil, fmt.Errorf("cart repo: total: %w", err)
	}
	if cart.Cost.TotalTaxAmount, err = domain.NewMoney(totalTax, currency); err != nil {
		return nil, fmt.Errorf("cart repo: tax: %w", err)
	}

	const linesQuery = `
SELECT id, merchandise, quantity, total_amount::text, currency_code
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Lines = []domain.CartLine{}
	for rows.Next() {
		var (
			line           domain.CartLine
			amount, lineCC string
		)
		if err := rows.Scan(&line.ID, &line.Merchandise, &line.Quantity, &amount, &lineCC); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("cart repo: line %s total: %w", line.ID, err)
		}
		line.Cost.TotalAmount = domain.Money{Amount: d, CurrencyCode: lineCC}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart domain.Cart, expectedVersion int) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE carts
SET currency_code = $3,
    total_quantity = $4,
    subtotal = $5::numeric,
    total = $6::numeric,
    total_tax = $7::numeric,
    version = version + 1,
    updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version
`
	err = tx.QueryRow(ctx, q,
		cart.ID,
		expectedVersion,
		cart.Cost.TotalAmount.CurrencyCode,
		cart.TotalQuantity,
		cart.Cost.SubtotalAmount.Amount.String(),
		cart.Cost.TotalAmount.Amount.String(),
		cart.Cost.TotalTaxAmount.Amount.String(),
	).Scan(&cart.Version)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cart.ID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrNotFound
		}
		r.logger.Warn("cart repo: version conflict", zap.String("cart_id", cart.ID), zap.Int("expected_version", expectedVersion))
		return nil, domain.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cart.ID); err != nil {
		return nil, err
	}
	if err := insertLines(ctx, tx, cart); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("cart repo: saved",
		zap.String("cart_id", cart.ID),
		zap.Int("version", cart.Version),
		zap.Int("lines", len(cart.Lines)),
	)
	return &cart, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, cart domain.Cart) error {
	const q = `
INSERT INTO cart_lines (id, cart_id, position, merchandise_id, merchandise, quantity, total_amount, currency_code)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
`
	for i, line := range cart.Lines {
		if line.ID == "" {
			return fmt.Errorf("cart repo: line %d for %s has no id", i, line.Merchandise.ID)
		}
		if _, err := tx.Exec(ctx, q,
			line.ID,
			cart.ID,
			i,
			line.Merchandise.ID,
			line.Merchandise,
			line.Quantity,
			line.Cost.TotalAmount.Amount.String(),
			line.Cost.TotalAmount.CurrencyCode,
		); err != nil {
			return fmt.Errorf("cart repo: insert line %s: %w", line.ID, err)
		}
	}
	return nil
}
