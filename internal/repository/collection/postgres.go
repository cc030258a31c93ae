package collection

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/product"
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

func (r *postgresRepo) List(ctx context.Context) ([]domain.Collection, error) {
	const q = `
SELECT id, handle, title, description, updated_at
FROM collections
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("collection repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Handle, &c.Title, &c.Description, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByHandle(ctx context.Context, handle string) (*domain.Collection, error) {
	const q = `
SELECT id, handle, title, description, updated_at
FROM collections
WHERE handle = $1
`
	var c domain.Collection
	err := r.pool.QueryRow(ctx, q, handle).Scan(&c.ID, &c.Handle, &c.Title, &c.Description, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("collection repo: get", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) ListProducts(ctx context.Context, handle string) ([]domain.Product, error) {
	c, err := r.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT p.id, p.handle, p.title, p.description, p.updated_at
FROM collection_products cp
JOIN products p ON p.id = cp.product_id
WHERE cp.collection_id = $1
ORDER BY cp.position, p.title
`
	rows, err := r.pool.Query(ctx, q, c.ID)
	if err != nil {
		return nil, err
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		var p domain.Product
		err := row.Scan(&p.ID, &p.Handle, &p.Title, &p.Description, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		if err := product.Hydrate(ctx, r.pool, products); err != nil {
			return nil, err
		}
	}
	r.logger.Debug("collection repo: list products", zap.String("handle", handle), zap.Int("count", len(products)))
	return products, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO collections (id, handle, title, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (handle) DO UPDATE
SET title = EXCLUDED.title,
    description = COALESCE(NULLIF(EXCLUDED.description, ''), collections.description),
    updated_at = now()
RETURNING id, description, updated_at
`
	out := c
	if err := r.pool.QueryRow(ctx, q, c.ID, c.Handle, c.Title, c.Description).Scan(&out.ID, &out.Description, &out.UpdatedAt); err != nil {
		r.logger.Error("collection repo: upsert", zap.String("handle", c.Handle), zap.Error(err))
		return nil, err
	}
	return &out, nil
}
