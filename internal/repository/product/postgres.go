package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

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

const productColumns = `id, handle, title, description, updated_at`

func (r *postgresRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY updated_at DESC, handle`
	products, err := r.listWith(ctx, r.pool, q)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(products)))
	return products, nil
}

func (r *postgresRepo) GetByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE handle = $1`
	products, err := r.listWith(ctx, r.pool, q, handle)
	if err != nil {
		r.logger.Error("product repo: get", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}
	if len(products) == 0 {
		r.logger.Debug("product repo: get not found", zap.String("handle", handle))
		return nil, domain.ErrNotFound
	}
	return &products[0], nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, *domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = (SELECT product_id FROM product_variants WHERE id = $1)`
	products, err := r.listWith(ctx, r.pool, q, variantID)
	if err != nil {
		r.logger.Error("product repo: get variant", zap.String("variant_id", variantID), zap.Error(err))
		return nil, nil, err
	}
	if len(products) == 0 {
		return nil, nil, domain.ErrNotFound
	}
	p := &products[0]
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			v := p.Variants[i]
			return &v, p, nil
		}
	}
	return nil, nil, domain.ErrNotFound
}

// Upsert writes the product with its options, variants, images and collection
// memberships in one transaction, replacing any previous children.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	const upsertProduct = `
INSERT INTO products (id, handle, title, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (handle) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    updated_at = now()
RETURNING id, updated_at
`
	var id string
	if err := tx.QueryRow(ctx, upsertProduct, product.ID, product.Handle, product.Title, product.Description).Scan(&id, &product.UpdatedAt); err != nil {
		r.logger.Error("product repo: upsert", zap.String("handle", product.Handle), zap.Error(err))
		return nil, err
	}
	product.ID = id

	for _, stmt := range []string{
		`DELETE FROM product_options WHERE product_id = $1`,
		`DELETE FROM product_variants WHERE product_id = $1`,
		`DELETE FROM product_images WHERE product_id = $1`,
		`DELETE FROM collection_products WHERE product_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return nil, fmt.Errorf("product repo: clear children for %s: %w", product.Handle, err)
		}
	}

	for i := range product.Options {
		o := &product.Options[i]
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if o.Values == nil {
			o.Values = []string{}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO product_options (id, product_id, position, name, vals) VALUES ($1, $2, $3, $4, $5)
`, o.ID, id, i, o.Name, o.Values); err != nil {
			return nil, fmt.Errorf("product repo: insert option %q: %w", o.Name, err)
		}
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.SelectedOptions == nil {
			v.SelectedOptions = []domain.SelectedOption{}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO product_variants (id, product_id, position, title, sku, price_amount, currency_code, available_for_sale, quantity_available, selected_options)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6::numeric, $7, $8, $9, $10)
`, v.ID, id, i, v.Title, v.SKU, v.Price.Amount.String(), v.Price.CurrencyCode, v.AvailableForSale, v.QuantityAvailable, v.SelectedOptions); err != nil {
			return nil, fmt.Errorf("product repo: insert variant %q: %w", v.ID, err)
		}
	}

	images := product.Images
	if len(images) == 0 && product.FeaturedImage != nil {
		images = []domain.Image{*product.FeaturedImage}
	}
	for i, img := range images {
		if _, err := tx.Exec(ctx, `
INSERT INTO product_images (product_id, position, url, alt_text, width, height) VALUES ($1, $2, $3, $4, $5, $6)
`, id, i, img.URL, img.AltText, img.Width, img.Height); err != nil {
			return nil, fmt.Errorf("product repo: insert image: %w", err)
		}
	}

	if len(product.Collections) > 0 {
		if _, err := tx.Exec(ctx, `
INSERT INTO collection_products (collection_id, product_id, position)
SELECT c.id, $1, COALESCE((SELECT max(position) + 1 FROM collection_products WHERE collection_id = c.id), 0)
FROM collections c
WHERE c.handle = ANY($2)
`, id, product.Collections); err != nil {
			return nil, fmt.Errorf("product repo: link collections: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("product repo: upserted",
		zap.String("handle", product.Handle),
		zap.String("id", id),
		zap.Int("variants", len(product.Variants)),
	)
	return r.GetByHandle(ctx, product.Handle)
}

// listWith runs a product query and hydrates options, variants, images and
// collections for every row.
func (r *postgresRepo) listWith(ctx context.Context, q Querier, sql string, args ...any) ([]domain.Product, error) {
	rows, err := q.Query(ctx, sql, args...)
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
	if len(products) == 0 {
		return products, nil
	}
	if err := hydrate(ctx, q, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Hydrate loads the children of products listed by other repositories.
func Hydrate(ctx context.Context, q Querier, products []domain.Product) error {
	return hydrate(ctx, q, products)
}

func hydrate(ctx context.Context, q Querier, products []domain.Product) error {
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].Options = []domain.ProductOption{}
		products[i].Variants = []domain.ProductVariant{}
	}

	rows, err := q.Query(ctx, `
SELECT product_id, id, name, vals FROM product_options
WHERE product_id = ANY($1) ORDER BY product_id, position
`, ids)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	for rows.Next() {
		var pid string
		var o domain.ProductOption
		if err := rows.Scan(&pid, &o.ID, &o.Name, &o.Values); err != nil {
			rows.Close()
			return err
		}
		p := &products[index[pid]]
		p.Options = append(p.Options, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
SELECT product_id, id, title, COALESCE(sku, ''), price_amount::text, currency_code, available_for_sale, quantity_available, selected_options
FROM product_variants
WHERE product_id = ANY($1) ORDER BY product_id, position
`, ids)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	for rows.Next() {
		var (
			pid    string
			amount string
			v      domain.ProductVariant
		)
		if err := rows.Scan(&pid, &v.ID, &v.Title, &v.SKU, &amount, &v.Price.CurrencyCode, &v.AvailableForSale, &v.QuantityAvailable, &v.SelectedOptions); err != nil {
			rows.Close()
			return err
		}
		v.Price.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			rows.Close()
			return fmt.Errorf("variant %s price %q: %w", v.ID, amount, err)
		}
		p := &products[index[pid]]
		p.Variants = append(p.Variants, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
SELECT product_id, url, alt_text, width, height FROM product_images
WHERE product_id = ANY($1) ORDER BY product_id, position
`, ids)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	for rows.Next() {
		var pid string
		var img domain.Image
		if err := rows.Scan(&pid, &img.URL, &img.AltText, &img.Width, &img.Height); err != nil {
			rows.Close()
			return err
		}
		p := &products[index[pid]]
		p.Images = append(p.Images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
SELECT cp.product_id, c.handle FROM collection_products cp
JOIN collections c ON c.id = cp.collection_id
WHERE cp.product_id = ANY($1) ORDER BY c.handle
`, ids)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}
	for rows.Next() {
		var pid, handle string
		if err := rows.Scan(&pid, &handle); err != nil {
			rows.Close()
			return err
		}
		p := &products[index[pid]]
		p.Collections = append(p.Collections, handle)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range products {
		if len(products[i].Images) > 0 {
			img := products[i].Images[0]
			products[i].FeaturedImage = &img
		}
	}
	return nil
}
