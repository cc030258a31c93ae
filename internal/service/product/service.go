package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/variant"
)

var ErrUnknownTopic = errors.New("unknown revalidation topic")

type Service struct {
	repo   productrepo.Repository
	cache  *cache.Cache
	logger *zap.Logger
}

func New(repo productrepo.Repository, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// Page is everything a product page needs to render its option pickers and
// add-to-cart button.
type Page struct {
	Product     domain.Product         `json:"product"`
	Selection   variant.Selection      `json:"selection"`
	Variant     *domain.ProductVariant `json:"variant"`
	Options     []variant.OptionState  `json:"options"`
	Purchasable bool                   `json:"purchasable"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	const key = "products:all"
	var products []domain.Product
	if hit, err := s.cache.Get(ctx, key, &products); err != nil {
		s.logger.Warn("product service: cache read", zap.String("key", key), zap.Error(err))
	} else if hit {
		return products, nil
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, products, cache.TagProducts); err != nil {
		s.logger.Warn("product service: cache write", zap.String("key", key), zap.Error(err))
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, handle string) (*domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: handle required", domain.ErrInvalidInput)
	}
	key := "product:" + handle
	var p domain.Product
	if hit, err := s.cache.Get(ctx, key, &p); err != nil {
		s.logger.Warn("product service: cache read", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &p, nil
	}
	got, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, got, cache.TagProduct(handle), cache.TagProducts); err != nil {
		s.logger.Warn("product service: cache write", zap.String("key", key), zap.Error(err))
	}
	return got, nil
}

// Page seeds the selection from the query string, falling back to the first
// variant and then to each option's first value, and resolves it.
func (s *Service) Page(ctx context.Context, handle string, query url.Values) (*Page, error) {
	p, err := s.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	var current *domain.ProductVariant
	if len(p.Variants) > 0 {
		current = &p.Variants[0]
	}
	sel := variant.InitialSelection(p.Options, variant.SelectionFromQuery(p.Options, query), current)

	v, err := variant.Resolve(p.Options, p.Variants, sel)
	if err != nil {
		s.logger.Error("product service: catalog integrity",
			zap.String("handle", handle),
			zap.String("selection", sel.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return &Page{
		Product:     *p,
		Selection:   sel,
		Variant:     v,
		Options:     variant.Matrix(p.Options, p.Variants, sel),
		Purchasable: v != nil && v.AvailableForSale,
	}, nil
}

// ResolveVariant resolves the selection named by query without any fallback.
// A selection that matches nothing is domain.ErrNotFound.
func (s *Service) ResolveVariant(ctx context.Context, handle string, query url.Values) (*domain.ProductVariant, error) {
	p, err := s.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	sel := variant.Selection(variant.SelectionFromQuery(p.Options, query))
	v, err := variant.Resolve(p.Options, p.Variants, sel)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("variant for %s %s: %w", handle, sel, domain.ErrNotFound)
	}
	return v, nil
}

// GetVariant looks a variant up by id together with its product.
func (s *Service) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, *domain.Product, error) {
	return s.repo.GetVariant(ctx, variantID)
}

// Revalidate drops cached catalog entries after a catalog webhook. Topics are
// "products/<event>" or "collections/<event>".
func (s *Service) Revalidate(ctx context.Context, topic, handle string) ([]string, error) {
	var tags []string
	switch kind, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(topic)), "/"); kind {
	case "products", "product":
		tags = append(tags, cache.TagProducts, cache.TagCollections)
		if handle != "" {
			tags = append(tags, cache.TagProduct(handle))
		}
	case "collections", "collection":
		tags = append(tags, cache.TagCollections)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		return nil, err
	}
	s.logger.Info("product service: revalidated", zap.String("topic", topic), zap.Strings("tags", tags))
	return tags, nil
}
