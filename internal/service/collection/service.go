package collection

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository/collection"
)

type Service struct {
	repo   collection.Repository
	cache  *cache.Cache
	logger *zap.Logger
}

func New(repo collection.Repository, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]domain.Collection, error) {
	const key = "collections:all"
	var out []domain.Collection
	if hit, _ := s.cache.Get(ctx, key, &out); hit {
		return out, nil
	}
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, cache.TagCollections); err != nil {
		s.logger.Warn("collection service: cache write", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// Products lists a collection's products. Entries depend on both collection
// membership and product data, so they carry both tags.
func (s *Service) Products(ctx context.Context, handle string) ([]domain.Product, error) {
	key := "collection-products:" + handle
	var out []domain.Product
	if hit, _ := s.cache.Get(ctx, key, &out); hit {
		return out, nil
	}
	out, err := s.repo.ListProducts(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, cache.TagCollections, cache.TagProducts); err != nil {
		s.logger.Warn("collection service: cache write", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (s *Service) Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error) {
	out, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateTags(ctx, cache.TagCollections); err != nil {
		s.logger.Warn("collection service: invalidate", zap.Error(err))
	}
	return out, nil
}
