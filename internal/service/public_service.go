package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type publicDatasetRepository interface {
	ListPublic(ctx context.Context) ([]models.PublicDataset, error)
}

// PublicService serves the unauthenticated dataset listing.
type PublicService struct {
	datasets publicDatasetRepository
	cache    *CacheService
	logger   *zap.Logger
}

// NewPublicService constructs a PublicService.
func NewPublicService(datasets publicDatasetRepository, cache *CacheService, logger *zap.Logger) *PublicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicService{datasets: datasets, cache: cache, logger: logger}
}

// ListDatasets returns every dataset's public projection, newest first, and
// whether the cache served it.
func (s *PublicService) ListDatasets(ctx context.Context) ([]models.PublicDataset, bool, error) {
	var cached []models.PublicDataset
	if hit, _ := s.cache.Get(ctx, cacheKeyPublicDatasets, &cached); hit {
		return cached, true, nil
	}
	datasets, err := s.datasets.ListPublic(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list datasets")
	}
	if datasets == nil {
		datasets = []models.PublicDataset{}
	}
	_ = s.cache.Set(ctx, cacheKeyPublicDatasets, datasets, 0)
	return datasets, false, nil
}
