package service

import (
	"context"
	"fmt"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ModelCatalog lists the models installed on the local inference server.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}

type catalogService struct {
	factory   domain.ProviderFactory
	cache     domain.Cache
	ttl       time.Duration
	serverURL string
	sfGroup   singleflight.Group
	logger    *zap.Logger
}

// NewCatalogService returns the catalog lookup. store may be nil, in which
// case every call reaches the server.
func NewCatalogService(factory domain.ProviderFactory, store domain.Cache, cfg *config.Config, logger *zap.Logger) ModelCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		factory:   factory,
		cache:     store,
		ttl:       cfg.Catalog.TTL,
		serverURL: cfg.Providers.Ollama.BaseURL,
		logger:    logger,
	}
}

func (s *catalogService) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	key := cache.CatalogKey(string(domain.ProviderOllama), s.serverURL)

	if s.cache != nil && s.ttl > 0 {
		models, ok, err := cache.GetJSON[[]domain.ModelInfo](ctx, s.cache, key)
		switch {
		case err != nil:
			s.logger.Warn("Model catalog cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			s.logger.Debug("Model catalog cache hit", zap.String("key", key))
			return models, nil
		}
	}

	res, err, shared := s.sfGroup.Do(key, func() (interface{}, error) {
		models, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.ttl > 0 {
			if err := cache.SetJSON(ctx, s.cache, key, models, s.ttl); err != nil {
				s.logger.Warn("Model catalog cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Model catalog lookup shared", zap.String("key", key))
	}

	models, ok := res.([]domain.ModelInfo)
	if !ok {
		return nil, domain.NewInternalError("unexpected catalog result", fmt.Errorf("got %T", res))
	}
	return models, nil
}

func (s *catalogService) fetch(ctx context.Context) ([]domain.ModelInfo, error) {
	p, err := s.factory.New(domain.ProviderOllama, domain.Credentials{})
	if err != nil {
		return nil, domain.NewProviderNotReadyError("local inference server is not configured", err)
	}
	lister, ok := p.(domain.ModelLister)
	if !ok {
		return nil, domain.NewInternalError("provider has no model catalog", nil)
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, domain.NewProviderNotReadyError("local inference server is unreachable", err)
	}
	return models, nil
}
