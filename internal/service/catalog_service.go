package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"joblet/internal/domain"
	"joblet/internal/models"

	"github.com/rs/zerolog"
)

var ErrInvalidPrice = errors.New("price must be positive")

// CatalogService serves the public service listing through a cache and owns
// provider-side catalog management. Any write invalidates the cache.
type CatalogService struct {
	repo     domain.Repository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, cache domain.CacheRepository, cacheTTL time.Duration, logger *zerolog.Logger) *CatalogService {
	if cacheTTL <= 0 {
		cacheTTL = time.Duration(models.CatalogCacheTTL) * time.Second
	}
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (s *CatalogService) ListServices(ctx context.Context, q models.CatalogQuery) ([]*models.Service, error) {
	key := cacheKey(q)

	if s.cache != nil {
		if data, ok, err := s.cache.GetCatalogPage(ctx, key); err == nil && ok {
			var services []*models.Service
			if err := json.Unmarshal(data, &services); err == nil {
				return services, nil
			}
			s.logger.Warn().Str("key", key).Msg("broken catalog cache entry, refetching")
		}
	}

	services, err := s.repo.ListBookableServices(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(services); err == nil {
			if err := s.cache.SetCatalogPage(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
	}

	return services, nil
}

// GetService exposes only bookable services. Inactive and unapproved ones are
// indistinguishable from missing.
func (s *CatalogService) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return s.repo.GetBookableService(ctx, id)
}

func (s *CatalogService) CreateService(ctx context.Context, service *models.Service) error {
	if service.PriceCents <= 0 {
		return ErrInvalidPrice
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateService applies the provider's edit. Only the supplied fields change;
// the edit knocks the service back to pending approval, so it leaves the
// public catalog until re-moderated.
func (s *CatalogService) UpdateService(ctx context.Context, id, providerID int64, patch models.ServicePatch) error {
	if patch.PriceCents != nil && *patch.PriceCents <= 0 {
		return ErrInvalidPrice
	}
	if err := s.repo.UpdateService(ctx, id, providerID, patch); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) SetServiceActive(ctx context.Context, id, providerID int64, active bool) error {
	if err := s.repo.SetServiceActive(ctx, id, providerID, active); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) ListProviderServices(ctx context.Context, providerID int64) ([]*models.Service, error) {
	return s.repo.ListServicesByProvider(ctx, providerID)
}

func (s *CatalogService) ListPendingServices(ctx context.Context) ([]*models.Service, error) {
	return s.repo.ListPendingServices(ctx)
}

func (s *CatalogService) ModerateService(ctx context.Context, id int64, approve bool) error {
	approval := models.ApprovalRejected
	if approve {
		approval = models.ApprovalApproved
	}
	if err := s.repo.SetServiceApproval(ctx, id, approval); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

func cacheKey(q models.CatalogQuery) string {
	return fmt.Sprintf("%s:%s:%d:%d", q.Sort, q.Search, q.Limit, q.Offset)
}
