package repository

import (
	"context"
	"sync/atomic"
	"time"

	"joblet/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCacheRepository prefers the primary (redis) and degrades to the
// fallback (memory) on error. Recovery is probed at most once a minute.
type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	if time.Since(last) > time.Minute {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverCacheRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary cache repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverCacheRepository) GetCatalogPage(ctx context.Context, key string) ([]byte, bool, error) {
	if r.usePrimary() {
		data, ok, err := r.primary.GetCatalogPage(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return data, ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetCatalogPage(ctx, key)
}

func (r *FailoverCacheRepository) SetCatalogPage(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.SetCatalogPage(ctx, key, data, ttl)
		if err == nil {
			r.isDown.Store(false)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetCatalogPage(ctx, key, data, ttl)
}

func (r *FailoverCacheRepository) InvalidateCatalog(ctx context.Context) error {
	// Always flush the fallback so stale pages cannot resurface after a
	// failover happens mid-flight.
	fallbackErr := r.fallback.InvalidateCatalog(ctx)
	if r.usePrimary() {
		if err := r.primary.InvalidateCatalog(ctx); err != nil {
			r.markDown(err)
			return fallbackErr
		}
		r.isDown.Store(false)
	}
	return fallbackErr
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, accountID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, accountID, limit, window)
		if err == nil {
			r.isDown.Store(false)
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, accountID, limit, window)
}
