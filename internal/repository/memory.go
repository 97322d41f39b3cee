package repository

import (
	"context"
	"sync"
	"time"
)

type cachedPage struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCacheRepository is the in-process fallback used when redis is down or
// not configured.
type MemoryCacheRepository struct {
	mu         sync.RWMutex
	pages      map[string]cachedPage
	rateLimits sync.Map
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{
		pages: make(map[string]cachedPage),
	}
}

func (r *MemoryCacheRepository) GetCatalogPage(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	page, ok := r.pages[key]
	r.mu.RUnlock()
	if !ok || time.Now().After(page.expiresAt) {
		return nil, false, nil
	}
	return page.data, true, nil
}

func (r *MemoryCacheRepository) SetCatalogPage(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	r.mu.Lock()
	r.pages[key] = cachedPage{data: data, expiresAt: time.Now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemoryCacheRepository) InvalidateCatalog(ctx context.Context) error {
	r.mu.Lock()
	r.pages = make(map[string]cachedPage)
	r.mu.Unlock()
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, accountID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(accountID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(accountID, entry)
	return entry.count <= limit, nil
}
