package repository

import (
	"context"
	"fmt"
	"time"

	"joblet/internal/config"

	"github.com/redis/go-redis/v9"
)

const catalogVersionKey = "catalog:version"

// RedisCacheRepository держит кэш каталога и счётчики частоты сообщений
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

// GetCatalogPage returns the cached page bytes for a catalog query key.
// Keys are versioned, so invalidation never has to scan.
func (r *RedisCacheRepository) GetCatalogPage(ctx context.Context, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, r.versionedKey(ctx, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get catalog page from redis: %w", err)
	}
	return val, true, nil
}

func (r *RedisCacheRepository) SetCatalogPage(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, r.versionedKey(ctx, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set catalog page in redis: %w", err)
	}
	return nil
}

// InvalidateCatalog bumps the catalog version, orphaning every cached page.
// Orphans expire on their own TTL.
func (r *RedisCacheRepository) InvalidateCatalog(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Incr(ctx, catalogVersionKey).Err(); err != nil {
		return fmt.Errorf("failed to bump catalog version: %w", err)
	}
	return nil
}

func (r *RedisCacheRepository) versionedKey(ctx context.Context, key string) string {
	version, err := r.client.Get(ctx, catalogVersionKey).Int64()
	if err != nil && err != redis.Nil {
		version = 0
	}
	return fmt.Sprintf("catalog:v%d:%s", version, key)
}

func (r *RedisCacheRepository) CheckRateLimit(ctx context.Context, accountID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("chat_rate:%d", accountID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
