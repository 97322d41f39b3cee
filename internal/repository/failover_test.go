package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFailoverForTest(t *testing.T) (*FailoverCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	repo := NewFailoverCacheRepository(
		NewRedisCacheRepository(client),
		NewMemoryCacheRepository(),
		&logger,
	)
	return repo, s
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	repo, _ := newFailoverForTest(t)
	ctx := context.Background()

	require.NoError(t, repo.SetCatalogPage(ctx, "k", []byte("v"), time.Minute))

	data, ok, err := repo.GetCatalogPage(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)
}

func TestFailoverFallsBackWhenPrimaryDown(t *testing.T) {
	repo, s := newFailoverForTest(t)
	ctx := context.Background()

	s.Close()

	// First call detects the outage and switches to memory.
	require.NoError(t, repo.SetCatalogPage(ctx, "k", []byte("v"), time.Minute))

	data, ok, err := repo.GetCatalogPage(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	allowed, err := repo.CheckRateLimit(ctx, 1, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, 1, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverInvalidateFlushesFallback(t *testing.T) {
	repo, s := newFailoverForTest(t)
	ctx := context.Background()

	s.Close()
	require.NoError(t, repo.SetCatalogPage(ctx, "k", []byte("stale"), time.Minute))

	require.NoError(t, repo.InvalidateCatalog(ctx))

	_, ok, err := repo.GetCatalogPage(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
