package services

import (
	"context"
	"testing"
	"time"

	"lookbookapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintCacheKey(t *testing.T) {
	cache, err := NewFingerprintCache(64, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "looks:SKU_1:3", cache.Key("SKU_1", 3))
}

func TestFingerprintCachePutGet(t *testing.T) {
	cache, err := NewFingerprintCache(64, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx, "SKU_1", 3))

	response := &models.LooksResponse{TotalLooks: 2}
	require.NoError(t, cache.Put(ctx, "SKU_1", 3, response))
	cache.Wait()

	got := cache.Get(ctx, "SKU_1", 3)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.TotalLooks)

	// A different fingerprint for the same anchor is a distinct entry.
	assert.Nil(t, cache.Get(ctx, "SKU_1", 5))
}

func TestFingerprintCacheExpires(t *testing.T) {
	cache, err := NewFingerprintCache(64, 50*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "SKU_1", 3, &models.LooksResponse{TotalLooks: 1}))
	cache.Wait()
	require.NotNil(t, cache.Get(ctx, "SKU_1", 3))

	time.Sleep(80 * time.Millisecond)
	assert.Nil(t, cache.Get(ctx, "SKU_1", 3))
}
