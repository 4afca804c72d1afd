package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"

	"lookbookapi/models"
)

// FingerprintCache memoizes fully materialized looks responses keyed by the
// request fingerprint (anchor sku, number of looks). Entries expire after the
// configured TTL; capacity eviction is handled by ristretto.
type FingerprintCache struct {
	cache     *cache.Cache[*models.LooksResponse]
	ristretto *ristretto.Cache
	ttl       time.Duration
}

func NewFingerprintCache(capacity int64, ttl time.Duration) (*FingerprintCache, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)
	return &FingerprintCache{
		cache:     cache.New[*models.LooksResponse](ristrettoStore),
		ristretto: ristrettoCache,
		ttl:       ttl,
	}, nil
}

// Key builds the cache key for one request fingerprint.
func (c *FingerprintCache) Key(anchorSku string, numLooks int) string {
	return fmt.Sprintf("looks:%v:%v", anchorSku, numLooks)
}

// Get returns the cached response for the fingerprint, or nil on a miss.
func (c *FingerprintCache) Get(ctx context.Context, anchorSku string, numLooks int) *models.LooksResponse {
	value, err := c.cache.Get(ctx, c.Key(anchorSku, numLooks))
	if err != nil {
		return nil
	}
	return value
}

// Put stores a response under the fingerprint. The stored value is frozen:
// readers must copy before mutating.
func (c *FingerprintCache) Put(ctx context.Context, anchorSku string, numLooks int, response *models.LooksResponse) error {
	return c.cache.Set(ctx, c.Key(anchorSku, numLooks), response,
		store.WithExpiration(c.ttl), store.WithCost(1))
}

// Wait blocks until pending writes are applied. Ristretto admits entries
// asynchronously; tests call this between Put and Get.
func (c *FingerprintCache) Wait() {
	c.ristretto.Wait()
}
