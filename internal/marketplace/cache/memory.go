package cache

import (
	"context"
	"time"

	ttlcache "github.com/smallbiznis/marketplace/internal/cache"
)

type memoryCache struct {
	ttl     time.Duration
	entries ttlcache.Cache[string, []byte]
}

// NewMemory returns a process-local cache. now may be nil.
func NewMemory(ttl time.Duration, now func() time.Time) Cache {
	var entries ttlcache.Cache[string, []byte]
	if now == nil {
		entries = ttlcache.NewTTLCache[string, []byte]()
	} else {
		entries = ttlcache.NewTTLCacheWithClock[string, []byte](now)
	}
	return &memoryCache{ttl: ttl, entries: entries}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	payload, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (c *memoryCache) Put(_ context.Context, key string, payload []byte) error {
	c.entries.Set(key, append([]byte(nil), payload...), c.ttl)
	return nil
}

func (c *memoryCache) ClearAll(_ context.Context) error {
	c.entries.Clear()
	return nil
}
