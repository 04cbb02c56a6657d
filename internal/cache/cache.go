package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

type fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Cache keeps raw item-info payloads keyed by item id. The underlying lru.Cache
// serializes Get/Put/Invalidate behind a single lock; Get refreshes recency.
type Cache struct {
	size int
	lru  *lru.Cache[string, []byte]
}

func New(size int) (*Cache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		size: size,
		lru:  c,
	}, nil
}

// Warm preloads the given ids. Fetch errors are skipped.
func (c *Cache) Warm(ctx context.Context, f fetcher, ids []string) int {
	warmed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return warmed
		}
		if payload, err := f.Fetch(ctx, id); err == nil {
			c.Put(id, payload)
			warmed++
		}
	}
	return warmed
}

func (c *Cache) Get(id string) ([]byte, bool) {
	return c.lru.Get(id)
}

// Put inserts or overwrites the entry as most recently used, evicting the least
// recently used entry when the capacity is exceeded.
func (c *Cache) Put(id string, payload []byte) {
	c.lru.Add(id, payload)
}

// Invalidate is idempotent.
func (c *Cache) Invalidate(id string) {
	c.lru.Remove(id)
}

func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Cap() int { return c.size }
