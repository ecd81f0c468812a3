package loader

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a built catalog is served before a rebuild.
const DefaultTTL = 10 * time.Minute

// Source produces a pipeline result.
type Source interface {
	Load(ctx context.Context) (*Result, error)
}

// Cache serves the last pipeline result until it is older than TTL or
// Refresh is called. Concurrent rebuilds are coalesced into one.
type Cache struct {
	src Source
	ttl time.Duration

	// OnLoad, if set, observes every successful rebuild.
	OnLoad func(*Result)

	nowFunc func() time.Time

	mu      sync.RWMutex
	current *Result
	builtAt time.Time

	group singleflight.Group
}

// NewCache wraps src. A non-positive ttl uses DefaultTTL.
func NewCache(src Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{src: src, ttl: ttl, nowFunc: time.Now}
}

// Get returns the cached result, rebuilding it when missing or expired.
func (c *Cache) Get(ctx context.Context) (*Result, error) {
	if cur := c.fresh(); cur != nil {
		return cur, nil
	}
	return c.rebuild(ctx)
}

func (c *Cache) fresh() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current != nil && c.nowFunc().Sub(c.builtAt) < c.ttl {
		return c.current
	}
	return nil
}

// Refresh marks the cached result stale and rebuilds it. The previous
// result stays visible to Peek until the rebuild succeeds.
func (c *Cache) Refresh(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	c.builtAt = time.Time{}
	c.mu.Unlock()
	return c.rebuild(ctx)
}

// Peek returns the cached result without loading. It may be nil or stale.
func (c *Cache) Peek() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Cache) rebuild(ctx context.Context) (*Result, error) {
	v, err, _ := c.group.Do("catalog", func() (any, error) {
		if cur := c.fresh(); cur != nil {
			return cur, nil
		}
		res, err := c.src.Load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.current = res
		c.builtAt = c.nowFunc()
		c.mu.Unlock()
		if c.OnLoad != nil {
			c.OnLoad(res)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}
