package source

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot is served before it is revalidated
const DefaultTTL = 120 * time.Second

// Cache is a single-slot read-through cache in front of a Loader. Failed
// loads are cached like successful ones, so a broken source is retried at
// most once per TTL. Concurrent refreshes share a single load.
type Cache struct {
	loader   *Loader
	ttl      time.Duration
	now      func() time.Time
	observer Observer

	mu         sync.Mutex
	snap       Snapshot
	validUntil time.Time
	loaded     bool

	group singleflight.Group
}

// CacheOption customizes a Cache
type CacheOption func(*Cache)

// WithTTL sets the revalidation interval
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheClock replaces the clock used for expiry
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithCacheObserver registers a metrics observer for hits and misses
func WithCacheObserver(o Observer) CacheOption {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewCache creates a cache around loader
func NewCache(loader *Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:   loader,
		ttl:      DefaultTTL,
		now:      time.Now,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot, loading a fresh one when the slot is empty
// or expired.
func (c *Cache) Get(ctx context.Context) Snapshot {
	if snap, ok := c.cached(); ok {
		c.observer.ObserveCache(ctx, true)
		return snap
	}
	c.observer.ObserveCache(ctx, false)

	// the load outlives a cancelled caller so the other waiters still get a result
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do("snapshot", func() (interface{}, error) {
		if snap, ok := c.cached(); ok {
			return snap, nil
		}
		snap := c.loader.Load(loadCtx)
		c.store(snap)
		return snap, nil
	})
	return v.(Snapshot)
}

// Invalidate drops the cached snapshot
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.snap = Snapshot{}
}

// ValidUntil returns the expiry of the cached snapshot, zero when empty
func (c *Cache) ValidUntil() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return time.Time{}
	}
	return c.validUntil
}

func (c *Cache) cached() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.now().Before(c.validUntil) {
		return c.snap, true
	}
	return Snapshot{}, false
}

func (c *Cache) store(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.validUntil = c.now().Add(c.ttl)
	c.loaded = true
}
