package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(src Source, clock *fakeClock, obs Observer) *Cache {
	loader := NewLoader(src, nil, WithClock(clock.Now), WithRetry(1, 0))
	return NewCache(loader, WithCacheClock(clock.Now), WithCacheObserver(obs))
}

func TestCache_ServesWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	src := &fakeSource{rows: sampleRows}
	obs := &recordingObserver{}
	cache := newTestCache(src, clock, obs)

	first := cache.Get(context.Background())
	clock.Advance(119 * time.Second)
	second := cache.Get(context.Background())

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Same(t, first.Table, second.Table)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, clock.Now().Add(time.Second), cache.ValidUntil())
}

func TestCache_RevalidatesAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	src := &fakeSource{rows: sampleRows}
	cache := newTestCache(src, clock, nil)

	cache.Get(context.Background())
	clock.Advance(DefaultTTL)
	cache.Get(context.Background())

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_CachesFailures(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	src := &fakeSource{err: errors.New("down")}
	cache := newTestCache(src, clock, nil)

	first := cache.Get(context.Background())
	second := cache.Get(context.Background())

	assert.Error(t, first.Warning)
	assert.Error(t, second.Warning)
	assert.True(t, second.Table.IsEmpty())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	src := &fakeSource{rows: sampleRows}
	cache := newTestCache(src, clock, nil)

	cache.Get(context.Background())
	cache.Invalidate()
	assert.True(t, cache.ValidUntil().IsZero())
	cache.Get(context.Background())

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_CollapsesConcurrentRefreshes(t *testing.T) {
	src := &fakeSource{rows: sampleRows, delay: 50 * time.Millisecond}
	cache := NewCache(NewLoader(src, nil, WithRetry(1, 0)))

	var wg sync.WaitGroup
	results := make([]Snapshot, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Get(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, r := range results {
		require.NotNil(t, r.Table)
		assert.Equal(t, 2, r.Table.Len())
	}
}

func TestCache_CallerCancelDoesNotPoisonLoad(t *testing.T) {
	src := &fakeSource{rows: sampleRows}
	cache := NewCache(NewLoader(src, nil, WithRetry(1, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := cache.Get(ctx)

	assert.True(t, snap.OK())
	assert.Equal(t, 2, snap.Table.Len())
}
