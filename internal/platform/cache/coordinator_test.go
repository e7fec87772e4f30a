// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/platform/cache"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestKey_HasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		key    cache.Key
		prefix cache.Key
		want   bool
	}{
		{"entity matches all variants", cache.NewKey("posts", "published"), cache.NewKey("posts"), true},
		{"absent parameter variant", cache.NewKey("posts", ""), cache.NewKey("posts"), true},
		{"part-wise not string-wise", cache.NewKey("posts", ""), cache.NewKey("post"), false},
		{"full key", cache.NewKey("post", "hello"), cache.NewKey("post", "hello"), true},
		{"longer prefix", cache.NewKey("stats"), cache.NewKey("stats", "x"), false},
		{"empty prefix matches everything", cache.NewKey("tags"), cache.NewKey(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}
}

func TestCoordinator_GetSetInvalidate(t *testing.T) {
	c := cache.New()

	_, ok := c.Get(cache.NewKey("posts", ""))
	assert.False(t, ok)

	c.Set(cache.NewKey("posts", ""), []string{"a"})
	c.Set(cache.NewKey("posts", "published"), []string{"b"})
	c.Set(cache.NewKey("post", "hello"), "hello")

	value, ok := c.Get(cache.NewKey("posts", ""))
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, value)

	assert.Equal(t, 2, c.Invalidate("posts"))
	assert.Zero(t, c.Invalidate("posts"), "invalidating twice is harmless")

	_, ok = c.Get(cache.NewKey("posts", "published"))
	assert.False(t, ok)
	_, ok = c.Get(cache.NewKey("post", "hello"))
	assert.True(t, ok, "sibling entity untouched")
}

func TestCoordinator_StaleAfter(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.New(cache.WithClock(clock.Now), cache.WithStaleAfter(time.Minute))

	c.Set(cache.NewKey("stats"), 1)
	clock.Advance(30 * time.Second)
	_, ok := c.Get(cache.NewKey("stats"))
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get(cache.NewKey("stats"))
	assert.False(t, ok)
}

func TestCoordinator_WatchNotifiesAndCounts(t *testing.T) {
	c := cache.New()
	key := cache.NewKey("posts", "")

	var events []cache.EventKind
	cancel := c.Watch(key, func(event cache.Event) {
		events = append(events, event.Kind)
	})
	assert.Equal(t, 1, c.Refs(key))

	c.Set(key, 1)
	c.Invalidate("posts")
	assert.Equal(t, []cache.EventKind{cache.EventSet, cache.EventInvalidated}, events)

	cancel()
	cancel()
	assert.Zero(t, c.Refs(key))

	c.Set(key, 2)
	assert.Len(t, events, 2, "released observers receive nothing")
}

func TestCoordinator_PruneKeepsWatchedEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.New(cache.WithClock(clock.Now))

	c.Set(cache.NewKey("tags"), 1)
	cancel := c.Watch(cache.NewKey("stats"), func(cache.Event) {})
	c.Set(cache.NewKey("stats"), 2)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, c.Prune(10*time.Minute))
	assert.Equal(t, 1, c.Len())

	cancel()
	assert.Zero(t, c.Prune(10*time.Minute), "release restarts the idle clock")

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, c.Prune(10*time.Minute))
	assert.Zero(t, c.Len())
}

func TestQuery_CachesAndSharesFetch(t *testing.T) {
	c := cache.New()
	key := cache.NewKey("tags")

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"go"}, nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := cache.Query(context.Background(), c, key, fetch)
			assert.NoError(t, err)
			assert.Equal(t, []string{"go"}, value)
		}()
	}

	// Give the goroutines time to join the flight before releasing it
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	value, err := cache.Query(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, value)
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	before := calls.Load()
	_, err = cache.Query(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load(), "served from cache")
}

func TestQuery_InvalidationDuringFetchIsNotCached(t *testing.T) {
	c := cache.New()
	key := cache.NewKey("posts", "")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan []string)

	go func() {
		value, _ := cache.Query(context.Background(), c, key, func(context.Context) ([]string, error) {
			close(started)
			<-release
			return []string{"stale"}, nil
		})
		done <- value
	}()

	<-started
	c.Invalidate("posts")
	close(release)

	assert.Equal(t, []string{"stale"}, <-done, "the caller still receives its result")

	_, ok := c.Get(key)
	assert.False(t, ok, "a fetch overtaken by an invalidation must not populate the cache")

	value, err := cache.Query(context.Background(), c, key, func(context.Context) ([]string, error) {
		return []string{"fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, value)
}

func TestQuery_ErrorsAreNotCached(t *testing.T) {
	c := cache.New()
	key := cache.NewKey("stats")
	boom := errors.New("boom")

	_, err := cache.Query(context.Background(), c, key, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	value, err := cache.Query(context.Background(), c, key, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}

func TestQuery_FetchIgnoresCallerCancellation(t *testing.T) {
	c := cache.New()
	key := cache.NewKey(cache.EntityPosts, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	value, err := cache.Query(ctx, c, key, func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)

	cached, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "fresh", cached)
}

func TestMetrics_RecordHitsMissesInvalidations(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := cache.NewMetrics(registry)
	c := cache.New(cache.WithMetrics(metrics))

	c.Get(cache.NewKey("posts", ""))
	c.Set(cache.NewKey("posts", ""), 1)
	c.Get(cache.NewKey("posts", ""))
	c.Invalidate("posts")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Misses.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Hits.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Invalidations.WithLabelValues("posts")))
}
