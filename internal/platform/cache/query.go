// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"strconv"
)

// Query is a cache-aside read: it returns the cached value for key or runs
// fetch, caches its result and returns it.
//
// Concurrent misses on the same key and epoch share one fetch. A fetch that an
// invalidation overtook still returns its result to its callers but leaves the
// cache untouched. Errors are never cached.
//
// The shared fetch keeps the values of ctx but not its cancellation, so one
// caller giving up does not fail the others waiting on the same flight.
func Query[T any](ctx context.Context, c *Coordinator, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if cached, ok := c.Get(key); ok {
		if value, ok := cached.(T); ok {
			return value, nil
		}
	}

	epoch := c.begin(key)
	defer c.end(key)

	flight := key.String() + "@" + strconv.FormatUint(epoch, 10)
	shared := context.WithoutCancel(ctx)
	result, err, _ := c.group.Do(flight, func() (any, error) {
		value, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.commit(key, epoch, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, _ := result.(T)
	return value, nil
}
