// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache implements the query cache shared by every repository service.

A [Coordinator] is an explicit, constructible component: each server (and each
test) owns its own instance. Entries are addressed by a [Key] tuple and
invalidated by part-wise prefix after successful mutations.

Consistency rules:

  - Last completed Set wins; there is no locking across fetches.
  - Invalidate bumps the epoch of every matching entry. A [Query] fetch that
    started before the bump never populates the entry it raced.
  - Invalidation is idempotent and commutative.

Observers registered with [Coordinator.Watch] hold a reference on the entry
and are notified of every Set and Invalidate. Entries without observers are
evicted by [Coordinator.Prune] once idle.
*/
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// # Events

// EventKind distinguishes observer notifications.
type EventKind int

const (
	EventSet EventKind = iota + 1
	EventInvalidated
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Event is delivered to observers of a key.
type Event struct {
	Kind  EventKind
	Key   Key
	Value any // nil for EventInvalidated
}

// Listener receives events. It runs on the goroutine that caused the event
// and must not call back into the Coordinator synchronously.
type Listener func(Event)

// # Coordinator

type entry struct {
	key         Key
	value       any
	valid       bool
	epoch       uint64
	updatedAt   time.Time
	lastRelease time.Time
	inflight    int
	listeners   map[uint64]Listener
}

func (e *entry) idleSince() time.Time {
	if e.lastRelease.After(e.updatedAt) {
		return e.lastRelease
	}
	return e.updatedAt
}

// Coordinator is a keyed, reference-counted cache safe for concurrent use.
type Coordinator struct {
	mu           sync.Mutex
	entries      map[string]*entry
	nextListener uint64

	group      singleflight.Group
	metrics    *Metrics
	now        func() time.Time
	staleAfter time.Duration
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithMetrics records hits, misses and invalidations.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Coordinator) { c.metrics = metrics }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithStaleAfter makes entries older than d count as misses. Zero keeps
// entries until they are invalidated.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Coordinator) { c.staleAfter = d }
}

// New creates an empty Coordinator.
func New(opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator
}

// Get returns the cached value for key, or false on a miss.
func (c *Coordinator) Get(key Key) (any, bool) {
	c.mu.Lock()
	value, ok := c.lookupLocked(key)
	c.mu.Unlock()

	if ok {
		c.metrics.hit(key.Entity())
	} else {
		c.metrics.miss(key.Entity())
	}
	return value, ok
}

func (c *Coordinator) lookupLocked(key Key) (any, bool) {
	current, ok := c.entries[key.String()]
	if !ok || !current.valid {
		return nil, false
	}
	if c.staleAfter > 0 && c.now().Sub(current.updatedAt) > c.staleAfter {
		return nil, false
	}
	return current.value, true
}

// Set stores value under key and notifies its observers.
func (c *Coordinator) Set(key Key, value any) {
	c.mu.Lock()
	current := c.entryLocked(key)
	current.value = value
	current.valid = true
	current.updatedAt = c.now()
	listeners := collect(current)
	c.mu.Unlock()

	dispatch(listeners, Event{Kind: EventSet, Key: key, Value: value})
}

// Invalidate discards every entry whose key starts with prefix and returns how
// many valid entries were discarded. Calling it with no parts invalidates all.
func (c *Coordinator) Invalidate(prefix ...string) int {
	match := Key(prefix)

	c.mu.Lock()
	var deliveries []delivery
	count := 0
	for _, current := range c.entries {
		if !current.key.HasPrefix(match) {
			continue
		}
		if current.valid {
			count++
		}
		current.valid = false
		current.value = nil
		current.epoch++
		for _, listener := range current.listeners {
			deliveries = append(deliveries, delivery{listener: listener, key: current.key})
		}
	}
	c.mu.Unlock()

	c.metrics.invalidated(match.Entity(), count)

	for _, d := range deliveries {
		d.listener(Event{Kind: EventInvalidated, Key: d.key})
	}
	return count
}

// Watch registers listener on key and takes a reference on the entry. The
// returned cancel releases it; calling cancel more than once is harmless.
func (c *Coordinator) Watch(key Key, listener Listener) (cancel func()) {
	c.mu.Lock()
	current := c.entryLocked(key)
	id := c.nextListener
	c.nextListener++
	current.listeners[id] = listener
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(current.listeners, id)
			current.lastRelease = c.now()
		})
	}
}

// Refs returns the number of observers holding key.
func (c *Coordinator) Refs(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries[key.String()]; ok {
		return len(current.listeners)
	}
	return 0
}

// Len returns the number of tracked entries, valid or not.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune evicts entries that have no observers, no fetch in flight and have
// been idle longer than maxIdle. It returns the number of evicted entries.
func (c *Coordinator) Prune(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for index, current := range c.entries {
		if len(current.listeners) > 0 || current.inflight > 0 {
			continue
		}
		if now.Sub(current.idleSince()) <= maxIdle {
			continue
		}
		delete(c.entries, index)
		evicted++
	}
	return evicted
}

// Run prunes idle entries every interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune(maxIdle)
		}
	}
}

// # Fetch Bookkeeping

// begin registers a fetch for key and returns the epoch it observes.
func (c *Coordinator) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.entryLocked(key)
	current.inflight++
	return current.epoch
}

// end releases a fetch registered by begin.
func (c *Coordinator) end(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries[key.String()]; ok && current.inflight > 0 {
		current.inflight--
	}
}

// commit stores value only if no invalidation completed since epoch.
func (c *Coordinator) commit(key Key, epoch uint64, value any) bool {
	c.mu.Lock()
	current, ok := c.entries[key.String()]
	if !ok || current.epoch != epoch {
		c.mu.Unlock()
		c.metrics.staleCommit(key.Entity())
		return false
	}
	current.value = value
	current.valid = true
	current.updatedAt = c.now()
	listeners := collect(current)
	c.mu.Unlock()

	dispatch(listeners, Event{Kind: EventSet, Key: key, Value: value})
	return true
}

func (c *Coordinator) entryLocked(key Key) *entry {
	index := key.String()
	current, ok := c.entries[index]
	if !ok {
		current = &entry{
			key:       append(Key(nil), key...),
			updatedAt: c.now(),
			listeners: make(map[uint64]Listener),
		}
		c.entries[index] = current
	}
	return current
}

type delivery struct {
	listener Listener
	key      Key
}

func collect(current *entry) []Listener {
	listeners := make([]Listener, 0, len(current.listeners))
	for _, listener := range current.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

func dispatch(listeners []Listener, event Event) {
	for _, listener := range listeners {
		listener(event)
	}
}
