// Package cache provides the bounded in-memory TTL caches used for routing
// results, LLM decisions and fetched series data.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a size-bounded map whose entries expire a fixed time after they
// were written. When full, the oldest-written entries are evicted. It is
// safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	name       string
	ttl        time.Duration
	maxEntries int
	evictBatch int
	now        func() time.Time
	items      map[string]*list.Element
	order      *list.List

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[V any] struct {
	key     string
	value   V
	written time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Name      string `json:"name"`
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type options struct {
	name       string
	evictBatch int
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*options)

// WithName labels the cache in stats and logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithEvictBatch sets how many of the oldest entries are dropped at once
// when the cache is full.
func WithEvictBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.evictBatch = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a cache holding at most maxEntries values for ttl each.
// A non-positive maxEntries means unbounded.
func New[V any](ttl time.Duration, maxEntries int, opts ...Option) *Cache[V] {
	o := options{name: "cache", evictBatch: 1, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:       o.name,
		ttl:        ttl,
		maxEntries: maxEntries,
		evictBatch: o.evictBatch,
		now:        o.now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Name returns the cache label.
func (c *Cache[V]) Name() string {
	return c.name
}

// Get returns the value for key if present and not expired. Expired
// entries are removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.expired(e) {
		c.remove(el)
		c.misses++
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, replacing any previous value and restarting
// its TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.written = c.now()
		c.order.MoveToBack(el)
		return
	}

	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldest(c.evictBatch)
	}
	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, written: c.now()})
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry[V])) {
			c.remove(el)
			removed++
		}
		el = next
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Name:      c.name,
		Entries:   len(c.items),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *Cache[V]) expired(e *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.written) >= c.ttl
}

func (c *Cache[V]) evictOldest(n int) {
	for i := 0; i < n; i++ {
		el := c.order.Front()
		if el == nil {
			return
		}
		c.remove(el)
		c.evictions++
	}
}

func (c *Cache[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
