package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/lesson-gate/internal/cache"
)

const defaultCleanupInterval = 5 * time.Minute

type item[V any] struct {
	value     V
	expiresAt time.Time
}

type Options struct {
	// 0 - без ограничения
	MaxEntries      int
	CleanupInterval time.Duration
}

// Cache - in-memory кеш с TTL и опциональным лимитом записей
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]item[V]
	max      int
	now      func() time.Time
	stopChan chan struct{}
	stopped  bool
}

func New[V any](opts Options) *Cache[V] {
	return NewWithContext[V](context.Background(), opts)
}

// NewWithContext - фоновая чистка остановится вместе с ctx
func NewWithContext[V any](ctx context.Context, opts Options) *Cache[V] {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	c := &Cache[V]{
		items:    make(map[string]item[V]),
		max:      opts.MaxEntries,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go c.cleanup(ctx, opts.CleanupInterval)
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || c.now().After(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		c.evictLocked()
	}
	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
}

// evictLocked: сначала просроченные, если их нет - запись, которая истекает раньше всех
func (c *Cache[V]) evictLocked() {
	now := c.now()
	var victim string
	var earliest time.Time
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
			return
		}
		if victim == "" || it.expiresAt.Before(earliest) {
			victim, earliest = k, it.expiresAt
		}
	}
	delete(c.items, victim)
}

func (c *Cache[V]) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}

var _ cache.Cache[string] = (*Cache[string])(nil)
