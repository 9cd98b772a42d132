package lru

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kitbuilder587/lesson-gate/internal/cache"
)

const DefaultSize = 1000

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache - LRU фиксированного размера; просроченные записи удаляются при чтении
type Cache[V any] struct {
	lru *lru.Cache[string, entry[V]]
	now func() time.Time
}

var _ cache.Cache[int] = (*Cache[int])(nil)

func New[V any](size int) (*Cache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache[V]{lru: l, now: time.Now}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
