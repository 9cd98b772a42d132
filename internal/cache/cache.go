// Package cache описывает кеш с TTL.
// Реализации: memory (map + фоновая чистка) и lru (ограниченный LRU).
package cache

import "time"

type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
}
