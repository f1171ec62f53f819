package cachemanager

import "time"

// CacheManager is the small cache surface quill needs. The editor is a
// single logical thread, so the interface is synchronous and carries no
// context.
type CacheManager[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(keys ...K)
	Flush()
}
