// Package cache holds small in-process caches keyed by string.
package cache

// Cache is a bounded key/value store whose entries may expire.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Len counts stored entries, expired ones not yet dropped included.
	Len() int
}

var _ Cache[int64] = (*LRUCache[int64])(nil)
