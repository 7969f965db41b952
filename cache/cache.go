// Package cache declares the in-process cache the app depends on.
package cache

import "time"

// Cache is the minimal surface the IP blocker and similar consumers need.
// Set and SetWithTTL report whether the entry was admitted; cost feeds
// admission policies like Ristretto's and is ignored by simpler backends.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, cost int64) bool
	SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool
}
