// Package cache defines the TTL key value capability backing the rate
// limiter. Implementations are injected so a distributed backend can replace
// the in-process map without touching any limiter logic.
package cache

import (
	"context"
	"time"
)

// Store is a key value store with per entry TTLs.
type Store interface {
	// Get returns the value for key and whether a live entry exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes key with the supplied TTL, replacing any existing entry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes the entry if present.
	Remove(ctx context.Context, key string) error
	// Increment atomically adds one to the counter at key and returns the
	// new value. A counter created by the first increment carries the
	// supplied TTL; later increments leave the window untouched.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Expire resets the TTL on an existing entry.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
