// Package kv is the key-value store used for hint sessions and the
// destination cache. Values are JSON documents with a time-to-live.
package kv

import (
	"context"
	"time"
)

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	// Get decodes the value under key into dst. found is false when the key is
	// missing or expired.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	// Put stores v under key for ttl.
	Put(ctx context.Context, key string, v any, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
