package cache

import (
	"context"
	"time"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/cacheinfra"
)

var (
	// ErrScanUnsupported reports a backend that cannot enumerate keys;
	// pattern invalidation degrades to a no-op against it.
	ErrScanUnsupported = cacheinfra.ErrScanUnsupported

	// ErrTTLUnsupported reports a backend without per-key TTL introspection.
	ErrTTLUnsupported = cacheinfra.ErrTTLUnsupported
)

// Backend is the key-value store the Store wraps.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Scan returns a batch of keys matching the glob and the cursor to resume
	// from. A returned cursor of 0 ends the iteration.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	Flush(ctx context.Context) error
}

// BatchBackend is implemented by backends with native multi-key operations.
type BatchBackend interface {
	Backend
	MGet(ctx context.Context, keys ...string) (map[string][]byte, error)
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
}

var (
	_ BatchBackend = (*cacheinfra.RedisBackend)(nil)
	_ Backend      = (*cacheinfra.SturdycBackend)(nil)
)
