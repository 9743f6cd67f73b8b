package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores cache entries in redis. Pattern invalidation uses
// SCAN so the keyspace is never loaded in one round trip.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend creates a client for the configured server. The
// connection is established lazily by go-redis.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, &ConfigError{Field: "Redis.Addr", Message: "is required"}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
		PoolSize: cfg.PoolSize,
	})

	return &RedisBackend{rdb: rdb}, nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	if b.rdb == nil {
		return ErrUnavailable
	}
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b.rdb == nil {
		return nil, false, ErrUnavailable
	}
	value, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.rdb == nil {
		return ErrUnavailable
	}
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Del(ctx context.Context, keys ...string) (int64, error) {
	if b.rdb == nil {
		return 0, ErrUnavailable
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return b.rdb.Del(ctx, keys...).Result()
}

func (b *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	if b.rdb == nil {
		return false, ErrUnavailable
	}
	n, err := b.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TTL returns the remaining lifetime. Redis reports -1 for keys without
// expiry and -2 for missing keys; those sentinels are passed through as
// negative durations of the same magnitude in seconds.
func (b *RedisBackend) TTL(ctx context.Context, key string) (time.Duration, error) {
	if b.rdb == nil {
		return 0, ErrUnavailable
	}
	ttl, err := b.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return time.Duration(ttl.Nanoseconds()) * time.Second, nil
	}
	return ttl, nil
}

func (b *RedisBackend) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if b.rdb == nil {
		return nil, 0, ErrUnavailable
	}
	return b.rdb.Scan(ctx, cursor, match, count).Result()
}

func (b *RedisBackend) Flush(ctx context.Context) error {
	if b.rdb == nil {
		return ErrUnavailable
	}
	return b.rdb.FlushDB(ctx).Err()
}

// MGet fetches several keys in one round trip. Missing keys are absent
// from the returned map.
func (b *RedisBackend) MGet(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if b.rdb == nil {
		return nil, ErrUnavailable
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := b.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out, nil
}

// MSet writes several entries in a single pipeline so each keeps its own TTL.
func (b *RedisBackend) MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if b.rdb == nil {
		return ErrUnavailable
	}
	if len(entries) == 0 {
		return nil
	}
	_, err := b.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, key, value, ttl)
		}
		return nil
	})
	return err
}
