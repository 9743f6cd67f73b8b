package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Backend kinds understood by NewBackend.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the configuration for the cache backends.
type Config struct {
	// Backend selects the key-value store: "redis" or "memory".
	Backend string

	// DefaultTTL is applied to writes that do not carry their own TTL.
	// Must be greater than 0.
	DefaultTTL time.Duration

	// ScanBatchSize bounds how many keys a single SCAN round returns
	// during pattern invalidation. Must be greater than 0. Default: 100
	ScanBatchSize int64

	Redis  RedisConfig
	Memory MemoryConfig
}

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
	PoolSize int
}

// MemoryConfig encapsulates the sturdyc options used by the in-process backend.
type MemoryConfig struct {
	// Capacity defines the maximum number of entries that the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is the longest an entry may live. Writes carry their own TTL
	// and are capped at this value.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendMemory,
		DefaultTTL:    5 * time.Minute,
		ScanBatchSize: 100,
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Memory: MemoryConfig{
			Capacity:           10000,
			NumShards:          256,
			TTL:                5 * time.Minute,
			EvictionPercentage: 10,
		},
	}
}

// ToSturdycOptions converts the memory settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage are passed directly
// to sturdyc.New and are not included here.
func (c MemoryConfig) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis, BackendMemory:
	default:
		return &ConfigError{Field: "Backend", Message: "must be one of redis, memory"}
	}

	if c.DefaultTTL <= 0 {
		return &ConfigError{Field: "DefaultTTL", Message: "must be greater than 0"}
	}

	if c.ScanBatchSize <= 0 {
		return &ConfigError{Field: "ScanBatchSize", Message: "must be greater than 0"}
	}

	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return &ConfigError{Field: "Redis.Addr", Message: "is required for the redis backend"}
	}

	if c.Backend == BackendMemory {
		return c.Memory.Validate()
	}

	return nil
}

// Validate checks the sturdyc settings.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Memory.Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "Memory.NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "Memory.TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "Memory.EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "Memory.EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
