package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/cacheinfra"
)

// Backend kinds accepted by Config.Backend.
const (
	BackendRedis  = cacheinfra.BackendRedis
	BackendMemory = cacheinfra.BackendMemory
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend       string
	DefaultTTL    time.Duration
	ScanBatchSize int64
	Redis         RedisConfig
	Memory        MemoryConfig
}

// RedisConfig mirrors the redis connection settings.
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
	PoolSize int
}

// MemoryConfig mirrors the in-process sturdyc settings.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewBackend constructs the backend selected by cfg.Backend.
func NewBackend(cfg Config) (Backend, error) {
	internal := cfg.toInternal()
	if err := internal.Validate(); err != nil {
		return nil, err
	}

	// the memory TTL caps every write, so it must cover the default
	internal.Memory.TTL = max(internal.Memory.TTL, internal.DefaultTTL)

	switch internal.Backend {
	case cacheinfra.BackendRedis:
		return cacheinfra.NewRedisBackend(internal.Redis)
	default:
		return cacheinfra.NewSturdycBackend(internal.Memory)
	}
}

// NewStoreFromConfig builds the backend and wraps it in a Store.
func NewStoreFromConfig(cfg Config, metrics *Metrics, logger *zap.Logger) (*Store, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(backend, metrics, logger,
		WithDefaultTTL(cfg.DefaultTTL),
		WithScanBatchSize(cfg.ScanBatchSize),
	), nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Backend:       c.Backend,
		DefaultTTL:    c.DefaultTTL,
		ScanBatchSize: c.ScanBatchSize,
		Redis: cacheinfra.RedisConfig{
			Addr:     c.Redis.Addr,
			DB:       c.Redis.DB,
			Password: c.Redis.Password,
			PoolSize: c.Redis.PoolSize,
		},
		Memory: cacheinfra.MemoryConfig{
			Capacity:           c.Memory.Capacity,
			NumShards:          c.Memory.NumShards,
			TTL:                c.Memory.TTL,
			EvictionPercentage: c.Memory.EvictionPercentage,
			EvictionInterval:   c.Memory.EvictionInterval,
		},
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:       cfg.Backend,
		DefaultTTL:    cfg.DefaultTTL,
		ScanBatchSize: cfg.ScanBatchSize,
		Redis: RedisConfig{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
			PoolSize: cfg.Redis.PoolSize,
		},
		Memory: MemoryConfig{
			Capacity:           cfg.Memory.Capacity,
			NumShards:          cfg.Memory.NumShards,
			TTL:                cfg.Memory.TTL,
			EvictionPercentage: cfg.Memory.EvictionPercentage,
			EvictionInterval:   cfg.Memory.EvictionInterval,
		},
	}
}
