package cacheinfra

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycBackend keeps cache entries in process using a sturdyc client.
// It is suited to single-instance deployments and tests; entries are not
// shared between processes.
//
// sturdyc expires every entry after the client TTL, so each value carries
// its own deadline and the client TTL only bounds how long an entry can
// live.
type SturdycBackend struct {
	client *sturdyc.Client[entry]
	maxTTL time.Duration
	now    func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewSturdycBackend validates the configuration and initializes a sturdyc
// client with the provided settings.
func NewSturdycBackend(cfg MemoryConfig) (*SturdycBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycBackend{client: client, maxTTL: cfg.TTL, now: time.Now}, nil
}

// lookup returns the live entry for key, dropping it when its deadline
// has passed.
func (b *SturdycBackend) lookup(key string) (entry, bool) {
	e, ok := b.client.Get(key)
	if !ok {
		return entry{}, false
	}
	if !b.now().Before(e.expiresAt) {
		b.client.Delete(key)
		return entry{}, false
	}
	return e, true
}

func (b *SturdycBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := b.lookup(key)
	return e.value, ok, nil
}

// Set stores the value for ttl, capped at the client TTL. A ttl <= 0 uses
// the client TTL.
func (b *SturdycBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > b.maxTTL {
		ttl = b.maxTTL
	}
	b.client.Set(key, entry{value: value, expiresAt: b.now().Add(ttl)})
	return nil
}

func (b *SturdycBackend) Del(_ context.Context, keys ...string) (int64, error) {
	var deleted int64
	for _, key := range keys {
		if _, ok := b.lookup(key); ok {
			deleted++
		}
		b.client.Delete(key)
	}
	return deleted, nil
}

func (b *SturdycBackend) Exists(_ context.Context, key string) (bool, error) {
	_, ok := b.lookup(key)
	return ok, nil
}

// TTL returns the remaining lifetime of key, or -2s when it is absent,
// matching the redis sentinel.
func (b *SturdycBackend) TTL(_ context.Context, key string) (time.Duration, error) {
	e, ok := b.lookup(key)
	if !ok {
		return -2 * time.Second, nil
	}
	return e.expiresAt.Sub(b.now()), nil
}

// Scan walks the sorted keyspace from the end towards the start, count keys
// per round. The returned cursor is the lower bound of the round just
// examined; 0 means the walk is complete. Walking downwards means deleting
// keys that were already returned never shifts the keys still to be visited.
func (b *SturdycBackend) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if _, err := path.Match(match, ""); err != nil {
		return nil, 0, err
	}
	if count <= 0 {
		count = 100
	}

	keys := b.client.ScanKeys()
	sort.Strings(keys)

	hi := len(keys)
	if cursor != 0 && int(cursor) < hi {
		hi = int(cursor)
	}
	lo := hi - int(count)
	if lo < 0 {
		lo = 0
	}

	var matched []string
	for _, key := range keys[lo:hi] {
		if ok, _ := path.Match(match, key); !ok {
			continue
		}
		if _, live := b.lookup(key); live {
			matched = append(matched, key)
		}
	}

	return matched, uint64(lo), nil
}

func (b *SturdycBackend) Flush(context.Context) error {
	for _, key := range b.client.ScanKeys() {
		b.client.Delete(key)
	}
	return nil
}

// Size reports the number of entries currently held.
func (b *SturdycBackend) Size() int {
	return b.client.Size()
}
