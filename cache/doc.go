// Package cache provides the key-value cache store, its metrics recorder and
// the key naming scheme shared by every cached component.
//
// # Overview
//
// The package exports:
//
//   - Store: wraps a Backend (redis or in-process sturdyc) with msgpack
//     encoding, per-key TTL, batch get/set and cursor based pattern
//     invalidation
//   - Metrics: striped hit/miss/set/delete/error counters with a derived hit
//     rate, also exposed as a prometheus.Collector
//   - KeySerializer: stable argument hashing used to derive default keys
//   - key helpers: EntityKey, StoreKey, UserKey, SearchKey and the matching
//     patterns
//
// # Failure policy
//
// The cache is an optimisation, never a correctness dependency. Every Store
// method catches backend failures, increments the errors counter, logs the
// failure and degrades to a miss (reads) or a no-op (writes). Nothing is
// returned to the caller as an error.
//
// # Basic Usage
//
//	metrics := cache.NewMetrics()
//	store, err := cache.NewStoreFromConfig(cache.DefaultConfig(), metrics, logger)
//
//	store.Set(ctx, cache.StoreKey("S1", "brands"), brands, 5*time.Minute)
//	brands, ok := cache.GetValue[[]Brand](ctx, store, cache.StoreKey("S1", "brands"))
//
//	// drop every brand listing of the store
//	store.InvalidatePattern(ctx, cache.StoreDataPattern("S1", "brands"))
//
// # Key naming scheme
//
//	{entity}:{id}
//	store:{storeId}:{dataType}
//	user:{userId}:{dataType}
//	search:{entityType}:store={storeId}:q={query}:page={page}:limit={limit}:filters:{filterHash}
//
// Wildcarding is always a trailing "*" against one of these prefixes.
//
// # Pattern invalidation
//
// InvalidatePattern never asks the backend for a pattern delete. It walks the
// keyspace with SCAN, ScanBatchSize keys per round, deleting each matched
// batch before requesting the next one, until the cursor returns to 0. This
// bounds memory and keeps the store responsive on large keyspaces. Backends
// without a scan primitive degrade to a logged no-op.
package cache
