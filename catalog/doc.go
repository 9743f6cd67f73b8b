// Package catalog models the entities of a store (stores, brands,
// categories and products) and keeps their three representations in step:
// the relational row, the cached reads and the search document.
//
// Every write goes through a Service, in this order:
//
//  1. the relational write through a repositorycache.CachedRepository
//  2. eviction of the entity key, the store listing and any embedding caches
//  3. the search document, reloaded with its relations
//
// A failed relational write stops the chain. Failures in steps 2 and 3 are
// logged and never surface; a store reindex repairs the index.
package catalog
