// Package repositorycache provides cached repository decorators for go-repository-bun.
//
// # Overview
//
// CachedRepository[T] wraps a base repository and routes its reads and writes
// through the aspect engine: lookups are cache-through, writes evict what they
// made stale once they succeed. It fully implements repository.Repository[T]
// and adds ListByStore, which makes it a search.Source for reindexing.
//
// # Basic Usage
//
//	base := repository.NewRepository[*catalog.Brand](db, handlers)
//	brands := repositorycache.New[*catalog.Brand](base, aspects, repositorycache.Config[*catalog.Brand]{}, logger)
//
//	brand, err := brands.GetByID(ctx, id)         // brand:{id}
//	list, err := brands.ListByStore(ctx, storeID) // store:{storeId}:brands
//
// The key namespace defaults to the snake cased type name and listings use
// its plural. ID and StoreID fields are read by reflection unless Config
// provides accessors.
//
// # Cached vs Pass-through Operations
//
// Cached:
//   - GetByID, GetByIdentifier when called without criteria
//   - ListByStore
//
// Pass-through:
//   - Get, List, Count and every read given criteria; criteria are closures
//     and cannot be keyed reliably
//   - All transaction-based reads (*Tx methods) and Raw queries
//
// # Invalidation
//
// A successful single record write (Create, Update, Upsert, GetOrCreate,
// Delete, ForceDelete and their Tx variants) evicts:
//
//	{entity}:{id}
//	{entity}:identifier:*
//	store:{storeId}:{entities}*
//
// Bulk and criteria writes (CreateMany, UpdateMany, UpsertMany, DeleteMany,
// DeleteWhere) cannot name the touched records and evict {entity}:* and
// store:*:{entities}* instead. Failed writes evict nothing.
//
// Callers can widen a single write with WithEvictPatterns:
//
//	ctx = repositorycache.WithEvictPatterns(ctx, cache.StoreDataPattern(storeID, "products"))
//	_, err := brands.Update(ctx, brand)
//
// # Error Handling
//
// Errors from the base repository are propagated unchanged and never cached.
// Cache failures are logged and never break the underlying operation.
package repositorycache
