package repositorycache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/jinzhu/inflection"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// DefaultStoreColumn is the column ListByStore filters on.
const DefaultStoreColumn = "store_id"

var (
	errNoID    = errors.New("record has no id")
	errNoStore = errors.New("record has no store id")
)

// Config describes how records of T map onto cache keys. Every field is
// optional.
type Config[T any] struct {
	// Entity is the singular key namespace. Defaults to the snake cased
	// type name.
	Entity string
	// Plural names store listings. Defaults to the plural of Entity.
	Plural      string
	StoreColumn string
	TTL         time.Duration
	// ID and StoreID default to reading the ID and StoreID fields.
	ID      func(T) string
	StoreID func(T) string
}

// lookup carries the arguments of a single record read.
type lookup struct {
	Value    string
	Criteria []repository.SelectCriteria
}

func uncriteria(a lookup) bool { return len(a.Criteria) == 0 }

// CachedRepository decorates a base repository with caching functionality.
//
// Reads by id or identifier without criteria are cached under the entity
// key, store listings under the store key. Writes evict after they succeed.
type CachedRepository[T any] struct {
	base    repository.Repository[T]
	aspects *aspect.Engine
	logger  *zap.Logger

	entity      string
	plural      string
	storeColumn string
	ttl         time.Duration
	idOf        func(T) string
	storeOf     func(T) string

	getByID         aspect.Func[lookup, T]
	getByIdentifier aspect.Func[lookup, T]
	listByStore     aspect.Func[string, []T]
}

// New creates a new CachedRepository that wraps the base repository with
// caching. A nil aspect engine disables caching.
func New[T any](base repository.Repository[T], aspects *aspect.Engine, cfg Config[T], logger *zap.Logger) *CachedRepository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Entity == "" {
		cfg.Entity = namespaceOf[T]()
	}
	if cfg.Plural == "" {
		cfg.Plural = inflection.Plural(cfg.Entity)
	}
	if cfg.StoreColumn == "" {
		cfg.StoreColumn = DefaultStoreColumn
	}
	if cfg.ID == nil {
		cfg.ID = func(r T) string { return fieldString(r, "ID", "Id") }
	}
	if cfg.StoreID == nil {
		cfg.StoreID = func(r T) string { return fieldString(r, "StoreID", "StoreId") }
	}

	c := &CachedRepository[T]{
		base:        base,
		aspects:     aspects,
		logger:      logger.Named("repositorycache").With(zap.String("entity", cfg.Entity)),
		entity:      cfg.Entity,
		plural:      cfg.Plural,
		storeColumn: cfg.StoreColumn,
		ttl:         cfg.TTL,
		idOf:        cfg.ID,
		storeOf:     cfg.StoreID,
	}

	c.getByID = func(ctx context.Context, a lookup) (T, error) {
		return c.base.GetByID(ctx, a.Value, a.Criteria...)
	}
	c.getByIdentifier = func(ctx context.Context, a lookup) (T, error) {
		return c.base.GetByIdentifier(ctx, a.Value, a.Criteria...)
	}
	c.listByStore = c.fetchByStore

	if aspects != nil {
		c.getByID = aspect.CacheThrough(aspects, c.method("GetByID"), aspect.Cacheable[lookup]{
			TTL:       cfg.TTL,
			Condition: uncriteria,
			KeyGenerator: func(a lookup) (string, error) {
				return cache.EntityKey(c.entity, a.Value), nil
			},
		}, c.getByID)
		c.getByIdentifier = aspect.CacheThrough(aspects, c.method("GetByIdentifier"), aspect.Cacheable[lookup]{
			TTL:       cfg.TTL,
			Condition: uncriteria,
			KeyGenerator: func(a lookup) (string, error) {
				return c.identifierKey(a.Value), nil
			},
		}, c.getByIdentifier)
		c.listByStore = aspect.CacheThrough(aspects, c.method("ListByStore"), aspect.Cacheable[string]{
			TTL: cfg.TTL,
			KeyGenerator: func(storeID string) (string, error) {
				return cache.StoreKey(storeID, c.plural), nil
			},
		}, c.listByStore)
	}
	return c
}

// Entity returns the key namespace.
func (c *CachedRepository[T]) Entity() string { return c.entity }

// Plural returns the name used for store listings.
func (c *CachedRepository[T]) Plural() string { return c.plural }

// Base returns the undecorated repository.
func (c *CachedRepository[T]) Base() repository.Repository[T] { return c.base }

func (c *CachedRepository[T]) method(name string) aspect.Method {
	return aspect.Method{Class: c.entity, Name: name}
}

func (c *CachedRepository[T]) identifierKey(identifier string) string {
	return cache.EntityKey(c.entity, "identifier:"+identifier)
}

// GetByID retrieves a record by ID. Calls without criteria are cached.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.getByID(ctx, lookup{Value: id, Criteria: criteria})
}

// GetByIdentifier retrieves a record by identifier. Calls without criteria
// are cached.
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.getByIdentifier(ctx, lookup{Value: identifier, Criteria: criteria})
}

// ListByStore returns every record of storeID, cached under the store key.
func (c *CachedRepository[T]) ListByStore(ctx context.Context, storeID string) ([]T, error) {
	return c.listByStore(ctx, storeID)
}

// WarmEntry loads the store listing of storeID for cache warming.
func (c *CachedRepository[T]) WarmEntry(storeID string) cache.WarmEntry {
	return cache.WarmEntry{
		Key: cache.StoreKey(storeID, c.plural),
		TTL: c.ttl,
		Load: func(ctx context.Context) (any, error) {
			return c.fetchByStore(ctx, storeID)
		},
	}
}

func (c *CachedRepository[T]) fetchByStore(ctx context.Context, storeID string) ([]T, error) {
	records, _, err := c.base.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(c.storeColumn), storeID)
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Get passes through: criteria closures have no stable identity to key on.
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.Get(ctx, criteria...)
}

// List passes through, see Get.
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.List(ctx, criteria...)
}

// Count passes through, see Get.
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.Count(ctx, criteria...)
}

// Create creates a new record and evicts the store listing.
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	return c.onRecord(ctx, "Create", record, func(ctx context.Context, r T) (T, error) {
		return c.base.Create(ctx, r, criteria...)
	})
}

// CreateTx creates a new record within a transaction
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	return c.onRecord(ctx, "CreateTx", record, func(ctx context.Context, r T) (T, error) {
		return c.base.CreateTx(ctx, tx, r, criteria...)
	})
}

// CreateMany creates multiple records
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return c.onMany(ctx, "CreateMany", func(ctx context.Context) ([]T, error) {
		return c.base.CreateMany(ctx, records, criteria...)
	})
}

// CreateManyTx creates multiple records within a transaction
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return c.onMany(ctx, "CreateManyTx", func(ctx context.Context) ([]T, error) {
		return c.base.CreateManyTx(ctx, tx, records, criteria...)
	})
}

// GetOrCreate gets a record or creates it if it doesn't exist
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	return c.onRecord(ctx, "GetOrCreate", record, c.base.GetOrCreate)
}

// GetOrCreateTx gets a record or creates it if it doesn't exist within a transaction
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	return c.onRecord(ctx, "GetOrCreateTx", record, func(ctx context.Context, r T) (T, error) {
		return c.base.GetOrCreateTx(ctx, tx, r)
	})
}

// Update updates a record
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return c.onRecord(ctx, "Update", record, func(ctx context.Context, r T) (T, error) {
		return c.base.Update(ctx, r, criteria...)
	})
}

// UpdateTx updates a record within a transaction
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return c.onRecord(ctx, "UpdateTx", record, func(ctx context.Context, r T) (T, error) {
		return c.base.UpdateTx(ctx, tx, r, criteria...)
	})
}

// UpdateMany updates multiple records
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return c.onMany(ctx, "UpdateMany", func(ctx context.Context) ([]T, error) {
		return c.base.UpdateMany(ctx, records, criteria...)
	})
}

// UpdateManyTx updates multiple records within a transaction
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return c.onMany(ctx, "UpdateManyTx", func(ctx context.Context) ([]T, error) {
		return c.base.UpdateManyTx(ctx, tx, records, criteria...)
	})
}

// Upsert inserts or updates a record
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return c.onRecord(ctx, "Upsert", record, func(ctx context.Context, r T) (T, error) {
		return c.base.Upsert(ctx, r, criteria...)
	})
}

// UpsertTx inserts or updates a record within a transaction
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	return c.onRecord(ctx, "UpsertTx", record, func(ctx context.Context, r T) (T, error) {
		return c.base.UpsertTx(ctx, tx, r, criteria...)
	})
}

// UpsertMany inserts or updates multiple records
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return c.onMany(ctx, "UpsertMany", func(ctx context.Context) ([]T, error) {
		return c.base.UpsertMany(ctx, records, criteria...)
	})
}

// UpsertManyTx inserts or updates multiple records within a transaction
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return c.onMany(ctx, "UpsertManyTx", func(ctx context.Context) ([]T, error) {
		return c.base.UpsertManyTx(ctx, tx, records, criteria...)
	})
}

// Delete deletes a record
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	_, err := c.onRecord(ctx, "Delete", record, func(ctx context.Context, r T) (T, error) {
		return r, c.base.Delete(ctx, r)
	})
	return err
}

// DeleteTx deletes a record within a transaction
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	_, err := c.onRecord(ctx, "DeleteTx", record, func(ctx context.Context, r T) (T, error) {
		return r, c.base.DeleteTx(ctx, tx, r)
	})
	return err
}

// DeleteMany deletes multiple records based on criteria
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return c.onCriteria(ctx, "DeleteMany", func(ctx context.Context) error {
		return c.base.DeleteMany(ctx, criteria...)
	})
}

// DeleteManyTx deletes multiple records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return c.onCriteria(ctx, "DeleteManyTx", func(ctx context.Context) error {
		return c.base.DeleteManyTx(ctx, tx, criteria...)
	})
}

// DeleteWhere deletes records based on criteria
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return c.onCriteria(ctx, "DeleteWhere", func(ctx context.Context) error {
		return c.base.DeleteWhere(ctx, criteria...)
	})
}

// DeleteWhereTx deletes records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return c.onCriteria(ctx, "DeleteWhereTx", func(ctx context.Context) error {
		return c.base.DeleteWhereTx(ctx, tx, criteria...)
	})
}

// ForceDelete force deletes a record (bypassing soft delete)
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	_, err := c.onRecord(ctx, "ForceDelete", record, func(ctx context.Context, r T) (T, error) {
		return r, c.base.ForceDelete(ctx, r)
	})
	return err
}

// ForceDeleteTx force deletes a record within a transaction (bypassing soft delete)
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	_, err := c.onRecord(ctx, "ForceDeleteTx", record, func(ctx context.Context, r T) (T, error) {
		return r, c.base.ForceDeleteTx(ctx, tx, r)
	})
	return err
}

// GetTx retrieves a single record using the provided criteria within a transaction
func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

// GetByIDTx retrieves a record by ID with optional criteria within a transaction
func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

// ListTx retrieves multiple records using the provided criteria within a transaction
func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

// CountTx returns the number of records matching the criteria within a transaction
func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

// GetByIdentifierTx retrieves a record by identifier with optional criteria within a transaction
func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw executes a raw SQL query and returns the results
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw SQL query within a transaction and returns the results
func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// recordEvictions target what a single record write can make stale: its
// entity key, identifier lookups and its store's listings.
func (c *CachedRepository[T]) recordEvictions() []aspect.Evict[T] {
	return []aspect.Evict[T]{
		{KeyGenerator: func(r T) (string, error) {
			id := c.idOf(r)
			if id == "" {
				return "", errNoID
			}
			return cache.EntityKey(c.entity, id), nil
		}},
		{PatternGenerator: func(r T) (string, error) {
			storeID := c.storeOf(r)
			if storeID == "" {
				return "", errNoStore
			}
			return cache.StoreDataPattern(storeID, c.plural), nil
		}},
		{Pattern: c.identifierKey("*")},
	}
}

// wideEvictions apply when the touched records are unknown.
func wideEvictions[A any](entity, plural string) []aspect.Evict[A] {
	return []aspect.Evict[A]{
		{Pattern: entity + ":*"},
		{Pattern: cache.StoreDataPattern("*", plural)},
	}
}

func (c *CachedRepository[T]) onRecord(ctx context.Context, name string, record T, fn aspect.Func[T, T]) (T, error) {
	if c.aspects == nil {
		return fn(ctx, record)
	}
	out, err := aspect.EvictAround(c.aspects, c.method(name), fn, c.recordEvictions()...)(ctx, record)
	if err == nil {
		c.evictContextPatterns(ctx)
	}
	return out, err
}

func (c *CachedRepository[T]) onMany(ctx context.Context, name string, fn func(context.Context) ([]T, error)) ([]T, error) {
	if c.aspects == nil {
		return fn(ctx)
	}
	wrapped := aspect.EvictAround(c.aspects, c.method(name),
		func(ctx context.Context, _ struct{}) ([]T, error) { return fn(ctx) },
		wideEvictions[struct{}](c.entity, c.plural)...)
	out, err := wrapped(ctx, struct{}{})
	if err == nil {
		c.evictContextPatterns(ctx)
	}
	return out, err
}

func (c *CachedRepository[T]) onCriteria(ctx context.Context, name string, fn func(context.Context) error) error {
	_, err := c.onMany(ctx, name, func(ctx context.Context) ([]T, error) {
		return nil, fn(ctx)
	})
	return err
}

func (c *CachedRepository[T]) evictContextPatterns(ctx context.Context) {
	store := c.aspects.Store()
	for _, pattern := range evictPatternsFromContext(ctx) {
		n := store.InvalidatePattern(ctx, pattern)
		c.logger.Debug("evicted context pattern", zap.String("pattern", pattern), zap.Int("keys", n))
	}
}

// namespaceOf derives the key namespace from the reflected name of T.
func namespaceOf[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return toSnake(t.Name())
}

// fieldString reads the first present field of record as a string.
func fieldString(record any, names ...string) string {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	for _, name := range names {
		field := v.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			continue
		}
		switch val := field.Interface().(type) {
		case string:
			return val
		case fmt.Stringer:
			return val.String()
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}
