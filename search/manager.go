package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// GlobalSearchTTL bounds how long an aggregated search stays cached.
const GlobalSearchTTL = 120 * time.Second

// DefaultGlobalLimit is the per type page size of a global search.
const DefaultGlobalLimit = 5

// GlobalResult aggregates one page per entity type.
type GlobalResult struct {
	StoreID string            `json:"storeId"`
	Query   string            `json:"query"`
	Results map[string]Result `json:"results"`
	Total   int64             `json:"total"`
}

// StoreReindexReport aggregates the per type reports of a store reindex.
type StoreReindexReport struct {
	StoreID string                    `json:"storeId"`
	Reports map[string]*ReindexReport `json:"reports"`
	Errors  map[string]string         `json:"errors,omitempty"`
}

type globalArgs struct {
	StoreID string
	Query   string
	Limit   int
}

// Manager coordinates every registered search index.
type Manager struct {
	indexes *xsync.MapOf[string, Searchable]
	logger  *zap.Logger

	reindex aspect.Func[string, *StoreReindexReport]
	global  aspect.Func[globalArgs, *GlobalResult]
}

// NewManager creates a manager. With a nil aspect engine nothing is cached
// or evicted.
func NewManager(aspects *aspect.Engine, logger *zap.Logger, indexes ...Searchable) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		indexes: xsync.NewMapOf[string, Searchable](),
		logger:  logger.Named("search.manager"),
	}
	for _, ix := range indexes {
		m.Register(ix)
	}

	m.reindex, m.global = m.reindexStore, m.globalSearch
	if aspects != nil {
		m.reindex = aspect.EvictAround(aspects, aspect.Method{Class: "SearchManager", Name: "ReindexStore"}, m.reindex,
			aspect.Evict[string]{
				PatternGenerator: func(storeID string) (string, error) {
					return cache.SearchStorePattern("*", storeID), nil
				},
			},
			aspect.Evict[string]{
				PatternGenerator: func(storeID string) (string, error) {
					return cache.SearchStorePattern("global", storeID), nil
				},
			},
		)
		m.global = aspect.CacheThrough(aspects, aspect.Method{Class: "SearchManager", Name: "GlobalSearch"},
			aspect.Cacheable[globalArgs]{TTL: GlobalSearchTTL, KeyGenerator: globalKey}, m.global)
	}
	return m
}

func globalKey(a globalArgs) (string, error) {
	return fmt.Sprintf("search:global:store=%s:q=%s:limit=%d", a.StoreID, cache.QueryComponent(a.Query), a.Limit), nil
}

// Register adds or replaces the index for its entity type.
func (m *Manager) Register(ix Searchable) {
	m.indexes.Store(ix.EntityType(), ix)
}

// Types returns the registered entity types, sorted.
func (m *Manager) Types() []string {
	types := make([]string, 0, m.indexes.Size())
	m.indexes.Range(func(k string, _ Searchable) bool {
		types = append(types, k)
		return true
	})
	sort.Strings(types)
	return types
}

// Index returns the index registered for entityType.
func (m *Manager) Index(entityType string) (Searchable, error) {
	ix, ok := m.indexes.Load(entityType)
	if !ok {
		return nil, unknownType(entityType)
	}
	return ix, nil
}

func (m *Manager) all() []Searchable {
	types := m.Types()
	out := make([]Searchable, 0, len(types))
	for _, t := range types {
		if ix, ok := m.indexes.Load(t); ok {
			out = append(out, ix)
		}
	}
	return out
}

// EnsureIndexes creates every missing index.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	var g errgroup.Group
	for _, ix := range m.all() {
		g.Go(func() error { return ix.EnsureIndex(ctx) })
	}
	return g.Wait()
}

// Search runs a single type search.
func (m *Manager) Search(ctx context.Context, entityType, q string, filters Filters) (*Result, error) {
	ix, err := m.Index(entityType)
	if err != nil {
		return nil, err
	}
	return ix.SearchEntities(ctx, q, filters)
}

// ReindexStore reindexes storeID in every registered type concurrently and
// then evicts the store's cached searches. Every type runs to completion;
// the returned error joins the per type failures.
func (m *Manager) ReindexStore(ctx context.Context, storeID string) (*StoreReindexReport, error) {
	report, _ := m.reindex(ctx, storeID)
	if len(report.Errors) == 0 {
		return report, nil
	}

	errs := make([]error, 0, len(report.Errors))
	for _, t := range m.Types() {
		if msg, ok := report.Errors[t]; ok {
			errs = append(errs, fmt.Errorf("%s: %s", t, msg))
		}
	}
	return report, engineError(errors.Join(errs...), "reindex store "+storeID)
}

// reindexStore never fails so that store eviction always follows the fan
// out, even when some types failed.
func (m *Manager) reindexStore(ctx context.Context, storeID string) (*StoreReindexReport, error) {
	report := &StoreReindexReport{
		StoreID: storeID,
		Reports: make(map[string]*ReindexReport),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, ix := range m.all() {
		g.Go(func() error {
			r, err := ix.ReindexByStore(ctx, storeID)

			mu.Lock()
			defer mu.Unlock()
			if r != nil {
				report.Reports[ix.EntityType()] = r
			}
			if err != nil {
				if report.Errors == nil {
					report.Errors = make(map[string]string)
				}
				report.Errors[ix.EntityType()] = err.Error()
				m.logger.Error("reindex failed",
					zap.String("entity", ix.EntityType()), zap.String("store", storeID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return report, nil
}

// GlobalSearch searches every type of storeID concurrently. A failing type
// contributes an empty result instead of failing the call.
func (m *Manager) GlobalSearch(ctx context.Context, storeID, q string, limit int) (*GlobalResult, error) {
	if limit <= 0 {
		limit = DefaultGlobalLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return m.global(ctx, globalArgs{StoreID: storeID, Query: q, Limit: limit})
}

func (m *Manager) globalSearch(ctx context.Context, args globalArgs) (*GlobalResult, error) {
	out := &GlobalResult{
		StoreID: args.StoreID,
		Query:   args.Query,
		Results: make(map[string]Result),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, ix := range m.all() {
		g.Go(func() error {
			filters := Filters{
				FilterLimit:     {strconv.Itoa(args.Limit)},
				ix.StoreField(): {args.StoreID},
			}

			res, err := ix.SearchEntities(ctx, args.Query, filters)
			if err != nil {
				m.logger.Warn("global search type failed",
					zap.String("entity", ix.EntityType()), zap.Error(err))
				res = &Result{Data: []query.Document{}, Pagination: NewPagination(0, 1, args.Limit)}
			}

			mu.Lock()
			out.Results[ix.EntityType()] = *res
			out.Total += res.Pagination.Total
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
