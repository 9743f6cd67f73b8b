package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// SearchTTL bounds how long a per-type search result stays cached.
const SearchTTL = 60 * time.Second

// Engine is the search backend protocol.
type Engine interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, schema query.Schema) error
	IndexDocument(ctx context.Context, index, id string, doc query.Document) error
	DeleteDocument(ctx context.Context, index, id string) error
	Bulk(ctx context.Context, index string, ops []query.BulkOp) (query.BulkResult, error)
	DeleteByQuery(ctx context.Context, index string, q query.Bool) (int64, error)
	Search(ctx context.Context, index string, req query.Request) (query.Response, error)
}

// Source lists the relational rows of a store, the source of truth for a
// reindex.
type Source[E any] interface {
	ListByStore(ctx context.Context, storeID string) ([]E, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[E any] func(ctx context.Context, storeID string) ([]E, error)

func (f SourceFunc[E]) ListByStore(ctx context.Context, storeID string) ([]E, error) {
	return f(ctx, storeID)
}

// Result is one page of matching documents.
type Result struct {
	Data       []query.Document `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ReindexReport summarises a store scoped reindex.
type ReindexReport struct {
	EntityType string           `json:"entityType"`
	StoreID    string           `json:"storeId"`
	Deleted    int64            `json:"deleted"`
	Indexed    int              `json:"indexed"`
	Failed     []query.BulkItem `json:"failed,omitempty"`
}

// Searchable is the type erased view of an Index used by the Manager.
type Searchable interface {
	EntityType() string
	StoreField() string
	EnsureIndex(ctx context.Context) error
	ReindexByStore(ctx context.Context, storeID string) (*ReindexReport, error)
	SearchEntities(ctx context.Context, q string, filters Filters) (*Result, error)
}

type indexOptions struct {
	aspects *aspect.Engine
	logger  *zap.Logger
	prefix  string
}

// IndexOption customises an Index.
type IndexOption func(*indexOptions)

// WithAspects caches searches and evicts cached searches on index writes.
func WithAspects(e *aspect.Engine) IndexOption {
	return func(o *indexOptions) { o.aspects = e }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) IndexOption {
	return func(o *indexOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIndexPrefix prefixes the index name, e.g. per environment.
func WithIndexPrefix(prefix string) IndexOption {
	return func(o *indexOptions) { o.prefix = prefix }
}

type searchArgs struct {
	Query   string
	Filters Filters
}

// Index owns one search index for entity type E.
type Index[E any] struct {
	desc   Descriptor[E]
	name   string
	engine Engine
	source Source[E]
	logger *zap.Logger

	index  aspect.Func[E, struct{}]
	remove aspect.Func[string, struct{}]
	search aspect.Func[searchArgs, *Result]
}

// NewIndex creates the index abstraction for desc.
func NewIndex[E any](desc Descriptor[E], engine Engine, source Source[E], opts ...IndexOption) (*Index[E], error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("search descriptor %q: %w", desc.EntityType, err)
	}
	o := indexOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ix := &Index[E]{
		desc:   desc,
		name:   desc.indexName(o.prefix),
		engine: engine,
		source: source,
		logger: o.logger.Named("search").With(zap.String("entity", desc.EntityType)),
	}
	ix.index, ix.remove, ix.search = ix.indexEntity, ix.removeEntity, ix.searchEntities

	if ae := o.aspects; ae != nil {
		class := "SearchIndex:" + desc.EntityType
		ix.index = aspect.EvictAround(ae, aspect.Method{Class: class, Name: "IndexEntity"}, ix.index,
			aspect.Evict[E]{PatternGenerator: func(e E) (string, error) {
				return cache.SearchStorePattern(desc.EntityType, desc.StoreID(e)), nil
			}})
		ix.remove = aspect.EvictAround(ae, aspect.Method{Class: class, Name: "RemoveEntity"}, ix.remove,
			aspect.Evict[string]{Pattern: cache.SearchStorePattern(desc.EntityType, "*")})
		ix.search = aspect.CacheThrough(ae, aspect.Method{Class: class, Name: "SearchEntities"},
			aspect.Cacheable[searchArgs]{TTL: SearchTTL, KeyGenerator: ix.searchKey}, ix.search)
	}
	return ix, nil
}

// EntityType returns the singular entity type name.
func (ix *Index[E]) EntityType() string { return ix.desc.EntityType }

// StoreField names the document field holding the store id.
func (ix *Index[E]) StoreField() string { return ix.desc.StoreField }

// Name returns the engine index name.
func (ix *Index[E]) Name() string { return ix.name }

// Descriptor returns the index descriptor.
func (ix *Index[E]) Descriptor() Descriptor[E] { return ix.desc }

// EnsureIndex creates the index when it does not exist yet.
func (ix *Index[E]) EnsureIndex(ctx context.Context) error {
	exists, err := ix.engine.IndexExists(ctx, ix.name)
	if err != nil {
		return engineError(err, "check index "+ix.name)
	}
	if exists {
		return nil
	}
	if err := ix.engine.CreateIndex(ctx, ix.name, ix.desc.Schema()); err != nil {
		return engineError(err, "create index "+ix.name)
	}
	ix.logger.Info("search index created", zap.String("index", ix.name))
	return nil
}

// Flatten projects e into its search document.
func (ix *Index[E]) Flatten(e E) query.Document {
	return ix.desc.Flatten(e)
}

// IndexEntity upserts e. Failures are logged and never returned, so an
// index outage cannot fail the write that triggered it.
func (ix *Index[E]) IndexEntity(ctx context.Context, e E) {
	_, _ = ix.index(ctx, e)
}

func (ix *Index[E]) indexEntity(ctx context.Context, e E) (struct{}, error) {
	id := ix.desc.ID(e)
	if err := ix.engine.IndexDocument(ctx, ix.name, id, ix.desc.Flatten(e)); err != nil {
		ix.logger.Error("failed to index entity", zap.String("id", id), zap.Error(err))
	}
	return struct{}{}, nil
}

// RemoveEntity deletes the document id with the IndexEntity failure policy.
func (ix *Index[E]) RemoveEntity(ctx context.Context, id string) {
	_, _ = ix.remove(ctx, id)
}

func (ix *Index[E]) removeEntity(ctx context.Context, id string) (struct{}, error) {
	if err := ix.engine.DeleteDocument(ctx, ix.name, id); err != nil {
		ix.logger.Error("failed to remove entity", zap.String("id", id), zap.Error(err))
	}
	return struct{}{}, nil
}

// ReindexByStore replaces every document of storeID with the current rows
// from the source in a single bulk call. Per item failures are reported;
// engine and source failures are returned.
func (ix *Index[E]) ReindexByStore(ctx context.Context, storeID string) (*ReindexReport, error) {
	report := &ReindexReport{EntityType: ix.desc.EntityType, StoreID: storeID}

	deleted, err := ix.engine.DeleteByQuery(ctx, ix.name, query.Bool{
		Filter: []query.Clause{query.Term{Field: ix.desc.StoreField, Value: storeID}},
	})
	if err != nil {
		return report, engineError(err, "clear store documents in "+ix.name)
	}
	report.Deleted = deleted

	rows, err := ix.source.ListByStore(ctx, storeID)
	if err != nil {
		return report, fmt.Errorf("list %s rows for store %s: %w", ix.desc.EntityType, storeID, err)
	}

	if len(rows) > 0 {
		ops := make([]query.BulkOp, 0, len(rows))
		for _, row := range rows {
			ops = append(ops, query.BulkOp{
				Action: query.BulkIndex,
				ID:     ix.desc.ID(row),
				Doc:    ix.desc.Flatten(row),
			})
		}

		result, err := ix.engine.Bulk(ctx, ix.name, ops)
		if err != nil {
			return report, engineError(err, "bulk index "+ix.name)
		}
		report.Failed = result.Failed()
		report.Indexed = len(ops) - len(report.Failed)
		for _, item := range report.Failed {
			ix.logger.Warn("bulk item failed",
				zap.String("id", item.ID), zap.Int("status", item.Status), zap.String("error", item.Error))
		}
	}

	ix.logger.Info("store reindexed",
		zap.String("store", storeID),
		zap.Int64("deleted", report.Deleted),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// SearchEntities runs the relevance query. The store scope is the
// descriptor's StoreField filter.
func (ix *Index[E]) SearchEntities(ctx context.Context, q string, filters Filters) (*Result, error) {
	if filters == nil {
		filters = Filters{}
	}
	if err := filters.Validate(ix.desc.filterable()); err != nil {
		return nil, err
	}
	return ix.search(ctx, searchArgs{Query: q, Filters: filters})
}

func (ix *Index[E]) searchEntities(ctx context.Context, args searchArgs) (*Result, error) {
	req := BuildRequest(ix.desc, args.Query, args.Filters)

	resp, err := ix.engine.Search(ctx, ix.name, req)
	if err != nil {
		return nil, engineError(err, "search "+ix.name)
	}

	data := make([]query.Document, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		data = append(data, hit.Source)
	}
	return &Result{
		Data:       data,
		Pagination: NewPagination(resp.Total, args.Filters.Page(), args.Filters.Limit()),
	}, nil
}

func (ix *Index[E]) searchKey(args searchArgs) (string, error) {
	storeID := args.Filters.first(ix.desc.StoreField)
	if storeID == "" {
		storeID = "all"
	}
	terms := args.Filters.termMap()
	if s := args.Filters.first(FilterSort); s != "" {
		terms[FilterSort] = []string{s}
	}
	return cache.SearchKey(ix.desc.EntityType, storeID, args.Query,
		args.Filters.Page(), args.Filters.Limit(), terms), nil
}

var _ Searchable = (*Index[struct{}])(nil)
