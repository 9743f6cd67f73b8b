package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/searchinfra"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

type managerFixture struct {
	manager *search.Manager
	aspects *aspect.Engine
	engines map[string]*countingEngine
	rows    map[string]*rows
}

// newManagerFixture registers one index per entity type, each on its own
// engine so failures can be injected per type.
func newManagerFixture(t *testing.T, types ...string) *managerFixture {
	t.Helper()
	store, err := cache.NewStoreFromConfig(cache.DefaultConfig(), cache.NewMetrics(), nil)
	require.NoError(t, err)

	f := &managerFixture{
		aspects: aspect.NewEngine(store, nil),
		engines: map[string]*countingEngine{},
		rows:    map[string]*rows{},
	}

	var indexes []search.Searchable
	for _, typ := range types {
		engine := &countingEngine{Engine: searchinfra.NewMemoryEngine()}
		src := &rows{}
		ix, err := search.NewIndex(gadgetDescriptor(typ), engine, src, search.WithAspects(f.aspects))
		require.NoError(t, err)
		f.engines[typ] = engine
		f.rows[typ] = src
		indexes = append(indexes, ix)
	}
	f.manager = search.NewManager(f.aspects, nil, indexes...)
	require.NoError(t, f.manager.EnsureIndexes(context.Background()))
	return f
}

func TestManager_Registry(t *testing.T) {
	f := newManagerFixture(t, "product", "brand", "category")
	assert.Equal(t, []string{"brand", "category", "product"}, f.manager.Types())

	_, err := f.manager.Index("order")
	require.Error(t, err)
	assert.True(t, search.IsNotFound(err))

	_, err = f.manager.Search(context.Background(), "order", "x", nil)
	assert.True(t, search.IsNotFound(err))
}

func TestManager_ReindexStoreEvictsStoreSearches(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, "brand", "product")
	f.rows["brand"].data = []gadget{{ID: "b1", StoreID: "s1", Name: "Acme"}}
	f.rows["product"].data = []gadget{
		{ID: "p1", StoreID: "s1", Name: "Acme Drill"},
		{ID: "p2", StoreID: "s2", Name: "Acme Saw"},
	}

	store := f.aspects.Store()
	store.Set(ctx, "search:brand:store=s1:q=a:page=1:limit=20:filters:none", 1, 0)
	store.Set(ctx, "search:global:store=s1:q=a:limit=5", 1, 0)
	store.Set(ctx, "search:brand:store=s2:q=a:page=1:limit=20:filters:none", 1, 0)
	store.Set(ctx, "store:s1:brands", 1, 0)

	report, err := f.manager.ReindexStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reports["brand"].Indexed)
	assert.Equal(t, 1, report.Reports["product"].Indexed)
	assert.Empty(t, report.Errors)

	assert.False(t, store.Exists(ctx, "search:brand:store=s1:q=a:page=1:limit=20:filters:none"))
	assert.False(t, store.Exists(ctx, "search:global:store=s1:q=a:limit=5"))
	assert.True(t, store.Exists(ctx, "search:brand:store=s2:q=a:page=1:limit=20:filters:none"))
	assert.True(t, store.Exists(ctx, "store:s1:brands"))

	res, err := f.manager.Search(ctx, "product", "drill", search.Filters{"storeId": {"s1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Drill"}, names(res))
}

func TestManager_ReindexStorePartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, "brand", "product")
	f.rows["brand"].data = []gadget{{ID: "b1", StoreID: "s1", Name: "Acme"}}
	f.engines["product"].failWrites = true
	f.rows["product"].data = []gadget{{ID: "p1", StoreID: "s1", Name: "Drill"}}

	store := f.aspects.Store()
	store.Set(ctx, "search:brand:store=s1:q=a:page=1:limit=20:filters:none", 1, 0)

	report, err := f.manager.ReindexStore(ctx, "s1")
	require.Error(t, err)
	assert.True(t, search.IsEngineError(err))
	assert.Equal(t, 1, report.Reports["brand"].Indexed)
	assert.Contains(t, report.Errors, "product")
	assert.False(t, store.Exists(ctx, "search:brand:store=s1:q=a:page=1:limit=20:filters:none"))
}

func TestManager_GlobalSearchToleratesFailingTypes(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, "brand", "product")
	brands, _ := f.manager.Index("brand")
	products, _ := f.manager.Index("product")
	brands.(*search.Index[gadget]).IndexEntity(ctx, gadget{ID: "b1", StoreID: "s1", Name: "Widget Co"})
	products.(*search.Index[gadget]).IndexEntity(ctx, gadget{ID: "p1", StoreID: "s1", Name: "Widget"})
	f.engines["product"].failSearch = true

	res, err := f.manager.GlobalSearch(ctx, "s1", "widget", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget Co"}, names(ptr(res.Results["brand"])))
	assert.Empty(t, res.Results["product"].Data)
	assert.Equal(t, int64(1), res.Total)

	// cached for the same store, query and limit
	_, err = f.manager.GlobalSearch(ctx, "s1", "widget", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.engines["brand"].searchCount())
	assert.True(t, f.aspects.Store().Exists(ctx, "search:global:store=s1:q=widget:limit=5"))

	_, err = f.manager.GlobalSearch(ctx, "s1", "wid*", 0)
	require.NoError(t, err)
	assert.True(t, f.aspects.Store().Exists(ctx, "search:global:store=s1:q=wid%2A:limit=5"))
}

func TestManager_WithoutAspects(t *testing.T) {
	ctx := context.Background()
	engine := searchinfra.NewMemoryEngine()
	src := &rows{data: []gadget{{ID: "1", StoreID: "s1", Name: "Widget"}}}
	ix, err := search.NewIndex(gadgetDescriptor("gadget"), engine, src)
	require.NoError(t, err)

	m := search.NewManager(nil, nil)
	m.Register(ix)
	require.NoError(t, m.EnsureIndexes(ctx))

	_, err = m.ReindexStore(ctx, "s1")
	require.NoError(t, err)

	res, err := m.GlobalSearch(ctx, "s1", "widget", 500)
	require.NoError(t, err)
	assert.Len(t, res.Results["gadget"].Data, 1)
	assert.Equal(t, search.MaxLimit, res.Results["gadget"].Pagination.Limit)
	assert.IsType(t, query.Document{}, res.Results["gadget"].Data[0])
}

func ptr(r search.Result) *search.Result { return &r }
