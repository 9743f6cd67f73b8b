package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/catalog"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/searchinfra"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/pkg/testsupport"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

type env struct {
	catalog *catalog.Catalog
	manager *search.Manager
	cache   *cache.Store
	store   *catalog.Store
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db := testsupport.NewSQLiteDB(t)
	require.NoError(t, catalog.CreateSchema(ctx, db))

	store := testsupport.NewMemoryStore(t)
	aspects := aspect.NewEngine(store, nil)

	c, err := catalog.New(db, aspects, searchinfra.NewMemoryEngine(), nil)
	require.NoError(t, err)

	m := search.NewManager(aspects, nil, c.Indexes()...)
	require.NoError(t, m.EnsureIndexes(ctx))

	s, err := c.Stores.Create(ctx, &catalog.Store{Name: "Corner Shop", OwnerID: "u1"})
	require.NoError(t, err)

	return &env{catalog: c, manager: m, cache: store, store: s}
}

func lookup(d query.Document, path string) any {
	v, _ := d.Lookup(path)
	return v
}

func (e *env) storeID() string { return e.store.ID.String() }

func TestCatalog_CreateIndexesWithRelations(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	brand, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID, Name: "Acme Tools"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, brand.ID)

	product, err := e.catalog.Products.Create(ctx, &catalog.Product{
		StoreID: e.store.ID,
		BrandID: &brand.ID,
		Name:    "Cordless Drill",
		SKU:     "DRL-100",
		Price:   89.9,
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.ProductActive, product.Status)

	res, err := e.manager.Search(ctx, catalog.TypeProduct, "acme", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Cordless Drill", res.Data[0]["name"])
	assert.Equal(t, brand.ID.String(), res.Data[0]["brandId"])
	assert.Equal(t, "Acme Tools", lookup(res.Data[0], "brand.name"))
	assert.Equal(t, e.storeID(), lookup(res.Data[0], "store.id"))

	global, err := e.manager.GlobalSearch(ctx, e.storeID(), "acme", 0)
	require.NoError(t, err)
	assert.Len(t, global.Results[catalog.TypeBrand].Data, 1)
	assert.Len(t, global.Results[catalog.TypeProduct].Data, 1)
	assert.Empty(t, global.Results[catalog.TypeCategory].Data)
}

func TestCatalog_ReadsAreCached(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	brand, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID, Name: "Acme"})
	require.NoError(t, err)

	got, err := e.catalog.Brands.Get(ctx, brand.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.True(t, e.cache.Exists(ctx, cache.EntityKey("brand", brand.ID.String())))

	list, err := e.catalog.Brands.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, e.cache.Exists(ctx, cache.StoreKey(e.storeID(), "brands")))

	again, err := e.catalog.Brands.Get(ctx, brand.ID.String())
	require.NoError(t, err)
	assert.Equal(t, brand.ID, again.ID)
	assert.Equal(t, e.store.ID, again.StoreID)
}

func TestCatalog_UpdateEvictsAndReindexes(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	brand, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID, Name: "Acme"})
	require.NoError(t, err)
	_, err = e.catalog.Brands.Get(ctx, brand.ID.String())
	require.NoError(t, err)
	_, err = e.catalog.Brands.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	_, err = e.catalog.Products.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	_, err = e.catalog.Brands.Search(ctx, "acme", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)

	brand.Name = "Zenith"
	updated, err := e.catalog.Brands.Update(ctx, brand)
	require.NoError(t, err)
	assert.False(t, updated.CreatedAt.IsZero())

	assert.False(t, e.cache.Exists(ctx, cache.EntityKey("brand", brand.ID.String())))
	assert.False(t, e.cache.Exists(ctx, cache.StoreKey(e.storeID(), "brands")))
	assert.False(t, e.cache.Exists(ctx, cache.StoreKey(e.storeID(), "products")))

	res, err := e.catalog.Brands.Search(ctx, "zenith", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Zenith", res.Data[0]["name"])

	res, err = e.catalog.Brands.Search(ctx, "acme", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestCatalog_ProductMovedBetweenStoresEvictsBothListings(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	other, err := e.catalog.Stores.Create(ctx, &catalog.Store{Name: "Market Hall", OwnerID: "u1"})
	require.NoError(t, err)

	product, err := e.catalog.Products.Create(ctx, &catalog.Product{StoreID: e.store.ID, Name: "Hammer", SKU: "HM-1"})
	require.NoError(t, err)

	before, err := e.catalog.Products.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	require.Len(t, before, 1)
	_, err = e.catalog.Products.ListByStore(ctx, other.ID.String())
	require.NoError(t, err)
	require.True(t, e.cache.Exists(ctx, cache.StoreKey(e.storeID(), "products")))
	require.True(t, e.cache.Exists(ctx, cache.StoreKey(other.ID.String(), "products")))

	product.StoreID = other.ID
	_, err = e.catalog.Products.Update(ctx, product)
	require.NoError(t, err)

	assert.False(t, e.cache.Exists(ctx, cache.StoreKey(e.storeID(), "products")))
	assert.False(t, e.cache.Exists(ctx, cache.StoreKey(other.ID.String(), "products")))

	left, err := e.catalog.Products.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	assert.Empty(t, left)

	moved, err := e.catalog.Products.ListByStore(ctx, other.ID.String())
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, product.ID, moved[0].ID)
}

func TestCatalog_DeleteRemovesEverywhere(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	cat, err := e.catalog.Categories.Create(ctx, &catalog.Category{StoreID: e.store.ID, Name: "Garden"})
	require.NoError(t, err)
	_, err = e.catalog.Categories.Get(ctx, cat.ID.String())
	require.NoError(t, err)

	require.NoError(t, e.catalog.Categories.Delete(ctx, cat.ID.String()))

	_, err = e.catalog.Categories.Get(ctx, cat.ID.String())
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))

	res, err := e.catalog.Categories.Search(ctx, "garden", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)
	assert.Empty(t, res.Data)

	err = e.catalog.Categories.Delete(ctx, cat.ID.String())
	assert.True(t, catalog.IsNotFound(err))
}

func TestCatalog_InvalidEntitiesAreRejected(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	tests := []struct {
		name   string
		create func() error
	}{
		{"brand without name", func() error {
			_, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID})
			return err
		}},
		{"brand without store", func() error {
			_, err := e.catalog.Brands.Create(ctx, &catalog.Brand{Name: "Acme"})
			return err
		}},
		{"negative price", func() error {
			_, err := e.catalog.Products.Create(ctx, &catalog.Product{StoreID: e.store.ID, Name: "X", Price: -1})
			return err
		}},
		{"unknown status", func() error {
			_, err := e.catalog.Products.Create(ctx, &catalog.Product{StoreID: e.store.ID, Name: "X", Status: "sold"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create()
			require.Error(t, err)
			assert.True(t, catalog.IsInvalid(err))
		})
	}

	brands, err := e.catalog.Brands.ListByStore(ctx, e.storeID())
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestCatalog_ReindexStore(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	for _, name := range []string{"Acme", "Bolt"} {
		_, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID, Name: name})
		require.NoError(t, err)
	}
	_, err := e.catalog.Products.Create(ctx, &catalog.Product{StoreID: e.store.ID, Name: "Hammer"})
	require.NoError(t, err)

	report, err := e.manager.ReindexStore(ctx, e.storeID())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Reports[catalog.TypeBrand].Indexed)
	assert.Equal(t, int64(2), report.Reports[catalog.TypeBrand].Deleted)
	assert.Equal(t, 1, report.Reports[catalog.TypeProduct].Indexed)
	assert.Equal(t, 0, report.Reports[catalog.TypeCategory].Indexed)

	res, err := e.catalog.Brands.Search(ctx, "", search.Filters{catalog.StoreField: {e.storeID()}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.Total)
	assert.Equal(t, "Acme", res.Data[0]["name"])
}

func TestCatalog_StoresAreNotSearchable(t *testing.T) {
	e := setup(t)

	_, err := e.catalog.Stores.Search(context.Background(), "corner", nil)
	assert.Error(t, err)
	assert.Nil(t, e.catalog.Stores.Index())
	assert.Len(t, e.catalog.Indexes(), 3)
}

func TestCatalog_WarmEntries(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	_, err := e.catalog.Brands.Create(ctx, &catalog.Brand{StoreID: e.store.ID, Name: "Acme"})
	require.NoError(t, err)

	report := e.cache.WarmCache(ctx, e.catalog.WarmEntries([]string{e.storeID()}))
	assert.Len(t, report.Warmed, 3)
	assert.Empty(t, report.Failed)

	var brands []*catalog.Brand
	require.True(t, e.cache.Get(ctx, cache.StoreKey(e.storeID(), "brands"), &brands))
	require.Len(t, brands, 1)
	assert.Equal(t, "Acme", brands[0].Name)
}
