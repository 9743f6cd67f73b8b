package catalog

import (
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

// Catalog wires the repositories, search indexes and services of every
// catalog entity.
type Catalog struct {
	Repositories *Repositories

	Stores     *Service[*Store]
	Brands     *Service[*Brand]
	Categories *Service[*Category]
	Products   *Service[*Product]
}

// New builds the catalog. Indexes are created on engine; aspects may be nil.
func New(db *bun.DB, aspects *aspect.Engine, engine search.Engine, logger *zap.Logger, indexOpts ...search.IndexOption) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repos := NewRepositories(db, aspects, logger)
	opts := append([]search.IndexOption{search.WithLogger(logger)}, indexOpts...)
	if aspects != nil {
		opts = append(opts, search.WithAspects(aspects))
	}

	c := &Catalog{Repositories: repos}

	c.Stores = NewService(TypeStore, repos.Stores, logger,
		WithWritePatterns(func(s *Store) []string {
			return []string{
				cache.StorePattern(s.EntityID()),
				cache.SearchStorePattern("*", s.EntityID()),
			}
		}))

	// brand and category names are embedded in product listings and
	// documents
	embedded := func(storeID string) []string {
		return []string{
			cache.StoreDataPattern(storeID, "products"),
			cache.SearchStorePattern(TypeProduct, storeID),
		}
	}

	c.Brands = NewService(TypeBrand, repos.Brands, logger,
		WithRelations[*Brand]("Store"),
		WithWritePatterns(func(b *Brand) []string { return embedded(b.EntityStoreID()) }))
	brands, err := search.NewIndex(BrandDescriptor(), engine, c.Brands.Source(), opts...)
	if err != nil {
		return nil, err
	}
	c.Brands.index = brands

	c.Categories = NewService(TypeCategory, repos.Categories, logger,
		WithRelations[*Category]("Store", "Parent"),
		WithWritePatterns(func(cat *Category) []string { return embedded(cat.EntityStoreID()) }))
	categories, err := search.NewIndex(CategoryDescriptor(), engine, c.Categories.Source(), opts...)
	if err != nil {
		return nil, err
	}
	c.Categories.index = categories

	// Update evicts these for both the stored and the incoming record, so a
	// product moved between stores drops out of the old listing too.
	c.Products = NewService(TypeProduct, repos.Products, logger,
		WithRelations[*Product]("Store", "Brand", "Category"),
		WithWritePatterns(func(p *Product) []string { return embedded(p.EntityStoreID()) }))
	products, err := search.NewIndex(ProductDescriptor(), engine, c.Products.Source(), opts...)
	if err != nil {
		return nil, err
	}
	c.Products.index = products

	return c, nil
}

// Indexes returns every search index for registration with a manager.
func (c *Catalog) Indexes() []search.Searchable {
	return []search.Searchable{c.Brands.index, c.Categories.index, c.Products.index}
}

// WarmEntries lists the store listings to preload for every store id.
func (c *Catalog) WarmEntries(storeIDs []string) []cache.WarmEntry {
	entries := make([]cache.WarmEntry, 0, len(storeIDs)*3)
	for _, id := range storeIDs {
		entries = append(entries,
			c.Repositories.Brands.WarmEntry(id),
			c.Repositories.Categories.WarmEntry(id),
			c.Repositories.Products.WarmEntry(id),
		)
	}
	return entries
}
