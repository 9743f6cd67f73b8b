package catalog

import (
	"context"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/repositorycache"
)

// Repositories holds the cached repository of every catalog entity.
type Repositories struct {
	Stores     *repositorycache.CachedRepository[*Store]
	Brands     *repositorycache.CachedRepository[*Brand]
	Categories *repositorycache.CachedRepository[*Category]
	Products   *repositorycache.CachedRepository[*Product]
}

// NewRepositories builds bun repositories decorated with the cache aspects.
// A nil aspect engine leaves them uncached.
func NewRepositories(db *bun.DB, aspects *aspect.Engine, logger *zap.Logger) *Repositories {
	return &Repositories{
		Stores:     newRepository(db, aspects, TypeStore, func() *Store { return &Store{} }, logger),
		Brands:     newRepository(db, aspects, TypeBrand, func() *Brand { return &Brand{} }, logger),
		Categories: newRepository(db, aspects, TypeCategory, func() *Category { return &Category{} }, logger),
		Products:   newRepository(db, aspects, TypeProduct, func() *Product { return &Product{} }, logger),
	}
}

func newRepository[E Entity](db *bun.DB, aspects *aspect.Engine, entity string, newRecord func() E, logger *zap.Logger) *repositorycache.CachedRepository[E] {
	base := repository.NewRepository[E](db, repository.ModelHandlers[E]{
		NewRecord: newRecord,
		GetID: func(record E) uuid.UUID {
			id, _ := uuid.Parse(record.EntityID())
			return id
		},
		SetID: func(record E, id uuid.UUID) {
			record.setID(id)
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return repositorycache.New[E](base, aspects, repositorycache.Config[E]{
		Entity:  entity,
		ID:      func(e E) string { return e.EntityID() },
		StoreID: func(e E) string { return e.EntityStoreID() },
	}, logger)
}

// CreateSchema creates the catalog tables when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*Store)(nil), (*Brand)(nil), (*Category)(nil), (*Product)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// relationSource lists a store's rows straight from the database with the
// relations the search documents embed.
type relationSource[E Entity] struct {
	repo      repository.Repository[E]
	relations []string
}

func (s relationSource[E]) ListByStore(ctx context.Context, storeID string) ([]E, error) {
	records, _, err := s.repo.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.store_id = ?", storeID)
		for _, rel := range s.relations {
			q = q.Relation(rel)
		}
		return q
	})
	return records, err
}
