package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/repositorycache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

// Service runs the write path of one entity type: the relational write
// first, cache eviction second, the search document last.
type Service[E Entity] struct {
	entity    string
	repo      *repositorycache.CachedRepository[E]
	index     *search.Index[E]
	relations []string
	patterns  func(E) []string
	logger    *zap.Logger
	now       func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption[E Entity] func(*Service[E])

// WithIndex keeps ix in sync with every write.
func WithIndex[E Entity](ix *search.Index[E]) ServiceOption[E] {
	return func(s *Service[E]) { s.index = ix }
}

// WithRelations names the relations loaded before a record is indexed.
func WithRelations[E Entity](relations ...string) ServiceOption[E] {
	return func(s *Service[E]) { s.relations = append(s.relations, relations...) }
}

// WithWritePatterns adds cache patterns evicted by every write of a record,
// for caches of other types that embed it.
func WithWritePatterns[E Entity](fn func(E) []string) ServiceOption[E] {
	return func(s *Service[E]) { s.patterns = fn }
}

// NewService creates the service of entity.
func NewService[E Entity](entity string, repo *repositorycache.CachedRepository[E], logger *zap.Logger, opts ...ServiceOption[E]) *Service[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service[E]{
		entity: entity,
		repo:   repo,
		logger: logger.Named("catalog").With(zap.String("entity", entity)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the synced search index, nil for unsearchable types.
func (s *Service[E]) Index() *search.Index[E] { return s.index }

// Source lists rows with the relations search documents need, bypassing the
// cache.
func (s *Service[E]) Source() search.Source[E] {
	return relationSource[E]{repo: s.repo.Base(), relations: s.relations}
}

// Get returns the record with id.
func (s *Service[E]) Get(ctx context.Context, id string) (E, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		var zero E
		if isMissing(err) {
			return zero, notFound(s.entity, id, err)
		}
		return zero, fmt.Errorf("get %s %s: %w", s.entity, id, err)
	}
	return e, nil
}

// ListByStore returns every record of storeID.
func (s *Service[E]) ListByStore(ctx context.Context, storeID string) ([]E, error) {
	records, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list %s of store %s: %w", s.entity, storeID, err)
	}
	return records, nil
}

// Create inserts e.
func (s *Service[E]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	e.prepare()
	if err := e.Validate(); err != nil {
		return zero, invalid(s.entity, err)
	}
	created, updated := e.timestamps()
	now := s.now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now

	out, err := s.repo.Create(s.writeContext(ctx, e), e)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", s.entity, err)
	}
	s.sync(ctx, out.EntityID())
	return out, nil
}

// Update overwrites an existing record.
func (s *Service[E]) Update(ctx context.Context, e E) (E, error) {
	var zero E
	current, err := s.Get(ctx, e.EntityID())
	if err != nil {
		return zero, err
	}
	if err := e.Validate(); err != nil {
		return zero, invalid(s.entity, err)
	}
	prevCreated, _ := current.timestamps()
	created, updated := e.timestamps()
	*created = *prevCreated
	*updated = s.now().UTC()

	// a record moved to another store leaves stale caches behind in both
	ctx = s.writeContext(ctx, current)
	out, err := s.repo.Update(s.writeContext(ctx, e), e)
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", s.entity, err)
	}
	s.sync(ctx, out.EntityID())
	return out, nil
}

// Delete removes the record with id.
func (s *Service[E]) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(s.writeContext(ctx, current), current); err != nil {
		return fmt.Errorf("delete %s %s: %w", s.entity, id, err)
	}
	if s.index != nil {
		s.index.RemoveEntity(ctx, id)
	}
	return nil
}

// Search queries the entity's index.
func (s *Service[E]) Search(ctx context.Context, q string, filters search.Filters) (*search.Result, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%s is not searchable", s.entity)
	}
	return s.index.SearchEntities(ctx, q, filters)
}

// Reindex rebuilds the documents of storeID.
func (s *Service[E]) Reindex(ctx context.Context, storeID string) (*search.ReindexReport, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%s is not searchable", s.entity)
	}
	return s.index.ReindexByStore(ctx, storeID)
}

func (s *Service[E]) writeContext(ctx context.Context, e E) context.Context {
	if s.patterns == nil {
		return ctx
	}
	return repositorycache.WithEvictPatterns(ctx, s.patterns(e)...)
}

// sync reloads the record with its relations and indexes it. Failures are
// logged only; the relational write already succeeded.
func (s *Service[E]) sync(ctx context.Context, id string) {
	if s.index == nil {
		return
	}
	e, err := s.repo.GetByID(ctx, id, func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, rel := range s.relations {
			q = q.Relation(rel)
		}
		return q
	})
	if err != nil {
		s.logger.Error("failed to load record for indexing", zap.String("id", id), zap.Error(err))
		return
	}
	s.index.IndexEntity(ctx, e)
}
