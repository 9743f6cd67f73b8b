// Package di assembles the service from its configuration.
package di

import (
	"context"
	"errors"
	"io"
	"net/http"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/aspect"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/catalog"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/config"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/monitor"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/pkg/admin"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/repositorycache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

// Container holds the singleton services of one process.
type Container struct {
	config  *config.Config
	logger  *zap.Logger
	db      *bun.DB
	backend cache.Backend
	store   *cache.Store
	aspects *aspect.Engine
	monitor *monitor.Monitor
	engine  search.Engine
	catalog *catalog.Catalog
	search  *search.Manager
	router  *admin.Router

	registry *prometheus.Registry
	ownsDB   bool
}

// Option overrides a provided dependency.
type Option func(*Container)

// WithLogger uses l instead of building one from the configuration.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithDB uses an already opened database. The container will not close it.
func WithDB(db *bun.DB) Option {
	return func(c *Container) { c.db = db }
}

// WithSearchEngine replaces the configured search engine.
func WithSearchEngine(e search.Engine) Option {
	return func(c *Container) { c.engine = e }
}

// WithBackend replaces the configured cache backend.
func WithBackend(b cache.Backend) Option {
	return func(c *Container) { c.backend = b }
}

// NewContainer builds every service described by cfg.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.logger == nil {
		if c.logger, err = ProvideLogger(cfg); err != nil {
			return nil, err
		}
	}
	if c.db == nil {
		if c.db, err = ProvideDB(cfg); err != nil {
			return nil, err
		}
		c.ownsDB = true
	}
	if c.backend == nil {
		if c.backend, err = cache.NewBackend(cfg.Cache()); err != nil {
			c.Close()
			return nil, err
		}
	}
	if c.engine == nil {
		if c.engine, err = ProvideSearchEngine(cfg); err != nil {
			c.Close()
			return nil, err
		}
	}

	metrics := cache.NewMetrics()
	c.store = cache.NewStore(c.backend, metrics, c.logger,
		cache.WithDefaultTTL(cfg.CacheDefaultTTL),
		cache.WithScanBatchSize(cfg.CacheScanBatch),
	)
	c.aspects = aspect.NewEngine(c.store, c.logger, aspect.WithDefaultTTL(cfg.CacheDefaultTTL))

	if c.monitor, err = monitor.New(metrics, cfg.Monitor(), c.logger); err != nil {
		c.Close()
		return nil, err
	}

	c.catalog, err = catalog.New(c.db, c.aspects, c.engine, c.logger, search.WithIndexPrefix(cfg.SearchIndexPrefix))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.search = search.NewManager(c.aspects, c.logger, c.catalog.Indexes()...)

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		metrics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.router = admin.NewRouter(c.store, c.monitor, c.search, c.logger,
		admin.WithWarmer(c.catalog),
		admin.WithGatherer(c.registry),
	)
	return c, nil
}

// Bootstrap creates the relational schema and the search indexes.
func (c *Container) Bootstrap(ctx context.Context) error {
	if p, ok := c.backend.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	if err := catalog.CreateSchema(ctx, c.db); err != nil {
		return err
	}
	return c.search.EnsureIndexes(ctx)
}

// Close releases the database and cache connections.
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.backend.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.ownsDB && c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return errors.Join(errs...)
}

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

func (c *Container) DB() *bun.DB {
	return c.db
}

func (c *Container) Store() *cache.Store {
	return c.store
}

func (c *Container) Aspects() *aspect.Engine {
	return c.aspects
}

func (c *Container) Monitor() *monitor.Monitor {
	return c.monitor
}

func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *Container) Search() *search.Manager {
	return c.search
}

func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler of the admin API.
func (c *Container) Handler() http.Handler {
	return c.router.Setup()
}

// NewCachedRepository wraps base with the container's aspect engine.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedRepository[*catalog.Brand](container, base, repositorycache.Config[*catalog.Brand]{})
func NewCachedRepository[T any](c *Container, base repository.Repository[T], cfg repositorycache.Config[T]) *repositorycache.CachedRepository[T] {
	return repositorycache.New(base, c.aspects, cfg, c.logger)
}
