package admin

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/monitor"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

// Warmer lists the cache entries that preload a set of stores.
type Warmer interface {
	WarmEntries(storeIDs []string) []cache.WarmEntry
}

// Searcher is the part of the search manager the router serves.
type Searcher interface {
	Index(entityType string) (search.Searchable, error)
	GlobalSearch(ctx context.Context, storeID, q string, limit int) (*search.GlobalResult, error)
	ReindexStore(ctx context.Context, storeID string) (*search.StoreReindexReport, error)
}

// Router serves the administrative cache and search API.
type Router struct {
	store    *cache.Store
	monitor  *monitor.Monitor
	searcher Searcher
	warmer   Warmer
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// Option customises a Router.
type Option func(*Router)

// WithWarmer enables POST /cache/warm.
func WithWarmer(w Warmer) Option {
	return func(rt *Router) { rt.warmer = w }
}

// WithGatherer serves g on /metrics instead of a private registry holding
// only the cache metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(rt *Router) { rt.gatherer = g }
}

// NewRouter creates a new router instance
func NewRouter(store *cache.Store, mon *monitor.Monitor, searcher Searcher, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &Router{
		store:    store,
		monitor:  mon,
		searcher: searcher,
		logger:   logger.Named("admin"),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.gatherer == nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(store.Metrics())
		rt.gatherer = reg
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(rt.logger))
	router.Use(UserContext)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))

	router.Route("/cache", func(r chi.Router) {
		r.Get("/metrics", rt.cacheMetrics)
		r.Get("/performance", rt.performance)
		r.Get("/trends", rt.trends)
		r.Get("/alerts", rt.alerts)
		r.Delete("/alerts", rt.clearAlerts)
		r.Post("/optimize", rt.optimize)
		r.Post("/warm", rt.warm)

		r.Delete("/", rt.reset)
		r.Delete("/keys/{key}", rt.deleteKey)
		r.Delete("/patterns", rt.deletePattern)
		r.Delete("/users/{userID}", rt.invalidateUser)
		r.Delete("/stores/{storeID}", rt.invalidateStore)
	})

	router.Route("/search/{storeID}", func(r chi.Router) {
		r.Get("/", rt.globalSearch)
		r.Post("/reindex", rt.reindexStore)
		r.Get("/{entityType}", rt.searchType)
	})

	return router
}
