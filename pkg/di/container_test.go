package di

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/catalog"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/config"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/repositorycache"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:           "8080",
		DBDriver:          config.DriverSQLite,
		DBDSN:             "file::memory:?_fk=1",
		CacheBackend:      cache.BackendMemory,
		CacheDefaultTTL:   time.Minute,
		CacheScanBatch:    50,
		SearchEngine:      config.SearchMemory,
		SearchIndexPrefix: "test_",
		MonitorInterval:   time.Minute,
		MonitorLowHitRate: 0.3,
		MonitorErrorRate:  0.1,
		MonitorIdleWindow: time.Hour,
		LogLevel:          "error",
	}
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	c, err := NewContainer(testConfig(), WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	return c
}

func TestNewContainer(t *testing.T) {
	c := newTestContainer(t)

	if c.Store() == nil || c.Aspects() == nil || c.Monitor() == nil {
		t.Fatal("cache services should be initialised")
	}
	if c.Aspects().Store() != c.Store() {
		t.Error("aspect engine should share the container store")
	}
	if got := c.Store().DefaultTTL(); got != time.Minute {
		t.Errorf("Expected default TTL %v, got %v", time.Minute, got)
	}
	if c.Catalog() == nil || c.Search() == nil {
		t.Fatal("catalog and search should be initialised")
	}

	want := []string{catalog.TypeBrand, catalog.TypeCategory, catalog.TypeProduct}
	got := c.Search().Types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected search types %v, got %v", want, got)
	}
	if name := c.Catalog().Brands.Index().Name(); name != "test_brands" {
		t.Errorf("Expected prefixed index name, got %q", name)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unsupported driver", func(c *config.Config) { c.DBDriver = "mysql" }},
		{"invalid cache backend", func(c *config.Config) { c.CacheBackend = "memcached" }},
		{"elastic without addresses", func(c *config.Config) {
			c.SearchEngine = config.SearchElastic
			c.ElasticsearchURLs = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := NewContainer(cfg, WithLogger(zap.NewNop())); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestProvideLogger(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "debug"
	logger, err := ProvideLogger(cfg)
	if err != nil {
		t.Fatalf("ProvideLogger() failed: %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug level should be enabled")
	}

	cfg.LogLevel = "loud"
	if _, err := ProvideLogger(cfg); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestContainer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	cat := c.Catalog()

	store, err := cat.Stores.Create(ctx, &catalog.Store{Name: "Main Street", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if _, err := cat.Brands.Create(ctx, &catalog.Brand{StoreID: store.ID, Name: "Acme"}); err != nil {
		t.Fatalf("create brand: %v", err)
	}

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/search/" + store.ID.String() + "/brand?q=acme")
	if err != nil {
		t.Fatalf("search request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0]["name"] != "Acme" {
		t.Errorf("Expected the Acme brand, got %v", body.Data)
	}

	key := cache.SearchStorePattern(catalog.TypeBrand, store.ID.String())
	if n := c.Store().InvalidatePattern(ctx, key); n != 1 {
		t.Errorf("Expected the search result to be cached once, found %d", n)
	}
}

func TestContainer_WarmAndMetrics(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)

	store, err := c.Catalog().Stores.Create(ctx, &catalog.Store{Name: "Depot"})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/cache/warm", "application/json",
		strings.NewReader(`{"storeIds":["`+store.ID.String()+`"]}`))
	if err != nil {
		t.Fatalf("warm request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}
	if !c.Store().Exists(ctx, cache.StoreKey(store.ID.String(), "products")) {
		t.Error("product listing should be warmed")
	}

	res, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	for _, name := range []string{"shelflink_cache_sets_total", "go_goroutines"} {
		if !strings.Contains(string(raw), name) {
			t.Errorf("Expected %s in /metrics output", name)
		}
	}
}

type stubRepository[T any] struct {
	repository.Repository[T]
}

func TestNewCachedRepository(t *testing.T) {
	c := newTestContainer(t)

	repo := NewCachedRepository[*catalog.Brand](c, stubRepository[*catalog.Brand]{}, repositorycache.Config[*catalog.Brand]{})
	if repo == nil {
		t.Fatal("NewCachedRepository() returned nil")
	}
	if repo.Entity() != "brand" || repo.Plural() != "brands" {
		t.Errorf("Expected brand/brands namespace, got %s/%s", repo.Entity(), repo.Plural())
	}
}
