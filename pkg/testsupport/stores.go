package testsupport

import (
	"database/sql"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

// NewSQLiteDB opens a private in-memory sqlite database closed with the test.
func NewSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:?_fk=1")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// each connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

// NewMemoryStore returns a cache store over the in-process backend.
func NewMemoryStore(t *testing.T) *cache.Store {
	t.Helper()

	store, err := cache.NewStoreFromConfig(cache.DefaultConfig(), cache.NewMetrics(), nil)
	if err != nil {
		t.Fatalf("failed to create memory store: %v", err)
	}
	return store
}

// NewRedisStore returns a cache store over a miniredis server that lives
// as long as the test.
func NewRedisStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendRedis
	cfg.Redis.Addr = mr.Addr()

	store, err := cache.NewStoreFromConfig(cfg, cache.NewMetrics(), nil)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, mr
}
