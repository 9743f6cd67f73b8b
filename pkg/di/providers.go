package di

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/config"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/searchinfra"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
)

// ProvideLogger creates a production logger at the configured level.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		l, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// ProvideDB opens the relational database with the dialect matching its
// driver.
func ProvideDB(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case config.DriverSQLite:
		// sqlite serialises writers; a single connection also keeps
		// in-memory databases alive across queries
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		sqldb.Close()
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// ProvideSearchEngine selects the Elasticsearch adapter or the in-process
// engine.
func ProvideSearchEngine(cfg *config.Config) (search.Engine, error) {
	if cfg.SearchEngine == config.SearchElastic {
		return searchinfra.NewElasticEngine(searchinfra.ElasticConfig{Addresses: cfg.ElasticsearchURLs})
	}
	return searchinfra.NewMemoryEngine(), nil
}
