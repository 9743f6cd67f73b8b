// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/monitor"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	SearchElastic = "elasticsearch"
	SearchMemory  = "memory"
)

type Config struct {
	AppPort string `mapstructure:"APP_PORT"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	CacheBackend    string        `mapstructure:"CACHE_BACKEND"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	CacheDefaultTTL time.Duration `mapstructure:"CACHE_DEFAULT_TTL"`
	CacheScanBatch  int64         `mapstructure:"CACHE_SCAN_BATCH"`

	SearchEngine      string   `mapstructure:"SEARCH_ENGINE"`
	ElasticsearchURLs []string `mapstructure:"ELASTICSEARCH_URLS"`
	SearchIndexPrefix string   `mapstructure:"SEARCH_INDEX_PREFIX"`

	MonitorInterval   time.Duration `mapstructure:"MONITOR_INTERVAL"`
	MonitorLowHitRate float64       `mapstructure:"MONITOR_LOW_HIT_RATE"`
	MonitorErrorRate  float64       `mapstructure:"MONITOR_ERROR_RATE"`
	MonitorIdleWindow time.Duration `mapstructure:"MONITOR_IDLE_WINDOW"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"APP_PORT":             "8080",
	"DB_DRIVER":            DriverSQLite,
	"DB_DSN":               "file:shelflink.db?cache=shared&_fk=1",
	"CACHE_BACKEND":        cache.BackendMemory,
	"REDIS_ADDR":           "localhost:6379",
	"REDIS_DB":             0,
	"REDIS_PASSWORD":       "",
	"CACHE_DEFAULT_TTL":    "5m",
	"CACHE_SCAN_BATCH":     100,
	"SEARCH_ENGINE":        SearchMemory,
	"ELASTICSEARCH_URLS":   "http://localhost:9200",
	"SEARCH_INDEX_PREFIX":  "",
	"MONITOR_INTERVAL":     "15m",
	"MONITOR_LOW_HIT_RATE": 0.30,
	"MONITOR_ERROR_RATE":   0.10,
	"MONITOR_IDLE_WINDOW":  "1h",
	"LOG_LEVEL":            "info",
}

// Load reads the configuration from the environment. Files in envFiles that
// exist are loaded first; variables already set in the process win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.ElasticsearchURLs = splitURLs(cfg.ElasticsearchURLs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitURLs(in []string) []string {
	var out []string
	for _, s := range in {
		for _, u := range strings.Split(s, ",") {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.AppPort, validation.Required),
		validation.Field(&c.DBDriver, validation.Required, validation.In(DriverPostgres, DriverSQLite)),
		validation.Field(&c.DBDSN, validation.Required),
		validation.Field(&c.CacheBackend, validation.Required, validation.In(cache.BackendRedis, cache.BackendMemory)),
		validation.Field(&c.RedisAddr, validation.When(c.CacheBackend == cache.BackendRedis, validation.Required)),
		validation.Field(&c.RedisDB, validation.Min(0)),
		validation.Field(&c.CacheDefaultTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CacheScanBatch, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.SearchEngine, validation.Required, validation.In(SearchElastic, SearchMemory)),
		validation.Field(&c.ElasticsearchURLs, validation.When(c.SearchEngine == SearchElastic, validation.Required)),
		validation.Field(&c.MonitorInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MonitorLowHitRate, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MonitorErrorRate, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MonitorIdleWindow, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.AppPort, ":")
}

// Cache derives the cache store configuration.
func (c Config) Cache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.CacheBackend
	cfg.DefaultTTL = c.CacheDefaultTTL
	cfg.Memory.TTL = max(cfg.Memory.TTL, c.CacheDefaultTTL)
	cfg.ScanBatchSize = c.CacheScanBatch
	cfg.Redis.Addr = c.RedisAddr
	cfg.Redis.DB = c.RedisDB
	cfg.Redis.Password = c.RedisPassword
	return cfg
}

// Monitor derives the monitor thresholds.
func (c Config) Monitor() monitor.Config {
	cfg := monitor.DefaultConfig()
	cfg.Interval = c.MonitorInterval
	cfg.LowHitRate = c.MonitorLowHitRate
	cfg.ErrorRateCritical = c.MonitorErrorRate
	cfg.IdleWindow = c.MonitorIdleWindow
	return cfg
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  AppPort: %s\n", c.AppPort)
	fmt.Fprintf(&sb, "  DBDriver: %s\n", c.DBDriver)
	fmt.Fprintf(&sb, "  DBDSN: %s\n", mask(c.DBDSN))
	fmt.Fprintf(&sb, "  CacheBackend: %s\n", c.CacheBackend)
	fmt.Fprintf(&sb, "  RedisAddr: %s\n", c.RedisAddr)
	fmt.Fprintf(&sb, "  RedisDB: %d\n", c.RedisDB)
	fmt.Fprintf(&sb, "  RedisPassword: %s\n", mask(c.RedisPassword))
	fmt.Fprintf(&sb, "  CacheDefaultTTL: %s\n", c.CacheDefaultTTL)
	fmt.Fprintf(&sb, "  SearchEngine: %s\n", c.SearchEngine)
	fmt.Fprintf(&sb, "  ElasticsearchURLs: %s\n", strings.Join(c.ElasticsearchURLs, ","))
	fmt.Fprintf(&sb, "  SearchIndexPrefix: %s\n", c.SearchIndexPrefix)
	fmt.Fprintf(&sb, "  MonitorInterval: %s\n", c.MonitorInterval)
	fmt.Fprintf(&sb, "  LogLevel: %s\n", c.LogLevel)
	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	var ve validation.Errors
	return errors.As(err, &ve)
}
