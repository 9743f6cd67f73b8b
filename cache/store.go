package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultScanBatchSize bounds the keys examined per SCAN round.
const DefaultScanBatchSize int64 = 100

// Store wraps a Backend with encoding, metrics and a swallow-and-log
// failure policy: the cache is an optimisation, so every backend failure is
// counted, logged and turned into a miss or a no-op.
type Store struct {
	backend    Backend
	metrics    *Metrics
	logger     *zap.Logger
	defaultTTL time.Duration
	scanBatch  int64
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithDefaultTTL sets the TTL used for writes that pass ttl <= 0.
func WithDefaultTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithScanBatchSize sets the number of keys examined per SCAN round.
func WithScanBatchSize(n int64) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.scanBatch = n
		}
	}
}

// NewStore wraps backend. A nil metrics creates a private recorder; a nil
// logger discards output.
func NewStore(backend Backend, metrics *Metrics, logger *zap.Logger, opts ...StoreOption) *Store {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		backend:    backend,
		metrics:    metrics,
		logger:     logger.Named("cache"),
		defaultTTL: 5 * time.Minute,
		scanBatch:  DefaultScanBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the shared recorder.
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// DefaultTTL returns the TTL applied when callers do not specify one.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

func (s *Store) fail(op, key string, err error) {
	s.metrics.RecordError()
	s.logger.Warn("cache operation failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
}

// Get decodes the value stored under key into dest and reports whether it
// was found. Failures read as a miss.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	if s.backend == nil {
		s.fail("get", key, errBackendMissing)
		return false
	}

	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.fail("get", key, err)
		return false
	}
	if !ok {
		s.metrics.RecordMiss()
		s.logger.Debug("cache miss", zap.String("key", key))
		return false
	}

	if err := Decode(data, dest); err != nil {
		s.fail("decode", key, err)
		return false
	}

	s.metrics.RecordHit()
	s.logger.Debug("cache hit", zap.String("key", key))
	return true
}

// GetValue is the typed form of Store.Get.
func GetValue[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var out T
	if !s.Get(ctx, key, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// Set stores value under key for ttl (the default TTL when ttl <= 0) and
// reports whether the write happened.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if s.backend == nil {
		s.fail("set", key, errBackendMissing)
		return false
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := Encode(value)
	if err != nil {
		s.fail("encode", key, err)
		return false
	}

	if err := s.backend.Set(ctx, key, data, ttl); err != nil {
		s.fail("set", key, err)
		return false
	}

	s.metrics.RecordSet()
	return true
}

// Del removes key and reports whether something was deleted.
func (s *Store) Del(ctx context.Context, key string) bool {
	if s.backend == nil {
		s.fail("del", key, errBackendMissing)
		return false
	}

	n, err := s.backend.Del(ctx, key)
	if err != nil {
		s.fail("del", key, err)
		return false
	}
	s.metrics.RecordDelete(n)
	return n > 0
}

// Exists reports whether key holds a live value.
func (s *Store) Exists(ctx context.Context, key string) bool {
	if s.backend == nil {
		s.fail("exists", key, errBackendMissing)
		return false
	}

	ok, err := s.backend.Exists(ctx, key)
	if err != nil {
		s.fail("exists", key, err)
		return false
	}
	return ok
}

// TTL returns the remaining lifetime of key in seconds, -1 when the
// backend cannot tell (or is unavailable) and the backend's own negative
// sentinel otherwise.
func (s *Store) TTL(ctx context.Context, key string) int64 {
	if s.backend == nil {
		return -1
	}

	ttl, err := s.backend.TTL(ctx, key)
	if errors.Is(err, ErrTTLUnsupported) {
		return -1
	}
	if err != nil {
		s.fail("ttl", key, err)
		return -1
	}
	return int64(ttl / time.Second)
}

// MGet fetches several keys. Missing or failed keys are absent from the result.
func (s *Store) MGet(ctx context.Context, keys []string) map[string]Value {
	out := make(map[string]Value, len(keys))
	if s.backend == nil || len(keys) == 0 {
		return out
	}

	if batch, ok := s.backend.(BatchBackend); ok {
		values, err := batch.MGet(ctx, keys...)
		if err != nil {
			s.fail("mget", keys[0], err)
			return out
		}
		for _, key := range keys {
			if v, found := values[key]; found {
				out[key] = v
				s.metrics.RecordHit()
			} else {
				s.metrics.RecordMiss()
			}
		}
		return out
	}

	for _, key := range keys {
		data, found, err := s.backend.Get(ctx, key)
		switch {
		case err != nil:
			s.fail("mget", key, err)
		case !found:
			s.metrics.RecordMiss()
		default:
			out[key] = data
			s.metrics.RecordHit()
		}
	}
	return out
}

// Entry is a single write for MSet.
type Entry struct {
	Key   string
	Value any
	TTL   time.Duration
}

// MSet writes every entry and returns how many were stored. Entries that
// share a TTL go to the backend in one batch when it supports batching.
func (s *Store) MSet(ctx context.Context, entries []Entry) int {
	if s.backend == nil || len(entries) == 0 {
		return 0
	}

	batch, batched := s.backend.(BatchBackend)
	if !batched {
		written := 0
		for _, e := range entries {
			if s.Set(ctx, e.Key, e.Value, e.TTL) {
				written++
			}
		}
		return written
	}

	groups := make(map[time.Duration]map[string][]byte)
	for _, e := range entries {
		ttl := e.TTL
		if ttl <= 0 {
			ttl = s.defaultTTL
		}
		data, err := Encode(e.Value)
		if err != nil {
			s.fail("encode", e.Key, err)
			continue
		}
		if groups[ttl] == nil {
			groups[ttl] = make(map[string][]byte)
		}
		groups[ttl][e.Key] = data
	}

	written := 0
	for ttl, group := range groups {
		if err := batch.MSet(ctx, group, ttl); err != nil {
			s.fail("mset", fmt.Sprintf("%d keys", len(group)), err)
			continue
		}
		for range group {
			s.metrics.RecordSet()
		}
		written += len(group)
	}
	return written
}

// Reset clears every entry and the metrics.
func (s *Store) Reset(ctx context.Context) {
	if s.backend == nil {
		s.fail("reset", "*", errBackendMissing)
		return
	}
	if err := s.backend.Flush(ctx); err != nil {
		s.fail("reset", "*", err)
		return
	}
	s.metrics.Reset()
	s.logger.Info("cache reset")
}

// InvalidatePattern deletes every key matching the glob by walking the
// keyspace with a cursor, ScanBatchSize keys per round, deleting each
// matched batch before asking for the next. It returns the number of keys
// deleted. Backends without a scan primitive degrade to a logged no-op.
func (s *Store) InvalidatePattern(ctx context.Context, pattern string) int {
	if s.backend == nil {
		s.fail("invalidate", pattern, errBackendMissing)
		return 0
	}

	var (
		cursor  uint64
		deleted int64
		rounds  int
	)
	for {
		keys, next, err := s.backend.Scan(ctx, cursor, pattern, s.scanBatch)
		if errors.Is(err, ErrScanUnsupported) {
			s.logger.Warn("pattern invalidation not supported by backend", zap.String("pattern", pattern))
			return 0
		}
		if err != nil {
			s.fail("scan", pattern, err)
			break
		}
		rounds++

		if len(keys) > 0 {
			n, err := s.backend.Del(ctx, keys...)
			if err != nil {
				s.fail("del", pattern, err)
			} else {
				deleted += n
				s.metrics.RecordDelete(n)
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	s.logger.Debug("pattern invalidated",
		zap.String("pattern", pattern),
		zap.Int64("deleted", deleted),
		zap.Int("rounds", rounds),
	)
	return int(deleted)
}

// InvalidateStoreCache drops every store scoped and search key of storeID.
func (s *Store) InvalidateStoreCache(ctx context.Context, storeID string) int {
	return s.InvalidatePattern(ctx, StorePattern(storeID)) +
		s.InvalidatePattern(ctx, SearchStorePattern("*", storeID))
}

// InvalidateUserCache drops every user scoped key of userID.
func (s *Store) InvalidateUserCache(ctx context.Context, userID string) int {
	return s.InvalidatePattern(ctx, UserPattern(userID))
}

// WarmEntry describes a key to pre-populate.
type WarmEntry struct {
	Key  string
	TTL  time.Duration
	Load func(ctx context.Context) (any, error)
}

// WarmReport summarises a WarmCache run.
type WarmReport struct {
	Warmed []string          `json:"warmed"`
	Failed map[string]string `json:"failed,omitempty"`
}

// WarmCache loads and stores each entry. A failing loader is recorded in
// the report and does not stop the remaining entries.
func (s *Store) WarmCache(ctx context.Context, entries []WarmEntry) WarmReport {
	report := WarmReport{Warmed: []string{}}
	for _, e := range entries {
		value, err := e.Load(ctx)
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[e.Key] = err.Error()
			s.logger.Warn("cache warm load failed", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		if s.Set(ctx, e.Key, value, e.TTL) {
			report.Warmed = append(report.Warmed, e.Key)
		}
	}
	return report
}

var errBackendMissing = errors.New("cache: no backend configured")
