package cache

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
)

// Metrics records cache effectiveness counters. It is created once at
// process start and shared by pointer with every component that records or
// reads it. Counters are striped so concurrent requests never contend on a
// single word.
type Metrics struct {
	hits    *xsync.Counter
	misses  *xsync.Counter
	sets    *xsync.Counter
	deletes *xsync.Counter
	errors  *xsync.Counter

	lastReset    atomic.Int64
	lastActivity atomic.Int64

	now func() time.Time

	descs metricDescs
}

type metricDescs struct {
	hits    *prometheus.Desc
	misses  *prometheus.Desc
	sets    *prometheus.Desc
	deletes *prometheus.Desc
	errors  *prometheus.Desc
	hitRate *prometheus.Desc
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Hits            int64     `json:"hits"`
	Misses          int64     `json:"misses"`
	Sets            int64     `json:"sets"`
	Deletes         int64     `json:"deletes"`
	Errors          int64     `json:"errors"`
	HitRate         float64   `json:"hitRate"`
	TotalRequests   int64     `json:"totalRequests"`
	TotalOperations int64     `json:"totalOperations"`
	LastReset       time.Time `json:"lastReset"`
	LastActivity    time.Time `json:"lastActivity,omitempty"`
}

// ErrorRate is errors over every recorded operation.
func (s MetricsSnapshot) ErrorRate() float64 {
	total := s.TotalOperations + s.Errors
	if total == 0 {
		return 0
	}
	return float64(s.Errors) / float64(total)
}

// NewMetrics creates a zeroed recorder.
func NewMetrics() *Metrics {
	return newMetrics(time.Now)
}

func newMetrics(now func() time.Time) *Metrics {
	m := &Metrics{
		hits:    xsync.NewCounter(),
		misses:  xsync.NewCounter(),
		sets:    xsync.NewCounter(),
		deletes: xsync.NewCounter(),
		errors:  xsync.NewCounter(),
		now:     now,
		descs: metricDescs{
			hits:    prometheus.NewDesc("shelflink_cache_hits_total", "Total number of cache hits", nil, nil),
			misses:  prometheus.NewDesc("shelflink_cache_misses_total", "Total number of cache misses", nil, nil),
			sets:    prometheus.NewDesc("shelflink_cache_sets_total", "Total number of cache writes", nil, nil),
			deletes: prometheus.NewDesc("shelflink_cache_deletes_total", "Total number of deleted cache keys", nil, nil),
			errors:  prometheus.NewDesc("shelflink_cache_errors_total", "Total number of swallowed cache errors", nil, nil),
			hitRate: prometheus.NewDesc("shelflink_cache_hit_ratio", "Hits over hits plus misses since the last reset", nil, nil),
		},
	}
	m.lastReset.Store(now().UnixNano())
	return m
}

func (m *Metrics) RecordHit() {
	m.hits.Inc()
	m.touch()
}

func (m *Metrics) RecordMiss() {
	m.misses.Inc()
	m.touch()
}

func (m *Metrics) RecordSet() {
	m.sets.Inc()
	m.touch()
}

// RecordDelete adds n deleted keys.
func (m *Metrics) RecordDelete(n int64) {
	if n <= 0 {
		return
	}
	m.deletes.Add(n)
	m.touch()
}

func (m *Metrics) RecordError() {
	m.errors.Inc()
}

func (m *Metrics) touch() {
	m.lastActivity.Store(m.now().UnixNano())
}

// Snapshot returns the current counters and derived hit rate.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Hits:      m.hits.Value(),
		Misses:    m.misses.Value(),
		Sets:      m.sets.Value(),
		Deletes:   m.deletes.Value(),
		Errors:    m.errors.Value(),
		LastReset: time.Unix(0, m.lastReset.Load()),
	}
	if last := m.lastActivity.Load(); last != 0 {
		s.LastActivity = time.Unix(0, last)
	}
	s.TotalRequests = s.Hits + s.Misses
	s.TotalOperations = s.TotalRequests + s.Sets + s.Deletes
	if s.TotalRequests > 0 {
		s.HitRate = float64(s.Hits) / float64(s.TotalRequests)
	}
	return s
}

// Reset zeroes every counter and stamps lastReset.
func (m *Metrics) Reset() {
	m.hits.Reset()
	m.misses.Reset()
	m.sets.Reset()
	m.deletes.Reset()
	m.errors.Reset()
	m.lastActivity.Store(0)
	m.lastReset.Store(m.now().UnixNano())
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.descs.hits
	ch <- m.descs.misses
	ch <- m.descs.sets
	ch <- m.descs.deletes
	ch <- m.descs.errors
	ch <- m.descs.hitRate
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	s := m.Snapshot()
	ch <- prometheus.MustNewConstMetric(m.descs.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(m.descs.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(m.descs.sets, prometheus.CounterValue, float64(s.Sets))
	ch <- prometheus.MustNewConstMetric(m.descs.deletes, prometheus.CounterValue, float64(s.Deletes))
	ch <- prometheus.MustNewConstMetric(m.descs.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(m.descs.hitRate, prometheus.GaugeValue, s.HitRate)
}

var _ prometheus.Collector = (*Metrics)(nil)
