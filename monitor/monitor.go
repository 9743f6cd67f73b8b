// Package monitor analyses cache metrics over time: it keeps a rolling
// history of samples, raises alerts when effectiveness degrades and builds
// advisory performance reports.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

// MetricsSource supplies snapshots. *cache.Metrics satisfies it.
type MetricsSource interface {
	Snapshot() cache.MetricsSnapshot
}

// AlertType classifies an alert.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
)

// Alert is a single monitor finding.
type Alert struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Sample is one entry in the rolling history.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	HitRate   float64   `json:"hitRate"`
	Requests  int64     `json:"requests"`
	Errors    int64     `json:"errors"`
	ErrorRate float64   `json:"errorRate"`
}

// Monitor periodically samples a MetricsSource.
type Monitor struct {
	cfg     Config
	metrics MetricsSource
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	history []Sample
	alerts  []Alert
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a monitor. An invalid configuration is rejected.
func New(metrics MetricsSource, cfg Config, logger *zap.Logger, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("monitor config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.Named("monitor"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run checks on every interval until ctx is done. A check in progress
// always completes.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("cache monitor started", zap.Duration("interval", m.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("cache monitor stopped")
			return
		case <-ticker.C:
			m.Check(m.now())
		}
	}
}

// Check records a sample and evaluates the alert rules at now. It returns
// the alerts raised by this check.
func (m *Monitor) Check(now time.Time) []Alert {
	snap := m.metrics.Snapshot()
	sample := Sample{
		Timestamp: now,
		HitRate:   snap.HitRate,
		Requests:  snap.TotalRequests,
		Errors:    snap.Errors,
		ErrorRate: snap.ErrorRate(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, sample)
	if over := len(m.history) - m.cfg.HistorySize; over > 0 {
		m.history = append(m.history[:0:0], m.history[over:]...)
	}

	var raised []Alert
	if avg := m.trailingHitRate(3); snap.TotalRequests >= m.cfg.MinRequests && avg < m.cfg.LowHitRate {
		raised = append(raised, Alert{
			Type:      AlertWarning,
			Message:   fmt.Sprintf("Low cache hit rate: %.1f%% (threshold %.1f%%)", avg*100, m.cfg.LowHitRate*100),
			Timestamp: now,
		})
	}
	if rate := sample.ErrorRate; rate > m.cfg.ErrorRateCritical {
		raised = append(raised, Alert{
			Type:      AlertError,
			Message:   fmt.Sprintf("High cache error rate: %.1f%% (%d errors)", rate*100, snap.Errors),
			Timestamp: now,
		})
	}
	if idle := now.Sub(lastSeen(snap)); idle >= m.cfg.IdleWindow {
		raised = append(raised, Alert{
			Type:      AlertWarning,
			Message:   fmt.Sprintf("No cache activity for %s", idle.Truncate(time.Minute)),
			Timestamp: now,
		})
	}

	for _, a := range raised {
		m.addAlertLocked(a)
		if a.Type == AlertError {
			m.logger.Error("cache alert", zap.String("message", a.Message))
		} else {
			m.logger.Warn("cache alert", zap.String("message", a.Message))
		}
	}
	return raised
}

func lastSeen(snap cache.MetricsSnapshot) time.Time {
	if snap.LastActivity.After(snap.LastReset) {
		return snap.LastActivity
	}
	return snap.LastReset
}

func (m *Monitor) trailingHitRate(n int) float64 {
	if len(m.history) < n {
		n = len(m.history)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.history[len(m.history)-n:] {
		sum += s.HitRate
	}
	return sum / float64(n)
}

func (m *Monitor) addAlertLocked(a Alert) {
	m.alerts = append(m.alerts, a)
	if over := len(m.alerts) - m.cfg.MaxAlerts; over > 0 {
		m.alerts = append(m.alerts[:0:0], m.alerts[over:]...)
	}
}

// Alerts returns up to limit alerts, newest first. limit <= 0 returns all.
func (m *Monitor) Alerts(limit int) []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recentAlertsLocked(limit)
}

func (m *Monitor) recentAlertsLocked(limit int) []Alert {
	n := len(m.alerts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out
}

// ClearAlerts empties the alert ring.
func (m *Monitor) ClearAlerts() {
	m.mu.Lock()
	m.alerts = nil
	m.mu.Unlock()
}

// History returns a copy of the retained samples, oldest first.
func (m *Monitor) History() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Sample(nil), m.history...)
}
