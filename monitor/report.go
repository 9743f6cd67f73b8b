package monitor

import (
	"fmt"
	"time"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
)

// Efficiency tiers for the current hit rate.
type Efficiency string

const (
	EfficiencyExcellent Efficiency = "excellent"
	EfficiencyGood      Efficiency = "good"
	EfficiencyFair      Efficiency = "fair"
	EfficiencyPoor      Efficiency = "poor"
)

// Classify maps a hit rate onto an efficiency tier.
func Classify(hitRate float64) Efficiency {
	switch {
	case hitRate >= 0.8:
		return EfficiencyExcellent
	case hitRate >= 0.6:
		return EfficiencyGood
	case hitRate >= 0.4:
		return EfficiencyFair
	default:
		return EfficiencyPoor
	}
}

// Direction summarises the hit rate history.
type Direction string

const (
	TrendImproving Direction = "improving"
	TrendDeclining Direction = "declining"
	TrendStable    Direction = "stable"
)

// trendThreshold is the hit rate change treated as movement.
const trendThreshold = 0.05

// Trend describes how the hit rate moved across the history.
type Trend struct {
	Direction      Direction `json:"direction"`
	Samples        []Sample  `json:"samples"`
	AverageHitRate float64   `json:"averageHitRate"`
	Change         float64   `json:"change"`
}

// PerformanceReport is the on-demand summary.
type PerformanceReport struct {
	GeneratedAt     time.Time             `json:"generatedAt"`
	Efficiency      Efficiency            `json:"efficiency"`
	HitRate         float64               `json:"hitRate"`
	Metrics         cache.MetricsSnapshot `json:"metrics"`
	Recommendations []string              `json:"recommendations"`
	Alerts          []Alert               `json:"alerts"`
	Trend           Direction             `json:"trend"`
}

// Optimization lists advisory actions. Nothing is applied automatically.
type Optimization struct {
	Actions         []string `json:"actions"`
	EstimatedImpact string   `json:"estimatedImpact"`
}

var tierRecommendations = map[Efficiency][]string{
	EfficiencyExcellent: {
		"Cache is performing well; keep current TTLs",
		"Monitor memory usage as the key space grows",
	},
	EfficiencyGood: {
		"Consider longer TTLs for rarely changing store data",
		"Warm frequently requested store listings after deploys",
	},
	EfficiencyFair: {
		"Review eviction patterns that may be wider than needed",
		"Increase TTLs for read-heavy endpoints",
		"Warm caches for the busiest stores",
	},
	EfficiencyPoor: {
		"Verify that cache keys are stable for identical requests",
		"Check for write paths evicting the whole cache",
		"Add caching to the most frequent read operations",
	},
}

// GeneratePerformanceReport classifies the current metrics and attaches
// recommendations and the ten most recent alerts.
func (m *Monitor) GeneratePerformanceReport() PerformanceReport {
	snap := m.metrics.Snapshot()
	tier := Classify(snap.HitRate)

	m.mu.RLock()
	alerts := m.recentAlertsLocked(10)
	trend := m.trendLocked()
	m.mu.RUnlock()

	recs := append([]string(nil), tierRecommendations[tier]...)
	if snap.ErrorRate() > m.cfg.ErrorRateCritical {
		recs = append(recs, "Investigate cache backend errors before tuning TTLs")
	}

	return PerformanceReport{
		GeneratedAt:     m.now(),
		Efficiency:      tier,
		HitRate:         snap.HitRate,
		Metrics:         snap,
		Recommendations: recs,
		Alerts:          alerts,
		Trend:           trend.Direction,
	}
}

// Trends returns the retained history and its direction.
func (m *Monitor) Trends() Trend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trendLocked()
}

// trendLocked compares the average hit rate of the older half of the
// history with the newer half.
func (m *Monitor) trendLocked() Trend {
	t := Trend{
		Direction: TrendStable,
		Samples:   append([]Sample(nil), m.history...),
	}
	if len(m.history) == 0 {
		return t
	}

	t.AverageHitRate = average(m.history)
	if len(m.history) < 2 {
		return t
	}

	mid := len(m.history) / 2
	t.Change = average(m.history[mid:]) - average(m.history[:mid])
	switch {
	case t.Change > trendThreshold:
		t.Direction = TrendImproving
	case t.Change < -trendThreshold:
		t.Direction = TrendDeclining
	}
	return t
}

func average(samples []Sample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.HitRate
	}
	return sum / float64(len(samples))
}

// OptimizeCache inspects the current metrics and suggests actions.
func (m *Monitor) OptimizeCache() Optimization {
	snap := m.metrics.Snapshot()
	var actions []string

	if snap.TotalRequests >= m.cfg.MinRequests && snap.HitRate < m.cfg.LowHitRate {
		actions = append(actions,
			fmt.Sprintf("Hit rate %.1f%% is below %.1f%%: extend TTLs on hot read paths", snap.HitRate*100, m.cfg.LowHitRate*100))
	}
	if snap.Hits > 0 && snap.Sets > 2*snap.Hits {
		actions = append(actions, "Values are written far more often than read: narrow cacheable conditions")
	}
	if snap.Deletes > snap.Sets && snap.Sets > 0 {
		actions = append(actions, "Evictions outnumber writes: tighten eviction patterns")
	}
	if rate := snap.ErrorRate(); rate > 0 {
		actions = append(actions, fmt.Sprintf("Error rate %.1f%%: check cache backend connectivity", rate*100))
	}
	if snap.TotalRequests == 0 {
		actions = append(actions, "No cache traffic recorded: warm the cache for active stores")
	}
	if len(actions) == 0 {
		actions = append(actions, "No changes recommended")
	}

	return Optimization{
		Actions:         actions,
		EstimatedImpact: impactFor(snap.HitRate, snap.TotalRequests),
	}
}

func impactFor(hitRate float64, requests int64) string {
	switch {
	case requests == 0:
		return "unknown"
	case hitRate < 0.4:
		return "high"
	case hitRate < 0.6:
		return "medium"
	default:
		return "low"
	}
}
