package projections

import (
	"math"
	"sync"

	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
)

// Metrics are the four dashboard summary figures.
type Metrics struct {
	WeeklyActivityCount int
	TotalSignups        int
	OccupancyRate       int
	NearFullCount       int
}

// Summarize derives metrics from the full activity cache.
// PRE: none
// POST: OccupancyRate is 0 when total capacity is 0
func Summarize(c activity.Catalog) Metrics {
	var m Metrics
	capacity := 0
	for _, a := range c.All() {
		n := a.Enrolled()
		if n > 0 {
			m.WeeklyActivityCount++
		}
		m.TotalSignups += n
		capacity += a.MaxParticipants
		if a.IsNearFull() {
			m.NearFullCount++
		}
	}
	if capacity > 0 {
		m.OccupancyRate = int(math.Round(100 * float64(m.TotalSignups) / float64(capacity)))
	}
	return m
}

// MetricsWatcher keeps Metrics current by listening to a Dashboard.
type MetricsWatcher struct {
	mu      sync.RWMutex
	metrics Metrics
	sub     *state.Subscription
}

// WatchMetrics subscribes to d and computes the initial metrics.
// POST: Current reflects every later activity replacement until Close
func WatchMetrics(d *state.Dashboard) *MetricsWatcher {
	w := &MetricsWatcher{metrics: Summarize(d.Snapshot().Activities)}
	w.sub = d.Subscribe(func(c activity.Catalog) {
		m := Summarize(c)
		w.mu.Lock()
		w.metrics = m
		w.mu.Unlock()
	})
	return w
}

// Current returns the latest metrics.
func (w *MetricsWatcher) Current() Metrics {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.metrics
}

// Close detaches the watcher from its dashboard.
func (w *MetricsWatcher) Close() {
	w.sub.Close()
}
