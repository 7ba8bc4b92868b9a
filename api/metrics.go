package api

import (
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for a single route template
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates per-route request metrics
type MetricsCollector struct {
	mu     sync.RWMutex
	routes map[string]*RouteMetrics
}

var (
	metricsOnce      sync.Once
	metricsCollector *MetricsCollector
)

// GetMetrics returns the process-wide metrics collector
func GetMetrics() *MetricsCollector {
	metricsOnce.Do(func() {
		metricsCollector = &MetricsCollector{routes: make(map[string]*RouteMetrics)}
	})
	return metricsCollector
}

// Record folds one completed request into the route aggregate. Paths are
// route templates, not raw URLs, so cardinality stays bounded.
func (m *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := method + " " + path
	rm, ok := m.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: duration}
		m.routes[key] = rm
	}

	rm.Count++
	if status >= 400 {
		rm.ErrorCount++
	}
	rm.TotalTime += duration
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if duration < rm.MinTime {
		rm.MinTime = duration
	}
	if duration > rm.MaxTime {
		rm.MaxTime = duration
	}
	rm.LastRequest = time.Now()
}

// Snapshot returns a copy of every route aggregate, busiest first.
func (m *MetricsCollector) Snapshot() []*RouteMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*RouteMetrics, 0, len(m.routes))
	for _, rm := range m.routes {
		c := *rm
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
