package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpathx_search_runs_total",
		Help: "Search requests by outcome",
	}, []string{"outcome"})

	searchExploredCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpathx_search_explored_cells",
		Help:    "Cells finalized per completed search",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000, 10000},
	})

	searchPathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpathx_search_path_length",
		Help:    "Hops on the shortest path of successful searches",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500},
	})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpathx_search_duration_seconds",
		Help:    "Wall time of a search including pacing delays",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 5, 15, 60},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridpathx_sessions_active",
		Help: "Grid sessions currently held in memory",
	})
)

// ObserveSearch records one search. explored/pathLength/elapsed are only observed for started runs.
func ObserveSearch(outcome string, started bool, explored, pathLength int, elapsedMs int64) {
	searchRunsTotal.WithLabelValues(outcome).Inc()
	if !started {
		return
	}
	searchExploredCells.Observe(float64(explored))
	if pathLength > 0 {
		searchPathLength.Observe(float64(pathLength))
	}
	searchDuration.Observe((time.Duration(elapsedMs) * time.Millisecond).Seconds())
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}
