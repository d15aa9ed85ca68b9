// Package metrics exposes planner activity as Prometheus collectors fed from
// the event bus.
package metrics

import (
	"sync"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "guardplan"

// Metrics holds the planner collectors
type Metrics struct {
	// EventsTotal counts bus events by type
	EventsTotal *prometheus.CounterVec

	// UnitsPlaced counts placements by kind and strategy
	UnitsPlaced *prometheus.CounterVec

	// UnitsRemoved counts single-unit removals
	UnitsRemoved prometheus.Counter

	// PlacementExhausted counts units accepted after conflict avoidance gave up
	PlacementExhausted *prometheus.CounterVec

	// UnitsActive is the current session size by kind
	UnitsActive *prometheus.GaugeVec

	// AnalysisProgress is the progress of the running analysis (0-100)
	AnalysisProgress prometheus.Gauge

	// AnalysisRuns counts finished analyses by outcome
	AnalysisRuns *prometheus.CounterVec

	// AnalysisDuration tracks wall time from first stage to completion
	AnalysisDuration prometheus.Histogram

	mu            sync.Mutex
	analysisStart time.Time
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Planner events by type",
		}, []string{"type"}),
		UnitsPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_placed_total",
			Help:      "Units placed by kind and strategy",
		}, []string{"kind", "strategy"}),
		UnitsRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_removed_total",
			Help:      "Units removed individually",
		}),
		PlacementExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_exhausted_total",
			Help:      "Placements accepted below minimum separation after the retry cap",
		}, []string{"kind"}),
		UnitsActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_active",
			Help:      "Units in the current deployment session by kind",
		}, []string{"kind"}),
		AnalysisProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_progress_percent",
			Help:      "Progress of the running analysis",
		}),
		AnalysisRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time from first analysis stage to completion",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}),
	}
}

// Attach feeds the collectors from the bus
func (m *Metrics) Attach(bus *events.Emitter) func() {
	id := bus.Subscribe(m.observe)
	return func() { bus.Unsubscribe(id) }
}

func (m *Metrics) observe(ev events.Event) {
	m.EventsTotal.WithLabelValues(string(ev.Type)).Inc()

	switch data := ev.Data.(type) {
	case events.StageChanged:
		if data.Index == 0 {
			m.mu.Lock()
			m.analysisStart = ev.Time
			m.mu.Unlock()
		}
		m.AnalysisProgress.Set(float64(data.Progress))
	case events.AnalysisCompleted:
		m.AnalysisRuns.WithLabelValues("complete").Inc()
		m.mu.Lock()
		if !m.analysisStart.IsZero() {
			m.AnalysisDuration.Observe(ev.Time.Sub(m.analysisStart).Seconds())
			m.analysisStart = time.Time{}
		}
		m.mu.Unlock()
	case events.AnalysisFailed:
		m.AnalysisRuns.WithLabelValues("failed").Inc()
		m.AnalysisProgress.Set(0)
	case events.UnitPlaced:
		m.UnitsPlaced.WithLabelValues(string(data.Unit.Kind), string(data.Unit.Strategy)).Inc()
		m.UnitsActive.WithLabelValues(string(data.Unit.Kind)).Inc()
	case events.UnitRemoved:
		m.UnitsRemoved.Inc()
		m.UnitsActive.WithLabelValues(string(data.Kind)).Dec()
	case events.SessionCleared:
		m.UnitsActive.Reset()
	case events.PlacementExhausted:
		m.PlacementExhausted.WithLabelValues(string(data.Kind)).Inc()
	}

	if ev.Type == events.TypeAnalysisReset {
		m.AnalysisProgress.Set(0)
		m.mu.Lock()
		if !m.analysisStart.IsZero() {
			m.AnalysisRuns.WithLabelValues("cancelled").Inc()
			m.analysisStart = time.Time{}
		}
		m.mu.Unlock()
	}
}

// SetActiveUnits overwrites the active-unit gauges from session counts
func (m *Metrics) SetActiveUnits(counts map[model.ResourceKind]int) {
	m.UnitsActive.Reset()
	for kind, n := range counts {
		m.UnitsActive.WithLabelValues(string(kind)).Set(float64(n))
	}
}
