package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the orchestrator's operational counters. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	revisions     prometheus.Counter
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the workflow metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Completed workflow runs by outcome.",
		}, []string{"outcome"}),
		revisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "compass",
			Subsystem: "workflow",
			Name:      "revisions_total",
			Help:      "Report revision attempts triggered by the critic.",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compass",
			Subsystem: "workflow",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
	}
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) countRevision() {
	if m == nil {
		return
	}
	m.revisions.Inc()
}

func (m *Metrics) countRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}
