package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "appraise"
	metricsSubsystem = "batch"
)

// Task kinds used as the "kind" label.
const (
	KindComps  = "comps"
	KindEquity = "equity"
)

// Metrics holds the Prometheus collectors for batch runs.
type Metrics struct {
	// TasksTotal counts finished tasks. Labels: kind, status (ok, error, canceled).
	TasksTotal *prometheus.CounterVec

	// TaskDuration measures per-task engine time. Labels: kind.
	TaskDuration *prometheus.HistogramVec

	// SelectedComps is the number of comparables kept per subject.
	SelectedComps prometheus.Histogram

	// EquityScore is the equity score of each assessed task.
	EquityScore prometheus.Histogram
}

// NewMetrics registers the batch collectors on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tasks_total",
			Help:      "Batch tasks processed, by kind and status.",
		}, []string{"kind", "status"}),
		TaskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "task_duration_seconds",
			Help:      "Time spent in the engine per task.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"kind"}),
		SelectedComps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "selected_comps",
			Help:      "Comparables selected per subject.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		EquityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "equity_score",
			Help:      "Equity score per assessed task.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

func (m *Metrics) observe(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(kind, status).Inc()
	if status != statusCanceled {
		m.TaskDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func (m *Metrics) observeComps(selected int) {
	if m == nil {
		return
	}
	m.SelectedComps.Observe(float64(selected))
}

func (m *Metrics) observeEquity(score float64) {
	if m == nil {
		return
	}
	m.EquityScore.Observe(score)
}
