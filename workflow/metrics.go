package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus metrics for engine execution.
//
// Metrics exposed (all namespaced with "threadflow_"):
//
//  1. threads_active (gauge): traversals currently in flight.
//  2. node_duration_seconds (histogram): node invocation duration.
//     Labels: node, outcome (update/interrupt/error).
//  3. interrupts_total (counter): interrupts raised. Labels: kind.
//  4. resumes_total (counter): Resume calls that re-entered a node.
//  5. threads_completed_total / threads_failed_total (counters):
//     terminal outcomes.
//  6. checkpoint_save_failures_total (counter): store write failures.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := workflow.NewMetrics(registry)
//	engine := workflow.New(g, st, emitter, workflow.Options{Metrics: metrics})
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: the prometheus client handles concurrent updates.
type Metrics struct {
	threadsActive    prometheus.Gauge
	nodeDuration     *prometheus.HistogramVec
	interrupts       *prometheus.CounterVec
	resumes          prometheus.Counter
	threadsCompleted prometheus.Counter
	threadsFailed    prometheus.Counter
	saveFailures     prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the provided
// Prometheus registry. A nil registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		threadsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "threadflow",
			Name:      "threads_active",
			Help:      "Number of thread traversals currently in flight.",
		}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "threadflow",
			Name:      "node_duration_seconds",
			Help:      "Node invocation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node", "outcome"}),
		interrupts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadflow",
			Name:      "interrupts_total",
			Help:      "Total interrupts raised, by interrupt kind.",
		}, []string{"kind"}),
		resumes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "threadflow",
			Name:      "resumes_total",
			Help:      "Total Resume calls that re-entered a suspended node.",
		}),
		threadsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "threadflow",
			Name:      "threads_completed_total",
			Help:      "Total threads that reached the terminal sentinel.",
		}),
		threadsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "threadflow",
			Name:      "threads_failed_total",
			Help:      "Total threads terminated by a node or routing error.",
		}),
		saveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "threadflow",
			Name:      "checkpoint_save_failures_total",
			Help:      "Total checkpoint store write failures.",
		}),
	}
}

func (m *Metrics) traversalStarted() {
	if m == nil {
		return
	}
	m.threadsActive.Inc()
}

func (m *Metrics) traversalFinished() {
	if m == nil {
		return
	}
	m.threadsActive.Dec()
}

func (m *Metrics) observeNode(node string, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(node, outcome).Observe(duration.Seconds())
}

func (m *Metrics) interrupted(kind string) {
	if m == nil {
		return
	}
	m.interrupts.WithLabelValues(kind).Inc()
}

func (m *Metrics) resumed() {
	if m == nil {
		return
	}
	m.resumes.Inc()
}

func (m *Metrics) completed() {
	if m == nil {
		return
	}
	m.threadsCompleted.Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.threadsFailed.Inc()
}

func (m *Metrics) saveFailed() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}
