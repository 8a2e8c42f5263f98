// ABOUTME: Prometheus collectors for queries, tool rounds, tool calls and ingestion
// ABOUTME: Collectors live on a private registry so tests and servers never collide
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursemate"

// Metrics holds every collector the service exports
type Metrics struct {
	registry *prometheus.Registry

	Queries         *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
	ToolRounds      prometheus.Histogram
	ToolCalls       *prometheus.CounterVec
	CoursesIngested prometheus.Counter
	ChunksIngested  prometheus.Counter
	IngestFailures  prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries answered, by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End to end query latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ToolRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_rounds",
			Help:      "Tool-use rounds per query.",
			Buckets:   []float64{0, 1, 2, 3, 4},
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model.",
		}, []string{"tool", "outcome"}),
		CoursesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courses_ingested_total",
			Help:      "Courses written to the index.",
		}),
		ChunksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Content chunks written to the index.",
		}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Course documents that failed to ingest.",
		}),
	}

	m.registry.MustRegister(
		m.Queries, m.QueryDuration, m.ToolRounds, m.ToolCalls,
		m.CoursesIngested, m.ChunksIngested, m.IngestFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveQuery records one finished query. A nil receiver is a no-op.
func (m *Metrics) ObserveQuery(started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Queries.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(time.Since(started).Seconds())
}

// ObserveRounds records the tool rounds used by one query
func (m *Metrics) ObserveRounds(rounds int) {
	if m == nil {
		return
	}
	m.ToolRounds.Observe(float64(rounds))
}

// ObserveToolCall records one tool invocation
func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveIngest records one ingested course, or a failure when err is set
func (m *Metrics) ObserveIngest(chunks int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IngestFailures.Inc()
		return
	}
	m.CoursesIngested.Inc()
	m.ChunksIngested.Add(float64(chunks))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
