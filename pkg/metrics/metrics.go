// Package metrics exposes Prometheus collectors for the registry, job
// runner, and HTTP API, and adapts them to the pkg/observability hook
// interfaces so the core packages never import Prometheus directly.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/graphengine/pkg/observability"
)

var (
	graphsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphengine",
		Subsystem: "registry",
		Name:      "graphs_active",
		Help:      "Number of graphs currently held in the registry.",
	})

	graphsSealedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphengine",
		Subsystem: "registry",
		Name:      "graphs_sealed_total",
		Help:      "Total number of graphs that have been sealed.",
	})

	graphVertexCount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "graphengine",
		Subsystem: "registry",
		Name:      "graph_vertex_count",
		Help:      "Vertex count of sealed graphs.",
		Buckets:   prometheus.ExponentialBuckets(10, 10, 8),
	})

	graphInUseRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphengine",
		Subsystem: "registry",
		Name:      "graph_in_use_rejections_total",
		Help:      "Delete attempts rejected because a graph is still referenced by a job.",
	})

	jobsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphengine",
		Subsystem: "jobs",
		Name:      "submitted_total",
		Help:      "Jobs submitted to the worker pool, by computation type.",
	}, []string{"comp_type"})

	jobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphengine",
		Subsystem: "jobs",
		Name:      "completed_total",
		Help:      "Jobs that reached a terminal state, by computation type and outcome.",
	}, []string{"comp_type", "outcome"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "graphengine",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of completed jobs, by computation type.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"comp_type"})

	superstepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "graphengine",
		Subsystem: "jobs",
		Name:      "superstep_duration_seconds",
		Help:      "Duration of a single superstep, by computation type.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"comp_type"})

	apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphengine",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by method, path, and status code.",
	}, []string{"method", "path", "status"})

	apiRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "graphengine",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling duration, by method and path.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(
		graphsActive,
		graphsSealedTotal,
		graphVertexCount,
		graphInUseRejections,
		jobsSubmittedTotal,
		jobsCompletedTotal,
		jobDuration,
		superstepDuration,
		apiRequestsTotal,
		apiRequestDuration,
	)
}

// Handler returns the HTTP handler serving /metrics in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall-clock time for a single observation.
type Timer struct{ start time.Time }

// NewTimer starts a Timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ObserveDuration records the elapsed time on h.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time on h with the given labels.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration { return time.Since(t.start) }

// ============================================================================
// observability.Hooks adapters
// ============================================================================

type jobHooks struct{}
type registryHooks struct{}
type httpHooks struct{}

// JobHooks returns an observability.JobHooks implementation backed by the
// Prometheus collectors above.
func JobHooks() observability.JobHooks { return jobHooks{} }

// RegistryHooks returns an observability.RegistryHooks implementation backed
// by the Prometheus collectors above.
func RegistryHooks() observability.RegistryHooks { return registryHooks{} }

// HTTPHooks returns an observability.HTTPHooks implementation backed by the
// Prometheus collectors above.
func HTTPHooks() observability.HTTPHooks { return httpHooks{} }

func (jobHooks) OnJobSubmit(_ context.Context, compType string) {
	jobsSubmittedTotal.WithLabelValues(compType).Inc()
}

func (jobHooks) OnJobComplete(_ context.Context, compType string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	jobsCompletedTotal.WithLabelValues(compType, outcome).Inc()
	jobDuration.WithLabelValues(compType).Observe(duration.Seconds())
}

func (jobHooks) OnSuperstep(_ context.Context, compType string, _ int, duration time.Duration) {
	superstepDuration.WithLabelValues(compType).Observe(duration.Seconds())
}

func (registryHooks) OnGraphSealed(_ context.Context, _ uint64, vertexCount, _ uint64) {
	graphsActive.Inc()
	graphsSealedTotal.Inc()
	graphVertexCount.Observe(float64(vertexCount))
}

func (registryHooks) OnGraphDropped(_ context.Context, _ uint64) {
	graphsActive.Dec()
}

func (registryHooks) OnGraphInUse(_ context.Context, _ uint64, _ int) {
	graphInUseRejections.Inc()
}

func (httpHooks) OnRequest(context.Context, string, string) {}

func (httpHooks) OnResponse(_ context.Context, method, path string, statusCode int, duration time.Duration) {
	status := http.StatusText(statusCode)
	if status == "" {
		status = "unknown"
	}
	apiRequestsTotal.WithLabelValues(method, path, status).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (httpHooks) OnError(_ context.Context, method, path string, _ error) {
	apiRequestsTotal.WithLabelValues(method, path, "error").Inc()
}
