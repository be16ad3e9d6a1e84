package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whtcms"

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// content generation pipeline.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	generations     *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	dailyRuns       *prometheus.CounterVec
	clicks          prometheus.Counter
}

// NewCollector constructs a collector on a private registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "total",
			Help:      "Generation attempt chains by content kind, resolving provider and outcome.",
		}, []string{"kind", "provider", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "fallback_total",
			Help:      "Generation chains that switched to the secondary provider.",
		}, []string{"kind"}),
		dailyRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_post",
			Name:      "runs_total",
			Help:      "Daily post gate invocations by result.",
		}, []string{"result"}),
		clicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "affiliate",
			Name:      "clicks_total",
			Help:      "Tracked affiliate redirects.",
		}),
	}

	for _, col := range []prometheus.Collector{c.requestDuration, c.requestTotal, c.generations, c.fallbacks, c.dailyRuns, c.clicks} {
		if err := registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
// Requests are labelled by their mux pattern so ids and slugs do not
// create new series.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveGeneration records the outcome of one generation chain.
func (c *Collector) ObserveGeneration(kind, provider string, success, fallback bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.generations.WithLabelValues(kind, provider, outcome).Inc()
	if fallback {
		c.fallbacks.WithLabelValues(kind).Inc()
	}
}

// ObserveDailyRun records a daily post gate result: created, skipped or failed.
func (c *Collector) ObserveDailyRun(result string) {
	c.dailyRuns.WithLabelValues(result).Inc()
}

// ObserveClick records a tracked affiliate redirect.
func (c *Collector) ObserveClick() {
	c.clicks.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
