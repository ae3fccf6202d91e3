// Package metrics defines the Prometheus collectors for index builds, queries
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

const namespace = "vecsearch"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsIndexed  prometheus.Counter
	DocumentsSkipped  prometheus.Counter
	WeightsPersisted  prometheus.Counter
	BuildDuration     prometheus.Histogram
	IndexRows         *prometheus.GaugeVec
	QueryLatency      *prometheus.HistogramVec
	QueryResults      *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg gets a
// fresh registry, which keeps repeated construction in tests panic-free.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		DocumentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Documents ingested by index builds.",
		}),
		DocumentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_skipped_total",
			Help:      "Source pages skipped as redirects.",
		}),
		WeightsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weights_persisted_total",
			Help:      "Term weights written by index builds.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of complete index builds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
		IndexRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_rows",
			Help:      "Row count per index relation after the last build or stats call.",
		}, []string{"relation"}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_latency_seconds",
			Help:      "Retrieval latency by query kind.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		QueryResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Number of ranked results returned per query.",
			Buckets:   []float64{0, 1, 2, 5, 10},
		}, []string{"kind"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.DocumentsIndexed,
		m.DocumentsSkipped,
		m.WeightsPersisted,
		m.BuildDuration,
		m.IndexRows,
		m.QueryLatency,
		m.QueryResults,
		m.HTTPRequestsTotal,
	)
	return m
}

func (m *Metrics) DocumentIndexed() {
	if m == nil {
		return
	}
	m.DocumentsIndexed.Inc()
}

func (m *Metrics) DocumentSkipped() {
	if m == nil {
		return
	}
	m.DocumentsSkipped.Inc()
}

func (m *Metrics) BuildFinished(d time.Duration, weights int) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
	m.WeightsPersisted.Add(float64(weights))
}

func (m *Metrics) SetStats(stats domain.Stats) {
	if m == nil {
		return
	}
	m.IndexRows.WithLabelValues("term").Set(float64(stats.Terms))
	m.IndexRows.WithLabelValues("document").Set(float64(stats.Documents))
	m.IndexRows.WithLabelValues("weight").Set(float64(stats.Weights))
}

func (m *Metrics) QueryServed(kind string, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.QueryLatency.WithLabelValues(kind).Observe(d.Seconds())
	m.QueryResults.WithLabelValues(kind).Observe(float64(results))
}

// Handler serves the registry this Metrics was registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if m == nil {
				return
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		})
	}
}
