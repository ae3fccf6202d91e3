package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.DocumentIndexed()
		m.DocumentSkipped()
		m.BuildFinished(time.Second, 10)
		m.SetStats(domain.Stats{Terms: 1})
		m.QueryServed("query", time.Millisecond, 3)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.DocumentIndexed()
	m.DocumentIndexed()
	m.DocumentSkipped()
	m.BuildFinished(2*time.Second, 7)
	m.SetStats(domain.Stats{Terms: 3, Documents: 2, Weights: 7})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsIndexed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsSkipped))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.WeightsPersisted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexRows.WithLabelValues("term")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.IndexRows.WithLabelValues("weight")))
}

func TestNewWithNilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(nil)

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/7", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/documents/{id}", "404"),
	))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "vecsearch_http_requests_total"))
}
