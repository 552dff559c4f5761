package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booklore_api_requests_total",
		Help: "Total HTTP requests by method, endpoint and status code.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booklore_api_request_duration_seconds",
		Help:    "HTTP request latency by method, endpoint and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booklore_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	BooksFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booklore_books_filtered_total",
		Help: "Books evaluated by the filter engine.",
	})

	EnrichmentLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booklore_enrichment_lookups_total",
		Help: "Metadata enrichment lookups by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
