// Package metrics defines the Prometheus collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       prometheus.Histogram
	SearchResultsCount  prometheus.Histogram
	DocumentsIndexed    prometheus.Counter
	IndexDocuments      prometheus.Gauge
	IndexVocabulary     prometheus.Gauge
	CrawlsTotal         *prometheus.CounterVec
	PublicationsCrawled prometheus.Counter
	JobsTotal           *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsearch_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsearch_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsearch_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, empty_query).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pubsearch_search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pubsearch_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		DocumentsIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pubsearch_documents_indexed_total",
				Help: "Total documents added to the index.",
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pubsearch_index_documents",
				Help: "Number of documents currently in the index.",
			},
		),
		IndexVocabulary: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pubsearch_index_vocabulary_size",
				Help: "Number of distinct tokens in the index.",
			},
		),
		CrawlsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsearch_crawls_total",
				Help: "Total crawl runs by final status (completed, failed).",
			},
			[]string{"status"},
		),
		PublicationsCrawled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pubsearch_publications_crawled_total",
				Help: "Total publications fetched by the crawler.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pubsearch_jobs_total",
				Help: "Total background jobs by type and final status.",
			},
			[]string{"type", "status"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pubsearch_job_duration_seconds",
				Help:    "Background job duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"type"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.DocumentsIndexed,
		m.IndexDocuments,
		m.IndexVocabulary,
		m.CrawlsTotal,
		m.PublicationsCrawled,
		m.JobsTotal,
		m.JobDuration,
	)

	return m
}

// ObserveIndexSize updates the index gauges from the current engine counts.
func (m *Metrics) ObserveIndexSize(documents, vocabulary int) {
	if m == nil {
		return
	}
	m.IndexDocuments.Set(float64(documents))
	m.IndexVocabulary.Set(float64(vocabulary))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
