// Package metrics holds the Prometheus collectors for catalog loads,
// watched submissions, enrichment lookups and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/hypelist/internal/model"
)

var (
	// Catalog loads
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_catalog_loads_total",
			Help: "Total number of catalog rebuilds",
		},
		[]string{"result"}, // "ok", "no_data"
	)

	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypelist_catalog_load_duration_seconds",
			Help:    "Duration of catalog rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypelist_catalog_movies",
			Help: "Number of movies in the current catalog",
		},
	)

	LoadWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_load_warnings_total",
			Help: "Warnings raised while loading sources",
		},
		[]string{"kind"},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_rows_dropped_total",
			Help: "Source rows dropped during a load",
		},
		[]string{"source"},
	)

	// Writes to the shared form
	WatchedSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_form_submissions_total",
			Help: "Form submissions by kind and result",
		},
		[]string{"kind", "result"},
	)

	// Enrichment
	EnrichLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_enrich_lookups_total",
			Help: "Metadata lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error", "disabled"
	)

	// HTTP
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypelist_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypelist_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordLoad records one catalog rebuild and its warnings.
func RecordLoad(cat *model.Catalog, warnings []model.Warning, duration time.Duration) {
	CatalogLoadDuration.Observe(duration.Seconds())
	if cat == nil {
		CatalogLoads.WithLabelValues("no_data").Inc()
		CatalogMovies.Set(0)
	} else {
		CatalogLoads.WithLabelValues("ok").Inc()
		CatalogMovies.Set(float64(len(cat.Movies)))
		for _, r := range cat.Sources {
			if r.Dropped > 0 {
				RowsDropped.WithLabelValues(r.Name).Add(float64(r.Dropped))
			}
		}
	}
	for _, w := range warnings {
		LoadWarnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

// RecordSubmission records a form submission of the given kind.
func RecordSubmission(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	WatchedSubmissions.WithLabelValues(kind, result).Inc()
}

// RecordEnrichLookup records a metadata lookup outcome.
func RecordEnrichLookup(result string) {
	EnrichLookups.WithLabelValues(result).Inc()
}

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
