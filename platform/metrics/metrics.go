// Package metrics registers the Prometheus collectors shared across modules.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_http_requests_total",
		Help: "HTTP requests by route and status class",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "georesponse_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})

	DirectoryRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_directory_requests_total",
		Help: "Directory API calls by operation and outcome",
	}, []string{"operation", "outcome"})
	DirectoryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "georesponse_directory_duration_ms",
		Help:    "Directory API call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"operation"})
	DirectoryDroppedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "georesponse_directory_dropped_records_total",
		Help: "Directory records dropped during normalization",
	})

	GeocodingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_geocoding_requests_total",
		Help: "Geocoding calls by provider, operation and outcome",
	}, []string{"provider", "operation", "outcome"})
	GeocodingDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "georesponse_geocoding_duration_ms",
		Help:    "Geocoding call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"provider"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_cache_hits_total",
		Help: "Redis cache hits by namespace",
	}, []string{"namespace"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_cache_misses_total",
		Help: "Redis cache misses by namespace",
	}, []string{"namespace"})

	SearchSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "georesponse_search_sessions_active",
		Help: "Search sessions currently held in memory",
	})
	SearchStaleResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georesponse_search_stale_responses_total",
		Help: "Responses discarded because a newer request superseded them",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPDurationMs,
		DirectoryRequestsTotal,
		DirectoryDurationMs,
		DirectoryDroppedRecordsTotal,
		GeocodingRequestsTotal,
		GeocodingDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
		SearchSessionsActive,
		SearchStaleResponsesTotal,
	)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
