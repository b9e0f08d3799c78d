package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the authorization cache.
//
// The "layer" label is one of "context", "member_details", "user_org"
// mirroring the three cache layers.
type Metrics struct {
	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	// Source-of-record metrics
	RecordLookupsTotal *prometheus.CounterVec

	// Resolution pipeline metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram

	// Invalidation metrics
	InvalidationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_cache_hits_total",
				Help: "Total number of cache hits per layer",
			},
			[]string{"layer"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_cache_misses_total",
				Help: "Total number of cache misses per layer",
			},
			[]string{"layer"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_cache_errors_total",
				Help: "Total number of swallowed cache backend errors",
			},
			[]string{"layer", "op"},
		),
		RecordLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_record_lookups_total",
				Help: "Total number of source-of-record queries",
			},
			[]string{"kind"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_resolutions_total",
				Help: "Total number of authorization context resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authctx_resolution_duration_seconds",
				Help:    "Authorization context resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authctx_invalidations_total",
				Help: "Total number of cache invalidations by kind",
			},
			[]string{"kind"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
		m.RecordLookupsTotal,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.InvalidationsTotal,
	)

	return m
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
