package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPLatency         *prometheus.HistogramVec
	Mutations           *prometheus.CounterVec
	StorageFailures     *prometheus.CounterVec
	ProbeResults        *prometheus.CounterVec
	SearchQueries       prometheus.Counter
	SearchCacheHits     prometheus.Counter
	DashboardRefreshes  prometheus.Counter
	DashboardSuperseded prometheus.Counter
	WSClients           prometheus.Gauge
	BackupsWritten      *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acm_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		}, []string{"route", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acm_repository_mutations_total",
			Help: "Repository mutations by entity and operation",
		}, []string{"entity", "op"}),
		StorageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acm_storage_failures_total",
			Help: "Failed loads and saves by collection key",
		}, []string{"key", "op"}),
		ProbeResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acm_probe_results_total",
			Help: "File probe outcomes",
		}, []string{"outcome"}),
		SearchQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "acm_search_queries_total",
			Help: "Search queries served",
		}),
		SearchCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "acm_search_cache_hits_total",
			Help: "Search queries answered from cache",
		}),
		DashboardRefreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "acm_dashboard_refreshes_total",
			Help: "Dashboard refreshes started",
		}),
		DashboardSuperseded: f.NewCounter(prometheus.CounterOpts{
			Name: "acm_dashboard_superseded_total",
			Help: "Dashboard loads discarded because a newer refresh started",
		}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "acm_ws_clients",
			Help: "Connected event stream clients",
		}),
		BackupsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "acm_backups_total",
			Help: "Backups written by type and status",
		}, []string{"type", "status"}),
	}
}

// Nop returns metrics bound to a private registry, for callers that do
// not export them.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncMutation(entity, op string) {
	m.Mutations.WithLabelValues(entity, op).Inc()
}

func (m *Metrics) IncStorageFailure(key, op string) {
	m.StorageFailures.WithLabelValues(key, op).Inc()
}

func (m *Metrics) IncProbe(outcome string) {
	m.ProbeResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncBackup(backupType, status string) {
	m.BackupsWritten.WithLabelValues(backupType, status).Inc()
}
