package providers

import (
	"context"
	"filmsync/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJobName = "filmsync_sync"

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(backend string, duration time.Duration)
	SetCatalogFilms(count int)
	IncPagesFetched(country string)
	IncPageFailures(country string)
	IncMalformedRecords(count int)
	ObserveSyncRun(outcome string, duration time.Duration)
	SetSyncChanges(added, removed, modified int)
	Push(ctx context.Context) error
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration *prometheus.HistogramVec
	catalogFilms        prometheus.Gauge
	pagesFetched        *prometheus.CounterVec
	pageFailures        *prometheus.CounterVec
	malformedRecords    prometheus.Counter
	syncRuns            *prometheus.CounterVec
	syncDuration        prometheus.Histogram
	syncChanges         *prometheus.GaugeVec
	lastSuccess         prometheus.Gauge

	pushGateway string
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(backend string, duration time.Duration) {
	m.persistenceDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (m *MetricsProvider) SetCatalogFilms(count int) {
	m.catalogFilms.Set(float64(count))
}

func (m *MetricsProvider) IncPagesFetched(country string) {
	m.pagesFetched.WithLabelValues(country).Inc()
}

func (m *MetricsProvider) IncPageFailures(country string) {
	m.pageFailures.WithLabelValues(country).Inc()
}

func (m *MetricsProvider) IncMalformedRecords(count int) {
	m.malformedRecords.Add(float64(count))
}

func (m *MetricsProvider) ObserveSyncRun(outcome string, duration time.Duration) {
	m.syncRuns.WithLabelValues(outcome).Inc()
	m.syncDuration.Observe(duration.Seconds())
	if outcome != "failed" {
		m.lastSuccess.SetToCurrentTime()
	}
}

func (m *MetricsProvider) SetSyncChanges(added, removed, modified int) {
	m.syncChanges.WithLabelValues("added").Set(float64(added))
	m.syncChanges.WithLabelValues("removed").Set(float64(removed))
	m.syncChanges.WithLabelValues("modified").Set(float64(modified))
}

// Push sends the default registry to the configured Pushgateway. The sync
// command is a short lived job, so nothing would ever scrape it.
func (m *MetricsProvider) Push(ctx context.Context) error {
	if m.pushGateway == "" {
		return nil
	}
	return push.New(m.pushGateway, pushJobName).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filmsync_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filmsync_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filmsync_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filmsync_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filmsync_persistence_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),

		catalogFilms: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "filmsync_catalog_films",
			Help: "Number of films in the served snapshot",
		}),

		pagesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filmsync_upstream_pages_total",
			Help: "Upstream pages fetched per country",
		}, []string{"country"}),

		pageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filmsync_upstream_page_failures_total",
			Help: "Upstream page failures per country",
		}, []string{"country"}),

		malformedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filmsync_malformed_records_total",
			Help: "Upstream records dropped for missing id or title",
		}),

		syncRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filmsync_sync_runs_total",
			Help: "Sync runs by outcome",
		}, []string{"outcome"}),

		syncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "filmsync_sync_duration_seconds",
			Help:    "Sync run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),

		syncChanges: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "filmsync_sync_changes",
			Help: "Changes detected by the last sync run",
		}, []string{"kind"}),

		lastSuccess: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "filmsync_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful sync run",
		}),

		pushGateway: conf.Metrics.PushGateway,
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                    {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)    {}
func (n *noopMetrics) IncCacheHits()                                       {}
func (n *noopMetrics) IncCacheMisses()                                     {}
func (n *noopMetrics) ObservePersistenceDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) SetCatalogFilms(_ int)                               {}
func (n *noopMetrics) IncPagesFetched(_ string)                            {}
func (n *noopMetrics) IncPageFailures(_ string)                            {}
func (n *noopMetrics) IncMalformedRecords(_ int)                           {}
func (n *noopMetrics) ObserveSyncRun(_ string, _ time.Duration)            {}
func (n *noopMetrics) SetSyncChanges(_, _, _ int)                          {}
func (n *noopMetrics) Push(_ context.Context) error                        { return nil }
