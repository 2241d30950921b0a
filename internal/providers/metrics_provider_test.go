package providers

import (
	"context"
	"filmsync/internal/structures"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		fresh := prometheus.NewRegistry()
		prometheus.DefaultRegisterer = fresh
		prometheus.DefaultGatherer = fresh
	})
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/films", 200)
	m.ObserveRequestDuration("/films", time.Millisecond)
	m.ObservePersistenceDuration("file", time.Millisecond)
	m.ObserveSyncRun("changed", time.Second)
	assert.NoError(t, m.Push(context.Background()))
}

func TestMetricsProvider_SyncCounters(t *testing.T) {
	useFreshRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp, ok := m.(*MetricsProvider)
	require.True(t, ok)

	m.IncPagesFetched("PT")
	m.IncPagesFetched("PT")
	m.IncPageFailures("DE")
	m.IncMalformedRecords(3)
	m.SetSyncChanges(1, 2, 3)
	m.SetCatalogFilms(120)
	m.ObserveSyncRun("unchanged", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(mp.pagesFetched.WithLabelValues("PT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mp.pageFailures.WithLabelValues("DE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(mp.malformedRecords))
	assert.Equal(t, 2.0, testutil.ToFloat64(mp.syncChanges.WithLabelValues("removed")))
	assert.Equal(t, 120.0, testutil.ToFloat64(mp.catalogFilms))
	assert.Equal(t, 1.0, testutil.ToFloat64(mp.syncRuns.WithLabelValues("unchanged")))
	assert.Greater(t, testutil.ToFloat64(mp.lastSuccess), 0.0)
}

func TestMetricsProvider_FailedRunKeepsLastSuccess(t *testing.T) {
	useFreshRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp := m.(*MetricsProvider)

	m.ObserveSyncRun("failed", time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(mp.lastSuccess))
}

func TestMetricsProvider_PushWithoutGatewayIsNoop(t *testing.T) {
	useFreshRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	assert.NoError(t, m.Push(context.Background()))
}

func TestMetricsProvider_PushToGateway(t *testing.T) {
	useFreshRegistry(t)

	var gotPath string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true, PushGateway: gw.URL}})
	m.ObserveSyncRun("changed", time.Second)

	require.NoError(t, m.Push(context.Background()))
	assert.Equal(t, "/metrics/job/"+pushJobName, gotPath)
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
