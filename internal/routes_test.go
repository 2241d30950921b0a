package internal

import (
	"context"
	"filmsync/internal/controllers"
	"filmsync/internal/models"
	"filmsync/internal/services"
	"filmsync/internal/structures"
	"filmsync/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *structures.Config {
	return &structures.Config{
		AppName:   "FilmSync",
		WebServer: structures.Server{Host: "127.0.0.1", Port: 0},
		Catalog:   structures.CatalogConfig{PageSize: 20},
	}
}

func testCatalog(t *testing.T, conf *structures.Config) (*services.CatalogService, *testutil.MockSnapshotStore) {
	t.Helper()
	year := 1994
	store := &testutil.MockSnapshotStore{Snapshot: &models.Snapshot{
		Films: []models.Film{
			{ID: 1, Title: "Chungking Express", Year: &year, Genres: []string{"Romance"}, AvailableCountries: []string{"PT"}},
			{ID: 2, Title: "Tokyo Story", Genres: []string{"Drama"}, AvailableCountries: []string{"DE"}},
		},
		Metadata: models.Metadata{
			Countries:  []string{"PT", "DE"},
			TotalFilms: 2,
			LastSync:   models.LastSync{Timestamp: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), TotalFilms: 2},
		},
	}}
	svc := services.NewCatalogService(conf, &testutil.MockLogger{}, store, testutil.NewMockCache(), &testutil.MockMetrics{})
	require.NoError(t, svc.Reload(context.Background()))
	return svc, store
}

func testHandler(t *testing.T, conf *structures.Config) (http.Handler, *testutil.MockMetrics) {
	t.Helper()
	svc, _ := testCatalog(t, conf)
	metrics := &testutil.MockMetrics{}
	ac := controllers.NewApiController(&testutil.MockLogger{}, svc, testutil.NewMockCache())
	hc := controllers.NewHealthController(svc)
	return NewHandler(hc, conf, &testutil.MockLogger{}, InitRoutes(ac), metrics), metrics
}

func TestInitRoutes_RegistersReadApi(t *testing.T) {
	svc, _ := testCatalog(t, testConfig())
	ac := controllers.NewApiController(&testutil.MockLogger{}, svc, testutil.NewMockCache())

	routes := InitRoutes(ac).GetRoutes()
	require.Len(t, routes, 7)

	got := make(map[string]string, len(routes))
	for _, r := range routes {
		got[r.Url] = r.Method
		assert.NotNil(t, r.Handler, "handler for %s", r.Url)
	}
	assert.Equal(t, map[string]string{
		"/films":          http.MethodGet,
		"/films/{id}":     http.MethodGet,
		"/genres":         http.MethodGet,
		"/countries":      http.MethodGet,
		"/search":         http.MethodGet,
		"/sync":           http.MethodGet,
		"/catalog/reload": http.MethodPost,
	}, got)
}

func TestHandler_ServesFilmsAndRecordsRouteTemplate(t *testing.T) {
	handler, metrics := testHandler(t, testConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/films/2", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var f models.Film
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	assert.Equal(t, "Tokyo Story", f.Title)
	assert.Equal(t, http.StatusOK, metrics.RequestStatuses["/films/{id}"])
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := testHandler(t, testConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/films", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/catalog/reload", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandler_UnknownPath(t *testing.T) {
	handler, _ := testHandler(t, testConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_HealthIsNotInstrumented(t *testing.T) {
	handler, metrics := testHandler(t, testConfig())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"films":2`)
	assert.Empty(t, metrics.RequestStatuses)
}

func TestHandler_MetricsEndpointFollowsConfig(t *testing.T) {
	disabled, _ := testHandler(t, testConfig())
	rr := httptest.NewRecorder()
	disabled.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	conf := testConfig()
	conf.Metrics.Enabled = true
	enabled, _ := testHandler(t, conf)
	rr = httptest.NewRecorder()
	enabled.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

type stubWatcher struct {
	initErr error
	inited  bool
	stopped bool
}

func (w *stubWatcher) Init() error {
	w.inited = true
	return w.initErr
}

func (w *stubWatcher) Stop() { w.stopped = true }

func TestApp_RunStopsOnCancel(t *testing.T) {
	conf := testConfig()
	svc, store := testCatalog(t, conf)
	watcher := &stubWatcher{}
	app := NewApp(http.NotFoundHandler(), conf, &testutil.MockLogger{}, svc, watcher, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, watcher.inited)
	assert.True(t, watcher.stopped)
	assert.True(t, store.Closed)
}

func TestApp_RunFailsWhenWatcherFails(t *testing.T) {
	conf := testConfig()
	svc, store := testCatalog(t, conf)
	watcher := &stubWatcher{initErr: assert.AnError}
	app := NewApp(http.NotFoundHandler(), conf, &testutil.MockLogger{}, svc, watcher, store)

	err := app.Run(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, store.Closed)
}
