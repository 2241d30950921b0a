package internal

import (
	"context"
	"errors"
	"filmsync/internal/controllers"
	"filmsync/internal/providers"
	"filmsync/internal/services"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
	conf      *structures.Config
	logger    providers.Logger
	catalog   services.CatalogServiceInterface
	watcher   interfaces.WatcherInterface
	store     interfaces.SnapshotStoreInterface
}

// NewHandler mounts the API routes behind logging and metrics middleware.
// Health and metrics endpoints stay outside the instrumentation.
func NewHandler(healthController *controllers.HealthController, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) http.Handler {
	root := mux.NewRouter()
	root.HandleFunc("/health", healthController.Health).Methods(http.MethodGet)
	if conf.Metrics.Enabled {
		root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	for _, route := range router.GetRoutes() {
		handler := providers.LoggingMiddleware(logger, providers.MetricsMiddleware(metrics, route.Handler))
		root.Handle(route.Url, handler).Methods(route.Method)
	}

	return gzhttp.GzipHandler(root)
}

func NewApp(handler http.Handler, conf *structures.Config, logger providers.Logger, catalog services.CatalogServiceInterface, watcher interfaces.WatcherInterface, store interfaces.SnapshotStoreInterface) *App {
	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:    conf,
		logger:  logger,
		catalog: catalog,
		watcher: watcher,
		store:   store,
	}
}

// Run serves the read API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.logger.Close()
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warnf(providers.TypeStorage, "Unable to close %s store: %s", a.store.Backend(), err)
		}
	}()

	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	if err := a.catalog.Reload(ctx); err != nil {
		// serve an empty catalog until the next successful sync
		a.logger.Errorf(providers.TypeApp, "Initial catalog load failed: %s", err)
	}

	if err := a.watcher.Init(); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer a.watcher.Stop()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.WebServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
