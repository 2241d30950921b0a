//go:build wireinject
// +build wireinject

package di

import (
	"filmsync/internal"
	"filmsync/internal/controllers"
	"filmsync/internal/providers"
	"filmsync/internal/services"
	"filmsync/internal/storage"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"filmsync/internal/upstream"
	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewSnapshotStore,
		services.NewCatalogService,
		wire.Bind(new(services.CatalogServiceInterface), new(*services.CatalogService)),
		wire.Bind(new(interfaces.ReloaderInterface), new(*services.CatalogService)),
		storage.NewWatcher,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}

func InitSync(cfg *structures.CliFlags) (*internal.SyncApp, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,

		upstream.NewClient,
		storage.NewSnapshotStore,
		storage.NewRunLock,
		services.NewSyncService,
		internal.NewSyncApp,
	)

	return nil, nil
}
