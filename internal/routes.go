package internal

import (
	"filmsync/internal/controllers"
	"filmsync/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/films", http.HandlerFunc(apiController.ListFilms))
	routers.Get("/films/{id}", http.HandlerFunc(apiController.GetFilm))
	routers.Get("/genres", http.HandlerFunc(apiController.GetGenres))
	routers.Get("/countries", http.HandlerFunc(apiController.GetCountries))
	routers.Get("/search", http.HandlerFunc(apiController.Search))
	routers.Get("/sync", http.HandlerFunc(apiController.GetSyncMetadata))
	routers.Post("/catalog/reload", http.HandlerFunc(apiController.ReloadCatalog))
	return routers
}
