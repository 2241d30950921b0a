package controllers

import (
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/services"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// query values the web client sends for "no filter"
var allValues = map[string]struct{}{
	"all":           {},
	"All genres":    {},
	"All countries": {},
	"All years":     {},
}

type ApiController struct {
	logger  providers.Logger
	service services.CatalogServiceInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.CatalogServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	gson, _ := json.Marshal(errorResponse{Error: message})
	writeJSON(w, status, gson)
}

// serveFromCacheOrCompute keys every entry by snapshot version, so a reload
// can never serve a page from the previous catalog.
func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	cacheKey = fmt.Sprintf("v%d:%s", ac.service.Version(), cacheKey)
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeApi, "Handler failed: %s", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.logger.Errorf(providers.TypeApi, "Unable to encode response: %s", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

func filterValue(r *http.Request, key string) string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if _, ok := allValues[v]; ok {
		return ""
	}
	return v
}

var errBadQuery = errors.New("bad query")

// minYear keeps every decade bucket non-zero; zero means no year filter.
const minYear = 1000

func parseFilter(r *http.Request) (models.FilmFilter, *int64, error) {
	filter := models.FilmFilter{
		Genre:     filterValue(r, "genre"),
		Country:   filterValue(r, "country"),
		Available: strings.ToUpper(filterValue(r, "available")),
	}

	if year := filterValue(r, "year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y < minYear {
			return filter, nil, fmt.Errorf("%w: year must be a number from %d", errBadQuery, minYear)
		}
		filter.YearBucket = y - y%10
	}

	var cursor *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		c, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, nil, fmt.Errorf("%w: cursor must be a film id", errBadQuery)
		}
		cursor = &c
	}

	return filter, cursor, nil
}

func (ac *ApiController) ListFilms(w http.ResponseWriter, r *http.Request) {
	filter, cursor, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("films:%s|%d|%s|%s", filter.Genre, filter.YearBucket, filter.Country, filter.Available)
	if cursor != nil {
		key += "|" + strconv.FormatInt(*cursor, 10)
	}
	ac.serveFromCacheOrCompute(w, key, func() (any, error) {
		return ac.service.List(filter, cursor), nil
	})
}

func (ac *ApiController) GetFilm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "film id must be a number")
		return
	}

	film, ok := ac.service.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "film not found")
		return
	}

	gson, err := json.Marshal(film)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) GetGenres(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "genres", func() (any, error) {
		return ac.service.Genres(), nil
	})
}

func (ac *ApiController) GetCountries(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "countries", func() (any, error) {
		return ac.service.Countries(), nil
	})
}

func (ac *ApiController) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	ac.serveFromCacheOrCompute(w, "search:"+strings.ToUpper(q), func() (any, error) {
		return ac.service.Search(q), nil
	})
}

func (ac *ApiController) GetSyncMetadata(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "sync", func() (any, error) {
		return ac.service.Metadata(), nil
	})
}

func (ac *ApiController) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := ac.service.Reload(r.Context()); err != nil {
		ac.logger.Errorf(providers.TypeApi, "Catalog reload failed: %s", err)
		writeError(w, http.StatusServiceUnavailable, "catalog reload failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
