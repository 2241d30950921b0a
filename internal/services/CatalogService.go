package services

import (
	"cmp"
	"context"
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/atomic"
)

const (
	DefaultPageSize = 20
	MaxSearchResult = 20
	// OpenDecade is the last decade bucket; it also holds every later year.
	OpenDecade = 2020
)

// ErrInconsistentSnapshot marks a store whose films do not match its metadata,
// as left behind by an interrupted multi-batch write.
var ErrInconsistentSnapshot = errors.New("snapshot films do not match metadata")

type CatalogServiceInterface interface {
	Reload(ctx context.Context) error
	Version() int64
	List(filter models.FilmFilter, cursor *int64) models.FilmList
	Get(id int64) (models.Film, bool)
	Genres() []string
	Countries() []string
	Search(query string) []models.Film
	Metadata() models.Metadata
}

// catalogView is an immutable read model built once per snapshot.
type catalogView struct {
	version   int64
	ranked    []models.Film
	byID      map[int64]int
	genres    []string
	countries []string
	metadata  models.Metadata
}

// CatalogService serves the last fully written snapshot. A reload swaps the
// whole view at once, so readers see either the old or the new catalog.
type CatalogService struct {
	config  *structures.Config
	logger  providers.Logger
	store   interfaces.SnapshotStoreInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	view    atomic.Pointer[catalogView]
}

func NewCatalogService(
	config *structures.Config,
	logger providers.Logger,
	store interfaces.SnapshotStoreInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
) *CatalogService {
	s := &CatalogService{
		config:  config,
		logger:  logger,
		store:   store,
		cache:   cache,
		metrics: metrics,
	}
	s.view.Store(buildView(&models.Snapshot{}))
	return s
}

func (s *CatalogService) Reload(ctx context.Context) error {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	if meta := snapshot.Metadata; !meta.LastSync.Timestamp.IsZero() && meta.TotalFilms != len(snapshot.Films) {
		return fmt.Errorf("%w: metadata lists %d films, store holds %d", ErrInconsistentSnapshot, meta.TotalFilms, len(snapshot.Films))
	}

	view := buildView(snapshot)
	previous := s.view.Swap(view)
	if previous == nil || previous.version != view.version {
		s.cache.Clear()
	}
	s.metrics.SetCatalogFilms(len(view.ranked))
	s.logger.Infof(providers.TypeApp, "Catalog loaded: %d films, %d genres", len(view.ranked), len(view.genres))
	return nil
}

func buildView(snapshot *models.Snapshot) *catalogView {
	ranked := slices.Clone(snapshot.Films)
	slices.SortStableFunc(ranked, func(a, b models.Film) int {
		return cmp.Compare(b.Popularity, a.Popularity)
	})

	byID := make(map[int64]int, len(ranked))
	genres := make(map[string]struct{})
	countries := make(map[string]struct{})
	for i, f := range ranked {
		byID[f.ID] = i
		for _, g := range f.Genres {
			genres[g] = struct{}{}
		}
		for _, c := range f.FilmCountries {
			countries[c] = struct{}{}
		}
	}

	return &catalogView{
		version:   snapshot.Version(),
		ranked:    ranked,
		byID:      byID,
		genres:    sortedKeys(genres),
		countries: sortedKeys(countries),
		metadata:  snapshot.Metadata,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s *CatalogService) Version() int64 {
	return s.view.Load().version
}

func (s *CatalogService) pageSize() int {
	if s.config.Catalog.PageSize > 0 {
		return s.config.Catalog.PageSize
	}
	return DefaultPageSize
}

func matches(f models.Film, filter models.FilmFilter) bool {
	if filter.Genre != "" && !slices.Contains(f.Genres, filter.Genre) {
		return false
	}
	if filter.YearBucket != 0 {
		if f.Year == nil {
			return false
		}
		year := *f.Year
		if year < filter.YearBucket {
			return false
		}
		if filter.YearBucket != OpenDecade && year >= filter.YearBucket+10 {
			return false
		}
	}
	if filter.Country != "" && !slices.Contains(f.FilmCountries, filter.Country) {
		return false
	}
	if filter.Available != "" && !f.IsAvailableIn(filter.Available) {
		return false
	}
	return true
}

// List returns one page of films matching filter, by popularity descending.
// cursor is the id of the last film of the previous page; an id that is not
// part of the filtered result starts over from the first page.
func (s *CatalogService) List(filter models.FilmFilter, cursor *int64) models.FilmList {
	view := s.view.Load()

	filtered := make([]models.Film, 0)
	for _, f := range view.ranked {
		if matches(f, filter) {
			filtered = append(filtered, f)
		}
	}

	start := 0
	if cursor != nil {
		if i := slices.IndexFunc(filtered, func(f models.Film) bool { return f.ID == *cursor }); i >= 0 {
			start = i + 1
		}
	}
	end := min(start+s.pageSize(), len(filtered))

	list := models.FilmList{
		Films: filtered[start:end],
		Total: len(filtered),
	}
	if end < len(filtered) && end > start {
		next := filtered[end-1].ID
		list.NextCursor = &next
	}
	return list
}

func (s *CatalogService) Get(id int64) (models.Film, bool) {
	view := s.view.Load()
	i, ok := view.byID[id]
	if !ok {
		return models.Film{}, false
	}
	return view.ranked[i], true
}

func (s *CatalogService) Genres() []string {
	return s.view.Load().genres
}

func (s *CatalogService) Countries() []string {
	return s.view.Load().countries
}

// Search matches a case-insensitive title substring, most popular first.
func (s *CatalogService) Search(query string) []models.Film {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Film{}
	}
	needle := strings.ToUpper(query)

	view := s.view.Load()
	out := make([]models.Film, 0)
	for _, f := range view.ranked {
		if strings.Contains(strings.ToUpper(f.Title), needle) {
			out = append(out, f)
			if len(out) == MaxSearchResult {
				break
			}
		}
	}
	return out
}

func (s *CatalogService) Metadata() models.Metadata {
	return s.view.Load().metadata
}
