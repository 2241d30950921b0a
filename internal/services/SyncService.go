package services

import (
	"context"
	"errors"
	"filmsync/internal/catalog"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"filmsync/internal/upstream"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

type SyncPhase string

const (
	PhaseIdle        SyncPhase = "Idle"
	PhaseFetching    SyncPhase = "Fetching"
	PhaseNormalizing SyncPhase = "Normalizing"
	PhaseAggregating SyncPhase = "Aggregating"
	PhaseDiffing     SyncPhase = "Diffing"
	PhasePersisting  SyncPhase = "Persisting"
	PhaseReporting   SyncPhase = "Reporting"
	PhaseDone        SyncPhase = "Done"
	PhaseFailed      SyncPhase = "Failed"
)

var ErrAllCountriesFailed = errors.New("every configured country failed to fetch")

// SyncError carries the step a run failed in.
type SyncError struct {
	Phase SyncPhase
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed while %s: %v", e.Phase, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

type SyncServiceInterface interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

type SyncService struct {
	config  *structures.Config
	logger  providers.Logger
	client  upstream.ClientInterface
	store   interfaces.SnapshotStoreInterface
	lock    interfaces.LockInterface
	metrics providers.MetricsProviderInterface
	now     func() time.Time
}

func NewSyncService(
	config *structures.Config,
	logger providers.Logger,
	client upstream.ClientInterface,
	store interfaces.SnapshotStoreInterface,
	lock interfaces.LockInterface,
	metrics providers.MetricsProviderInterface,
) SyncServiceInterface {
	return &SyncService{
		config:  config,
		logger:  logger,
		client:  client,
		store:   store,
		lock:    lock,
		metrics: metrics,
		now:     time.Now,
	}
}

// countryFetch is the raw result of paginating one country.
type countryFetch struct {
	records []json.RawMessage
	report  models.CountryReport
}

type run struct {
	phase  SyncPhase
	report *models.RunReport
}

func (r *run) enter(p SyncPhase) {
	r.phase = p
	r.report.Phase = string(p)
}

// Run executes one synchronization: Idle, Fetching, Normalizing, Aggregating,
// Diffing, Persisting, Reporting and Done. Any step may end the run in Failed,
// in which case nothing has been written. The returned report is never nil.
func (s *SyncService) Run(ctx context.Context) (*models.RunReport, error) {
	started := s.now()
	r := &run{report: &models.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
	}}
	r.enter(PhaseIdle)

	if timeout := s.config.Sync.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := s.execute(ctx, r)
	r.report.FinishedAt = s.now().UTC()

	outcome := "unchanged"
	if err != nil {
		syncErr := &SyncError{Phase: r.phase, Err: err}
		r.report.FailedPhase = string(r.phase)
		r.report.Error = err.Error()
		r.enter(PhaseFailed)
		outcome = "failed"
		s.logger.Errorf(providers.TypeSync, "Run %s failed: %s", r.report.RunID, syncErr)
		err = syncErr
	} else if r.report.HasChanges {
		outcome = "changed"
	}
	s.metrics.ObserveSyncRun(outcome, r.report.FinishedAt.Sub(r.report.StartedAt))

	return r.report, err
}

func (s *SyncService) execute(ctx context.Context, r *run) error {
	if err := s.lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			s.logger.Warnf(providers.TypeSync, "Unable to release run lock: %s", err)
		}
	}()

	s.logger.Infof(providers.TypeSync, "Run %s started for %d countries", r.report.RunID, len(s.config.Sync.Countries))

	r.enter(PhaseFetching)
	fetched, err := s.fetchAll(ctx)
	for _, f := range fetched {
		r.report.Countries = append(r.report.Countries, f.report)
	}
	if err != nil {
		return err
	}

	r.enter(PhaseNormalizing)
	lists := s.normalize(fetched, r.report)

	r.enter(PhaseAggregating)
	films := catalog.Aggregate(lists)
	s.logger.Infof(providers.TypeSync, "Aggregated %d unique films", len(films))

	r.enter(PhaseDiffing)
	if err := ctx.Err(); err != nil {
		return err
	}
	previous, err := s.store.ReadAll(ctx)
	if err != nil {
		return err
	}
	diff := catalog.Diff(previous, films)

	r.enter(PhasePersisting)
	now := s.now().UTC()
	stamped := make([]models.Film, len(films))
	for i, film := range films {
		var old *models.Film
		if prev, ok := previous[film.ID]; ok {
			old = &prev
		}
		stamped[i] = catalog.Stamp(old, film, now)
	}

	metadata := models.Metadata{
		Countries:  append([]string(nil), s.config.Sync.Countries...),
		TotalFilms: len(stamped),
		LastSync: models.LastSync{
			Timestamp:       now,
			TotalFilms:      len(stamped),
			Changes:         diff.Changes(),
			RunID:           r.report.RunID,
			FailedCountries: r.report.FailedCountries(),
		},
	}

	// once persisting has started it runs to completion
	persistStart := time.Now()
	err = s.store.WriteSnapshot(context.WithoutCancel(ctx), stamped, metadata)
	s.metrics.ObservePersistenceDuration(s.store.Backend(), time.Since(persistStart))
	if err != nil {
		return err
	}

	r.enter(PhaseReporting)
	r.report.TotalFilms = len(stamped)
	r.report.Changes = diff.Changes()
	r.report.UnchangedCount = diff.UnchangedCount
	r.report.HasChanges = diff.HasChanges()
	s.metrics.SetSyncChanges(r.report.Changes.Added, r.report.Changes.Removed, r.report.Changes.Modified)
	s.metrics.SetCatalogFilms(r.report.TotalFilms)
	s.logger.Infof(providers.TypeSync, "Run %s: %d films, %d added, %d removed, %d modified, %d unchanged",
		r.report.RunID, r.report.TotalFilms, r.report.Changes.Added, r.report.Changes.Removed,
		r.report.Changes.Modified, r.report.UnchangedCount)

	r.enter(PhaseDone)
	return nil
}

// fetchAll paginates every configured country in order. A failing page only
// ends its own country; cancellation ends the whole step, and so does a run in
// which every country failed without keeping a single record.
func (s *SyncService) fetchAll(ctx context.Context) ([]countryFetch, error) {
	results := make([]countryFetch, 0, len(s.config.Sync.Countries))
	failed := 0

	for _, country := range s.config.Sync.Countries {
		result, err := s.fetchCountry(ctx, country)
		results = append(results, result)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, ctxErr
		}
		if err != nil && len(result.records) == 0 {
			failed++
		}
	}

	if len(results) > 0 && failed == len(results) {
		return results, ErrAllCountriesFailed
	}
	return results, nil
}

func (s *SyncService) fetchCountry(ctx context.Context, country string) (countryFetch, error) {
	result := countryFetch{report: models.CountryReport{Country: country}}

	for page := 1; ; page++ {
		if page > 1 {
			if err := sleep(ctx, s.config.Sync.PageDelay); err != nil {
				return s.failCountry(result, page, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return s.failCountry(result, page, err)
		}

		resp, err := s.client.FetchPage(ctx, country, page)
		if err != nil {
			return s.failCountry(result, page, err)
		}
		s.metrics.IncPagesFetched(country)

		result.records = append(result.records, resp.Films...)
		result.report.Pages = page
		result.report.TotalPages = resp.Meta.TotalPages
		s.logger.Debugf(providers.TypeUpstream, "%s page %d/%d: %d films", country, page, resp.Meta.TotalPages, len(resp.Films))

		if page >= resp.Meta.TotalPages {
			break
		}
	}

	s.logger.Infof(providers.TypeUpstream, "%s: %d records from %d pages", country, len(result.records), result.report.Pages)
	return result, nil
}

func (s *SyncService) failCountry(result countryFetch, page int, err error) (countryFetch, error) {
	result.report.Failed = true
	result.report.Error = err.Error()
	s.metrics.IncPageFailures(result.report.Country)

	if s.config.Sync.DiscardPartialCountry {
		result.records = nil
		s.logger.Warnf(providers.TypeUpstream, "%s: page %d failed, discarding the country: %s", result.report.Country, page, err)
	} else {
		s.logger.Warnf(providers.TypeUpstream, "%s: page %d failed, keeping %d records from earlier pages: %s",
			result.report.Country, page, len(result.records), err)
	}
	return result, err
}

func (s *SyncService) normalize(fetched []countryFetch, report *models.RunReport) []models.CountryFilms {
	lists := make([]models.CountryFilms, 0, len(fetched))
	malformed := 0

	for i, f := range fetched {
		films := make([]models.Film, 0, len(f.records))
		for _, raw := range f.records {
			film, err := catalog.Normalize(raw, f.report.Country)
			if err != nil {
				report.Countries[i].Malformed++
				malformed++
				s.logger.Warnf(providers.TypeSync, "Dropped record: %s", err)
				continue
			}
			films = append(films, film)
		}
		report.Countries[i].Films = len(films)
		lists = append(lists, models.CountryFilms{Country: f.report.Country, Films: films})
	}

	if malformed > 0 {
		s.metrics.IncMalformedRecords(malformed)
	}
	return lists
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
