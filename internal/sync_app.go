package internal

import (
	"context"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/report"
	"filmsync/internal/services"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"io"
	"time"
)

// SyncApp wraps a single sync run for the command line.
type SyncApp struct {
	flags   *structures.CliFlags
	logger  providers.Logger
	service services.SyncServiceInterface
	store   interfaces.SnapshotStoreInterface
	metrics providers.MetricsProviderInterface
}

func NewSyncApp(flags *structures.CliFlags, logger providers.Logger, service services.SyncServiceInterface, store interfaces.SnapshotStoreInterface, metrics providers.MetricsProviderInterface) *SyncApp {
	return &SyncApp{
		flags:   flags,
		logger:  logger,
		service: service,
		store:   store,
		metrics: metrics,
	}
}

// Run executes one sync, prints the report to out and returns the process exit code.
func (s *SyncApp) Run(ctx context.Context, out io.Writer) int {
	defer s.logger.Close()
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Warnf(providers.TypeStorage, "Unable to close %s store: %s", s.store.Backend(), err)
		}
	}()

	rep, err := s.service.Run(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeSync, "Sync failed: %s", err)
	}
	if rep == nil {
		rep = &models.RunReport{FailedPhase: string(services.PhaseFailed), Phase: string(services.PhaseFailed)}
		if err != nil {
			rep.Error = err.Error()
		}
	}

	if err := report.Print(out, s.flags.Output, rep); err != nil {
		s.logger.Errorf(providers.TypeApp, "Unable to print run report: %s", err)
	}

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.metrics.Push(pushCtx); err != nil {
		s.logger.Warnf(providers.TypeApp, "Unable to push metrics: %s", err)
	}

	return rep.ExitCode()
}
