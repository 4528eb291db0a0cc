package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

const titleRefreshTag = "title-refresh"

// Refresher rebuilds the title index
type Refresher interface {
	Refresh(ctx context.Context, force bool) (*domain.TitleIndexStats, error)
}

// Scheduler runs the daily title index refresh
type Scheduler struct {
	log       zerolog.Logger
	cron      *gocron.Scheduler
	refresher Refresher
	at        string
	job       *gocron.Job
}

// New creates a scheduler that refreshes titles every day at the UTC
// time at, formatted HH:MM
func New(log zerolog.Logger, refresher Refresher, at string) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	return &Scheduler{
		log:       log.With().Str("module", "scheduler").Logger(),
		cron:      cron,
		refresher: refresher,
		at:        at,
	}
}

// Start schedules the daily refresh and triggers one run right away
func (s *Scheduler) Start(ctx context.Context) error {
	job, err := s.cron.Every(1).Day().At(s.at).Tag(titleRefreshTag).Do(s.refreshTitles, ctx)
	if err != nil {
		return errors.Wrap(err, "failed to schedule title refresh")
	}
	s.job = job

	s.log.Info().Str("at", s.at).Msg("Scheduling daily title refresh (UTC)")
	s.cron.StartAsync()

	if err := s.cron.RunByTag(titleRefreshTag); err != nil {
		return errors.Wrap(err, "failed to trigger startup title refresh")
	}

	return nil
}

// NextRun reports when the scheduled refresh runs next
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Stop halts the scheduler, waiting for a running refresh to return
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshTitles(ctx context.Context) {
	s.log.Debug().Msg("Scheduler is triggering title refresh")

	stats, err := s.refresher.Refresh(ctx, false)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshInProgress) {
			s.log.Info().Msg("Title refresh already running elsewhere, skipping")
			return
		}
		s.log.Error().Err(err).Msg("Scheduled title refresh failed")
		return
	}

	s.log.Debug().Bool("rebuilt", stats.Rebuilt).Str("artifact", string(stats.Artifact)).Msg("Scheduled title refresh finished")
}
