package app

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/anidb"
	"github.com/varoOP/anitrack/internal/config"
	"github.com/varoOP/anitrack/internal/database"
	"github.com/varoOP/anitrack/internal/domain"
	"github.com/varoOP/anitrack/internal/logger"
	"github.com/varoOP/anitrack/internal/notification"
	"github.com/varoOP/anitrack/internal/ratelimit"
	"github.com/varoOP/anitrack/internal/scheduler"
	"github.com/varoOP/anitrack/internal/server"
	"github.com/varoOP/anitrack/internal/titles"
	"github.com/varoOP/anitrack/internal/tracker"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	trackerDB           *database.DB
	titleDB             *database.DB
	cacheRepo           *database.CacheRepo
	animeRepo           domain.AnimeRepo
	titleRepo           domain.TitleRepo
	anidbClient         *anidb.Client
	images              *anidb.ImageProxy
	trackerService      tracker.Service
	titleService        titles.Service
	notificationService domain.NotificationService
}

// NewApp loads the configuration and initializes the application
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return New(log, cfg)
}

// New opens both stores and wires every service for cfg
func New(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	trackerDB, err := database.NewDB(cfg.Database.TrackerPath, database.TrackerSchema, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tracker database")
	}

	titleDB, err := database.NewDB(cfg.Database.TitlesPath, database.TitleSchema, log)
	if err != nil {
		trackerDB.Close()
		return nil, errors.Wrap(err, "failed to open title database")
	}

	cacheRepo := database.NewCacheRepo(log, trackerDB)
	animeRepo := database.NewAnimeRepo(log, trackerDB)
	titleRepo := database.NewTitleRepo(log, titleDB)

	gate := ratelimit.NewGate(log, database.NewRateLimitRepo(log, trackerDB), cfg.AniDB.MinInterval)
	anidbClient := anidb.NewClient(log, cfg.AniDB, cacheRepo, gate)
	images := anidb.NewImageProxy(log, cfg.Images.BaseURL, cfg.Images.Timeout)

	notificationService := notification.NewService(log, cfg.DiscordWebhookURL)

	return &App{
		log:                 log,
		config:              cfg,
		trackerDB:           trackerDB,
		titleDB:             titleDB,
		cacheRepo:           cacheRepo,
		animeRepo:           animeRepo,
		titleRepo:           titleRepo,
		anidbClient:         anidbClient,
		images:              images,
		trackerService:      tracker.NewService(log, animeRepo, titleRepo, anidbClient, cfg.Titles),
		titleService:        titles.NewService(log, cfg.Titles, titleRepo, notificationService),
		notificationService: notificationService,
	}, nil
}

// Config returns the configuration the app was built with
func (a *App) Config() *domain.Config {
	return a.config
}

// Serve runs the HTTP API and the daily title refresh until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	sched := scheduler.New(a.log, a.titleService, a.config.Titles.Schedule)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	addr := net.JoinHostPort(a.config.HTTP.Host, strconv.Itoa(a.config.HTTP.Port))
	srv := server.NewServer(a.log, a.trackerService, a.images)

	return srv.ListenAndServe(ctx, addr)
}

// RefreshTitles brings the title index up to date
func (a *App) RefreshTitles(ctx context.Context, force bool) (*domain.TitleIndexStats, error) {
	return a.titleService.Refresh(ctx, force)
}

// SearchTitles looks up one page of the title index
func (a *App) SearchTitles(ctx context.Context, query string, page int) (*domain.SearchResult, error) {
	return a.trackerService.Search(ctx, query, page)
}

// PurgeCache deletes cached AniDB responses older than maxAge
func (a *App) PurgeCache(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := a.cacheRepo.PurgeOlderThan(ctx, maxAge)
	if err != nil {
		return 0, err
	}

	a.log.Info().Int64("removed", n).Dur("max_age", maxAge).Msg("Purged response cache")
	return n, nil
}

// AddAnime starts tracking aid
func (a *App) AddAnime(ctx context.Context, aid int) (*domain.TrackedAnime, error) {
	return a.trackerService.Add(ctx, aid)
}

// ListAnime returns every tracked anime, unfinished first
func (a *App) ListAnime(ctx context.Context) ([]domain.TrackedAnime, error) {
	return a.trackerService.List(ctx)
}

// SchemaVersions reports the migrated schema version of both stores
func (a *App) SchemaVersions() (trackerVersion, titleVersion int, err error) {
	if trackerVersion, err = a.trackerDB.Version(); err != nil {
		return 0, 0, err
	}
	if titleVersion, err = a.titleDB.Version(); err != nil {
		return 0, 0, err
	}
	return trackerVersion, titleVersion, nil
}

// Close releases both databases
func (a *App) Close() error {
	trackerErr := a.trackerDB.Close()
	titleErr := a.titleDB.Close()

	if trackerErr != nil {
		return errors.Wrap(trackerErr, "failed to close tracker database")
	}
	if titleErr != nil {
		return errors.Wrap(titleErr, "failed to close title database")
	}
	return nil
}
