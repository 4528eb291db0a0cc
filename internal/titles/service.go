package titles

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
	"github.com/varoOP/anitrack/pkg/animetitles"
)

const DefaultURL = "http://anidb.net/api/anime-titles.xml.gz"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Service interface {
	// Refresh brings the title index up to date. A fresh dump is only
	// reloaded when force is set or the index is empty.
	Refresh(ctx context.Context, force bool) (*domain.TitleIndexStats, error)
}

type service struct {
	log        zerolog.Logger
	config     domain.TitlesConfig
	paths      *domain.Paths
	repo       domain.TitleRepo
	notify     domain.NotificationService
	httpClient *http.Client
	now        func() time.Time
}

func NewService(log zerolog.Logger, config domain.TitlesConfig, repo domain.TitleRepo, notify domain.NotificationService) Service {
	return &service{
		log:    log.With().Str("module", "titles").Logger(),
		config: config,
		paths:  domain.NewPaths(config.CacheDir),
		repo:   repo,
		notify: notify,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		now: time.Now,
	}
}

func (s *service) Refresh(ctx context.Context, force bool) (*domain.TitleIndexStats, error) {
	stats, err := s.refresh(ctx, force)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshInProgress) {
			return nil, err
		}
		if nerr := s.notify.SendError(ctx, err); nerr != nil {
			s.log.Warn().Err(nerr).Msg("failed to send error notification")
		}
		return nil, err
	}

	if stats.Rebuilt {
		if nerr := s.notify.SendSuccess(ctx, *stats); nerr != nil {
			s.log.Warn().Err(nerr).Msg("failed to send success notification")
		}
	}

	return stats, nil
}

func (s *service) refresh(ctx context.Context, force bool) (*domain.TitleIndexStats, error) {
	start := s.now()

	if err := os.MkdirAll(s.paths.CacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create title cache directory")
	}

	lock := flock.New(s.paths.Lock)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire title refresh lock")
	}
	if !locked {
		return nil, domain.ErrRefreshInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.log.Warn().Err(err).Str("path", s.paths.Lock).Msg("Could not release title refresh lock")
		}
	}()

	stats := &domain.TitleIndexStats{Artifact: domain.ArtifactFresh}

	info, statErr := os.Stat(s.paths.Artifact)
	haveArtifact := statErr == nil

	if !haveArtifact || s.now().Sub(info.ModTime()) > s.config.MaxAge {
		if err := s.download(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !haveArtifact {
				return nil, errors.Wrapf(domain.ErrDownloadExhausted, "%v", err)
			}
			s.log.Warn().Err(err).Time("modified", info.ModTime()).Msg("Title dump download failed, using stale local copy")
			stats.Artifact = domain.ArtifactStale
		} else {
			stats.Artifact = domain.ArtifactDownloaded
		}
	}

	if stats.Artifact == domain.ArtifactFresh && !force {
		count, err := s.repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			if info != nil {
				stats.ArtifactBytes = info.Size()
			}
			stats.TitleCount = count
			stats.Duration = s.now().Sub(start)
			s.log.Info().Str("titles", humanize.Comma(int64(count))).Msg("Title index is fresh, skipping rebuild")
			return stats, nil
		}
	}

	if err := s.rebuild(ctx, stats); err != nil {
		return nil, err
	}

	stats.Duration = s.now().Sub(start)
	s.log.Info().
		Str("artifact", string(stats.Artifact)).
		Str("size", humanize.Bytes(uint64(stats.ArtifactBytes))).
		Str("anime", humanize.Comma(int64(stats.AnimeCount))).
		Str("titles", humanize.Comma(int64(stats.TitleCount))).
		Dur("duration", stats.Duration).
		Msg("Title index rebuilt")

	return stats, nil
}

func (s *service) rebuild(ctx context.Context, stats *domain.TitleIndexStats) error {
	f, err := os.Open(s.paths.Artifact)
	if err != nil {
		return errors.Wrap(err, "failed to open title dump")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat title dump")
	}
	stats.ArtifactBytes = info.Size()

	dump, err := animetitles.ParseGzip(f)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceAll(ctx, dump.Records); err != nil {
		return err
	}

	stats.Rebuilt = true
	stats.AnimeCount = dump.AnimeCount
	stats.TitleCount = len(dump.Records)
	return nil
}

func (s *service) newBackOff(ctx context.Context) backoff.BackOff {
	if s.config.Attempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = s.config.Backoff << uint(s.config.Attempts)
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.config.Attempts-1)), ctx)
}

// download fetches the dump with retries, replacing the artifact only after
// a complete transfer
func (s *service) download(ctx context.Context) error {
	attempt := 0

	operation := func() error {
		attempt++
		s.log.Info().Int("attempt", attempt).Int("attempts", s.config.Attempts).Msg("Downloading anime titles dump")
		return s.fetch(ctx)
	}

	notify := func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("Title dump download failed")
	}

	if err := backoff.RetryNotify(operation, s.newBackOff(ctx), notify); err != nil {
		s.log.Error().Err(err).Int("attempts", attempt).Msg("Giving up on title dump download")
		return err
	}

	return nil
}

func (s *service) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Referer", "https://anidb.net/")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "download titles", URL: s.config.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return &domain.TransportError{Op: "download titles", URL: s.config.URL, StatusCode: resp.StatusCode, Err: domain.ErrBlocked}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.TransportError{Op: "download titles", URL: s.config.URL, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(s.paths.Partial)
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "failed to create partial title dump"))
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.removePartial()
		return &domain.TransportError{Op: "download titles", URL: s.config.URL, Err: err}
	}

	if err := verifyGzip(s.paths.Partial); err != nil {
		s.removePartial()
		return &domain.TransportError{Op: "download titles", URL: s.config.URL, Err: errors.Wrap(err, "title dump is not a gzip stream")}
	}

	if err := os.Rename(s.paths.Partial, s.paths.Artifact); err != nil {
		return backoff.Permanent(errors.Wrap(err, "failed to replace title dump"))
	}

	s.log.Debug().Str("size", humanize.Bytes(uint64(n))).Msg("Title dump downloaded")
	return nil
}

func (s *service) removePartial() {
	if err := os.Remove(s.paths.Partial); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", s.paths.Partial).Msg("Could not remove partial title dump")
	}
}

// verifyGzip reads the whole file through the decompressor so a truncated
// or non-gzip body never replaces a good dump.
func verifyGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	_, err = io.Copy(io.Discard, zr)
	return err
}
