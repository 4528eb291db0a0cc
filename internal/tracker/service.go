package tracker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// Fetcher resolves an AniDB ID into normalized metadata
type Fetcher interface {
	FetchAnime(ctx context.Context, aid int) (*domain.NormalizedAnime, error)
}

type Service interface {
	List(ctx context.Context) ([]domain.TrackedAnime, error)
	Search(ctx context.Context, query string, page int) (*domain.SearchResult, error)
	// Add fetches metadata for aid and starts tracking it. Tracking an AID
	// twice returns a *domain.DuplicateError.
	Add(ctx context.Context, aid int) (*domain.TrackedAnime, error)
	SetProgress(ctx context.Context, id int64, direction domain.ProgressDirection) (int, error)
	// Remove stops tracking id and drops its cached metadata. Removing an
	// unknown id succeeds.
	Remove(ctx context.Context, id int64) error
}

type service struct {
	log      zerolog.Logger
	anime    domain.AnimeRepo
	titles   domain.TitleRepo
	fetcher  Fetcher
	lang     string
	pageSize int
}

func NewService(log zerolog.Logger, anime domain.AnimeRepo, titles domain.TitleRepo, fetcher Fetcher, config domain.TitlesConfig) Service {
	return &service{
		log:      log.With().Str("module", "tracker").Logger(),
		anime:    anime,
		titles:   titles,
		fetcher:  fetcher,
		lang:     config.SearchLang,
		pageSize: config.PageSize,
	}
}

func (s *service) List(ctx context.Context) ([]domain.TrackedAnime, error) {
	return s.anime.List(ctx)
}

func (s *service) Search(ctx context.Context, query string, page int) (*domain.SearchResult, error) {
	return s.titles.Search(ctx, domain.TitleQuery{
		Text:     query,
		Lang:     s.lang,
		Page:     page,
		PageSize: s.pageSize,
	})
}

func (s *service) Add(ctx context.Context, aid int) (*domain.TrackedAnime, error) {
	if aid <= 0 {
		return nil, domain.ErrInvalidAID
	}

	existing, err := s.anime.GetByAID(ctx, aid)
	if err == nil {
		s.log.Debug().Int("aid", aid).Int64("id", existing.ID).Msg("anime already tracked")
		return nil, &domain.DuplicateError{AID: aid}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	normalized, err := s.fetcher.FetchAnime(ctx, aid)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch anime %d", aid)
	}

	anime := normalized.Track()
	if err := s.anime.Create(ctx, anime); err != nil {
		return nil, err
	}

	s.log.Info().Int("aid", aid).Int64("id", anime.ID).Str("title", anime.Title).Msg("Added anime")
	return anime, nil
}

func (s *service) SetProgress(ctx context.Context, id int64, direction domain.ProgressDirection) (int, error) {
	return s.anime.UpdateProgress(ctx, id, direction)
}

func (s *service) Remove(ctx context.Context, id int64) error {
	anime, err := s.anime.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.log.Info().Int("aid", anime.AID).Int64("id", id).Msg("Removed anime and cleared its cached metadata")
	return nil
}
