package tracker

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anitrack/internal/database"
	"github.com/varoOP/anitrack/internal/domain"
)

type fakeFetcher struct {
	calls map[int]int
	err   error
}

func (f *fakeFetcher) FetchAnime(ctx context.Context, aid int) (*domain.NormalizedAnime, error) {
	f.calls[aid]++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.NormalizedAnime{
		AID:           aid,
		Title:         "Anime " + strconv.Itoa(aid),
		TotalEpisodes: 2,
		Description:   "No description available.",
		Type:          "TV Series",
		ImageURL:      "/api/image/1.jpg",
	}, nil
}

type testEnv struct {
	svc     Service
	cache   *database.CacheRepo
	titles  *database.TitleRepo
	fetcher *fakeFetcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	trackerDB, err := database.NewDB(filepath.Join(dir, "tracker.db"), database.TrackerSchema, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { trackerDB.Close() })

	titleDB, err := database.NewDB(filepath.Join(dir, "titles.db"), database.TitleSchema, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { titleDB.Close() })

	titles := database.NewTitleRepo(zerolog.Nop(), titleDB)
	fetcher := &fakeFetcher{calls: map[int]int{}}

	svc := NewService(
		zerolog.Nop(),
		database.NewAnimeRepo(zerolog.Nop(), trackerDB),
		titles,
		fetcher,
		domain.TitlesConfig{SearchLang: "en", PageSize: 10},
	)

	return &testEnv{
		svc:     svc,
		cache:   database.NewCacheRepo(zerolog.Nop(), trackerDB),
		titles:  titles,
		fetcher: fetcher,
	}
}

func TestService_Add(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anime, err := env.svc.Add(ctx, 5)
	require.NoError(t, err)

	assert.Positive(t, anime.ID)
	assert.Equal(t, 5, anime.AID)
	assert.Zero(t, anime.WatchedEpisodes)
	assert.Equal(t, 2, anime.TotalEpisodes)

	list, err := env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *anime, list[0])
}

func TestService_AddTwiceIsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Add(ctx, 5)
	require.NoError(t, err)

	_, err = env.svc.Add(ctx, 5)
	var dup *domain.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 5, dup.AID)

	list, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, env.fetcher.calls[5], "a tracked AID is not fetched again")
}

func TestService_AddInvalidAID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Add(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAID)
	assert.Empty(t, env.fetcher.calls)
}

func TestService_AddFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = &domain.UpstreamError{Code: "330", Message: "No such anime"}
	ctx := context.Background()

	_, err := env.svc.Add(ctx, 999999)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "No such anime", upstream.Message)

	list, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_SetProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anime, err := env.svc.Add(ctx, 7)
	require.NoError(t, err)

	count, err := env.svc.SetProgress(ctx, anime.ID, domain.ProgressDecrement)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for want := 1; want <= 2; want++ {
		count, err = env.svc.SetProgress(ctx, anime.ID, domain.ProgressIncrement)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	count, err = env.svc.SetProgress(ctx, anime.ID, domain.ProgressIncrement)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "increment at total is a no-op")

	_, err = env.svc.SetProgress(ctx, anime.ID, domain.ProgressDirection("skip"))
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)

	_, err = env.svc.SetProgress(ctx, anime.ID+100, domain.ProgressIncrement)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_RemoveClearsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anime, err := env.svc.Add(ctx, 9)
	require.NoError(t, err)
	require.NoError(t, env.cache.Put(ctx, domain.AnimeCacheKey(9), []byte(`{}`)))

	require.NoError(t, env.svc.Remove(ctx, anime.ID))

	_, ok, err := env.cache.Get(ctx, domain.AnimeCacheKey(9), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.svc.Add(ctx, 9)
	require.NoError(t, err, "a removed AID can be tracked again")
	assert.Equal(t, 2, env.fetcher.calls[9])
}

func TestService_RemoveUnknownIsOK(t *testing.T) {
	env := newTestEnv(t)

	assert.NoError(t, env.svc.Remove(context.Background(), 42))
}

func TestService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.titles.ReplaceAll(ctx, []domain.TitleRecord{
		{AID: 23, Lang: "en", Type: "official", Title: "Cowboy Bebop"},
		{AID: 23, Lang: "x-jat", Type: "main", Title: "Cowboy Bebop"},
		{AID: 1, Lang: "en", Type: "official", Title: "Crest of the Stars"},
	}))

	res, err := env.svc.Search(ctx, "cowboy", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []domain.SearchHit{{AID: 23, Title: "Cowboy Bebop"}}, res.Results)

	res, err = env.svc.Search(ctx, "c", 1)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Results)
}

func TestService_AddWrapsFetchErrors(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = errors.New("boom")

	_, err := env.svc.Add(context.Background(), 3)
	assert.EqualError(t, err, "failed to fetch anime 3: boom")
}
