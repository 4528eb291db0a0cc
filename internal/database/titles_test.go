package database

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/anitrack/internal/domain"
)

func newTestTitleRepo(t *testing.T) *TitleRepo {
	t.Helper()
	return NewTitleRepo(zerolog.Nop(), newTestDB(t, TitleSchema))
}

var sampleTitles = []domain.TitleRecord{
	{AID: 1, Lang: "x-jat", Type: "main", Title: "Seikai no Monshou"},
	{AID: 1, Lang: "en", Type: "official", Title: "Crest of the Stars"},
	{AID: 23, Lang: "en", Type: "main", Title: "Cowboy Bebop"},
	{AID: 23, Lang: "ja", Type: "official", Title: "カウボーイビバップ"},
	{AID: 4563, Lang: "en", Type: "official", Title: "Cowboy Bebop: The Movie"},
	{AID: 777, Lang: "en", Type: "synonym", Title: "Cowboy Bebop Remix"},
}

func TestTitleRepo_ReplaceAllAndCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)

	require.NoError(t, repo.ReplaceAll(ctx, sampleTitles))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleTitles), n)

	require.NoError(t, repo.ReplaceAll(ctx, sampleTitles[:2]))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "cowboy", Lang: "en", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total, "replaced titles must not be searchable")
}

func TestTitleRepo_SearchRanking(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleTitles))

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "cowboy beb", Lang: "en", Page: 1, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Results, 3)
	assert.Equal(t, domain.SearchHit{AID: 23, Title: "Cowboy Bebop"}, res.Results[0])
	assert.Equal(t, 4563, res.Results[1].AID)
	assert.Equal(t, 777, res.Results[2].AID)
}

func TestTitleRepo_SearchExactMatchFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)
	require.NoError(t, repo.ReplaceAll(ctx, []domain.TitleRecord{
		{AID: 51, Lang: "en", Type: "main", Title: "Bebop Mania"},
		{AID: 52, Lang: "en", Type: "official", Title: "Bebop Nights"},
		{AID: 50, Lang: "en", Type: "synonym", Title: "Bebop"},
	}))

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "bebop", Lang: "en", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, 50, res.Results[0].AID)
	assert.Equal(t, 51, res.Results[1].AID)
	assert.Equal(t, 52, res.Results[2].AID)
}

func TestTitleRepo_SearchLanguageFilter(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleTitles))

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "seikai", Lang: "en", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)

	res, err = repo.Search(ctx, domain.TitleQuery{Text: "seikai", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestTitleRepo_SearchPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)

	var records []domain.TitleRecord
	for i := 1; i <= 25; i++ {
		records = append(records, domain.TitleRecord{AID: i, Lang: "en", Type: "official", Title: fmt.Sprintf("Gundam %02d", i)})
	}
	require.NoError(t, repo.ReplaceAll(ctx, records))

	seen := map[int]bool{}
	for page := 1; page <= 3; page++ {
		res, err := repo.Search(ctx, domain.TitleQuery{Text: "gundam", Lang: "en", Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, res.Total)
		for _, hit := range res.Results {
			seen[hit.AID] = true
		}
		if page < 3 {
			assert.Len(t, res.Results, 10)
		} else {
			assert.Len(t, res.Results, 5)
		}
	}
	assert.Len(t, seen, 25)

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "gundam", Lang: "en", Page: 4, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Total)
	assert.Empty(t, res.Results)
}

func TestTitleRepo_SearchHugePage(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)

	require.NoError(t, repo.ReplaceAll(ctx, []domain.TitleRecord{
		{AID: 1, Lang: "en", Type: "official", Title: "Cowboy Bebop"},
	}))

	res, err := repo.Search(ctx, domain.TitleQuery{Text: "cowboy", Lang: "en", Page: math.MaxInt64, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, res.Results)

	res, err = repo.Search(ctx, domain.TitleQuery{Text: "cowboy", Lang: "en", Page: 1, PageSize: math.MaxInt64})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}

func TestTitleRepo_SearchShortOrOddQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestTitleRepo(t)
	require.NoError(t, repo.ReplaceAll(ctx, sampleTitles))

	for _, q := range []string{"", " ", "c", `"`} {
		res, err := repo.Search(ctx, domain.TitleQuery{Text: q, Lang: "en", Page: 1, PageSize: 10})
		require.NoError(t, err, "query %q", q)
		assert.Equal(t, 0, res.Total, "query %q", q)
		assert.NotNil(t, res.Results)
	}

	res, err := repo.Search(ctx, domain.TitleQuery{Text: `bebop: "the`, Lang: "en", Page: 0, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"cowboy"* "bebop"*`, MatchExpression("  cowboy   bebop "))
	assert.Equal(t, `"say"* """hi"""*`, MatchExpression(`say "hi"`))
	assert.Equal(t, "", MatchExpression("   "))
}

// A reader on another connection sees either the complete old index or the
// complete new one while a rebuild is in progress.
func TestTitleRepo_ReplaceAllIsAtomicForReaders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "titles.db")

	writerDB, err := NewDB(path, TitleSchema, zerolog.Nop())
	require.NoError(t, err)
	defer writerDB.Close()
	readerDB, err := NewDB(path, TitleSchema, zerolog.Nop())
	require.NoError(t, err)
	defer readerDB.Close()

	writer := NewTitleRepo(zerolog.Nop(), writerDB)
	reader := NewTitleRepo(zerolog.Nop(), readerDB)

	build := func(offset, n int) []domain.TitleRecord {
		records := make([]domain.TitleRecord, 0, n)
		for i := 0; i < n; i++ {
			records = append(records, domain.TitleRecord{AID: offset + i, Lang: "en", Type: "official", Title: fmt.Sprintf("Macross %d", offset+i)})
		}
		return records
	}

	oldSet, newSet := build(0, 500), build(10000, 800)
	require.NoError(t, writer.ReplaceAll(ctx, oldSet))

	var (
		wg   sync.WaitGroup
		done = make(chan struct{})
		errs = make(chan error, 1)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := reader.Count(ctx)
			if err != nil {
				errs <- err
				return
			}
			if n != len(oldSet) && n != len(newSet) {
				errs <- fmt.Errorf("reader observed %d titles mid-rebuild", n)
				return
			}
		}
	}()

	err = writer.ReplaceAll(ctx, newSet)
	close(done)
	wg.Wait()
	require.NoError(t, err)

	select {
	case err := <-errs:
		t.Fatal(err)
	default:
	}

	res, err := reader.Search(ctx, domain.TitleQuery{Text: "macross", Lang: "en", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, len(newSet), res.Total)
}
