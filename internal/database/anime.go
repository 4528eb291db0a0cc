package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// AnimeRepo implements domain.AnimeRepo on the tracker database
type AnimeRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewAnimeRepo creates a new tracked anime repository
func NewAnimeRepo(log zerolog.Logger, db *DB) *AnimeRepo {
	return &AnimeRepo{
		log: log.With().Str("repo", "anime").Logger(),
		db:  db,
	}
}

var _ domain.AnimeRepo = (*AnimeRepo)(nil)

var animeColumns = []string{
	"id", "aid", "title", "total_episodes", "watched_episodes",
	"image_url", "description", "start_date", "end_date", "anime_type",
}

// List returns all tracked anime, completed shows last, then by title
func (r *AnimeRepo) List(ctx context.Context) ([]domain.TrackedAnime, error) {
	queryBuilder := r.db.squirrel.
		Select(animeColumns...).
		From("anime").
		OrderBy(
			"CASE WHEN watched_episodes >= total_episodes AND total_episodes > 0 THEN 1 ELSE 0 END",
			"title ASC",
		)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("List")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	animes := []domain.TrackedAnime{}
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		animes = append(animes, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return animes, nil
}

func (r *AnimeRepo) GetByID(ctx context.Context, id int64) (*domain.TrackedAnime, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *AnimeRepo) GetByAID(ctx context.Context, aid int) (*domain.TrackedAnime, error) {
	return r.getOne(ctx, sq.Eq{"aid": aid})
}

func (r *AnimeRepo) getOne(ctx context.Context, where sq.Eq) (*domain.TrackedAnime, error) {
	query, args, err := r.db.squirrel.
		Select(animeColumns...).
		From("anime").
		Where(where).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("getOne")

	a, err := scanAnime(r.db.handler.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	return a, nil
}

// Create inserts anime and sets its generated ID. Inserting an AID that is
// already tracked returns a *domain.DuplicateError.
func (r *AnimeRepo) Create(ctx context.Context, anime *domain.TrackedAnime) error {
	queryBuilder := r.db.squirrel.
		Insert("anime").
		Columns("aid", "title", "total_episodes", "watched_episodes", "image_url", "description", "start_date", "end_date", "anime_type").
		Values(
			anime.AID,
			anime.Title,
			anime.TotalEpisodes,
			anime.WatchedEpisodes,
			nullString(anime.ImageURL),
			nullString(anime.Description),
			nullString(anime.StartDate),
			nullString(anime.EndDate),
			nullString(anime.Type),
		)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Create")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{AID: anime.AID}
		}
		return errors.Wrap(err, "error executing query")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "error reading inserted id")
	}
	anime.ID = id

	return nil
}

// UpdateProgress moves the watched counter one step and returns the new
// count. Moving past either bound leaves the count unchanged.
func (r *AnimeRepo) UpdateProgress(ctx context.Context, id int64, direction domain.ProgressDirection) (int, error) {
	if !direction.Valid() {
		return 0, errors.Wrapf(domain.ErrInvalidDirection, "%q", direction)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query, args, err := r.db.squirrel.
		Select("watched_episodes", "total_episodes").
		From("anime").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	var watched, total int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&watched, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, errors.Wrap(err, "error executing query")
	}

	next := direction.Apply(watched, total)
	if next == watched {
		return watched, nil
	}

	query, args, err = r.db.squirrel.
		Update("anime").
		Set("watched_episodes", next).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building update query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpdateProgress")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, errors.Wrap(err, "error executing update query")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "error committing progress")
	}

	return next, nil
}

// Delete removes the anime and its cached AniDB response together
func (r *AnimeRepo) Delete(ctx context.Context, id int64) (*domain.TrackedAnime, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query, args, err := r.db.squirrel.
		Select(animeColumns...).
		From("anime").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	anime, err := scanAnime(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	if err := deleteCacheKey(ctx, r.log, r.db.squirrel, tx, domain.AnimeCacheKey(anime.AID)); err != nil {
		return nil, err
	}

	query, args, err = r.db.squirrel.
		Delete("anime").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Delete")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "error executing delete query")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "error committing delete")
	}

	return anime, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnime(row rowScanner) (*domain.TrackedAnime, error) {
	var (
		a                                                domain.TrackedAnime
		imageURL, description, startDate, endDate, aType sql.NullString
	)

	if err := row.Scan(
		&a.ID, &a.AID, &a.Title, &a.TotalEpisodes, &a.WatchedEpisodes,
		&imageURL, &description, &startDate, &endDate, &aType,
	); err != nil {
		return nil, err
	}

	a.ImageURL = imageURL.String
	a.Description = description.String
	a.StartDate = startDate.String
	a.EndDate = endDate.String
	a.Type = aType.String

	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
