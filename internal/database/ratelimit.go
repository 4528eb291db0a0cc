package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// RateLimitRepo persists the last outbound AniDB call in the single
// rate_limit row
type RateLimitRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewRateLimitRepo(log zerolog.Logger, db *DB) *RateLimitRepo {
	return &RateLimitRepo{
		log: log.With().Str("repo", "rate_limit").Logger(),
		db:  db,
	}
}

var _ domain.RateLimitRepo = (*RateLimitRepo)(nil)

func (r *RateLimitRepo) LastCall(ctx context.Context) (time.Time, error) {
	query, args, err := r.db.squirrel.
		Select("last_ts").
		From("rate_limit").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("LastCall")

	var ms int64
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&ms); err != nil {
		return time.Time{}, errors.Wrap(err, "error executing query")
	}

	return time.UnixMilli(ms), nil
}

func (r *RateLimitRepo) SetLastCall(ctx context.Context, t time.Time) error {
	query, args, err := r.db.squirrel.
		Replace("rate_limit").
		Columns("id", "last_ts").
		Values(1, t.UnixMilli()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("SetLastCall")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}
