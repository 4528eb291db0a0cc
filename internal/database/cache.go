package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// CacheRepo implements domain.CacheRepo interface
type CacheRepo struct {
	log zerolog.Logger
	db  *DB
	now func() time.Time
}

// NewCacheRepo creates a new cache repository
func NewCacheRepo(log zerolog.Logger, db *DB) *CacheRepo {
	return &CacheRepo{
		log: log.With().Str("repo", "cache").Logger(),
		db:  db,
		now: time.Now,
	}
}

var _ domain.CacheRepo = (*CacheRepo)(nil)

// Get returns the cached value for key if it is no older than maxAge.
// Stale rows are left in place.
func (r *CacheRepo) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	queryBuilder := r.db.squirrel.
		Select("value", "fetched_at").
		From("api_cache").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, false, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	var (
		value     string
		fetchedAt int64
	)
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "error executing query")
	}

	if r.now().Sub(time.UnixMilli(fetchedAt)) > maxAge {
		r.log.Debug().Str("key", key).Msg("cache entry is stale")
		return nil, false, nil
	}

	return []byte(value), true, nil
}

// Put inserts or replaces the value for key and refreshes its fetch time
func (r *CacheRepo) Put(ctx context.Context, key string, value []byte) error {
	queryBuilder := r.db.squirrel.
		Replace("api_cache").
		Columns("key", "value", "fetched_at").
		Values(key, string(value), r.now().UnixMilli())

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Str("key", key).Msg("Put")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Delete removes the entry for key
func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	return deleteCacheKey(ctx, r.log, r.db.squirrel, r.db.handler, key)
}

// PurgeOlderThan removes every entry fetched more than maxAge ago
func (r *CacheRepo) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.now().Add(-maxAge).UnixMilli()

	queryBuilder := r.db.squirrel.
		Delete("api_cache").
		Where(sq.Lt{"fetched_at": cutoff})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("PurgeOlderThan")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "error executing delete query")
	}

	return res.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func deleteCacheKey(ctx context.Context, log zerolog.Logger, builder sq.StatementBuilderType, e execer, key string) error {
	query, args, err := builder.
		Delete("api_cache").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building delete query")
	}

	log.Trace().Str("query", query).Interface("args", args).Msg("DeleteCacheKey")

	if _, err := e.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing delete query")
	}

	return nil
}
