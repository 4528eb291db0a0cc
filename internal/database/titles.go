package database

import (
	"context"
	"strings"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// MinQueryLength is the shortest query that is sent to the full-text index
const MinQueryLength = 2

// TitleRepo implements domain.TitleRepo on the title database
type TitleRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewTitleRepo creates a new title index repository
func NewTitleRepo(log zerolog.Logger, db *DB) *TitleRepo {
	return &TitleRepo{
		log: log.With().Str("repo", "titles").Logger(),
		db:  db,
	}
}

var _ domain.TitleRepo = (*TitleRepo)(nil)

// ReplaceAll deletes every title, inserts records and rebuilds the FTS
// index inside one transaction. Readers see either the old or the new
// index, never a mix.
func (r *TitleRepo) ReplaceAll(ctx context.Context, records []domain.TitleRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM titles`); err != nil {
		return errors.Wrap(err, "error clearing titles")
	}

	insert, _, err := r.db.squirrel.
		Insert("titles").
		Columns("aid", "lang", "type", "title").
		Values(0, "", "", "").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building insert query")
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return errors.Wrap(err, "error preparing insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.AID, rec.Lang, rec.Type, rec.Title); err != nil {
			return errors.Wrapf(err, "error inserting title for aid %d", rec.AID)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO titles_fts(titles_fts) VALUES('rebuild')`); err != nil {
		return errors.Wrap(err, "error rebuilding full-text index")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing title index")
	}

	r.log.Debug().Int("titles", len(records)).Msg("title index replaced")
	return nil
}

// Count returns the number of indexed titles
func (r *TitleRepo) Count(ctx context.Context) (int, error) {
	query, args, err := r.db.squirrel.Select("count(*)").From("titles").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	var n int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}
	return n, nil
}

// Search runs a prefix match over the title index. Results are ordered by
// exact match, then main, then official titles, then FTS rank.
func (r *TitleRepo) Search(ctx context.Context, q domain.TitleQuery) (*domain.SearchResult, error) {
	result := &domain.SearchResult{Results: []domain.SearchHit{}}

	text := strings.TrimSpace(q.Text)
	if utf8.RuneCountInString(text) < MinQueryLength {
		return result, nil
	}

	match := MatchExpression(text)
	if match == "" {
		return result, nil
	}

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where := sq.And{sq.Expr("title MATCH ?", match)}
	if q.Lang != "" {
		where = append(where, sq.Eq{"lang": q.Lang})
	}

	countQuery, countArgs, err := r.db.squirrel.
		Select("count(DISTINCT aid)").
		From("titles_fts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building count query")
	}

	r.log.Trace().Str("query", countQuery).Interface("args", countArgs).Msg("Search count")

	if err := r.db.handler.QueryRowContext(ctx, countQuery, countArgs...).Scan(&result.Total); err != nil {
		return nil, errors.Wrap(err, "error executing count query")
	}

	if result.Total == 0 {
		return result, nil
	}

	// pages past the last hit are empty; this also keeps the offset from overflowing
	if page-1 > (result.Total-1)/pageSize {
		return result, nil
	}

	query, args, err := r.db.squirrel.
		Select("DISTINCT aid", "title").
		From("titles_fts").
		Where(where).
		OrderByClause(
			"CASE WHEN lower(title) = lower(?) THEN 0 WHEN type = ? THEN 1 WHEN type = ? THEN 2 ELSE 3 END",
			text, domain.TitleTypeMain, domain.TitleTypeOfficial,
		).
		OrderBy("rank").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Search")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	for rows.Next() {
		var hit domain.SearchHit
		if err := rows.Scan(&hit.AID, &hit.Title); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result.Results = append(result.Results, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}

// MatchExpression turns free text into an FTS5 query where every word is
// a quoted prefix term, so punctuation in titles cannot break the syntax.
func MatchExpression(text string) string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}
