package domain

import (
	"context"
	"time"
)

// AnimeRepo defines storage for tracked anime
type AnimeRepo interface {
	List(ctx context.Context) ([]TrackedAnime, error)
	GetByID(ctx context.Context, id int64) (*TrackedAnime, error)
	GetByAID(ctx context.Context, aid int) (*TrackedAnime, error)
	// Create inserts a tracked anime and returns a DuplicateError if the AID exists
	Create(ctx context.Context, anime *TrackedAnime) error
	UpdateProgress(ctx context.Context, id int64, direction ProgressDirection) (int, error)
	// Delete removes the anime and its cached AniDB response in one transaction
	Delete(ctx context.Context, id int64) (*TrackedAnime, error)
}

// RateLimitRepo persists the timestamp of the last outbound AniDB call
type RateLimitRepo interface {
	LastCall(ctx context.Context) (time.Time, error)
	SetLastCall(ctx context.Context, t time.Time) error
}

// TitleRepo stores the searchable title index
type TitleRepo interface {
	// ReplaceAll swaps the whole index for records in a single transaction
	ReplaceAll(ctx context.Context, records []TitleRecord) error
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query TitleQuery) (*SearchResult, error)
}

// TitleQuery describes a paginated title search
type TitleQuery struct {
	Text     string
	Lang     string
	Page     int
	PageSize int
}
