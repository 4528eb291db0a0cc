package domain

import (
	"context"
	"strconv"
	"time"
)

// PrefixAnime is the cache key prefix for AniDB anime documents (anime:{aid})
const PrefixAnime = "anime:"

// AnimeCacheKey returns the response cache key for an AniDB ID
func AnimeCacheKey(aid int) string {
	return PrefixAnime + strconv.Itoa(aid)
}

// CacheRepo defines the interface for the response cache
type CacheRepo interface {
	// Get returns the value for key if it was fetched no longer than maxAge ago
	Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// PurgeOlderThan removes entries fetched more than maxAge ago
	PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}
