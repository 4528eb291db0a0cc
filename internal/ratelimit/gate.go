// Package ratelimit spaces outbound AniDB calls using a timestamp persisted
// in the tracker database.
//
// The gate serializes callers inside one process only. Two processes
// sharing a database can still call the API closer together than the
// configured interval.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

// DefaultInterval is the minimum spacing AniDB asks HTTP API clients to keep
const DefaultInterval = 2100 * time.Millisecond

// Gate enforces a minimum interval between calls
type Gate struct {
	log      zerolog.Logger
	repo     domain.RateLimitRepo
	interval time.Duration

	mu    sync.Mutex
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate creates a gate backed by repo
func NewGate(log zerolog.Logger, repo domain.RateLimitRepo, interval time.Duration) *Gate {
	return &Gate{
		log:      log.With().Str("module", "ratelimit").Logger(),
		repo:     repo,
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until at least the gate interval has passed since the last
// recorded call, then records now as the last call.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, err := g.repo.LastCall(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read last call time")
	}

	if wait := last.Add(g.interval).Sub(g.now()); wait > 0 {
		g.log.Debug().Dur("wait", wait).Msg("Rate limiting")
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if err := g.repo.SetLastCall(ctx, g.now()); err != nil {
		return errors.Wrap(err, "failed to record call time")
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
