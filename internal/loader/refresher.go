package loader

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner drops expired entries from a persistent cache.
type Pruner interface {
	DeleteExpiredMetadata(ctx context.Context) (int, error)
}

// Refresher rebuilds the catalog on a fixed interval so page views rarely
// pay for a load.
type Refresher struct {
	cache    *Cache
	pruner   Pruner // optional
	interval time.Duration
}

// NewRefresher returns a refresher for cache. interval <= 0 defaults to the
// cache TTL.
func NewRefresher(cache *Cache, pruner Pruner, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = cache.ttl
	}
	return &Refresher{cache: cache, pruner: pruner, interval: interval}
}

// Run blocks until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "loader.refresher"))
	log.Info("starting catalog refresher", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			r.tick(ctx, log)
		}
	}
}

func (r *Refresher) tick(ctx context.Context, log *zap.Logger) {
	res, err := r.cache.Refresh(ctx)
	if err != nil {
		log.Error("loader: scheduled refresh failed", zap.Error(err))
	} else {
		log.Debug("loader: scheduled refresh complete",
			zap.Int("movies", res.Catalog.Len()),
			zap.Int("warnings", len(res.Warnings)),
		)
	}

	if r.pruner == nil {
		return
	}
	if n, err := r.pruner.DeleteExpiredMetadata(ctx); err != nil {
		log.Warn("loader: prune metadata cache", zap.Error(err))
	} else if n > 0 {
		log.Debug("loader: pruned metadata cache", zap.Int("rows", n))
	}
}
