// Package enrich decorates catalog entries with poster, overview and cast
// from TMDB. Enrichment is best effort: any failure renders the detail view
// without it.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/metrics"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/resilience"
	"github.com/sells-group/hypelist/internal/store"
	"github.com/sells-group/hypelist/pkg/tmdb"
)

const (
	DefaultTimeout  = 4 * time.Second
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Options configures an Enricher.
type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Store    store.Store // optional
	Breaker  *resilience.CircuitBreaker
}

// Enricher looks up metadata for movies with an external id.
type Enricher struct {
	client  tmdb.Client
	store   store.Store
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	ttl     time.Duration
	retry   resilience.RetryConfig
}

// New returns an enricher. A nil client yields a disabled enricher.
func New(client tmdb.Client, opts Options) *Enricher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "tmdb"})
	}
	return &Enricher{
		client:  client,
		store:   opts.Store,
		breaker: opts.Breaker,
		timeout: opts.Timeout,
		ttl:     opts.CacheTTL,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 200 * time.Millisecond,
			ShouldRetry:    shouldRetry,
			OnRetry:        resilience.RetryLogger("tmdb", "metadata"),
		},
	}
}

// Enabled reports whether lookups can reach TMDB.
func (e *Enricher) Enabled() bool {
	return e != nil && e.client != nil
}

// Lookup returns metadata for m. ok is false when enrichment is disabled,
// m has no external id, TMDB does not know it, or the lookup failed.
func (e *Enricher) Lookup(ctx context.Context, m model.AggregatedMovie) (md *tmdb.Metadata, ok bool) {
	if !e.Enabled() {
		metrics.RecordEnrichLookup("disabled")
		return nil, false
	}
	if m.ExternalID == "" {
		metrics.RecordEnrichLookup("skipped")
		return nil, false
	}

	if cached, found := e.fromCache(ctx, m.ExternalID); found {
		metrics.RecordEnrichLookup("hit")
		return cached, cached != nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	md, err := resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*tmdb.Metadata, error) {
		md, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*tmdb.Metadata, error) {
			return e.client.Metadata(ctx, m.ExternalID)
		})
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, nil
		}
		return md, err
	})
	if err != nil {
		metrics.RecordEnrichLookup("error")
		zap.L().Warn("enrich: lookup failed",
			zap.String("external_id", m.ExternalID),
			zap.Error(err),
		)
		return nil, false
	}

	metrics.RecordEnrichLookup("miss")
	e.toCache(ctx, m.ExternalID, md)
	return md, md != nil
}

// fromCache returns found=true with a nil md for cached "not on TMDB".
func (e *Enricher) fromCache(ctx context.Context, id string) (md *tmdb.Metadata, found bool) {
	if e.store == nil {
		return nil, false
	}
	data, err := e.store.GetCachedMetadata(ctx, id)
	if err != nil {
		zap.L().Debug("enrich: cache read failed", zap.String("external_id", id), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var cached tmdb.Metadata
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if cached.TMDBID == 0 {
		return nil, true
	}
	return &cached, true
}

func (e *Enricher) toCache(ctx context.Context, id string, md *tmdb.Metadata) {
	if e.store == nil {
		return
	}
	if md == nil {
		md = &tmdb.Metadata{}
	}
	data, err := json.Marshal(md)
	if err != nil {
		return
	}
	if err := e.store.SetCachedMetadata(context.WithoutCancel(ctx), id, data, e.ttl); err != nil {
		zap.L().Debug("enrich: cache write failed", zap.String("external_id", id), zap.Error(err))
	}
}

func shouldRetry(err error) bool {
	var se *tmdb.StatusError
	if errors.As(err, &se) {
		return resilience.IsTransientHTTPStatus(se.Code)
	}
	return resilience.IsTransient(err)
}
