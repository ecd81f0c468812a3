package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/resilience"
	"github.com/sells-group/hypelist/internal/store"
	"github.com/sells-group/hypelist/pkg/tmdb"
)

type fakeClient struct {
	calls atomic.Int32
	md    *tmdb.Metadata
	err   error
	delay time.Duration
}

func (f *fakeClient) FindByIMDbID(context.Context, string) (int64, error) {
	return 0, errors.New("not used")
}

func (f *fakeClient) MovieDetails(context.Context, int64) (*tmdb.Movie, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) Metadata(ctx context.Context, _ string) (*tmdb.Metadata, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.md, f.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var dune = model.AggregatedMovie{ExternalID: "tt1160419", Title: "Dune", Year: 2021}

func TestLookup_CachesResult(t *testing.T) {
	client := &fakeClient{md: &tmdb.Metadata{TMDBID: 438631, Overview: "Spice."}}
	e := New(client, Options{Store: newTestStore(t)})

	md, ok := e.Lookup(context.Background(), dune)
	require.True(t, ok)
	assert.Equal(t, "Spice.", md.Overview)

	md, ok = e.Lookup(context.Background(), dune)
	require.True(t, ok)
	assert.Equal(t, int64(438631), md.TMDBID)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestLookup_NotFoundIsCachedNegative(t *testing.T) {
	client := &fakeClient{err: tmdb.ErrNotFound}
	e := New(client, Options{Store: newTestStore(t)})

	_, ok := e.Lookup(context.Background(), dune)
	assert.False(t, ok)
	_, ok = e.Lookup(context.Background(), dune)
	assert.False(t, ok)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestLookup_Disabled(t *testing.T) {
	e := New(nil, Options{})
	assert.False(t, e.Enabled())
	_, ok := e.Lookup(context.Background(), dune)
	assert.False(t, ok)

	var nilEnricher *Enricher
	_, ok = nilEnricher.Lookup(context.Background(), dune)
	assert.False(t, ok)
}

func TestLookup_NoExternalID(t *testing.T) {
	client := &fakeClient{md: &tmdb.Metadata{TMDBID: 1}}
	e := New(client, Options{})
	_, ok := e.Lookup(context.Background(), model.AggregatedMovie{Title: "Manual"})
	assert.False(t, ok)
	assert.Zero(t, client.calls.Load())
}

func TestLookup_Timeout(t *testing.T) {
	client := &fakeClient{md: &tmdb.Metadata{TMDBID: 1}, delay: time.Second}
	e := New(client, Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, ok := e.Lookup(context.Background(), dune)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLookup_RetriesTransientStatus(t *testing.T) {
	client := &fakeClient{err: &tmdb.StatusError{Code: 503}}
	e := New(client, Options{})
	e.retry.InitialBackoff = time.Millisecond

	_, ok := e.Lookup(context.Background(), dune)
	assert.False(t, ok)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestLookup_CircuitOpens(t *testing.T) {
	client := &fakeClient{err: &tmdb.StatusError{Code: 401}}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "tmdb-test", FailureThreshold: 2, ResetTimeout: time.Hour})
	e := New(client, Options{Breaker: breaker})

	for range 4 {
		_, ok := e.Lookup(context.Background(), dune)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(2), client.calls.Load())
	assert.Equal(t, resilience.CircuitOpen, breaker.State())
}
