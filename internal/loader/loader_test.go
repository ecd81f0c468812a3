package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/sheet"
	"github.com/sells-group/hypelist/internal/source"
)

const header = "Const,Title,Year,IMDb Rating,Genres,Directors\n"

func writeCSV(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(header+body), 0o644))
}

type fakeSheet struct {
	rows *sheet.Rows
	err  error
}

func (f *fakeSheet) Configured() bool { return true }

func (f *fakeSheet) Fetch(context.Context) (*sheet.Rows, error) {
	return f.rows, f.err
}

func TestLoad_FilesAndSheet(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ListA.csv", "tt1,Dune,2021,8.0,Sci-Fi,Denis Villeneuve\n")
	writeCSV(t, dir, "ListB.csv", "tt1,Dune,2021,8.0,Sci-Fi,\ntt2,Heat,1995,8.3,Crime,Michael Mann\n")

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := &Loader{
		Scanner: source.Scanner{Dir: dir},
		Sheet: &fakeSheet{rows: &sheet.Rows{
			Manual:  []model.MovieRecord{{ExternalID: "tt3", Title: "Alien", Year: 1979, SourceList: "Manual"}},
			Watched: []string{"tt2"},
			Report:  model.SourceReport{Name: sheet.SourceName, Kind: model.SourceKindSheet, Rows: 1},
		}},
		Now: func() time.Time { return fixed },
	}

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Catalog)
	require.Len(t, res.Catalog.Movies, 3)

	dune := res.Catalog.Movies[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, 2, dune.HypeScore)
	assert.Equal(t, "ListA, ListB", dune.SourceListsDisplay())
	assert.Equal(t, "Denis Villeneuve", dune.Director)

	assert.Equal(t, []string{"tt2"}, res.WatchedIDs)
	assert.Equal(t, fixed, res.Catalog.LoadedAt)
	assert.Len(t, res.Catalog.Sources, 3)
	assert.Equal(t, model.KeyExternalID, res.Catalog.KeyStrategy)
}

func TestLoad_SheetUnavailable(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ListA.csv", "tt1,Dune,2021,8.0,Sci-Fi,Denis Villeneuve\n")

	l := &Loader{
		Scanner: source.Scanner{Dir: dir},
		Sheet:   &fakeSheet{err: context.DeadlineExceeded},
	}
	res, err := l.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Catalog)
	assert.Len(t, res.Catalog.Movies, 1)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, model.WarningSheetUnavailable, res.Warnings[0].Kind)
	assert.Empty(t, res.WatchedIDs)
}

func TestLoad_NoData(t *testing.T) {
	l := &Loader{Scanner: source.Scanner{Dir: t.TempDir()}}
	res, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Catalog)
}

func TestLoad_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ListA.csv", "tt1,Dune,2021,8.0,Sci-Fi,\ntt2,Heat,1995,8.3,Crime,\n")
	writeCSV(t, dir, "ListB.csv", "tt2,Heat,1995,8.3,Crime,Michael Mann\n")

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &Loader{Scanner: source.Scanner{Dir: dir}, Now: func() time.Time { return fixed }}

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Catalog, second.Catalog)
}

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingSource) Load(context.Context) (*Result, error) {
	n := s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Catalog: &model.Catalog{Movies: []model.AggregatedMovie{{Title: "call", HypeScore: int(n)}}}}, nil
}

func TestCache_ServesWithinTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Hour)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute)
	now := time.Now()
	c.nowFunc = func() time.Time { return now }

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	res, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Catalog.Movies[0].HypeScore)
}

func TestCache_Refresh(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Hour)

	var seen []*Result
	c.OnLoad = func(r *Result) { seen = append(seen, r) }

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	refreshed, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, refreshed)
	assert.Same(t, refreshed, c.Peek())
	assert.Len(t, seen, 2)
}

func TestCache_CoalescesConcurrentRebuilds(t *testing.T) {
	src := &countingSource{delay: 50 * time.Millisecond}
	c := NewCache(src, time.Hour)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_ErrorNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("disk gone")}
	c := NewCache(src, time.Hour)

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.Nil(t, c.Peek())

	src.err = nil
	res, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res.Catalog)
}
