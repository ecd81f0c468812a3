package watched

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hypelist/internal/forms"
	"github.com/sells-group/hypelist/internal/model"
)

type fakeSubmitter struct {
	err   error
	calls []url.Values
}

func (f *fakeSubmitter) Submit(_ context.Context, v url.Values) error {
	f.calls = append(f.calls, v)
	return f.err
}

func TestMarkWatched_Success(t *testing.T) {
	sub := &fakeSubmitter{}
	tr := NewTracker(sub, forms.DefaultFields())

	require.NoError(t, tr.MarkWatched(context.Background(), " tt1 "))
	assert.True(t, tr.Set().Contains("tt1"))
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "tt1", sub.calls[0].Get("entry.details"))
}

func TestMarkWatched_FailureLeavesSetUnchanged(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("form down")}
	tr := NewTracker(sub, forms.DefaultFields())

	err := tr.MarkWatched(context.Background(), "tt1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form down")
	assert.False(t, tr.Set().Contains("tt1"))
	assert.Zero(t, tr.Set().Len())
}

func TestMarkWatched_AlreadyWatched(t *testing.T) {
	sub := &fakeSubmitter{}
	tr := NewTracker(sub, forms.DefaultFields())
	tr.Seed([]string{"tt1", ""})

	require.NoError(t, tr.MarkWatched(context.Background(), "tt1"))
	assert.Empty(t, sub.calls)
	assert.Equal(t, 1, tr.Set().Len())
}

func TestMarkWatched_EmptyID(t *testing.T) {
	sub := &fakeSubmitter{}
	tr := NewTracker(sub, forms.DefaultFields())

	assert.ErrorIs(t, tr.MarkWatched(context.Background(), "  "), ErrEmptyID)
	assert.Empty(t, sub.calls)
}

func TestAddManual(t *testing.T) {
	sub := &fakeSubmitter{}
	tr := NewTracker(sub, forms.DefaultFields())

	require.NoError(t, tr.AddManual(context.Background(), model.MovieRecord{Title: "Heat", Year: 1995, SourceList: "Manual"}))
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "Heat", sub.calls[0].Get("entry.title"))
	assert.Equal(t, "MANUAL", sub.calls[0].Get("entry.type"))

	assert.ErrorIs(t, tr.AddManual(context.Background(), model.MovieRecord{}), forms.ErrMissingTitle)
	assert.Len(t, sub.calls, 1)

	sub.err = errors.New("nope")
	assert.Error(t, tr.AddManual(context.Background(), model.MovieRecord{Title: "Alien"}))
}

type blockingSubmitter struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingSubmitter) Submit(context.Context, url.Values) error {
	b.calls.Add(1)
	<-b.release
	return nil
}

func TestMarkWatched_ConcurrentMarksSubmitOnce(t *testing.T) {
	sub := &blockingSubmitter{release: make(chan struct{})}
	tr := NewTracker(sub, forms.DefaultFields())

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- tr.MarkWatched(context.Background(), "tt1")
		}()
	}

	assert.Eventually(t, func() bool { return sub.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(sub.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), sub.calls.Load())
	assert.True(t, tr.Set().Contains("tt1"))
}
