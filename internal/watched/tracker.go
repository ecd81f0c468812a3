// Package watched records "seen it" marks. A mark is sent to the shared form
// first and only enters the session set once the submission succeeded.
package watched

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/hypelist/internal/forms"
	"github.com/sells-group/hypelist/internal/metrics"
	"github.com/sells-group/hypelist/internal/model"
)

// ErrEmptyID is returned when asked to mark a blank id.
var ErrEmptyID = eris.New("watched: empty id")

// Submitter sends one form submission.
type Submitter interface {
	Submit(ctx context.Context, values url.Values) error
}

// Tracker owns the session's watched set.
type Tracker struct {
	set       *model.WatchedSet
	submitter Submitter
	fields    forms.Fields

	// inflight makes concurrent marks of one id share a submission.
	inflight singleflight.Group
}

// NewTracker returns a tracker with an empty set.
func NewTracker(sub Submitter, fields forms.Fields) *Tracker {
	return &Tracker{set: model.NewWatchedSet(), submitter: sub, fields: fields}
}

// Set returns the live watched set.
func (t *Tracker) Set() *model.WatchedSet {
	return t.set
}

// Seed adds ids read back from the sheet.
func (t *Tracker) Seed(ids []string) {
	for _, id := range ids {
		t.set.Add(id)
	}
}

// MarkWatched submits id and adds it to the set on success. Marking an id
// that is already in the set succeeds without submitting again, and
// concurrent marks of the same id wait on one submission. On failure the set
// is unchanged and the error is returned to every waiting caller.
func (t *Tracker) MarkWatched(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyID
	}
	if t.set.Contains(id) {
		return nil
	}

	_, err, _ := t.inflight.Do(id, func() (any, error) {
		if t.set.Contains(id) {
			return nil, nil
		}
		err := t.submitter.Submit(ctx, t.fields.Watched(id))
		metrics.RecordSubmission("watched", err)
		if err != nil {
			zap.L().Warn("watched: submission failed", zap.String("id", id), zap.Error(err))
			return nil, eris.Wrapf(err, "watched: mark %s", id)
		}
		t.set.Add(id)
		zap.L().Info("watched: marked", zap.String("id", id))
		return nil, nil
	})
	return err
}

// AddManual submits a manually entered movie. It shows up in the catalog
// after the next refresh.
func (t *Tracker) AddManual(ctx context.Context, rec model.MovieRecord) error {
	values, err := t.fields.Manual(rec)
	if err != nil {
		return err
	}
	err = t.submitter.Submit(ctx, values)
	metrics.RecordSubmission("manual", err)
	if err != nil {
		zap.L().Warn("watched: manual entry failed", zap.String("title", rec.Title), zap.Error(err))
		return eris.Wrapf(err, "watched: add %q", rec.Title)
	}
	zap.L().Info("watched: manual entry submitted", zap.String("title", rec.Title))
	return nil
}
