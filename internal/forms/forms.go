// Package forms posts entries to the shared form endpoint that feeds the
// spreadsheet. Submissions are at-most-once: they are never retried.
package forms

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/sheet"
)

// DefaultTimeout bounds a single submission.
const DefaultTimeout = 5 * time.Second

// ErrNotConfigured is returned when no form URL is set.
var ErrNotConfigured = eris.New("forms: no form url configured")

// Submitter posts url-encoded form values.
type Submitter struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewSubmitter returns a submitter that treats redirects as success rather
// than following them.
func NewSubmitter(formURL string, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Submitter{
		URL:     formURL,
		Timeout: timeout,
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Configured reports whether a form URL is set.
func (s *Submitter) Configured() bool {
	return s != nil && strings.TrimSpace(s.URL) != ""
}

// Submit performs one POST. Any 2xx or 3xx status is success; everything
// else, timeouts included, is returned as an error.
func (s *Submitter) Submit(ctx context.Context, values url.Values) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(values.Encode()))
	if err != nil {
		return eris.Wrap(err, "forms: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "forms: submit")
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return eris.Errorf("forms: submit returned status %d", resp.StatusCode)
	}
	zap.L().Debug("forms: submitted", zap.Int("status", resp.StatusCode))
	return nil
}

// Fields maps logical entry parts to the form's field identifiers.
type Fields struct {
	ID      string
	Title   string
	Kind    string
	Payload string

	ManualMarker  string
	WatchedMarker string
}

// DefaultFields matches the column layout sheet.DefaultLayout reads back.
func DefaultFields() Fields {
	layout := sheet.DefaultLayout()
	return Fields{
		ID:            "entry.details",
		Title:         "entry.title",
		Kind:          "entry.type",
		Payload:       "entry.details",
		ManualMarker:  layout.ManualMarker,
		WatchedMarker: layout.WatchedMarker,
	}
}

// Watched builds the submission for a watched mark.
func (f Fields) Watched(id string) url.Values {
	v := url.Values{}
	if f.Kind != "" {
		v.Set(f.Kind, f.WatchedMarker)
	}
	v.Set(f.ID, id)
	return v
}

// ErrMissingTitle is returned for manual entries without a title.
var ErrMissingTitle = eris.New("forms: manual entry needs a title")

// Manual builds the submission for a manually added movie, packing the
// details the way sheet.DecodePayload reads them.
func (f Fields) Manual(rec model.MovieRecord) (url.Values, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" {
		return nil, ErrMissingTitle
	}
	v := url.Values{}
	v.Set(f.Title, rec.Title)
	if f.Kind != "" {
		v.Set(f.Kind, f.ManualMarker)
	}
	v.Set(f.Payload, sheet.EncodePayload(rec))
	return v, nil
}
