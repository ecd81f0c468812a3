// Package tmdb provides a client for the subset of The Movie Database API
// used to enrich catalog entries: lookup by IMDb id and movie details.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	maxCast             = 5
)

// ErrNotFound is returned when TMDB has no movie for an id.
var ErrNotFound = eris.New("tmdb: not found")

// StatusError carries a non-200 response status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d: %s", e.Code, e.Body)
}

// Client defines the TMDB operations used for enrichment.
type Client interface {
	// FindByIMDbID resolves an IMDb title id to a TMDB movie id.
	FindByIMDbID(ctx context.Context, imdbID string) (int64, error)
	// MovieDetails fetches a movie with its credits.
	MovieDetails(ctx context.Context, tmdbID int64) (*Movie, error)
	// Metadata is FindByIMDbID followed by MovieDetails.
	Metadata(ctx context.Context, imdbID string) (*Metadata, error)
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited actor.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// Movie is the movie details payload.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []Genre `json:"genres"`
	Credits     struct {
		Cast []CastMember `json:"cast"`
	} `json:"credits"`
}

// Metadata is the enrichment shown on a detail page.
type Metadata struct {
	TMDBID    int64    `json:"tmdb_id"`
	PosterURL string   `json:"poster_url,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Cast      []string `json:"cast,omitempty"`
}

type findResponse struct {
	MovieResults []struct {
		ID int64 `json:"id"`
	} `json:"movie_results"`
}

// Option configures the TMDB client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithImageBaseURL sets the prefix for poster paths.
func WithImageBaseURL(u string) Option {
	return func(c *httpClient) {
		c.imageBaseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

type httpClient struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	http         *http.Client
}

// NewClient creates a TMDB client. Empty option values keep the defaults.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.imageBaseURL == "" {
		c.imageBaseURL = defaultImageBaseURL
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "tmdb: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "tmdb: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return eris.Wrap(err, "tmdb: read response body")
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "tmdb: unmarshal response")
	}
	return nil
}

func (c *httpClient) FindByIMDbID(ctx context.Context, imdbID string) (int64, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return 0, eris.New("tmdb: imdb id must not be empty")
	}
	var resp findResponse
	params := url.Values{"external_source": {"imdb_id"}}
	if err := c.get(ctx, "/find/"+url.PathEscape(imdbID), params, &resp); err != nil {
		return 0, err
	}
	if len(resp.MovieResults) == 0 {
		return 0, ErrNotFound
	}
	return resp.MovieResults[0].ID, nil
}

func (c *httpClient) MovieDetails(ctx context.Context, tmdbID int64) (*Movie, error) {
	var m Movie
	params := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), params, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *httpClient) Metadata(ctx context.Context, imdbID string) (*Metadata, error) {
	id, err := c.FindByIMDbID(ctx, imdbID)
	if err != nil {
		return nil, err
	}
	m, err := c.MovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.toMetadata(m), nil
}

func (c *httpClient) toMetadata(m *Movie) *Metadata {
	md := &Metadata{TMDBID: m.ID, Overview: m.Overview}
	if m.PosterPath != "" {
		md.PosterURL = c.imageBaseURL + "/" + strings.TrimLeft(m.PosterPath, "/")
	}
	for _, g := range m.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	for i, cm := range m.Credits.Cast {
		if i == maxCast {
			break
		}
		md.Cast = append(md.Cast, cm.Name)
	}
	return md
}
