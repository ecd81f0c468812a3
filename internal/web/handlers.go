package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/catalog"
	"github.com/sells-group/hypelist/internal/forms"
	"github.com/sells-group/hypelist/internal/links"
	"github.com/sells-group/hypelist/internal/loader"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/internal/watched"
	"github.com/sells-group/hypelist/pkg/tmdb"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zap.L().Error("web: render template", zap.String("template", name), zap.Error(err))
	}
}

// movieID returns the unescaped {id} path parameter. chi routes on the raw
// path only when the request carried escapes such as %2F; otherwise the
// parameter is already decoded.
func movieID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return strings.TrimSpace(raw)
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(id)
	}
	return strings.TrimSpace(raw)
}

// parseFilter reads display filters from query parameters. Unparseable
// values leave the corresponding bound open.
func parseFilter(q url.Values) catalog.Filter {
	f := catalog.Filter{
		MinRating:   parseFloat(q.Get("min_rating")),
		MaxRating:   parseFloat(q.Get("max_rating")),
		MinYear:     parseInt(q.Get("min_year")),
		MaxYear:     parseInt(q.Get("max_year")),
		Mood:        catalog.ParseMood(q.Get("mood")),
		Query:       strings.TrimSpace(q.Get("q")),
		HideWatched: parseBool(q.Get("hide_watched")),
	}
	for _, g := range q["genre"] {
		if g = strings.TrimSpace(g); g != "" {
			f.Genres = append(f.Genres, g)
		}
	}
	return f
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return s == "on"
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type indexPage struct {
	View       catalog.View
	Filter     catalog.Filter
	Mood       string
	Moods      []moodOption
	Genres     []string
	MinYear    int
	MaxYear    int
	Warnings   []model.Warning
	SourcesDir string
	LoadedAt   time.Time
	Watched    *model.WatchedSet
}

type moodOption struct {
	Value string
	Label string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Catalog.Get(r.Context())
	if err != nil {
		zap.L().Error("web: load catalog", zap.Error(err))
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}

	f := parseFilter(r.URL.Query())
	page := indexPage{
		View:       catalog.Apply(res.Catalog, f, s.opts.Tracker.Set()),
		Filter:     f,
		Mood:       string(f.Mood),
		Genres:     catalog.Genres(res.Catalog),
		Warnings:   res.Warnings,
		SourcesDir: s.opts.SourcesDir,
		Watched:    s.opts.Tracker.Set(),
	}
	for _, m := range catalog.Moods {
		page.Moods = append(page.Moods, moodOption{Value: string(m.Mood), Label: m.Label})
	}
	page.MinYear, page.MaxYear = catalog.YearBounds(res.Catalog)
	if res.Catalog != nil {
		page.LoadedAt = res.Catalog.LoadedAt
	}
	s.render(w, http.StatusOK, "index.html", page)
}

type movieDetail struct {
	Movie    model.AggregatedMovie `json:"movie"`
	Links    links.Set             `json:"links"`
	Metadata *tmdb.Metadata        `json:"metadata,omitempty"`
	Watched  bool                  `json:"watched"`
}

// lookup resolves {id} against the current catalog.
func (s *Server) lookup(r *http.Request) (*movieDetail, *loader.Result, error) {
	res, err := s.opts.Catalog.Get(r.Context())
	if err != nil {
		return nil, nil, err
	}
	m, ok := catalog.Find(res.Catalog, movieID(r))
	if !ok {
		return nil, res, nil
	}
	d := &movieDetail{
		Movie:   m,
		Links:   links.For(m, s.opts.Region),
		Watched: s.opts.Tracker.Set().Contains(m.ID()),
	}
	if md, ok := s.opts.Enricher.Lookup(r.Context(), m); ok {
		d.Metadata = md
	}
	return d, res, nil
}

type detailPage struct {
	movieDetail
	Marked bool
	Error  string
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	d, _, err := s.lookup(r)
	if err != nil {
		zap.L().Error("web: load catalog", zap.Error(err))
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	if d == nil {
		s.render(w, http.StatusNotFound, "notfound.html", movieID(r))
		return
	}
	q := r.URL.Query()
	s.render(w, http.StatusOK, "detail.html", detailPage{
		movieDetail: *d,
		Marked:      q.Get("marked") == "1",
		Error:       q.Get("error"),
	})
}

func (s *Server) handleFormWatched(w http.ResponseWriter, r *http.Request) {
	id := movieID(r)
	target := moviePath(id)
	if err := s.opts.Tracker.MarkWatched(r.Context(), id); err != nil {
		http.Redirect(w, r, target+"?error="+url.QueryEscape("Could not save watched mark: "+err.Error()), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target+"?marked=1", http.StatusSeeOther)
}

func (s *Server) handleAPIMovies(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Catalog.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, catalog.Apply(res.Catalog, parseFilter(r.URL.Query()), s.opts.Tracker.Set()))
}

func (s *Server) handleAPIMovie(w http.ResponseWriter, r *http.Request) {
	d, res, err := s.lookup(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	if d == nil {
		if res.Catalog == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "movie not found", "no_data": true})
			return
		}
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAPIGenres(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Catalog.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	genres := catalog.Genres(res.Catalog)
	if genres == nil {
		genres = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"genres": genres})
}

type statusResponse struct {
	NoData      bool                 `json:"no_data"`
	Movies      int                  `json:"movies"`
	KeyStrategy model.KeyStrategy    `json:"key_strategy,omitempty"`
	LoadedAt    *time.Time           `json:"loaded_at,omitempty"`
	Sources     []model.SourceReport `json:"sources"`
	Warnings    []model.Warning      `json:"warnings"`
	Watched     int                  `json:"watched"`
}

func (s *Server) status(res *loader.Result) statusResponse {
	st := statusResponse{
		NoData:   res.Catalog == nil,
		Movies:   res.Catalog.Len(),
		Sources:  []model.SourceReport{},
		Warnings: res.Warnings,
		Watched:  s.opts.Tracker.Set().Len(),
	}
	if st.Warnings == nil {
		st.Warnings = []model.Warning{}
	}
	if res.Catalog != nil {
		st.KeyStrategy = res.Catalog.KeyStrategy
		st.LoadedAt = &res.Catalog.LoadedAt
		if res.Catalog.Sources != nil {
			st.Sources = res.Catalog.Sources
		}
	}
	return st
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Catalog.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.status(res))
}

func (s *Server) handleAPIRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Catalog.Refresh(r.Context())
	if err != nil {
		zap.L().Error("web: refresh catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, s.status(res))
}

func (s *Server) handleAPIWatched(w http.ResponseWriter, r *http.Request) {
	id := movieID(r)
	err := s.opts.Tracker.MarkWatched(r.Context(), id)
	switch {
	case errors.Is(err, watched.ErrEmptyID):
		writeError(w, http.StatusBadRequest, "id is required")
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "watched": true})
	}
}

type manualRequest struct {
	Title      string  `json:"title"`
	Year       int     `json:"year"`
	Rating     float64 `json:"rating"`
	ExternalID string  `json:"external_id"`
	Genres     string  `json:"genres"`
	Director   string  `json:"director"`
	Cast       string  `json:"cast"`
	Source     string  `json:"source"`
}

func (s *Server) handleAPIManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Year < 0 || req.Rating < 0 || req.Rating > 10 {
		writeError(w, http.StatusBadRequest, "year must be >= 0 and rating within [0, 10]")
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = s.opts.ManualTag
	}
	rec := model.MovieRecord{
		ExternalID: strings.TrimSpace(req.ExternalID),
		Title:      req.Title,
		Year:       req.Year,
		Rating:     req.Rating,
		Genres:     strings.TrimSpace(req.Genres),
		Director:   strings.TrimSpace(req.Director),
		Cast:       strings.TrimSpace(req.Cast),
		SourceList: source,
	}

	err := s.opts.Tracker.AddManual(r.Context(), rec)
	switch {
	case errors.Is(err, forms.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, "title is required")
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "submitted",
			"title":  strings.TrimSpace(req.Title),
		})
	}
}
