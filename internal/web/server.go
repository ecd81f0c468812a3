// Package web serves the dashboard pages and the JSON API over chi.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hypelist/internal/enrich"
	"github.com/sells-group/hypelist/internal/loader"
	"github.com/sells-group/hypelist/internal/model"
	"github.com/sells-group/hypelist/pkg/tmdb"
)

//go:embed templates/*.html
var templateFS embed.FS

// CatalogSource serves the current pipeline result.
type CatalogSource interface {
	Get(ctx context.Context) (*loader.Result, error)
	Refresh(ctx context.Context) (*loader.Result, error)
}

// WatchTracker records watched marks and manual entries.
type WatchTracker interface {
	Set() *model.WatchedSet
	MarkWatched(ctx context.Context, id string) error
	AddManual(ctx context.Context, rec model.MovieRecord) error
}

// MetadataLookup is the optional enrichment collaborator.
type MetadataLookup interface {
	Lookup(ctx context.Context, m model.AggregatedMovie) (*tmdb.Metadata, bool)
}

// Options configures a Server.
type Options struct {
	Catalog  CatalogSource
	Tracker  WatchTracker
	Enricher MetadataLookup // optional

	SourcesDir      string
	Region          string
	ManualTag       string
	CORSOrigins     []string
	RateLimitPerMin int
}

// Server holds the dashboard handlers.
type Server struct {
	opts Options
	tmpl *template.Template
}

// New parses the page templates and returns a server.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Tracker == nil {
		return nil, eris.New("web: catalog and tracker are required")
	}
	if opts.Enricher == nil {
		opts.Enricher = enrich.New(nil, enrich.Options{})
	}
	if opts.ManualTag == "" {
		opts.ManualTag = "Manual"
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse templates")
	}
	return &Server{opts: opts, tmpl: tmpl}, nil
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleIndex)
	r.Get("/movies/{id}", s.handleDetail)

	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", s.handleAPIMovies)
		r.Get("/movies/{id}", s.handleAPIMovie)
		r.Get("/genres", s.handleAPIGenres)
		r.Get("/status", s.handleAPIStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit())
			r.Post("/watched/{id}", s.handleAPIWatched)
			r.Post("/manual", s.handleAPIManual)
			r.Post("/refresh", s.handleAPIRefresh)
		})
	})

	r.With(s.rateLimit()).Post("/movies/{id}/watched", s.handleFormWatched)

	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.opts.RateLimitPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(s.opts.RateLimitPerMin, time.Minute)
}

// moviePath is the detail page path for a movie id.
func moviePath(id string) string {
	return "/movies/" + url.PathEscape(id)
}

var templateFuncs = template.FuncMap{
	"join":      strings.Join,
	"moviePath": moviePath,
	"stars": func(r float64) string {
		if r <= 0 {
			return "-"
		}
		return fmt.Sprintf("%.1f ⭐", r)
	},
	"selected": func(want string, got any) bool {
		switch v := got.(type) {
		case string:
			return v == want
		case []string:
			for _, g := range v {
				if g == want {
					return true
				}
			}
		}
		return false
	},
}
