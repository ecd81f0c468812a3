package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/config"
	"github.com/sells-group/hypelist/internal/enrich"
	"github.com/sells-group/hypelist/internal/fetcher"
	"github.com/sells-group/hypelist/internal/forms"
	"github.com/sells-group/hypelist/internal/loader"
	"github.com/sells-group/hypelist/internal/normalize"
	"github.com/sells-group/hypelist/internal/sheet"
	"github.com/sells-group/hypelist/internal/source"
	"github.com/sells-group/hypelist/internal/store"
	"github.com/sells-group/hypelist/internal/watched"
	"github.com/sells-group/hypelist/pkg/tmdb"
)

// appEnv holds the collaborators shared by the serve, catalog and watched
// commands.
type appEnv struct {
	Loader   *loader.Loader
	Tracker  *watched.Tracker
	Enricher *enrich.Enricher
	Store    store.Store // nil when enrichment is off
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// secs converts a config seconds value to a duration.
func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// sheetLayout maps the configured column names onto a sheet.Layout.
func sheetLayout(c *config.Config) sheet.Layout {
	return sheet.Layout{
		TitleColumn:   c.Sheet.TitleColumn,
		KindColumn:    c.Sheet.KindColumn,
		PayloadColumn: c.Sheet.PayloadColumn,
		ManualMarker:  c.Sheet.ManualMarker,
		WatchedMarker: c.Sheet.WatchedMarker,
		ManualTag:     c.Sheet.ManualTag,
	}
}

// formFields maps the configured form field ids onto forms.Fields.
func formFields(c *config.Config) forms.Fields {
	return forms.Fields{
		ID:            c.Forms.IDField,
		Title:         c.Forms.TitleField,
		Kind:          c.Forms.KindField,
		Payload:       c.Forms.PayloadField,
		ManualMarker:  c.Sheet.ManualMarker,
		WatchedMarker: c.Sheet.WatchedMarker,
	}
}

// newLoader builds the file scanner and the optional sheet client.
func newLoader(c *config.Config) (*loader.Loader, error) {
	enc, err := normalize.ParseEncoding(c.Sources.Encoding)
	if err != nil {
		return nil, eris.Wrap(err, "sources encoding")
	}

	ld := &loader.Loader{
		Scanner: source.Scanner{
			Dir:      c.Sources.Dir,
			Patterns: c.Sources.Patterns,
			Encoding: enc,
		},
	}
	if c.Sheet.URL != "" {
		ld.Sheet = &sheet.Client{
			Downloader: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: secs(c.Sheet.TimeoutSecs)}),
			URL:        c.Sheet.URL,
			Timeout:    secs(c.Sheet.TimeoutSecs),
			Layout:     sheetLayout(c),
		}
	}
	return ld, nil
}

// newEnricher opens the metadata cache and TMDB client. Without an API key
// it returns a disabled enricher and no store.
func newEnricher(ctx context.Context, c *config.Config) (*enrich.Enricher, store.Store, error) {
	if c.TMDB.Key == "" {
		zap.L().Info("tmdb key not set, metadata enrichment disabled")
		return enrich.New(nil, enrich.Options{}), nil, nil
	}

	st, err := store.NewSQLite(c.Store.Path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open metadata store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, eris.Wrap(err, "migrate metadata store")
	}
	if n, err := st.DeleteExpiredMetadata(ctx); err != nil {
		zap.L().Warn("prune metadata cache", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("pruned metadata cache", zap.Int("rows", n))
	}

	client := tmdb.NewClient(c.TMDB.Key,
		tmdb.WithBaseURL(c.TMDB.BaseURL),
		tmdb.WithImageBaseURL(c.TMDB.ImageBaseURL),
	)
	enr := enrich.New(client, enrich.Options{
		Timeout:  secs(c.TMDB.TimeoutSecs),
		CacheTTL: time.Duration(c.TMDB.CacheTTLHours) * time.Hour,
		Store:    st,
	})
	return enr, st, nil
}

// initApp validates the config for mode and wires every collaborator.
// Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	ld, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}

	sub := forms.NewSubmitter(cfg.Forms.URL, secs(cfg.Forms.TimeoutSecs))
	env := &appEnv{
		Loader:  ld,
		Tracker: watched.NewTracker(sub, formFields(cfg)),
	}

	if mode == "serve" {
		enr, st, err := newEnricher(ctx, cfg)
		if err != nil {
			return nil, err
		}
		env.Enricher = enr
		env.Store = st
	}
	return env, nil
}
