package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hypelist/internal/loader"
	"github.com/sells-group/hypelist/internal/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		cache := loader.NewCache(env.Loader, secs(cfg.Cache.TTLSecs))
		cache.OnLoad = func(res *loader.Result) {
			env.Tracker.Seed(res.WatchedIDs)
		}

		// Warm the cache so the first page view is fast. Failures surface
		// again on the first request.
		if _, err := cache.Get(ctx); err != nil {
			zap.L().Warn("initial catalog load failed", zap.Error(err))
		}

		if cfg.Cache.RefreshSecs > 0 {
			var pruner loader.Pruner
			if env.Store != nil {
				pruner = env.Store
			}
			go loader.NewRefresher(cache, pruner, secs(cfg.Cache.RefreshSecs)).Run(ctx)
		}

		srvHandler, err := web.New(web.Options{
			Catalog:         cache,
			Tracker:         env.Tracker,
			Enricher:        env.Enricher,
			SourcesDir:      cfg.Sources.Dir,
			Region:          cfg.Links.Region,
			ManualTag:       cfg.Sheet.ManualTag,
			CORSOrigins:     cfg.Server.CORSOrigins,
			RateLimitPerMin: cfg.Server.RateLimitPerMin,
		})
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srvHandler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
