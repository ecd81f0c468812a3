package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hypelist/internal/catalog"
	"github.com/sells-group/hypelist/internal/model"
)

var (
	catalogFormat string
	catalogLimit  int
	catalogFilter catalog.Filter
	catalogMood   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the merged movie table",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "catalog")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Loader.Load(cmd.Context())
		if err != nil {
			return err
		}
		env.Tracker.Seed(res.WatchedIDs)

		f := catalogFilter
		f.Mood = catalog.ParseMood(catalogMood)
		view := catalog.Apply(res.Catalog, f, env.Tracker.Set())
		if catalogLimit > 0 && len(view.Movies) > catalogLimit {
			view.Movies = view.Movies[:catalogLimit]
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w.String())
		}
		if view.NoData {
			fmt.Fprintf(cmd.ErrOrStderr(), "no watchlist files found in %s\n", cfg.Sources.Dir)
		}
		return writeView(cmd.OutOrStdout(), view, catalogFormat, env.Tracker.Set())
	},
}

// writeView renders view as a table, JSON or YAML.
func writeView(w io.Writer, view catalog.View, format string, seen *model.WatchedSet) error {
	switch format {
	case "", "table":
		_, err := fmt.Fprintln(w, renderMovieTable(view.Movies, seen))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%d of %d movies\n", view.Matches, view.Total)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view.Movies); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func renderMovieTable(movies []model.AggregatedMovie, seen *model.WatchedSet) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Title", "Year", "Rating", "Hype", "Genres", "Lists", "Seen"})

	for _, m := range movies {
		year, rating, mark := "", "-", ""
		if m.Year > 0 {
			year = strconv.Itoa(m.Year)
		}
		if m.Rating > 0 {
			rating = strconv.FormatFloat(m.Rating, 'f', 1, 64)
		}
		if seen.Contains(m.ID()) {
			mark = "✓"
		}
		tw.AppendRow(table.Row{m.Title, year, rating, m.HypeScore, m.Genres, m.SourceListsDisplay(), mark})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: 32},
		{Number: 6, WidthMax: 32},
	})
	return tw.Render()
}

func init() {
	f := catalogCmd.Flags()
	f.StringVar(&catalogFormat, "format", "table", "output format: table, json or yaml")
	f.IntVar(&catalogLimit, "limit", 0, "max rows to print (0 = all)")
	f.Float64Var(&catalogFilter.MinRating, "min-rating", 0, "minimum rating")
	f.Float64Var(&catalogFilter.MaxRating, "max-rating", 0, "maximum rating (0 = no bound)")
	f.IntVar(&catalogFilter.MinYear, "min-year", 0, "earliest year")
	f.IntVar(&catalogFilter.MaxYear, "max-year", 0, "latest year")
	f.StringVar(&catalogMood, "mood", "any", "mood preset: any, chill, intense, scary, action")
	f.StringSliceVar(&catalogFilter.Genres, "genre", nil, "genres to include (repeatable)")
	f.StringVarP(&catalogFilter.Query, "query", "q", "", "title substring")
	f.BoolVar(&catalogFilter.HideWatched, "hide-watched", false, "hide movies marked as watched")
	rootCmd.AddCommand(catalogCmd)
}
