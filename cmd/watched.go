package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hypelist/internal/model"
)

var watchedCmd = &cobra.Command{
	Use:   "watched",
	Short: "Record watched movies and manual entries",
}

var watchedMarkCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Mark a movie as watched",
	Long:  "Submits a watched mark for <id> (external id, or title when the movie has none) to the shared form.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "watched")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Tracker.MarkWatched(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "marked %s as watched\n", strings.TrimSpace(args[0]))
		return nil
	},
}

var manualRec model.MovieRecord

var watchedAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a movie to the shared sheet by hand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if manualRec.Rating < 0 || manualRec.Rating > 10 {
			return eris.New("--rating must be within [0, 10]")
		}
		env, err := initApp(cmd.Context(), "watched")
		if err != nil {
			return err
		}
		defer env.Close()

		rec := manualRec
		rec.Title = args[0]
		if rec.SourceList == "" {
			rec.SourceList = cfg.Sheet.ManualTag
		}
		if err := env.Tracker.AddManual(cmd.Context(), rec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "submitted %q; it appears after the next refresh\n", strings.TrimSpace(rec.Title))
		return nil
	},
}

func init() {
	f := watchedAddCmd.Flags()
	f.IntVar(&manualRec.Year, "year", 0, "release year")
	f.Float64Var(&manualRec.Rating, "rating", 0, "rating out of 10")
	f.StringVar(&manualRec.ExternalID, "id", "", "IMDb id, e.g. tt0113277")
	f.StringVar(&manualRec.Genres, "genres", "", "comma-separated genres")
	f.StringVar(&manualRec.Director, "director", "", "director")
	f.StringVar(&manualRec.Cast, "cast", "", "comma-separated cast")
	f.StringVar(&manualRec.SourceList, "source", "", "source list name (default from config)")

	watchedCmd.AddCommand(watchedMarkCmd, watchedAddCmd)
	rootCmd.AddCommand(watchedCmd)
}
