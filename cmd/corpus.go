package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/moviefestival/forecaster/internal/corpus/snapshot"
	"github.com/spf13/cobra"
)

func newCorpusCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the movie corpus database",
		Long: `Tools for loading the historical movie corpus into the database and
exporting it back to Parquet or JSONL snapshots.`,
	}

	cmd.AddCommand(newCorpusImportCmd(opts))
	cmd.AddCommand(newCorpusExportCmd(opts))
	cmd.AddCommand(newCorpusStatsCmd(opts))
	cmd.AddCommand(newCorpusClearCacheCmd(opts))

	return cmd
}

func newCorpusImportCmd(opts *options) *cobra.Command {
	var file string
	var sample int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a corpus snapshot into the database",
		Example: `  # Import a Parquet snapshot
  forecaster corpus import --file corpus.parquet

  # Import a snapshot published over HTTPS
  forecaster corpus import --file https://example.org/exports/corpus.parquet

  # Import the first 100 movies of a JSONL snapshot into a scratch database
  forecaster corpus import --file corpus.jsonl --sample 100 --db ./scratch.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveSnapshot(cmd.Context(), file)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("snapshot file not found: %s", path)
			}

			records, err := snapshot.NewLoader(path).LoadSample(sample)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}
			slog.Info("Snapshot loaded", "records", len(records))

			store, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ImportRecords(cmd.Context(), records); err != nil {
				return fmt.Errorf("failed to import snapshot: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d movies into %s\n", len(records), opts.cfg.Database.DSN)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path or http(s) URL of a Parquet or JSONL snapshot (required)")
	cmd.Flags().IntVar(&sample, "sample", -1, "Number of movies to import (-1 for all)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCorpusExportCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the database to a corpus snapshot",
		Example: `  forecaster corpus export --file corpus.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListMovieRecords(cmd.Context())
			if err != nil {
				return err
			}

			if err := snapshot.Write(file, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movies to %s\n", len(records), file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Output snapshot path (.parquet or .jsonl, required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCorpusStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row counts of the corpus database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Movies:     %d\n", stats.Movies)
			fmt.Fprintf(out, "Genres:     %d\n", stats.Genres)
			fmt.Fprintf(out, "Names:      %d\n", stats.Names)
			fmt.Fprintf(out, "Principals: %d\n", stats.Principals)
			return nil
		},
	}
}

func newCorpusClearCacheCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove downloaded corpus snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := snapshot.NewFetcher(snapshot.FetchConfig{CacheDir: opts.cfg.Snapshot.CacheDir})
			return fetcher.ClearCache()
		},
	}
}
