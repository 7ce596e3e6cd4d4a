package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/moviefestival/forecaster/internal/config"
	"github.com/moviefestival/forecaster/internal/corpus"
	"github.com/moviefestival/forecaster/internal/corpus/snapshot"
	"github.com/moviefestival/forecaster/internal/logging"
	"github.com/spf13/cobra"
)

// options are shared by every subcommand
type options struct {
	configPath    string
	dsn           string
	corpusFile    string
	forceDownload bool
	verbose       bool

	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "forecaster",
		Short: "Forecast audience ratings for unreleased movies",
		Long: `Forecaster estimates the audience rating of a movie that has not been scored yet.

It blends the ratings of corpus movies that share genres and principals (cast and
crew) with the candidate, weighting each comparable by how close its release year is.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (default forecaster.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.dsn, "db", "", "Corpus database DSN (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.corpusFile, "corpus-file", "", "Serve the corpus from a Parquet/JSONL snapshot instead of the database")
	cmd.PersistentFlags().BoolVar(&opts.forceDownload, "force-download", false, "Re-download remote snapshots even when cached")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newGetRatingCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCorpusCmd(opts))
	cmd.AddCommand(newEvalCmd(opts))

	return cmd
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if o.dsn != "" {
		cfg.Database.DSN = o.dsn
	}
	if o.corpusFile != "" {
		cfg.CorpusFile = o.corpusFile
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	o.cfg = cfg
	return nil
}

// openCorpus opens the configured corpus. The returned close function is
// always safe to call.
func (o *options) openCorpus(ctx context.Context) (corpus.Store, func(), error) {
	if o.cfg.CorpusFile != "" {
		path, err := o.resolveSnapshot(ctx, o.cfg.CorpusFile)
		if err != nil {
			return nil, func() {}, err
		}
		slog.Debug("Loading corpus snapshot", "path", path)
		records, err := snapshot.NewLoader(path).Load()
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to load corpus snapshot: %w", err)
		}
		store := corpus.NewMemoryStore(records...)
		slog.Info("Corpus snapshot loaded", "path", path, "movies", store.Len())
		return store, func() {}, nil
	}

	store, err := o.openDatabase()
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("Unable to close corpus database", "err", err)
		}
	}, nil
}

// resolveSnapshot downloads remote snapshots into the cache and returns a
// local path
func (o *options) resolveSnapshot(ctx context.Context, location string) (string, error) {
	if !snapshot.IsRemote(location) {
		return location, nil
	}
	fetcher := snapshot.NewFetcher(snapshot.FetchConfig{
		CacheDir:      o.cfg.Snapshot.CacheDir,
		ForceDownload: o.forceDownload,
		Token:         o.cfg.Snapshot.Token,
	})
	return fetcher.Fetch(ctx, location)
}

func (o *options) openDatabase() (*corpus.SQLStore, error) {
	slog.Debug("Opening corpus database", "driver", o.cfg.Database.Driver, "dsn", o.cfg.Database.DSN)
	store, err := corpus.Open(o.cfg.Database.Driver, o.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}
	return store, nil
}
