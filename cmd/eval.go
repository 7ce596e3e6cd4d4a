package cmd

import (
	"fmt"
	"log/slog"

	"github.com/moviefestival/forecaster/internal/backtest"
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *options) *cobra.Command {
	var sampleSize int
	var outputJSON string
	var outputYAML string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Backtest forecast accuracy against the corpus",
		Long: `Predicts every scored corpus movie from its own genres, principals and release
year, with that movie hidden from the corpus, and compares the forecast with its
actual average rating.

Reports mean absolute error, root mean squared error, bias and the share of
forecasts within 0.5 of the actual rating.`,
		Example: `  # Backtest the first 200 movies
  forecaster eval --sample 200

  # Backtest a snapshot and keep the reports
  forecaster eval --corpus-file corpus.parquet --sample -1 --output-json eval.json --output-yaml eval.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := opts.openCorpus(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			results, err := backtest.Run(cmd.Context(), store, sampleSize)
			if err != nil {
				return fmt.Errorf("backtest failed: %w", err)
			}

			summary := backtest.Aggregate(results)
			summary.PrintSummary(cmd.OutOrStdout())

			if outputJSON != "" {
				if err := summary.SaveToJSON(outputJSON); err != nil {
					slog.Warn("Failed to save JSON results", "err", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", outputJSON)
				}
			}

			if outputYAML != "" {
				corpusName := opts.cfg.Database.DSN
				if opts.cfg.CorpusFile != "" {
					corpusName = opts.cfg.CorpusFile
				}
				if err := summary.SaveToYAML(outputYAML, corpusName, sampleSize); err != nil {
					slog.Warn("Failed to save YAML report", "err", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "YAML report saved to: %s\n", outputYAML)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&sampleSize, "sample", 100, "Number of movies to backtest (-1 for all)")
	cmd.Flags().StringVar(&outputJSON, "output-json", "", "Path to write JSON results")
	cmd.Flags().StringVar(&outputYAML, "output-yaml", "", "Path to write a YAML report")

	return cmd
}
