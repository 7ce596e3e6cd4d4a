package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/moviefestival/forecaster/internal/corpus"
	"github.com/moviefestival/forecaster/internal/models"
	"github.com/moviefestival/forecaster/internal/predict"
	"github.com/moviefestival/forecaster/internal/render"
	"github.com/moviefestival/forecaster/internal/request"
	"github.com/spf13/cobra"
)

func newGetRatingCmd(opts *options) *cobra.Command {
	var requestPath string
	var format string

	cmd := &cobra.Command{
		Use:   "get-rating <title> <genres> <principals> <release-year>",
		Short: "Predict the rating of a candidate movie",
		Long: `Predict the audience rating of a movie from its title, genres, principals and release year.

Genres are a JSON array of strings. Principals are a JSON array whose elements are
either {"name": "...", "role": "..."} objects or [name, role] pairs. Roles that earn
a boost are director, producer, writer and actor.

The default output is a JSON array [title, predictedRating]. A rating of 0 means no
comparable movie was found or the corpus could not be read; use --format yaml or
text to see which.`,
		Example: `  # Predict a drama directed by a known director
  forecaster get-rating "Night Train" '["Drama"]' '[["Jane Doe", "director"]]' 2025

  # Same request as a JSON file
  forecaster get-rating --request candidate.json --format yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if requestPath != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(render.Formats, format) {
				return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(render.Formats, ", "))
			}

			q, err := candidateFromInput(requestPath, args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.cfg.Timeout)
			defer cancel()

			prediction := opts.predict(ctx, q)
			return render.Prediction(cmd.OutOrStdout(), prediction, format)
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "", "Read the whole request as JSON from a file (- for stdin)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml, or text)")

	return cmd
}

func candidateFromInput(requestPath string, args []string) (models.CandidateQuery, error) {
	if requestPath == "" {
		return request.FromArgs(args[0], args[1], args[2], args[3])
	}

	if requestPath == "-" {
		return request.Decode(os.Stdin)
	}

	file, err := os.Open(requestPath)
	if err != nil {
		return models.CandidateQuery{}, fmt.Errorf("failed to open request file: %w", err)
	}
	defer file.Close()

	return request.Decode(file)
}

// predict runs one forecast. A corpus that cannot be opened is reported as an
// access failure of the prediction, not as a command error.
func (o *options) predict(ctx context.Context, q models.CandidateQuery) predict.Prediction {
	store, closeStore, err := o.openCorpus(ctx)
	defer closeStore()

	var acc corpus.Accessor = store
	if err != nil {
		acc = corpus.Unavailable(err)
	}

	return predict.NewEngine(acc).Predict(ctx, q)
}
