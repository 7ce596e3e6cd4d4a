// Package backtest measures forecast accuracy by predicting every scored
// corpus movie from its own metadata with that movie hidden from the corpus.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moviefestival/forecaster/internal/corpus"
	"github.com/moviefestival/forecaster/internal/models"
	"github.com/moviefestival/forecaster/internal/predict"
)

// Result is the leave-one-out outcome for a single movie
type Result struct {
	MovieID   int64         `json:"movie_id" yaml:"movie_id"`
	Title     string        `json:"title" yaml:"title"`
	Actual    float64       `json:"actual" yaml:"actual"`
	Predicted float64       `json:"predicted" yaml:"predicted"`
	Status    string        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// AbsError returns |predicted - actual| for scored results
func (r Result) AbsError() float64 {
	d := r.Predicted - r.Actual
	if d < 0 {
		return -d
	}
	return d
}

// Run predicts up to sample records (all when sample < 0) read from store
func Run(ctx context.Context, store corpus.Store, sample int) ([]Result, error) {
	records, err := store.ListMovieRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus movies: %w", err)
	}
	if sample >= 0 && sample < len(records) {
		records = records[:sample]
	}

	slog.Info("Starting backtest", "movies", len(records))

	results := make([]Result, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, evaluate(ctx, store, record))

		if (i+1)%100 == 0 {
			slog.Info("Backtest progress", "processed", i+1, "total", len(records))
		}
	}

	return results, nil
}

func evaluate(ctx context.Context, store corpus.Accessor, record models.MovieRecord) Result {
	start := time.Now()

	engine := predict.NewEngine(corpus.Exclude(store, record.MovieID))
	prediction := engine.Predict(ctx, record.Candidate())

	result := Result{
		MovieID:   record.MovieID,
		Title:     record.Title,
		Actual:    record.AvgRating,
		Predicted: prediction.Result().PredictedRating,
		Status:    prediction.Status.String(),
		Duration:  time.Since(start),
	}
	if prediction.Err != nil {
		result.Error = prediction.Err.Error()
	}

	slog.Debug("Backtested movie",
		"movie_id", record.MovieID,
		"actual", result.Actual,
		"predicted", result.Predicted,
		"status", result.Status)

	return result
}
