package predict

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/moviefestival/forecaster/internal/corpus"
	"github.com/moviefestival/forecaster/internal/models"
)

// Status classifies the outcome of a prediction
type Status int

const (
	// StatusScored means at least one component carried signal
	StatusScored Status = iota
	// StatusNoSignal means the corpus holds nothing comparable to the candidate
	StatusNoSignal
	// StatusAccessFailure means the corpus could not be read
	StatusAccessFailure
)

func (s Status) String() string {
	switch s {
	case StatusScored:
		return "scored"
	case StatusNoSignal:
		return "no_signal"
	case StatusAccessFailure:
		return "access_failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status name in JSON and YAML output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Breakdown exposes the intermediate values behind a prediction
type Breakdown struct {
	Genre      Component          `json:"genre" yaml:"genre"`
	Principal  Component          `json:"principal" yaml:"principal"`
	Genres     []GenreAverage     `json:"genres,omitempty" yaml:"genres,omitempty"`
	Principals []PrincipalAverage `json:"principals,omitempty" yaml:"principals,omitempty"`
	Movies     int                `json:"corpus_movies" yaml:"corpus_movies"`
}

// Prediction is the outcome of one forecast
type Prediction struct {
	Title     string     `json:"title" yaml:"title"`
	Rating    float64    `json:"predicted_rating" yaml:"predicted_rating"`
	Status    Status     `json:"status" yaml:"status"`
	Err       error      `json:"-" yaml:"-"`
	Breakdown *Breakdown `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
}

// Result renders the prediction as a plain title/rating pair. No-signal and
// access failures both yield a rating of 0.
func (p Prediction) Result() models.PredictionResult {
	if p.Status != StatusScored {
		return models.PredictionResult{Title: p.Title}
	}
	return models.PredictionResult{Title: p.Title, PredictedRating: p.Rating}
}

// Engine forecasts ratings against a read-only corpus
type Engine struct {
	corpus corpus.Accessor
}

// NewEngine creates an engine reading from acc
func NewEngine(acc corpus.Accessor) *Engine {
	return &Engine{corpus: acc}
}

// Predict forecasts the rating of q. Corpus read errors are reported through
// StatusAccessFailure rather than returned.
func (e *Engine) Predict(ctx context.Context, q models.CandidateQuery) Prediction {
	prediction := Prediction{Title: q.Title}

	if len(q.Genres) == 0 && len(q.Principals) == 0 {
		prediction.Status = StatusNoSignal
		return prediction
	}

	breakdown, err := e.score(ctx, q)
	if err != nil {
		slog.Error("Unable to read movie corpus", "title", q.Title, "err", err)
		prediction.Status = StatusAccessFailure
		prediction.Err = err
		return prediction
	}
	prediction.Breakdown = breakdown

	rating, ok := Combine(breakdown.Genre, breakdown.Principal)
	if !ok {
		prediction.Status = StatusNoSignal
		return prediction
	}

	prediction.Status = StatusScored
	prediction.Rating = rating
	slog.Debug("Prediction complete",
		"title", q.Title,
		"rating", rating,
		"genre_weight", breakdown.Genre.Weight,
		"principal_weight", breakdown.Principal.Weight)

	return prediction
}

func (e *Engine) score(ctx context.Context, q models.CandidateQuery) (*Breakdown, error) {
	years, err := e.corpus.ListMovieYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list release years: %w", err)
	}
	weights := NewTemporalWeights(q.ReleaseYear, years)
	breakdown := &Breakdown{Movies: len(years)}

	if len(q.Genres) > 0 {
		rows, err := e.corpus.QueryMoviesByGenres(ctx, uniqueStrings(q.Genres))
		if err != nil {
			return nil, fmt.Errorf("failed to query movies by genre: %w", err)
		}
		breakdown.Genre, breakdown.Genres = GenreComponent(q.Genres, rows, weights)
	}

	if len(q.Principals) > 0 {
		names := make([]string, 0, len(q.Principals))
		for _, p := range q.Principals {
			names = append(names, p.Name)
		}
		rows, err := e.corpus.QueryMoviesByPrincipalNames(ctx, uniqueStrings(names))
		if err != nil {
			return nil, fmt.Errorf("failed to query movies by principal: %w", err)
		}
		breakdown.Principal, breakdown.Principals = PrincipalComponent(q.Principals, rows, weights)
	}

	return breakdown, nil
}
