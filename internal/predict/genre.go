package predict

import (
	"log/slog"

	"github.com/moviefestival/forecaster/internal/models"
)

// Component is a partial contribution to the predicted rating. Score is
// already scaled by its per-entry weights and Weight holds the sum of those
// weights, so Score/Weight is the component's own average.
type Component struct {
	Score  float64 `json:"score" yaml:"score"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Defined reports whether the component carries any signal
func (c Component) Defined() bool {
	return c.Weight > 0
}

// Value returns the normalised component value, 0 when undefined
func (c Component) Value() float64 {
	if !c.Defined() {
		return 0
	}
	return c.Score / c.Weight
}

// GenreAverage holds the temporal-weighted average for one genre
type GenreAverage struct {
	Genre   string  `json:"genre" yaml:"genre"`
	Average float64 `json:"average" yaml:"average"`
	Movies  int     `json:"movies" yaml:"movies"`
}

// GenreComponent blends the temporal-weighted average rating of every
// requested genre with equal weight. Genres without any matching movie are
// left out of both the score and the weight.
func GenreComponent(genres []string, rows []models.GenreRating, weights TemporalWeights) (Component, []GenreAverage) {
	genres = uniqueStrings(genres)
	if len(genres) == 0 {
		return Component{}, nil
	}

	perGenreWeight := 1.0 / float64(len(genres))

	ratingSum := make(map[string]float64, len(genres))
	weightSum := make(map[string]float64, len(genres))
	counts := make(map[string]int, len(genres))

	for _, row := range rows {
		w, ok := weights[row.MovieID]
		if !ok {
			slog.Debug("Skipping genre row without release year", "movie_id", row.MovieID, "genre", row.Genre)
			continue
		}
		ratingSum[row.Genre] += row.AvgRating * w
		weightSum[row.Genre] += w
		counts[row.Genre]++
	}

	var component Component
	var averages []GenreAverage
	for _, genre := range genres {
		if weightSum[genre] <= 0 {
			continue
		}
		avg := ratingSum[genre] / weightSum[genre]
		component.Score += avg * perGenreWeight
		component.Weight += perGenreWeight
		averages = append(averages, GenreAverage{Genre: genre, Average: avg, Movies: counts[genre]})
	}

	return component, averages
}

// uniqueStrings drops duplicates while keeping first-seen order
func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
