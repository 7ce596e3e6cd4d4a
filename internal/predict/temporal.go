package predict

import (
	"math"

	"github.com/moviefestival/forecaster/internal/models"
)

const (
	// releaseYearWeight scales the year distance before inversion
	releaseYearWeight = 1.0 / 5.0
	// releaseYearOffset keeps the denominator positive for same-year movies
	releaseYearOffset = 0.2
	// releaseYearFloor is the weight approached by very distant movies
	releaseYearFloor = 1.0
)

// TemporalWeight returns the closeness weight of a movie released in year
// relative to a candidate released in candidateYear. It peaks at 6.0 for the
// same year and decays towards, but never reaches, 1.0.
func TemporalWeight(candidateYear, year int) float64 {
	delta := math.Abs(float64(candidateYear - year))
	return 1.0/(delta*releaseYearWeight+releaseYearOffset) + releaseYearFloor
}

// TemporalWeights maps movie IDs to their temporal weight
type TemporalWeights map[int64]float64

// NewTemporalWeights computes the weight of every listed movie once so both
// aggregators can share the lookup.
func NewTemporalWeights(candidateYear int, years []models.MovieYear) TemporalWeights {
	weights := make(TemporalWeights, len(years))
	for _, y := range years {
		weights[y.MovieID] = TemporalWeight(candidateYear, y.ReleaseYear)
	}
	return weights
}
