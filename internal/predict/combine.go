package predict

// Combine merges the genre and principal components into the final rating.
// It reports false when neither component carries signal.
func Combine(genre, principal Component) (float64, bool) {
	weightedRating := genre.Score
	weightSum := genre.Weight

	if principal.Defined() {
		weightedRating += principal.Score
		weightSum += principal.Weight
	}

	if weightSum <= 0 {
		return 0, false
	}
	return weightedRating / weightSum, true
}
