package models

// PrincipalCredit is a person's credited role on a movie
type PrincipalCredit struct {
	MovieID   int64  `json:"movie_id" parquet:"movie_id"`
	Name      string `json:"name" parquet:"name"`
	Role      string `json:"role" parquet:"role"`
	Character string `json:"character,omitempty" parquet:"character,optional"`
}

// Principal is a (name, role) pair declared on a candidate movie
type Principal struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Role string `json:"role" yaml:"role"`
}

// CandidateQuery describes an unscored movie to forecast
type CandidateQuery struct {
	Title       string      `json:"title" yaml:"title" validate:"required"`
	Genres      []string    `json:"genres" yaml:"genres" validate:"required,dive,required"`
	Principals  []Principal `json:"principals" yaml:"principals" validate:"dive"`
	ReleaseYear int         `json:"releaseYear" yaml:"release_year" validate:"gt=0"`
}

// PredictionResult is the externally observable output of a prediction
type PredictionResult struct {
	Title           string  `json:"title" yaml:"title"`
	PredictedRating float64 `json:"predictedRating" yaml:"predicted_rating"`
}

// MovieYear is one row of the release year listing
type MovieYear struct {
	MovieID     int64
	ReleaseYear int
}

// GenreRating is one (movie, matching genre) row
type GenreRating struct {
	MovieID   int64
	AvgRating float64
	Genre     string
}

// PrincipalRating is one (movie, matching credited name) row
type PrincipalRating struct {
	MovieID   int64
	AvgRating float64
	Name      string
	Role      string
}

// MovieRecord is a denormalised corpus snapshot row
type MovieRecord struct {
	MovieID     int64             `json:"movie_id" parquet:"movie_id"`
	Title       string            `json:"title" parquet:"title"`
	ReleaseYear int               `json:"release_year" parquet:"release_year"`
	AvgRating   float64           `json:"avg_rating" parquet:"avg_rating"`
	Genres      []string          `json:"genres" parquet:"genres,list"`
	Principals  []PrincipalCredit `json:"principals" parquet:"principals,list"`
}

// Candidate builds the query a forecaster would have issued for this movie
// before it was scored
func (r *MovieRecord) Candidate() CandidateQuery {
	q := CandidateQuery{
		Title:       r.Title,
		Genres:      append([]string{}, r.Genres...),
		ReleaseYear: r.ReleaseYear,
	}
	for _, p := range r.Principals {
		q.Principals = append(q.Principals, Principal{Name: p.Name, Role: p.Role})
	}
	return q
}
