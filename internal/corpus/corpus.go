// Package corpus provides read access to the historical movie corpus used
// to forecast ratings.
package corpus

import (
	"context"
	"slices"

	"github.com/moviefestival/forecaster/internal/models"
)

// Accessor is the read-only view of the corpus consumed by the predictor.
// Rows are returned ordered by movie ID.
type Accessor interface {
	// ListMovieYears returns the release year of every movie
	ListMovieYears(ctx context.Context) ([]models.MovieYear, error)
	// QueryMoviesByGenres returns one row per (movie, matching genre) pair
	QueryMoviesByGenres(ctx context.Context, genres []string) ([]models.GenreRating, error)
	// QueryMoviesByPrincipalNames returns one row per (movie, matching credited name) pair
	QueryMoviesByPrincipalNames(ctx context.Context, names []string) ([]models.PrincipalRating, error)
}

// Catalog lists complete movie records, used by the backtest and export
type Catalog interface {
	ListMovieRecords(ctx context.Context) ([]models.MovieRecord, error)
}

// Store is an Accessor that can also enumerate its records
type Store interface {
	Accessor
	Catalog
}

// Exclude hides a single movie from acc
func Exclude(acc Accessor, movieID int64) Accessor {
	return &excluding{inner: acc, movieID: movieID}
}

type excluding struct {
	inner   Accessor
	movieID int64
}

func (e *excluding) ListMovieYears(ctx context.Context) ([]models.MovieYear, error) {
	rows, err := e.inner.ListMovieYears(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(slices.Clone(rows), func(r models.MovieYear) bool {
		return r.MovieID == e.movieID
	}), nil
}

func (e *excluding) QueryMoviesByGenres(ctx context.Context, genres []string) ([]models.GenreRating, error) {
	rows, err := e.inner.QueryMoviesByGenres(ctx, genres)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(slices.Clone(rows), func(r models.GenreRating) bool {
		return r.MovieID == e.movieID
	}), nil
}

func (e *excluding) QueryMoviesByPrincipalNames(ctx context.Context, names []string) ([]models.PrincipalRating, error) {
	rows, err := e.inner.QueryMoviesByPrincipalNames(ctx, names)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(slices.Clone(rows), func(r models.PrincipalRating) bool {
		return r.MovieID == e.movieID
	}), nil
}

// Unavailable returns an Accessor whose reads all fail with err, standing in
// for a corpus that could not be opened
func Unavailable(err error) Accessor {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) ListMovieYears(context.Context) ([]models.MovieYear, error) {
	return nil, u.err
}

func (u unavailable) QueryMoviesByGenres(context.Context, []string) ([]models.GenreRating, error) {
	return nil, u.err
}

func (u unavailable) QueryMoviesByPrincipalNames(context.Context, []string) ([]models.PrincipalRating, error) {
	return nil, u.err
}
