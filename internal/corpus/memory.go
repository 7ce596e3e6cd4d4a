package corpus

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/moviefestival/forecaster/internal/models"
)

// MemoryStore holds a corpus snapshot in memory
type MemoryStore struct {
	records map[int64]models.MovieRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates a store seeded with records
func NewMemoryStore(records ...models.MovieRecord) *MemoryStore {
	s := &MemoryStore{
		records: make(map[int64]models.MovieRecord, len(records)),
	}
	for _, r := range records {
		s.Set(r)
	}
	return s
}

// Set adds or replaces a movie record
func (s *MemoryStore) Set(record models.MovieRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.MovieID] = record
}

// Len returns the number of movies held
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// sorted returns the records ordered by movie ID; callers must hold mu
func (s *MemoryStore) sorted() []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out
}

func (s *MemoryStore) ListMovieYears(ctx context.Context) ([]models.MovieYear, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]models.MovieYear, 0, len(s.records))
	for _, r := range s.sorted() {
		years = append(years, models.MovieYear{MovieID: r.MovieID, ReleaseYear: r.ReleaseYear})
	}
	return years, nil
}

func (s *MemoryStore) QueryMoviesByGenres(ctx context.Context, genres []string) ([]models.GenreRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.GenreRating
	for _, r := range s.sorted() {
		for _, g := range uniqueTags(r.Genres) {
			if slices.Contains(genres, g) {
				rows = append(rows, models.GenreRating{MovieID: r.MovieID, AvgRating: r.AvgRating, Genre: g})
			}
		}
	}
	return rows, nil
}

func (s *MemoryStore) QueryMoviesByPrincipalNames(ctx context.Context, names []string) ([]models.PrincipalRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.PrincipalRating
	for _, r := range s.sorted() {
		for _, p := range uniqueCredits(r.Principals) {
			if slices.Contains(names, p.Name) {
				rows = append(rows, models.PrincipalRating{
					MovieID:   r.MovieID,
					AvgRating: r.AvgRating,
					Name:      p.Name,
					Role:      p.Role,
				})
			}
		}
	}
	return rows, nil
}

// ListMovieRecords returns every record ordered by movie ID
func (s *MemoryStore) ListMovieRecords(ctx context.Context) ([]models.MovieRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

// uniqueTags mirrors the unique (movie, genre) association of the SQL schema
func uniqueTags(genres []string) []string {
	seen := make(map[string]bool, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// uniqueCredits mirrors the (movie, name, role) key of the principals table:
// repeated credits collapse and unnamed credits are dropped
func uniqueCredits(credits []models.PrincipalCredit) []models.PrincipalCredit {
	type key struct{ name, role string }
	seen := make(map[key]bool, len(credits))
	out := make([]models.PrincipalCredit, 0, len(credits))
	for _, c := range credits {
		k := key{c.Name, c.Role}
		if c.Name == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
