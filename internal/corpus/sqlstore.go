package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moviefestival/forecaster/internal/models"
	_ "modernc.org/sqlite"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS movies (
	movieId INTEGER PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	releaseYear INTEGER NOT NULL,
	avgRating REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS genres (
	genreId INTEGER PRIMARY KEY AUTOINCREMENT,
	genreString TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS movie_genres (
	movieId INTEGER NOT NULL,
	genreId INTEGER NOT NULL,
	PRIMARY KEY (movieId, genreId)
);

CREATE TABLE IF NOT EXISTS names (
	nameId INTEGER PRIMARY KEY AUTOINCREMENT,
	nameString TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS principals (
	movieId INTEGER NOT NULL,
	nameId INTEGER NOT NULL,
	roleString TEXT NOT NULL,
	characterString TEXT,
	PRIMARY KEY (movieId, nameId, roleString)
);
`

// SQLStore reads the corpus from a relational database
type SQLStore struct {
	db *sql.DB
}

// Open connects to the database and creates the corpus tables if missing
func Open(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("corpus: open database: %w", err)
	}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("corpus: set WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("corpus: create tables: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close closes the underlying database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ListMovieYears(ctx context.Context) ([]models.MovieYear, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT movieId, releaseYear FROM movies ORDER BY movieId`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list release years: %w", err)
	}
	defer rows.Close()

	var years []models.MovieYear
	for rows.Next() {
		var y models.MovieYear
		if err := rows.Scan(&y.MovieID, &y.ReleaseYear); err != nil {
			return nil, fmt.Errorf("corpus: scan release year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate release years: %w", err)
	}
	return years, nil
}

func (s *SQLStore) QueryMoviesByGenres(ctx context.Context, genres []string) ([]models.GenreRating, error) {
	if len(genres) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT m.movieId, m.avgRating, g.genreString
		FROM (SELECT genreId, genreString FROM genres WHERE genreString IN (%s)) AS g
		JOIN movie_genres mg USING (genreId)
		JOIN movies m USING (movieId)
		ORDER BY m.movieId, g.genreString`, placeholders(len(genres)))

	rows, err := s.db.QueryContext(ctx, query, stringArgs(genres)...)
	if err != nil {
		return nil, fmt.Errorf("corpus: query movies by genre: %w", err)
	}
	defer rows.Close()

	var out []models.GenreRating
	for rows.Next() {
		var r models.GenreRating
		if err := rows.Scan(&r.MovieID, &r.AvgRating, &r.Genre); err != nil {
			return nil, fmt.Errorf("corpus: scan genre row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate genre rows: %w", err)
	}
	return out, nil
}

func (s *SQLStore) QueryMoviesByPrincipalNames(ctx context.Context, names []string) ([]models.PrincipalRating, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT m.movieId, m.avgRating, n.nameString, p.roleString
		FROM (SELECT nameId, nameString FROM names WHERE nameString IN (%s)) AS n
		JOIN principals p USING (nameId)
		JOIN movies m USING (movieId)
		ORDER BY m.movieId, n.nameString, p.roleString`, placeholders(len(names)))

	rows, err := s.db.QueryContext(ctx, query, stringArgs(names)...)
	if err != nil {
		return nil, fmt.Errorf("corpus: query movies by principal: %w", err)
	}
	defer rows.Close()

	var out []models.PrincipalRating
	for rows.Next() {
		var r models.PrincipalRating
		if err := rows.Scan(&r.MovieID, &r.AvgRating, &r.Name, &r.Role); err != nil {
			return nil, fmt.Errorf("corpus: scan principal row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate principal rows: %w", err)
	}
	return out, nil
}

// ListMovieRecords assembles every movie with its genres and credits
func (s *SQLStore) ListMovieRecords(ctx context.Context) ([]models.MovieRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT movieId, title, releaseYear, avgRating FROM movies ORDER BY movieId`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list movies: %w", err)
	}
	defer rows.Close()

	var records []models.MovieRecord
	index := make(map[int64]int)
	for rows.Next() {
		var r models.MovieRecord
		if err := rows.Scan(&r.MovieID, &r.Title, &r.ReleaseYear, &r.AvgRating); err != nil {
			return nil, fmt.Errorf("corpus: scan movie: %w", err)
		}
		index[r.MovieID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate movies: %w", err)
	}

	genreRows, err := s.db.QueryContext(ctx, `
		SELECT mg.movieId, g.genreString
		FROM movie_genres mg JOIN genres g USING (genreId)
		ORDER BY mg.movieId, g.genreString`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list movie genres: %w", err)
	}
	defer genreRows.Close()

	for genreRows.Next() {
		var movieID int64
		var genre string
		if err := genreRows.Scan(&movieID, &genre); err != nil {
			return nil, fmt.Errorf("corpus: scan movie genre: %w", err)
		}
		if i, ok := index[movieID]; ok {
			records[i].Genres = append(records[i].Genres, genre)
		}
	}
	if err := genreRows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate movie genres: %w", err)
	}

	creditRows, err := s.db.QueryContext(ctx, `
		SELECT p.movieId, n.nameString, p.roleString, COALESCE(p.characterString, '')
		FROM principals p JOIN names n USING (nameId)
		ORDER BY p.movieId, n.nameString, p.roleString`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list principals: %w", err)
	}
	defer creditRows.Close()

	for creditRows.Next() {
		var c models.PrincipalCredit
		if err := creditRows.Scan(&c.MovieID, &c.Name, &c.Role, &c.Character); err != nil {
			return nil, fmt.Errorf("corpus: scan principal: %w", err)
		}
		if i, ok := index[c.MovieID]; ok {
			records[i].Principals = append(records[i].Principals, c)
		}
	}
	if err := creditRows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: iterate principals: %w", err)
	}

	return records, nil
}

// ImportRecords inserts or replaces the given movies with their genres and
// credits in a single transaction
func (s *SQLStore) ImportRecords(ctx context.Context, records []models.MovieRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("corpus: begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range records {
		if err := importRecord(ctx, tx, &records[i]); err != nil {
			return err
		}
		if (i+1)%1000 == 0 {
			slog.Debug("Importing movies", "imported", i+1, "total", len(records))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("corpus: commit import: %w", err)
	}
	return nil
}

func importRecord(ctx context.Context, tx *sql.Tx, r *models.MovieRecord) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movieId = ?`, r.MovieID); err != nil {
		return fmt.Errorf("corpus: clear genres of movie %d: %w", r.MovieID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM principals WHERE movieId = ?`, r.MovieID); err != nil {
		return fmt.Errorf("corpus: clear principals of movie %d: %w", r.MovieID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO movies (movieId, title, releaseYear, avgRating) VALUES (?, ?, ?, ?)`,
		r.MovieID, r.Title, r.ReleaseYear, r.AvgRating,
	); err != nil {
		return fmt.Errorf("corpus: save movie %d: %w", r.MovieID, err)
	}

	for _, genre := range uniqueTags(r.Genres) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO genres (genreString) VALUES (?)`, genre); err != nil {
			return fmt.Errorf("corpus: save genre %q: %w", genre, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO movie_genres (movieId, genreId)
			SELECT ?, genreId FROM genres WHERE genreString = ?`, r.MovieID, genre); err != nil {
			return fmt.Errorf("corpus: tag movie %d with %q: %w", r.MovieID, genre, err)
		}
	}

	for _, c := range r.Principals {
		if c.Name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO names (nameString) VALUES (?)`, c.Name); err != nil {
			return fmt.Errorf("corpus: save name %q: %w", c.Name, err)
		}
		var character any
		if c.Character != "" {
			character = c.Character
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO principals (movieId, nameId, roleString, characterString)
			SELECT ?, nameId, ?, ? FROM names WHERE nameString = ?`,
			r.MovieID, c.Role, character, c.Name); err != nil {
			return fmt.Errorf("corpus: credit %q on movie %d: %w", c.Name, r.MovieID, err)
		}
	}

	return nil
}

// Stats summarises the size of the corpus
type Stats struct {
	Movies     int `json:"movies" yaml:"movies"`
	Genres     int `json:"genres" yaml:"genres"`
	Names      int `json:"names" yaml:"names"`
	Principals int `json:"principals" yaml:"principals"`
}

// Stats counts the rows of each corpus table
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM movies),
			(SELECT COUNT(*) FROM genres),
			(SELECT COUNT(*) FROM names),
			(SELECT COUNT(*) FROM principals)`,
	).Scan(&st.Movies, &st.Genres, &st.Names, &st.Principals)
	if err != nil {
		return Stats{}, fmt.Errorf("corpus: count rows: %w", err)
	}
	return st, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
