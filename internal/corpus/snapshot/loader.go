// Package snapshot reads and writes denormalised corpus snapshots in
// Parquet and JSONL form.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/models"
	"github.com/parquet-go/parquet-go"
)

// Loader handles loading of corpus snapshot files
type Loader struct {
	path string
}

// NewLoader creates a new snapshot loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load loads every record from a snapshot file (JSONL or Parquet)
func (l *Loader) Load() ([]models.MovieRecord, error) {
	return l.LoadSample(-1)
}

// LoadSample loads at most limit records; a negative limit loads everything
func (l *Loader) LoadSample(limit int) ([]models.MovieRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// loadJSONL loads records from a JSONL file
func (l *Loader) loadJSONL(limit int) ([]models.MovieRecord, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	var records []models.MovieRecord
	scanner := bufio.NewScanner(file)

	// Credits lists can make single lines long
	const maxCapacity = 4 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit >= 0 && len(records) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record models.MovieRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, record)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet(limit int) ([]models.MovieRecord, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[models.MovieRecord](pf)
	defer reader.Close()

	var records []models.MovieRecord
	rows := make([]models.MovieRecord, 128)

	for limit < 0 || len(records) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 && n > limit-len(records) {
				n = limit - len(records)
			}
			records = append(records, rows[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records))

	return records, nil
}
