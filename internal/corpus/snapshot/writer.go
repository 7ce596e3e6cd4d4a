package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/models"
	"github.com/parquet-go/parquet-go"
)

// Write saves records to path, choosing the format from its extension
func Write(path string, records []models.MovieRecord) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		if err := parquet.WriteFile(path, records); err != nil {
			return fmt.Errorf("failed to write parquet: %w", err)
		}
		return nil
	case ".jsonl", ".json":
		return writeJSONL(path, records)
	default:
		return fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func writeJSONL(path string, records []models.MovieRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode movie %d: %w", r.MovieID, err)
		}
	}

	return file.Close()
}
