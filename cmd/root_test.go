package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/moviefestival/forecaster/internal/corpus/snapshot"
	"github.com/moviefestival/forecaster/internal/models"
)

// runCLI executes the root command in an isolated working directory
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"FORECASTER_CONFIG",
		"FORECASTER_DB",
		"FORECASTER_DB_DRIVER",
		"FORECASTER_CORPUS_FILE",
		"FORECASTER_ADDR",
		"FORECASTER_LOG_LEVEL",
		"FORECASTER_SNAPSHOT_TOKEN",
	} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	err := snapshot.Write(path, []models.MovieRecord{
		{
			MovieID: 1, Title: "Harbor Lights", ReleaseYear: 2020, AvgRating: 3.5,
			Genres: []string{"Drama"},
			Principals: []models.PrincipalCredit{
				{MovieID: 1, Name: "Ada Quill", Role: "director"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetRatingFromSnapshot(t *testing.T) {
	corpusFile := writeSnapshot(t)

	stdout, _, err := runCLI(t, "get-rating", "--corpus-file", corpusFile,
		"Tide", `["Drama"]`, `[["Nobody","director"]]`, "2020")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := strings.TrimSpace(stdout); got != `["Tide",3.5]` {
		t.Errorf(`Expected ["Tide",3.5], got %s`, got)
	}
}

func TestGetRatingFromDatabase(t *testing.T) {
	corpusFile := writeSnapshot(t)
	dbPath := filepath.Join(t.TempDir(), "corpus.db")

	if _, _, err := runCLI(t, "corpus", "import", "--db", dbPath, "--file", corpusFile); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	stdout, _, err := runCLI(t, "get-rating", "--db", dbPath, "Tide", `["Drama"]`, `[]`, "2020")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `["Tide",3.5]` {
		t.Errorf(`Expected ["Tide",3.5], got %s`, got)
	}
}

func TestGetRatingUnreachableCorpus(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "missing database directory",
			args: []string{"--db", filepath.Join(t.TempDir(), "missing", "dir", "corpus.db")},
		},
		{
			name: "missing snapshot",
			args: []string{"--corpus-file", filepath.Join(t.TempDir(), "missing.parquet")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"get-rating"}, tt.args...)
			args = append(args, "T", `["Drama"]`, `[]`, "2020")

			stdout, stderr, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("Expected success exit, got %v", err)
			}
			if got := strings.TrimSpace(stdout); got != `["T",0]` {
				t.Errorf(`Expected ["T",0], got %s`, got)
			}
			if !strings.Contains(stderr, "Unable to read movie corpus") {
				t.Errorf("Expected corpus failure to be logged, got %s", stderr)
			}
		})
	}
}

func TestGetRatingStatusFormats(t *testing.T) {
	corpusFile := writeSnapshot(t)

	stdout, _, err := runCLI(t, "get-rating", "--corpus-file", corpusFile, "--format", "yaml",
		"Unknown", `["Western"]`, `[]`, "2020")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "status: no_signal") {
		t.Errorf("Expected no_signal status in:\n%s", stdout)
	}

	_, _, err = runCLI(t, "get-rating", "--format", "xml", "T", `[]`, `[]`, "2020")
	if err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestGetRatingFromRequestFile(t *testing.T) {
	corpusFile := writeSnapshot(t)
	requestFile := filepath.Join(t.TempDir(), "candidate.json")
	body := `{"title":"Tide","genres":["Drama"],"principals":[],"releaseYear":2020}`
	if err := os.WriteFile(requestFile, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, "get-rating", "--corpus-file", corpusFile, "--request", requestFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `["Tide",3.5]` {
		t.Errorf(`Expected ["Tide",3.5], got %s`, got)
	}
}

func TestGetRatingArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "too few arguments", args: []string{"get-rating", "T", `["Drama"]`}},
		{name: "too many arguments", args: []string{"get-rating", "T", `[]`, `[]`, "2020", "extra"}},
		{name: "bad genres", args: []string{"get-rating", "T", `Drama`, `[]`, "2020"}},
		{name: "bad year", args: []string{"get-rating", "T", `[]`, `[]`, "soon"}},
		{name: "empty title", args: []string{"get-rating", "", `["Drama"]`, `[]`, "2020"}},
		{name: "unnamed principal", args: []string{"get-rating", "T", `["Drama"]`, `[["","actor"]]`, "2020"}},
		{name: "unknown command", args: []string{"get-ratings"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestCorpusExportAndStats(t *testing.T) {
	corpusFile := writeSnapshot(t)
	dbPath := filepath.Join(t.TempDir(), "corpus.db")
	exportPath := filepath.Join(t.TempDir(), "export.parquet")

	if _, _, err := runCLI(t, "corpus", "import", "--db", dbPath, "--file", corpusFile); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	stdout, _, err := runCLI(t, "corpus", "stats", "--db", dbPath)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if !strings.Contains(stdout, "Movies:     1") {
		t.Errorf("Unexpected stats output:\n%s", stdout)
	}

	if _, _, err := runCLI(t, "corpus", "export", "--db", dbPath, "--file", exportPath); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	records, err := snapshot.NewLoader(exportPath).Load()
	if err != nil {
		t.Fatalf("Load export failed: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Harbor Lights" {
		t.Errorf("Unexpected exported records: %+v", records)
	}
}

func TestEvalCommand(t *testing.T) {
	corpusFile := writeSnapshot(t)
	jsonPath := filepath.Join(t.TempDir(), "eval.json")

	stdout, _, err := runCLI(t, "eval", "--corpus-file", corpusFile, "--sample", "-1", "--output-json", jsonPath)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if !strings.Contains(stdout, "FORECAST BACKTEST SUMMARY") {
		t.Errorf("Expected summary in:\n%s", stdout)
	}
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("Expected JSON report: %v", err)
	}
}

func TestGetRatingFromRemoteSnapshot(t *testing.T) {
	payload, err := os.ReadFile(writeSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "forecaster.yaml")
	cacheDir := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(configPath, []byte("snapshot:\n  cache_dir: "+cacheDir+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, "get-rating", "--config", configPath, "--corpus-file", server.URL+"/corpus.jsonl",
		"Tide", `["Drama"]`, `[]`, "2020")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `["Tide",3.5]` {
		t.Errorf(`Expected ["Tide",3.5], got %s`, got)
	}

	if _, _, err := runCLI(t, "corpus", "clear-cache", "--config", configPath); err != nil {
		t.Fatalf("clear-cache failed: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("Expected cache to be removed, got %v", err)
	}
}

func TestRemoteSnapshotForceDownload(t *testing.T) {
	payload, err := os.ReadFile(writeSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "forecaster.yaml")
	cacheDir := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(configPath, []byte("snapshot:\n  cache_dir: "+cacheDir+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	url := server.URL + "/corpus.jsonl"
	dbPath := filepath.Join(t.TempDir(), "corpus.db")

	runs := []struct {
		name string
		args []string
		hits int32
	}{
		{
			name: "first run downloads",
			args: []string{"get-rating", "--config", configPath, "--corpus-file", url, "Tide", `["Drama"]`, `[]`, "2020"},
			hits: 1,
		},
		{
			name: "second run uses the cache",
			args: []string{"get-rating", "--config", configPath, "--corpus-file", url, "Tide", `["Drama"]`, `[]`, "2020"},
			hits: 1,
		},
		{
			name: "forced run downloads again",
			args: []string{"get-rating", "--config", configPath, "--corpus-file", url, "--force-download", "Tide", `["Drama"]`, `[]`, "2020"},
			hits: 2,
		},
		{
			name: "forced import downloads again",
			args: []string{"corpus", "import", "--config", configPath, "--db", dbPath, "--file", url, "--force-download"},
			hits: 3,
		},
	}

	for _, run := range runs {
		if _, _, err := runCLI(t, run.args...); err != nil {
			t.Fatalf("%s: unexpected error: %v", run.name, err)
		}
		if got := hits.Load(); got != run.hits {
			t.Errorf("%s: expected %d downloads, got %d", run.name, run.hits, got)
		}
	}
}
