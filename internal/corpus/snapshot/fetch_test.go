package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		expected bool
	}{
		{"https://example.org/corpus.parquet", true},
		{"http://localhost:9000/corpus.jsonl", true},
		{"./corpus.parquet", false},
		{"/data/corpus.jsonl", false},
		{"s3://bucket/corpus.parquet", false},
	}

	for _, tt := range tests {
		if got := IsRemote(tt.location); got != tt.expected {
			t.Errorf("IsRemote(%q) = %v, expected %v", tt.location, got, tt.expected)
		}
	}
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	src := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := Write(src, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	payload, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetchConfig{CacheDir: t.TempDir(), Token: "secret"})
	url := server.URL + "/exports/corpus.jsonl"

	local, err := fetcher.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.HasSuffix(local, "corpus.jsonl") {
		t.Errorf("Expected cached file to keep its extension, got %s", local)
	}

	records, err := NewLoader(local).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != len(sampleRecords()) {
		t.Errorf("Expected %d records, got %d", len(sampleRecords()), len(records))
	}

	if _, err := fetcher.Fetch(context.Background(), url); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected cached second fetch, got %d requests", hits.Load())
	}
}

func TestFetchForceDownload(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("{}\n"))
	}))
	defer server.Close()

	fetcher := NewFetcher(FetchConfig{CacheDir: t.TempDir(), ForceDownload: true})
	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(context.Background(), server.URL+"/corpus.jsonl"); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 downloads, got %d", hits.Load())
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	fetcher := NewFetcher(FetchConfig{CacheDir: cacheDir})

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/missing.parquet"); err == nil {
		t.Fatal("Expected error for 404")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty cache after failed download, got %d entries", len(entries))
	}
}

func TestClearCache(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "x.parquet"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewFetcher(FetchConfig{CacheDir: cacheDir}).ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("Expected cache directory to be removed, got %v", err)
	}
}
