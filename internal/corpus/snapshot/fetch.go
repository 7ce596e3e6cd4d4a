package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultCacheDir holds downloaded snapshots
const DefaultCacheDir = "~/.cache/forecaster/snapshots"

// FetchConfig configures snapshot downloads
type FetchConfig struct {
	CacheDir      string
	ForceDownload bool
	Token         string // bearer token for private buckets
	Client        *http.Client
}

// Fetcher downloads remote corpus snapshots into a local cache
type Fetcher struct {
	config FetchConfig
}

// IsRemote reports whether location is an http(s) URL
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// NewFetcher creates a new snapshot fetcher
func NewFetcher(config FetchConfig) *Fetcher {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}
	if config.Client == nil {
		config.Client = http.DefaultClient
	}

	return &Fetcher{
		config: config,
	}
}

// CachePath returns where the snapshot at rawURL is cached. The file keeps
// the URL's extension so the loader can pick the format.
func (f *Fetcher) CachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid snapshot URL: %w", err)
	}

	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:8]) + "-" + path.Base(u.Path)
	return filepath.Join(f.config.CacheDir, name), nil
}

// Fetch downloads rawURL unless it is already cached and returns the local path
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	cachedPath, err := f.CachePath(rawURL)
	if err != nil {
		return "", err
	}

	if !f.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached snapshot", "path", cachedPath)
			return cachedPath, nil
		}
	}

	if err := os.MkdirAll(f.config.CacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	slog.Info("Downloading corpus snapshot", "url", rawURL)
	if err := f.download(ctx, rawURL, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download snapshot: %w", err)
	}

	slog.Info("Snapshot downloaded", "path", cachedPath)
	return cachedPath, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if f.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.config.Token)
	}

	resp, err := f.config.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}
	slog.Debug("Snapshot bytes written", "bytes", written, "expected", resp.ContentLength)

	// Move temp file to final location
	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}

// ClearCache removes every cached snapshot
func (f *Fetcher) ClearCache() error {
	slog.Info("Clearing snapshot cache", "path", f.config.CacheDir)
	return os.RemoveAll(f.config.CacheDir)
}
