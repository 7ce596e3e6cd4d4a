package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forecaster.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
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
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if cfg.Server.Addr != ":8888" {
		t.Errorf("Expected :8888, got %s", cfg.Server.Addr)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  dsn: /var/lib/forecaster/corpus.db
server:
  rate_limit: 10
timeout: 5s
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.DSN != "/var/lib/forecaster/corpus.db" {
		t.Errorf("Unexpected dsn %s", cfg.Database.DSN)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Expected default driver to survive, got %s", cfg.Database.Driver)
	}
	if cfg.Server.RateLimit != 10 {
		t.Errorf("Expected rate limit 10, got %d", cfg.Server.RateLimit)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.Timeout)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected json log format, got %s", cfg.Log.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	t.Run("explicit path fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("Expected error for missing explicit config")
		}
	})

	t.Run("default path falls back to defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Database.DSN != Defaults().Database.DSN {
			t.Errorf("Expected default dsn, got %s", cfg.Database.DSN)
		}
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  dsn: from-file.db\n")

	t.Setenv("FORECASTER_DB", "from-env.db")
	t.Setenv("FORECASTER_ADDR", ":9999")
	t.Setenv("FORECASTER_LOG_LEVEL", "warn")
	t.Setenv("FORECASTER_CORPUS_FILE", "corpus.parquet")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.DSN != "from-env.db" {
		t.Errorf("Expected env dsn, got %s", cfg.Database.DSN)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Expected env addr, got %s", cfg.Server.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env log level, got %s", cfg.Log.Level)
	}
	if cfg.CorpusFile != "corpus.parquet" {
		t.Errorf("Expected env corpus file, got %s", cfg.CorpusFile)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  addr: \":7000\"\n")
	t.Setenv("FORECASTER_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Expected :7000, got %s", cfg.Server.Addr)
	}
}

func TestLoadExplicitPathBeatsEnvPath(t *testing.T) {
	clearEnv(t)
	explicit := writeConfig(t, "server:\n  addr: \":7001\"\n")
	t.Setenv("FORECASTER_CONFIG", writeConfig(t, "server:\n  addr: \":7002\"\n"))

	cfg, err := Load(explicit)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7001" {
		t.Errorf("Expected explicit config :7001, got %s", cfg.Server.Addr)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database: [not, a, map\n")

	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "missing dsn",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: "database.dsn",
		},
		{
			name: "snapshot replaces database",
			mutate: func(c *Config) {
				c.Database = Database{}
				c.CorpusFile = "corpus.jsonl"
			},
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: "timeout",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Server.RateLimit = -1 },
			wantErr: "rate_limit",
		},
		{
			name:   "warning level alias",
			mutate: func(c *Config) { c.Log.Level = "warning" },
		},
		{
			name:    "unknown level",
			mutate:  func(c *Config) { c.Log.Level = "chatty" },
			wantErr: "log.level",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
