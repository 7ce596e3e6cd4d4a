package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag or FORECASTER_CONFIG is given
const DefaultPath = "forecaster.yaml"

// Config holds all application configuration
type Config struct {
	Database   Database      `yaml:"database"`
	CorpusFile string        `yaml:"corpus_file"`
	Snapshot   Snapshot      `yaml:"snapshot"`
	Server     Server        `yaml:"server"`
	Timeout    time.Duration `yaml:"timeout"`
	Log        Log           `yaml:"log"`
}

// Database locates the SQL corpus
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Snapshot configures downloads of remote corpus snapshots
type Snapshot struct {
	CacheDir string `yaml:"cache_dir"`
	Token    string `yaml:"token"`
}

// Server configures the HTTP surface
type Server struct {
	Addr      string `yaml:"addr"`
	RateLimit int    `yaml:"rate_limit"`
}

// Log configures the slog handler
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns a Config with all default values set
func Defaults() Config {
	return Config{
		Database: Database{
			Driver: "sqlite",
			DSN:    "./moviefestival.db",
		},
		Server: Server{
			Addr:      ":8888",
			RateLimit: 120,
		},
		Timeout: 30 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. FORECASTER_CONFIG names the file only when path is empty. A
// missing file is only an error when it was named explicitly.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("FORECASTER_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FORECASTER_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("FORECASTER_DB"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("FORECASTER_CORPUS_FILE"); v != "" {
		c.CorpusFile = v
	}
	if v := os.Getenv("FORECASTER_SNAPSHOT_TOKEN"); v != "" {
		c.Snapshot.Token = v
	}
	if v := os.Getenv("FORECASTER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FORECASTER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that values are usable
func (c *Config) Validate() error {
	if c.CorpusFile == "" {
		if c.Database.Driver == "" {
			return fmt.Errorf("database.driver is required")
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %d", c.Server.RateLimit)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
