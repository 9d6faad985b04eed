// Package common provides shared utilities for pkgjobs: configuration,
// logging, and version/runtime-version reporting.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the pkgjobs scheduler.
type Config struct {
	Environment string          `toml:"environment"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Datastore   DatastoreConfig `toml:"datastore"`
	Logging     LoggingConfig   `toml:"logging"`
	Worker      WorkerConfig    `toml:"worker"`
}

// WorkerConfig configures cmd/pkgjobs-worker's process wiring: which
// services it pulls work for, how many concurrent lock/process/complete
// loops to run per service, and where to load the (out-of-scope, §1/§6)
// package catalog collaborator from.
type WorkerConfig struct {
	Services        []string `toml:"services"`
	Concurrency     int      `toml:"concurrency"`
	CatalogPath     string   `toml:"catalog_path"`
	GCBeforeVersion string   `toml:"gc_before_version"`
}

// SchedulerConfig holds the tunables of the lifecycle state machine
// (spec.md §4.5, §4.9). Durations are stored as strings so they round
// trip through TOML/env cleanly.
type SchedulerConfig struct {
	DefaultLock        string  `toml:"default_lock"`         // lease length granted by LockAvailable (spec default: 1h)
	ShortExtend        string  `toml:"short_extend"`         // spec default: 12h
	LongExtend         string  `toml:"long_extend"`          // spec default: 3 * 24h
	LockCandidateLimit int     `toml:"lock_candidate_limit"` // spec default: 100
	HeadBiasWindow     int     `toml:"head_bias_window"`     // spec default: 20 (the "r1 < 20" cutoff)
	PriorityBase       int     `toml:"priority_base"`        // basePriority in priority = round(basePriority - alpha*popularity)
	PriorityAlpha      float64 `toml:"priority_alpha"`
	GCBatchSize        int     `toml:"gc_batch_size"` // spec default: 20 commits per batch
	MaintenancePoll    string  `toml:"maintenance_poll"`
}

// GetDefaultLock returns the parsed lease duration, defaulting to 1 hour.
func (c *SchedulerConfig) GetDefaultLock() time.Duration {
	return parseDurationOr(c.DefaultLock, time.Hour)
}

// GetShortExtend returns the parsed short backoff duration, defaulting to 12 hours.
func (c *SchedulerConfig) GetShortExtend() time.Duration {
	return parseDurationOr(c.ShortExtend, 12*time.Hour)
}

// GetLongExtend returns the parsed long backoff duration, defaulting to 3 days.
func (c *SchedulerConfig) GetLongExtend() time.Duration {
	return parseDurationOr(c.LongExtend, 3*24*time.Hour)
}

// GetMaintenancePoll returns the parsed maintenance-loop poll interval, defaulting to 1 minute.
func (c *SchedulerConfig) GetMaintenancePoll() time.Duration {
	return parseDurationOr(c.MaintenancePoll, time.Minute)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// DatastoreConfig selects and configures the Datastore backend.
type DatastoreConfig struct {
	Backend string `toml:"backend"` // "surreal" or "embedded"

	// Surreal holds connection settings for the networked backend.
	Surreal SurrealConfig `toml:"surreal"`

	// EmbeddedPath is the on-disk directory for the embedded backend.
	EmbeddedPath string `toml:"embedded_path"`
}

// SurrealConfig holds SurrealDB connection settings.
type SurrealConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Scheduler: SchedulerConfig{
			DefaultLock:        "1h",
			ShortExtend:        "12h",
			LongExtend:         "72h",
			LockCandidateLimit: 100,
			HeadBiasWindow:     20,
			PriorityBase:       1000,
			PriorityAlpha:      500,
			GCBatchSize:        20,
			MaintenancePoll:    "1m",
		},
		Datastore: DatastoreConfig{
			Backend:      "embedded",
			EmbeddedPath: "data/jobs",
			Surreal: SurrealConfig{
				Address:   "ws://localhost:8000/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "pkgjobs",
				Database:  "pkgjobs",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/pkgjobs.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Worker: WorkerConfig{
			Services:    []string{"analyzer", "dartdoc", "search-reindex"},
			Concurrency: 4,
			CatalogPath: "data/catalog.json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides,
// merging later files over earlier ones — missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies PKGJOBS_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PKGJOBS_ENV"); env != "" {
		config.Environment = env
	}
	if level := os.Getenv("PKGJOBS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if backend := os.Getenv("PKGJOBS_DATASTORE_BACKEND"); backend != "" {
		config.Datastore.Backend = backend
	}
	if addr := os.Getenv("PKGJOBS_SURREAL_ADDRESS"); addr != "" {
		config.Datastore.Surreal.Address = addr
	}
	if v := os.Getenv("PKGJOBS_GC_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.GCBatchSize = n
		}
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
