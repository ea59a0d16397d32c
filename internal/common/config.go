package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Queue       QueueConfig     `toml:"queue"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Ingest      IngestConfig    `toml:"ingest"`
	Retention   RetentionConfig `toml:"retention"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type QueueConfig struct {
	QueueName         string        `toml:"queue_name"`         // Queue name prefix in Badger
	PollInterval      time.Duration `toml:"poll_interval"`      // How often dispatch workers poll for messages
	Concurrency       int           `toml:"concurrency"`        // Max concurrent run dispatches
	VisibilityTimeout time.Duration `toml:"visibility_timeout"` // Message invisibility span after receive
	MaxReceive        int           `toml:"max_receive"`        // Max deliveries before a message is dropped (1 = strict no-retry)
}

type SchedulerConfig struct {
	Enabled            bool   `toml:"enabled"`
	PollSchedule       string `toml:"poll_schedule"`       // Cron spec for scheduled ingestion runs
	GCSchedule         string `toml:"gc_schedule"`         // Cron spec for garbage-collection runs
	Timezone           string `toml:"timezone"`            // IANA location the cron specs are bound to
	EnqueueConcurrency int    `toml:"enqueue_concurrency"` // Bounded fan-out while enqueueing tenants
}

type IngestConfig struct {
	WindowMinutes      int           `toml:"window_minutes"`        // Recency window for postings
	FeedConcurrency    int           `toml:"feed_concurrency"`      // Concurrent feed fetches per run
	WriteConcurrency   int           `toml:"write_concurrency"`     // Concurrent job writes per run
	FetchTimeout       time.Duration `toml:"fetch_timeout"`         // Per-request upstream timeout
	RunTimeout         time.Duration `toml:"run_timeout"`           // Overall per-run deadline
	HeartbeatInterval  time.Duration `toml:"heartbeat_interval"`    // Run-ledger heartbeat cadence
	FetchRateLimit     int           `toml:"fetch_rate_limit"`      // Upstream requests per second across feeds
	RunLockEnabled     bool          `toml:"run_lock_enabled"`      // Skip a run when another is active for the tenant
	ResetSavedOnIngest bool          `toml:"reset_saved_on_ingest"` // Overwrite the UI-owned saved bit on merge
	ContentMaxChars    int           `toml:"content_max_chars"`     // Cleaned HTML body character ceiling
}

type RetentionConfig struct {
	JobDays      int `toml:"job_days"`       // Delete jobs with sourceUpdatedTs older than this
	RunDays      int `toml:"run_days"`       // Delete run records older than this
	CompanyDays  int `toml:"company_days"`   // Delete companies not seen for this long
	GCBatchLimit int `toml:"gc_batch_limit"` // Documents per delete query
	GCLoopCap    int `toml:"gc_loop_cap"`    // Max delete loops per collection per run
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// DefaultConfig returns configuration defaults. File, env, and CLI values
// layer on top of this.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/venari",
			},
		},
		Queue: QueueConfig{
			QueueName:         "runs",
			PollInterval:      time.Second,
			Concurrency:       10,
			VisibilityTimeout: 10 * time.Minute,
			MaxReceive:        3,
		},
		Scheduler: SchedulerConfig{
			Enabled:            true,
			PollSchedule:       "*/30 * * * *",
			GCSchedule:         "0 3 */2 * *",
			Timezone:           "America/New_York",
			EnqueueConcurrency: 50,
		},
		Ingest: IngestConfig{
			WindowMinutes:     60,
			FeedConcurrency:   6,
			WriteConcurrency:  25,
			FetchTimeout:      75 * time.Second,
			RunTimeout:        540 * time.Second,
			HeartbeatInterval: 10 * time.Second,
			FetchRateLimit:    10,
			ContentMaxChars:   120000,
		},
		Retention: RetentionConfig{
			JobDays:      14,
			RunDays:      14,
			CompanyDays:  30,
			GCBatchLimit: 400,
			GCLoopCap:    50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration in layers: defaults, then each config
// file in order (later files override earlier ones), then environment
// variables. Returns an error when a named file is missing or malformed.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies VENARI_* environment variables over file values.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VENARI_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("VENARI_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("VENARI_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("VENARI_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("VENARI_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks cross-field constraints after all layers are applied.
func (c *Config) Validate() error {
	if err := ValidateSchedule(c.Scheduler.PollSchedule); err != nil {
		return fmt.Errorf("invalid scheduler poll_schedule: %w", err)
	}
	if err := ValidateSchedule(c.Scheduler.GCSchedule); err != nil {
		return fmt.Errorf("invalid scheduler gc_schedule: %w", err)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("invalid scheduler timezone: %w", err)
	}
	if c.Ingest.FeedConcurrency <= 0 {
		return fmt.Errorf("ingest feed_concurrency must be positive")
	}
	if c.Ingest.WriteConcurrency <= 0 {
		return fmt.Errorf("ingest write_concurrency must be positive")
	}
	if c.Queue.MaxReceive <= 0 {
		return fmt.Errorf("queue max_receive must be positive")
	}
	return nil
}

// Location resolves the configured scheduler timezone.
func (s *SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Window returns the ingestion recency window as a duration.
func (i *IngestConfig) Window() time.Duration {
	return time.Duration(i.WindowMinutes) * time.Minute
}
