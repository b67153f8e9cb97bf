package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration.
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production" - controls test URL validation
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Corpus      CorpusConfig  `toml:"corpus"`
	Gemini      GeminiConfig  `toml:"gemini"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration.
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// CorpusConfig holds the timing and concurrency constants the Job Engine
// is contractually bound to.
type CorpusConfig struct {
	DeletionMissingThreshold int           `toml:"deletion_missing_threshold"` // missing_count at which a page becomes ready_for_deletion
	RecoveryStuckAfter       time.Duration `toml:"recovery_stuck_after"`       // age of a running ingestion job that triggers recovery
	BatchPollInterval        time.Duration `toml:"batch_poll_interval"`        // crawler batch_status poll cadence
	BatchMaxWait             time.Duration `toml:"batch_max_wait"`             // absolute deadline for batch_wait
	ProgressWriteInterval    time.Duration `toml:"progress_write_interval"`    // UI progress-metadata write cadence during batch_wait
	UploadConcurrency        int           `toml:"upload_concurrency"`         // concurrent document uploads per indexing batch
	UploadRetryBackoff       time.Duration `toml:"upload_retry_backoff"`       // sleep before the single rate-limit retry
	UploadMaxRetries         int           `toml:"upload_max_retries"`         // not read by the Job Engine, which retries a rate-limited upload once
	VerificationDelay        time.Duration `toml:"verification_delay"`        // pause between upload success and get_document
	OperationPollInterval    time.Duration `toml:"operation_poll_interval"`    // poll_operation cadence
	OperationMaxWait         time.Duration `toml:"operation_max_wait"`         // poll_operation deadline
	InterBatchPause          time.Duration `toml:"inter_batch_pause"`          // pause between upload batches
	IndexingPageCap          int           `toml:"indexing_page_cap"`          // per-status page cap per indexing run
	SyncSchedule             string        `toml:"sync_schedule"`              // optional cron expression for a host-driven periodic sync
}

// GeminiConfig configures the semantic search store adapter (Gemini File Search).
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`   // model used for grounded query generation
	Timeout string `toml:"timeout"` // operation timeout as a duration string
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in sitecorpus.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Corpus: CorpusConfig{
			DeletionMissingThreshold: 3,
			RecoveryStuckAfter:       60 * time.Second,
			BatchPollInterval:        5 * time.Second,
			BatchMaxWait:             10 * time.Minute,
			ProgressWriteInterval:    30 * time.Second,
			UploadConcurrency:        5,
			UploadRetryBackoff:       2 * time.Second,
			UploadMaxRetries:         3,
			VerificationDelay:        3 * time.Second,
			OperationPollInterval:    2 * time.Second,
			OperationMaxWait:         5 * time.Minute,
			InterBatchPause:          500 * time.Millisecond,
			IndexingPageCap:          200,
			SyncSchedule:             "", // disabled unless the host opts in
		},
		Gemini: GeminiConfig{
			Model:   "gemini-3-flash-preview",
			Timeout: "5m",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SITECORPUS_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("SITECORPUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("SITECORPUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SITECORPUS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if threshold := os.Getenv("SITECORPUS_DELETION_MISSING_THRESHOLD"); threshold != "" {
		if t, err := strconv.Atoi(threshold); err == nil {
			config.Corpus.DeletionMissingThreshold = t
		}
	}
	if concurrency := os.Getenv("SITECORPUS_UPLOAD_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Corpus.UploadConcurrency = c
		}
	}
	if schedule := os.Getenv("SITECORPUS_SYNC_SCHEDULE"); schedule != "" {
		config.Corpus.SyncSchedule = schedule
	}

	if apiKey := os.Getenv("SITECORPUS_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SITECORPUS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
}

// ValidateSyncSchedule parses a cron schedule expression and rejects a minute
// field of "*" or "*/n" with n below 5. Lists and ranges in the minute field
// are not checked against the 5-minute minimum. Recrawl policy stays the
// caller's concern; this only gives hosts a validated cron format.
func ValidateSyncSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have a minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// AllowTestURLs returns true if test URLs (localhost, 127.0.0.1, etc.) are
// allowed. Test URLs are only allowed in development mode.
func (c *Config) AllowTestURLs() bool {
	return !c.IsProduction()
}
