package config

import (
	"fmt"
	"time"

	"github.com/i474232898/gridmet-summary/internal/scheduler"
	"github.com/i474232898/gridmet-summary/internal/summary"
)

// AppConfig holds process configuration.
type AppConfig struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"` // json or console

	// Addr is the HTTP listen address.
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	EarthEngineProject     string        `koanf:"earthengine_project"`
	EarthEngineBaseURL     string        `koanf:"earthengine_base_url"`
	EarthEngineCredentials string        `koanf:"earthengine_credentials_file"`
	EarthEngineTimeout     time.Duration `koanf:"earthengine_timeout"`

	// OutputDir is the root that local export paths resolve under. Ignored
	// when GCSBucket is set.
	OutputDir string `koanf:"output_dir"`
	GCSBucket string `koanf:"gcs_bucket"`
	GCSPrefix string `koanf:"gcs_prefix"`

	// In-memory record retention.
	StoreMaxHistory int           `koanf:"store_max_history"` // per variable (0 = unlimited)
	StoreMaxAge     time.Duration `koanf:"store_max_age"`     // 0 = unlimited

	JobTimeout time.Duration   `koanf:"job_timeout"`
	Jobs       []scheduler.Job `koanf:"jobs"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *AppConfig {
	return &AppConfig{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":8080",
		ShutdownTimeout:    10 * time.Second,
		EarthEngineTimeout: 2 * time.Minute,
		OutputDir:          ".",
		StoreMaxHistory:    120, // ten years of monthly exports
		StoreMaxAge:        0,
		JobTimeout:         10 * time.Minute,
	}
}

// Validate checks the loaded values.
func (c *AppConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("%w: log_format must be json or console, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 || c.EarthEngineTimeout <= 0 || c.JobTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.StoreMaxAge < 0 {
		return fmt.Errorf("%w: store_max_age must not be negative", ErrInvalidConfig)
	}
	for _, job := range c.Jobs {
		if job.Name == "" || job.Cron == "" {
			return fmt.Errorf("%w: jobs need a name and a cron expression", ErrInvalidConfig)
		}
		if _, err := summary.ParsePreset(string(job.Preset)); err != nil {
			return fmt.Errorf("%w: job %s: %v", ErrInvalidConfig, job.Name, err)
		}
	}
	return nil
}
