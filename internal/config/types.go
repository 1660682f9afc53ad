package config

import (
	"time"

	"github.com/nibzard/taskrank/internal/backend"
	"github.com/nibzard/taskrank/internal/sorting"
	"github.com/nibzard/taskrank/internal/task"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultBaseURL   = backend.DefaultBaseURL
	DefaultStrategy  = string(sorting.Default)
	DefaultLogDir    = "~/.taskrank"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for taskrank.
type Config struct {
	// Scoring service
	BaseURL               string `toml:"base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`

	// Presentation
	Strategy string `toml:"strategy"`

	// Optional JSON Schema applied to input after the array check
	SchemaFile string `toml:"schema_file"`

	// Run logs
	LogDir string `toml:"log_dir"`

	// Console logging
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// RequestTimeout returns the per-request timeout. Zero means none.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SortStrategy returns the configured strategy. Call after Load, which
// rejects unknown names.
func (c *Config) SortStrategy() sorting.Strategy {
	s, err := sorting.ParseStrategy(c.Strategy)
	if err != nil {
		return sorting.Default
	}
	return s
}

// ValidationOptions returns the input validation settings.
func (c *Config) ValidationOptions() task.ValidationOptions {
	return task.ValidationOptions{SchemaPath: c.SchemaFile}
}
