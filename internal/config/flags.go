package config

import (
	"flag"
)

// flagToField maps config flag names to source field names.
var flagToField = map[string]string{
	"base-url":       "base_url",
	"timeout":        "request_timeout_seconds",
	"strategy":       "strategy",
	"schema":         "schema_file",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines the config flags on fs, parses args and applies the
// flags that were explicitly set. If sources is non-nil, it tracks the source
// of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}

	// Flags bind to copies so unset flags never clobber file or env values.
	v := *cfg
	fs.StringVar(&v.BaseURL, "base-url", cfg.BaseURL, "Scoring service base URL")
	fs.IntVar(&v.RequestTimeoutSeconds, "timeout", cfg.RequestTimeoutSeconds, "Request timeout in seconds (0 disables)")
	fs.StringVar(&v.Strategy, "strategy", cfg.Strategy, "Sort strategy (score, fastest, deadline)")
	fs.StringVar(&v.SchemaFile, "schema", cfg.SchemaFile, "Optional JSON Schema for task input")
	fs.StringVar(&v.LogDir, "log-dir", cfg.LogDir, "Run log directory")
	fs.StringVar(&v.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&v.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&v.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&v.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagToField[f.Name]
		if !ok {
			return
		}
		if sources != nil {
			sources[field] = SourceFlag
		}
		switch f.Name {
		case "base-url":
			cfg.BaseURL = v.BaseURL
		case "timeout":
			cfg.RequestTimeoutSeconds = v.RequestTimeoutSeconds
		case "strategy":
			cfg.Strategy = v.Strategy
		case "schema":
			cfg.SchemaFile = v.SchemaFile
		case "log-dir":
			cfg.LogDir = v.LogDir
		case "log-level":
			cfg.LogLevel = v.LogLevel
		case "log-format":
			cfg.LogFormat = v.LogFormat
		case "log-timestamps":
			cfg.LogTimestamps = v.LogTimestamps
		case "log-caller":
			cfg.LogCaller = v.LogCaller
		}
	})

	return nil
}
