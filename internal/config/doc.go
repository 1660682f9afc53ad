// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.taskrank/taskrank.toml or OS-specific config directory)
// 3. Project config file (taskrank.toml or .taskrank.toml in the working directory)
// 4. Environment variables (TASKRANK_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.taskrank/taskrank.toml (preferred)
// - Windows: %APPDATA%\taskrank\taskrank.toml
// - macOS: ~/Library/Application Support/taskrank/taskrank.toml
// - Linux/BSD: $XDG_CONFIG_HOME/taskrank/taskrank.toml or ~/.config/taskrank/taskrank.toml
//
// Project-level config locations (overrides user config):
// - ./taskrank.toml (preferred)
// - ./.taskrank.toml
package config
