package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskrank configuration file
# Values can be overridden by TASKRANK_* environment variables or CLI flags

# Scoring service root; requests go to {base_url}/analyze/ and {base_url}/suggest/
base_url = "http://127.0.0.1:8000/api/tasks"

# Request timeout in seconds (0 waits until the service answers)
request_timeout_seconds = 0

# Initial sort strategy: score, fastest or deadline
strategy = "score"

# Optional JSON Schema applied to task input after the array check
# schema_file = "tasks.schema.json"

# Run log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.taskrank"

# Console logging
log_level = "info"       # debug, info, warn, error
log_format = "text"      # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
