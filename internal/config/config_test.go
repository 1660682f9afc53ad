// Package config tests configuration loading.
package config

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/taskrank/internal/sorting"
)

// isolate points HOME, the XDG config dir and the working directory at
// fresh temp dirs so no real config files are picked up.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, name := range []string{"BASE_URL", "TIMEOUT", "STRATEGY", "SCHEMA", "LOG_DIR", "LOG_LEVEL", "LOG_FORMAT", "LOG_TIMESTAMPS", "LOG_CALLER"} {
		t.Setenv(EnvPrefix+name, "")
	}
	t.Chdir(work)
	return home, work
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Strategy != "score" {
		t.Errorf("Strategy: got %q, want score", cfg.Strategy)
	}
	if cfg.RequestTimeoutSeconds != 0 {
		t.Errorf("RequestTimeoutSeconds: got %d, want 0", cfg.RequestTimeoutSeconds)
	}
	if cfg.LogDir != DefaultLogDir || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging defaults: got %q %q %q", cfg.LogDir, cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadDefaults(t *testing.T) {
	_, work := isolate(t)

	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config
	if cfg.SortStrategy() != sorting.ByScore {
		t.Errorf("SortStrategy: got %q, want score", cfg.SortStrategy())
	}
	if cfg.RequestTimeout() != 0 {
		t.Errorf("RequestTimeout: got %v, want 0", cfg.RequestTimeout())
	}
	if filepath.Base(cfg.ProjectRoot) != filepath.Base(work) {
		t.Errorf("ProjectRoot: got %q, want %q", cfg.ProjectRoot, work)
	}
	if len(cws.Files) != 0 {
		t.Errorf("Files: got %v, want none", cws.Files)
	}
	for _, field := range configFields() {
		if cws.Sources[field] != SourceDefault {
			t.Errorf("source of %s: got %q, want default", field, cws.Sources[field])
		}
	}
}

func TestLoadLayering(t *testing.T) {
	home, _ := isolate(t)

	writeFile(t, filepath.Join(home, ".taskrank", "taskrank.toml"), `
base_url = "http://user.example:8000/api/tasks"
strategy = "fastest"
request_timeout_seconds = 5
log_level = "debug"
`)
	writeFile(t, "taskrank.toml", `
strategy = "deadline"
log_format = "json"
`)
	t.Setenv("TASKRANK_TIMEOUT", "9")
	t.Setenv("TASKRANK_LOG_CALLER", "yes")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cws, err := LoadWithSources(fs, []string{"--log-level", "warn", "rest"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	checks := []struct {
		field  string
		got    string
		want   string
		source ConfigSource
	}{
		{"base_url", cfg.BaseURL, "http://user.example:8000/api/tasks", SourceUserFile},
		{"strategy", cfg.Strategy, "deadline", SourceProjFile},
		{"log_format", cfg.LogFormat, "json", SourceProjFile},
		{"log_level", cfg.LogLevel, "warn", SourceFlag},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.field, c.got, c.want)
		}
		if cws.Sources[c.field] != c.source {
			t.Errorf("source of %s: got %q, want %q", c.field, cws.Sources[c.field], c.source)
		}
	}
	if cfg.RequestTimeout() != 9*time.Second || cws.Sources["request_timeout_seconds"] != SourceEnv {
		t.Errorf("timeout: got %v from %q, want 9s from environment", cfg.RequestTimeout(), cws.Sources["request_timeout_seconds"])
	}
	if !cfg.LogCaller {
		t.Error("LogCaller: got false, want true")
	}
	if len(cws.Files) != 2 {
		t.Errorf("Files: got %v, want user and project files", cws.Files)
	}
	if args := fs.Args(); len(args) != 1 || args[0] != "rest" {
		t.Errorf("remaining args: got %v, want [rest]", args)
	}
}

func TestLoadDotfileProjectConfig(t *testing.T) {
	isolate(t)
	writeFile(t, ".taskrank.toml", `strategy = "fastest"`)

	cfg, err := Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SortStrategy() != sorting.Fastest {
		t.Errorf("Strategy: got %q, want fastest", cfg.Strategy)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKRANK_BASE_URL", "https://scores.example/api/tasks")
	t.Setenv("TASKRANK_STRATEGY", "Deadline")
	t.Setenv("TASKRANK_TIMEOUT", "not-a-number")
	t.Setenv("TASKRANK_LOG_TIMESTAMPS", "1")

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	loadFromEnv(cfg, sources)

	if cfg.BaseURL != "https://scores.example/api/tasks" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.Strategy != "Deadline" {
		t.Errorf("Strategy: got %q, want Deadline", cfg.Strategy)
	}
	if cfg.RequestTimeoutSeconds != 0 {
		t.Errorf("invalid TASKRANK_TIMEOUT applied: %d", cfg.RequestTimeoutSeconds)
	}
	if _, ok := sources["request_timeout_seconds"]; ok {
		t.Error("invalid TASKRANK_TIMEOUT recorded as a source")
	}
	if !cfg.LogTimestamps {
		t.Error("LogTimestamps: got false, want true")
	}

	if err := finalizeConfig(cfg); err != nil {
		t.Fatalf("finalizeConfig: %v", err)
	}
	if cfg.Strategy != "deadline" {
		t.Errorf("finalized Strategy: got %q, want deadline", cfg.Strategy)
	}
}

func TestFinalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown strategy", func(c *Config) { c.Strategy = "alphabetical" }, "strategy"},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://host/api" }, "scheme"},
		{"no host", func(c *Config) { c.BaseURL = "http:///api/tasks" }, "host"},
		{"negative timeout", func(c *Config) { c.RequestTimeoutSeconds = -1 }, "negative"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ProjectRoot: t.TempDir()}
			setDefaults(cfg)
			tt.mutate(cfg)
			err := finalizeConfig(cfg)
			if err == nil {
				t.Fatal("finalizeConfig: got nil error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFinalizeSchemaPath(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{ProjectRoot: root}
	setDefaults(cfg)
	cfg.SchemaFile = "schemas/tasks.json"

	if err := finalizeConfig(cfg); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "schemas", "tasks.json")
	if cfg.SchemaFile != want {
		t.Errorf("SchemaFile: got %q, want %q", cfg.SchemaFile, want)
	}
	if cfg.ValidationOptions().SchemaPath != want {
		t.Errorf("ValidationOptions: got %q", cfg.ValidationOptions().SchemaPath)
	}
}

func TestLoadConfigFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskrank.toml")
	writeFile(t, path, "strategy = \"score\"\nstratgey = \"fastest\"\n")

	cfg := &Config{}
	err := loadConfigFile(cfg, path, nil, SourceProjFile)
	if err == nil || !strings.Contains(err.Error(), "stratgey") {
		t.Fatalf("loadConfigFile: got %v, want unknown key error", err)
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.LogLevel = "debug"

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	args := []string{
		"--base-url", "http://localhost:9000/api/tasks",
		"--strategy", "fastest",
		"--timeout", "30",
	}
	sources := map[string]ConfigSource{}
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.BaseURL != "http://localhost:9000/api/tasks" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.Strategy != "fastest" {
		t.Errorf("Strategy: got %q, want fastest", cfg.Strategy)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds: got %d, want 30", cfg.RequestTimeoutSeconds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unset flag overwrote LogLevel: got %q", cfg.LogLevel)
	}
	if sources["strategy"] != SourceFlag {
		t.Errorf("source of strategy: got %q, want flag", sources["strategy"])
	}
	if _, ok := sources["log_level"]; ok {
		t.Error("unset flag recorded as a source")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"", ""},
	}
	if runtime.GOOS == "windows" {
		t.Setenv("TASKRANK_TEST_HOME", home)
		tests = append(tests, struct {
			input string
			want  string
		}{`%TASKRANK_TEST_HOME%\logs`, filepath.Join(home, "logs")})
	} else {
		tests = append(tests, struct {
			input string
			want  string
		}{`~\test`, `~\test`})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	home, _ := isolate(t)
	root := filepath.Join(home, "project")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"schema.json", filepath.Join(root, "schema.json")},
		{"~/schema.json", filepath.Join(home, "schema.json")},
		{filepath.Join(home, "abs.json"), filepath.Join(home, "abs.json")},
	}
	for _, tt := range tests {
		if got := resolvePath(tt.input, root); got != tt.want {
			t.Errorf("resolvePath(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
	if got := resolvePath("schema.json", ""); got != "schema.json" {
		t.Errorf("resolvePath without root: got %q, want %q", got, "schema.json")
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := boolFromString(tt.input); got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	var cfg Config
	md, err := toml.Decode(ExampleConfig(), &cfg)
	if err != nil {
		t.Fatalf("example config does not decode: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Errorf("example config has unknown keys: %v", md.Undecoded())
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.Strategy != DefaultStrategy {
		t.Errorf("example config disagrees with defaults: %+v", cfg)
	}
}

func TestWriteEffective(t *testing.T) {
	isolate(t)
	writeFile(t, "taskrank.toml", `strategy = "fastest"`)

	cws, err := LoadWithSources(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := cws.WriteEffective(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`# read taskrank.toml`,
		`strategy = "fastest"  # project file`,
		`request_timeout_seconds = 0  # default`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
