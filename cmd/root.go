// Package cmd implements the CLI command structure for taskrank.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nibzard/taskrank/internal/app"
	"github.com/nibzard/taskrank/internal/backend"
	"github.com/nibzard/taskrank/internal/config"
	"github.com/nibzard/taskrank/internal/logging"
	"github.com/nibzard/taskrank/internal/render"
	"github.com/nibzard/taskrank/internal/sorting"
	"github.com/nibzard/taskrank/internal/task"
	"github.com/nibzard/taskrank/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// doctorProbeTimeout bounds each endpoint probe when no request timeout is configured.
const doctorProbeTimeout = 5 * time.Second

// cli carries the standard streams and the loaded configuration.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cws    *config.ConfigWithSources
	cfg    *config.Config
}

// Run executes the taskrank CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// ReportError writes err to w. Validation and service failures use the
// same text the TUI shows; anything else gets an "Error: " prefix.
func ReportError(w io.Writer, err error) {
	var verr *task.ValidationError
	var berr *backend.Error
	if errors.As(err, &verr) || errors.As(err, &berr) {
		fmt.Fprintln(w, app.ErrorMessage(err))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskrank", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}

	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, cws: cws, cfg: cws.Config}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return c.versionCommand()
	}

	// With no subcommand, open the TUI
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return c.tuiCommand(ctx, remainingArgs)
	case "analyze":
		return c.submitCommand(ctx, backend.Analyze, remainingArgs)
	case "suggest":
		return c.submitCommand(ctx, backend.Suggest, remainingArgs)
	case "doctor":
		return c.doctorCommand(ctx, remainingArgs)
	case "tail":
		return c.tailCommand(ctx, remainingArgs)
	case "config":
		return c.configCommand(remainingArgs)
	case "version":
		return c.versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// session is the wiring shared by commands that talk to the scoring service.
type session struct {
	runLog     *logging.RunLogger
	logger     *log.Logger
	console    *os.File
	dispatcher *app.Dispatcher
}

// newSession opens the run log, the console logger and a dispatcher. When
// quiet is set console output goes to a file next to the run log so it does
// not draw over the TUI.
func (c *cli) newSession(quiet bool) (*session, error) {
	runLog, err := logging.NewRunLogger(c.cfg.LogDir, c.cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("initializing run log: %w", err)
	}

	s := &session{runLog: runLog}
	var consoleOut io.Writer = c.stderr
	if quiet {
		f, err := os.Create(runLog.ConsolePath())
		if err != nil {
			_ = runLog.Close()
			return nil, fmt.Errorf("creating console log: %w", err)
		}
		s.console = f
		consoleOut = f
	}
	s.logger = logging.NewConsoleFromConfig(consoleOut, c.cfg.LogLevel, c.cfg.LogFormat, c.cfg.LogTimestamps, c.cfg.LogCaller)
	s.logger.Debug("Run log", "path", runLog.LogPath)

	client := backend.NewHTTPClient(c.cfg.BaseURL,
		backend.WithTimeout(c.cfg.RequestTimeout()),
		backend.WithLogger(s.logger),
	)
	s.dispatcher = app.New(client,
		app.WithStrategy(c.cfg.SortStrategy()),
		app.WithEvents(runLog),
		app.WithLogger(s.logger),
		app.WithValidation(c.cfg.ValidationOptions()),
	)
	return s, nil
}

func (s *session) Close() error {
	err := s.runLog.Close()
	if s.console != nil {
		if cerr := s.console.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// tuiCommand launches the TUI.
func (c *cli) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskrank tui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	file := fs.String("file", "", "Preload the input area from a JSON file")
	watch := fs.Bool("watch", false, "Reload the input area when --file changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	if len(remaining) == 1 && *file == "" {
		*file = remaining[0]
	}

	s, err := c.newSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	return ui.RunTUI(ctx, s.dispatcher, ui.WithInputFile(*file), ui.WithWatch(*watch))
}

// submitCommand runs one analyze or suggest round trip and prints the result.
func (c *cli) submitCommand(ctx context.Context, op backend.Operation, args []string) error {
	fs := flag.NewFlagSet("taskrank "+string(op), flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	strategyName := fs.String("strategy", c.cfg.Strategy, "Sort strategy (score, fastest, deadline)")
	output := fs.String("output", "text", "Output format (text, json, yaml)")
	fs.StringVar(output, "o", "text", "Output format (text, json, yaml)")
	plain := fs.Bool("plain", false, "Disable colors in text output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	strategy, err := sorting.ParseStrategy(*strategyName)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(*output)
	if err != nil {
		return err
	}

	source := "-"
	if len(remaining) == 1 {
		source = remaining[0]
	}
	input, err := c.readInput(source)
	if err != nil {
		return err
	}

	s, err := c.newSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.dispatcher.Dispatch(ctx, app.ChangeStrategy(strategy)); err != nil {
		return err
	}

	intent := app.Analyze(input)
	if op == backend.Suggest {
		intent = app.Suggest(input)
	}
	state, err := s.dispatcher.Dispatch(ctx, intent)
	if err != nil {
		return err
	}

	style := render.Style{}
	if !*plain && ui.IsTTY(c.stdout) {
		style = render.DefaultStyle()
	}
	return render.Encode(c.stdout, state.Units(), format, style)
}

// readInput reads the task batch from a file, or stdin for "-".
func (c *cli) readInput(source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("reading input file: %w", err)
	}
	return string(data), nil
}

// probeResult is the outcome of posting an empty batch to one endpoint.
type probeResult struct {
	op       backend.Operation
	endpoint string
	elapsed  time.Duration
	err      error
}

// doctorCommand checks config and that both scoring endpoints answer.
func (c *cli) doctorCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskrank doctor", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	w := c.stdout
	fmt.Fprintln(w, "taskrank doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config:")
	for _, f := range c.cws.Files {
		fmt.Fprintf(w, "  read %s\n", f)
	}
	fmt.Fprintf(w, "  ✅ Base URL: %s\n", c.cfg.BaseURL)
	fmt.Fprintf(w, "  ✅ Strategy: %s (%s)\n", c.cfg.SortStrategy(), c.cfg.SortStrategy().Label())
	if timeout := c.cfg.RequestTimeout(); timeout > 0 {
		fmt.Fprintf(w, "  ✅ Request timeout: %s\n", timeout)
	} else {
		fmt.Fprintln(w, "  ✅ Request timeout: none")
	}
	if c.cfg.SchemaFile != "" {
		_, err := task.ValidateWithOptions("[]", c.cfg.ValidationOptions())
		var verr *task.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(w, "  ✅ Schema: %s\n", c.cfg.SchemaFile)
		case errors.As(err, &verr):
			// The schema compiles but rejects an empty batch.
			fmt.Fprintf(w, "  ⚠️  Schema: %s rejects an empty batch (%s)\n", c.cfg.SchemaFile, verr.Error())
		default:
			fmt.Fprintf(w, "  ❌ Schema: %v\n", err)
			allOK = false
		}
	}
	if *verbose {
		fmt.Fprintf(w, "  Log dir: %s\n", c.cfg.LogDir)
		fmt.Fprintf(w, "  Log level: %s (%s)\n", c.cfg.LogLevel, c.cfg.LogFormat)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Scoring service:")
	for _, r := range c.probe(ctx) {
		if r.err != nil {
			fmt.Fprintf(w, "  ❌ %s %s: %v\n", r.op, r.endpoint, r.err)
			allOK = false
			continue
		}
		if *verbose {
			fmt.Fprintf(w, "  ✅ %s %s (%s)\n", r.op, r.endpoint, r.elapsed.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "  ✅ %s %s\n", r.op, r.endpoint)
		}
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. taskrank may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// probe posts an empty batch to every endpoint concurrently.
func (c *cli) probe(ctx context.Context) []probeResult {
	timeout := c.cfg.RequestTimeout()
	if timeout == 0 {
		timeout = doctorProbeTimeout
	}
	client := backend.NewHTTPClient(c.cfg.BaseURL, backend.WithTimeout(timeout))

	ops := []backend.Operation{backend.Analyze, backend.Suggest}
	results := make([]probeResult, len(ops))

	g, gctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		g.Go(func() error {
			start := time.Now()
			_, err := client.Submit(gctx, op, nil)
			results[i] = probeResult{
				op:       op,
				endpoint: client.Endpoint(op),
				elapsed:  time.Since(start),
				err:      err,
			}
			// Report every endpoint; one failure must not cancel the other.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// tailCommand tails the latest run log, or lists runs.
func (c *cli) tailCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskrank tail", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List run logs, newest first")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}

	logDir, err := logging.FindLogDir(c.cfg.LogDir, c.cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		runs, err := logging.FindLogRuns(logDir)
		if err != nil {
			return fmt.Errorf("listing logs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(c.stdout, "No log files found.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(c.stdout, "%s  %s  %d bytes\n", r.RunID, r.ModTime.Local().Format(time.DateTime), r.Size)
		}
		return nil
	}

	var logPath string
	if len(remaining) == 1 {
		logPath = filepath.Join(logDir, strings.TrimSuffix(remaining[0], ".jsonl")+".jsonl")
		if _, err := os.Stat(logPath); err != nil {
			return fmt.Errorf("run %s: %w", remaining[0], err)
		}
	} else {
		logPath, err = logging.FindLatestLog(logDir)
		if err != nil {
			return fmt.Errorf("finding latest log: %w", err)
		}
	}

	if logPath == "" {
		fmt.Fprintln(c.stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(c.stderr, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(c.stderr, "(Ctrl+C to stop)")
	}

	return logging.TailLog(ctx, c.stdout, logPath, *n, *follow)
}

// configCommand prints an example config, or the effective settings.
func (c *cli) configCommand(args []string) error {
	fs := flag.NewFlagSet("taskrank config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	show := fs.Bool("show", false, "Show effective settings and their sources")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *show {
		return c.cws.WriteEffective(c.stdout)
	}
	_, err := io.WriteString(c.stdout, config.ExampleConfig())
	return err
}

// versionCommand prints version information.
func (c *cli) versionCommand() error {
	fmt.Fprintf(c.stdout, "taskrank version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskrank - score and rank tasks with a scoring service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskrank [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui [file]         Launch terminal UI (default command)")
	fmt.Fprintln(w, "  analyze [file|-]   Score tasks and print them")
	fmt.Fprintln(w, "  suggest [file|-]   Score tasks with explanations and print them")
	fmt.Fprintln(w, "  doctor             Check config and the scoring service")
	fmt.Fprintln(w, "  tail [run-id]      Tail the latest run log")
	fmt.Fprintln(w, "  config             Print an example config file")
	fmt.Fprintln(w, "  version            Show version information")
	fmt.Fprintln(w, "  help               Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options:")
	fmt.Fprintln(w, "  -file string")
	fmt.Fprintln(w, "        Preload the input area from a JSON file")
	fmt.Fprintln(w, "  -watch")
	fmt.Fprintln(w, "        Reload the input area when --file changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Analyze/Suggest Options:")
	fmt.Fprintln(w, "  -strategy string")
	fmt.Fprintln(w, "        Sort strategy (score, fastest, deadline)")
	fmt.Fprintln(w, "  -o, -output string")
	fmt.Fprintln(w, "        Output format (text, json, yaml)")
	fmt.Fprintln(w, "  -plain")
	fmt.Fprintln(w, "        Disable colors in text output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w, "  -list")
	fmt.Fprintln(w, "        List run logs, newest first")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config Options:")
	fmt.Fprintln(w, "  -show")
	fmt.Fprintln(w, "        Show effective settings and their sources")
}
