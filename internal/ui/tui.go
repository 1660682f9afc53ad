// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskrank/internal/app"
	"github.com/nibzard/taskrank/internal/backend"
	"github.com/nibzard/taskrank/internal/render"
)

// inputPlaceholder is shown while the input area is empty.
const inputPlaceholder = `[{"title": "Fix login bug", "due_date": "2025-11-30", "estimated_hours": 3, "importance": 8, "dependencies": []}]`

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	inputFile string
	watch     bool
	style     render.Style
}

// WithInputFile preloads the input area from a file.
func WithInputFile(path string) TUIOption {
	return func(c *tuiConfig) {
		c.inputFile = path
	}
}

// WithWatch reloads the input area whenever the input file changes.
func WithWatch(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.watch = enabled
	}
}

// WithStyle overrides the result card styles.
func WithStyle(style render.Style) TUIOption {
	return func(c *tuiConfig) {
		c.style = style
	}
}

// RunTUI starts the TUI on top of the given dispatcher.
func RunTUI(ctx context.Context, d *app.Dispatcher, opts ...TUIOption) error {
	c := &tuiConfig{style: render.DefaultStyle()}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	if c.watch && c.inputFile == "" {
		return fmt.Errorf("--watch requires --file")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newTUIModel(ctx, d, c)
	if c.inputFile != "" {
		path, err := filepath.Abs(c.inputFile)
		if err != nil {
			return fmt.Errorf("resolve input file: %w", err)
		}
		model.inputPath = path
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		model.input.SetValue(string(data))
		model.notice = "Loaded " + filepath.Base(path)

		if c.watch {
			ch, err := watchFile(ctx, path)
			if err != nil {
				return err
			}
			model.fileCh = ch
		}
	}

	return runProgram(ctx, model)
}

func runProgram(ctx context.Context, model *tuiModel) error {
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		// Cancelled from outside, e.g. SIGINT.
		return nil
	}
	return err
}

type tuiModel struct {
	ctx        context.Context
	dispatcher *app.Dispatcher
	style      render.Style
	input      textarea.Model
	spinner    spinner.Model
	results    viewport.Model
	state      app.State
	inputPath  string
	fileCh     <-chan fileMsg
	notice     string
	showHelp   bool
	width      int
}

// resultMsg carries a finished round trip back to Update.
type resultMsg struct {
	result app.Result
}

func newTUIModel(ctx context.Context, d *app.Dispatcher, c *tuiConfig) *tuiModel {
	input := textarea.New()
	input.Placeholder = inputPlaceholder
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.MaxHeight = 0
	input.SetHeight(10)
	input.SetWidth(80)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &tuiModel{
		ctx:        ctx,
		dispatcher: d,
		style:      c.style,
		input:      input,
		spinner:    spin,
		results:    viewport.New(80, 12),
		state:      d.State(),
	}
	m.refreshResults()
	return m
}

// refreshResults re-reads dispatcher state and re-renders the results pane.
func (m *tuiModel) refreshResults() {
	m.state = m.dispatcher.State()
	m.results.SetContent(render.Text(m.state.Units(), m.style))
}

func (m *tuiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.fileCh != nil {
		cmds = append(cmds, waitForFile(m.fileCh))
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 4 {
			m.input.SetWidth(msg.Width - 2)
			m.results.Width = msg.Width - 2
		}
		// Title, input, controls, status and footer take the rest.
		if h := msg.Height - m.input.Height() - 14; h > 3 {
			m.results.Height = h
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r", "f5":
			return m, m.submit(backend.Analyze)
		case "ctrl+g", "f6":
			return m, m.submit(backend.Suggest)
		case "ctrl+t", "f7":
			m.dispatcher.CycleStrategy()
			m.refreshResults()
			m.results.GotoTop()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		case "f1":
			m.showHelp = !m.showHelp
			return m, nil
		}

	case resultMsg:
		if m.dispatcher.Apply(msg.result) {
			m.results.GotoTop()
		}
		m.refreshResults()
		return m, nil

	case spinner.TickMsg:
		if !m.state.Pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fileMsg:
		if msg.err != nil {
			m.notice = "Failed to reload " + filepath.Base(msg.path) + ": " + msg.err.Error()
		} else {
			m.input.SetValue(msg.content)
			m.notice = "Reloaded " + filepath.Base(msg.path)
		}
		return m, waitForFile(m.fileCh)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit validates the input and starts the round trip. Invalid input is
// reported on the status line without a request.
func (m *tuiModel) submit(op backend.Operation) tea.Cmd {
	ticking := m.state.Pending
	req, err := m.dispatcher.Begin(op, m.input.Value())
	m.state = m.dispatcher.State()
	m.notice = ""
	if err != nil {
		return nil
	}
	fetch := fetchCmd(m.ctx, m.dispatcher, req)
	if ticking {
		return fetch
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func fetchCmd(ctx context.Context, d *app.Dispatcher, req app.Request) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{result: d.Fetch(ctx, req)}
	}
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	b.WriteString(headingStyle.Render("Tasks (JSON)") + "\n")
	b.WriteString(m.input.View() + "\n\n")
	writeControls(&b, m.state)
	m.writeStatusLine(&b)
	b.WriteString(headingStyle.Render("Results") + "\n\n")
	b.WriteString(m.results.View() + "\n\n")
	writeFooter(&b)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "taskrank"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeControls(b *strings.Builder, state app.State) {
	b.WriteString(fmt.Sprintf("Sort: %s (%s)  %s\n", state.Strategy.Label(), state.Strategy, keyStyle.Render("[ctrl+t/F7]")))
}

// writeStatusLine shows the spinner and any error together; a rejected
// input stays on screen while an earlier request is still running.
func (m *tuiModel) writeStatusLine(b *strings.Builder) {
	quiet := true
	if m.state.Pending {
		verb := "Analyzing"
		if m.state.PendingOp == backend.Suggest {
			verb = "Suggesting"
		}
		b.WriteString(m.spinner.View() + " " + verb + "...\n")
		quiet = false
	}
	if msg := m.state.Message(); msg != "" {
		b.WriteString(errorStyle.Render(msg) + "\n")
		quiet = false
	}
	if quiet && m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  ctrl+r, F5   Analyze tasks\n")
	b.WriteString("  ctrl+g, F6   Suggest what to work on\n")
	b.WriteString("  ctrl+t, F7   Cycle sort strategy\n")
	b.WriteString("  PgUp, PgDn   Scroll results\n")
	b.WriteString("  F1           Toggle this help screen\n")
	b.WriteString("  esc, ctrl+c  Quit\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString("F5 analyze | F6 suggest | F7 sort | F1 help | esc quit\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
