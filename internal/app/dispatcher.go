// Package app holds the retained client state and applies user intents to it.
//
// A Dispatcher owns the last enriched task sequence, the selected sort
// strategy and the request generation counter. Submissions are split into
// three steps so UI runtimes can run the network round trip elsewhere:
//
//	req, err := d.Begin(backend.Analyze, input) // validate, take a generation
//	res := d.Fetch(ctx, req)                    // round trip, no state change
//	d.Apply(res)                                // ignored if a newer request began
//
// Dispatch runs all three in order for synchronous callers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/taskrank/internal/backend"
	"github.com/nibzard/taskrank/internal/logging"
	"github.com/nibzard/taskrank/internal/render"
	"github.com/nibzard/taskrank/internal/sorting"
	"github.com/nibzard/taskrank/internal/task"
)

// ErrStale is returned by Dispatch when a newer submission superseded the
// one it started.
var ErrStale = errors.New("response superseded by a newer request")

// Request is a validated submission waiting for its round trip.
type Request struct {
	Op         backend.Operation
	Generation uint64
	ID         string
	Records    []task.Record
}

// Result is the outcome of a round trip.
type Result struct {
	Request Request
	Records []task.Record
	Err     error
	Elapsed time.Duration
}

// State is a snapshot of the dispatcher.
type State struct {
	Records    []task.Record
	Strategy   sorting.Strategy
	Generation uint64
	Pending    bool
	PendingOp  backend.Operation
	LastOp     backend.Operation
	// Err is the last request failure.
	Err error
	// Invalid is the last rejected input. Responses never clear it; only
	// the next accepted submission does.
	Invalid error
}

// Message returns the user-facing text for the rejected input and the last
// request failure, one per line, or "".
func (s State) Message() string {
	var lines []string
	for _, err := range []error{s.Invalid, s.Err} {
		if msg := ErrorMessage(err); msg != "" {
			lines = append(lines, msg)
		}
	}
	return strings.Join(lines, "\n")
}

// Units renders the retained sequence under the selected strategy.
func (s State) Units() []render.Unit {
	return render.View(s.Records, s.Strategy)
}

// ErrorMessage maps an error to the text shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var berr *backend.Error
	if errors.As(err, &berr) {
		return berr.Message()
	}
	return err.Error()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStrategy sets the initial strategy.
func WithStrategy(s sorting.Strategy) Option {
	return func(d *Dispatcher) {
		if s.Valid() {
			d.strategy = s
		}
	}
}

// WithEvents sets the run log sink.
func WithEvents(sink logging.EventSink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.events = sink
		}
	}
}

// WithLogger sets the console logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithValidation sets the options passed to task.ValidateWithOptions.
func WithValidation(opts task.ValidationOptions) Option {
	return func(d *Dispatcher) {
		d.validation = opts
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// Dispatcher applies intents to the retained state. It is safe for
// concurrent use.
type Dispatcher struct {
	scorer     backend.Scorer
	events     logging.EventSink
	logger     *log.Logger
	validation task.ValidationOptions
	newID      func() string

	mu         sync.Mutex
	records    []task.Record
	strategy   sorting.Strategy
	generation uint64
	pending    bool
	pendingOp  backend.Operation
	lastOp     backend.Operation
	err        error
	invalid    error
}

// New creates a dispatcher that submits through scorer.
func New(scorer backend.Scorer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		scorer:   scorer,
		events:   logging.Discard,
		logger:   log.New(io.Discard),
		newID:    uuid.NewString,
		strategy: sorting.Default,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns a snapshot of the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dispatcher) stateLocked() State {
	return State{
		Records:    d.records,
		Strategy:   d.strategy,
		Generation: d.generation,
		Pending:    d.pending,
		PendingOp:  d.pendingOp,
		LastOp:     d.lastOp,
		Err:        d.err,
		Invalid:    d.invalid,
	}
}

// View renders the retained sequence under the selected strategy.
func (d *Dispatcher) View() []render.Unit {
	return d.State().Units()
}

// Begin validates raw input and claims a new generation for op. Invalid
// input records the error and leaves the retained sequence and any
// in-flight request alone. The rejection stays visible until the next
// accepted submission.
func (d *Dispatcher) Begin(op backend.Operation, raw string) (Request, error) {
	if !op.Valid() {
		return Request{}, fmt.Errorf("unknown operation %q", op)
	}

	records, err := task.ValidateWithOptions(raw, d.validation)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.invalid = err
		d.err = nil
		d.logger.Debug("Rejected input", "op", op, "err", err)
		d.logEvent(logging.Event{Type: logging.EventInvalid, Op: string(op), Message: ErrorMessage(err)})
		return Request{}, err
	}

	d.generation++
	req := Request{
		Op:         op,
		Generation: d.generation,
		ID:         d.newID(),
		Records:    records,
	}
	d.pending = true
	d.pendingOp = op
	d.err = nil
	d.invalid = nil

	d.logger.Debug("Submitting", "op", op, "generation", req.Generation, "count", len(records))
	d.logEvent(logging.Event{
		Type:       logging.EventSubmit,
		Op:         string(op),
		Generation: req.Generation,
		RequestID:  req.ID,
		Count:      len(records),
	})
	return req, nil
}

// Fetch runs the round trip for req. It does not touch dispatcher state and
// may be called from any goroutine.
func (d *Dispatcher) Fetch(ctx context.Context, req Request) Result {
	start := time.Now()
	ctx = backend.WithRequestID(ctx, req.ID)
	records, err := d.scorer.Submit(ctx, req.Op, req.Records)
	return Result{
		Request: req,
		Records: records,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Apply commits res if it belongs to the latest generation and reports
// whether it did. A failed result records its error and keeps the prior
// sequence.
func (d *Dispatcher) Apply(res Result) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := res.Request
	event := logging.Event{
		Op:         string(req.Op),
		Generation: req.Generation,
		RequestID:  req.ID,
		DurationMS: res.Elapsed.Milliseconds(),
	}

	if req.Generation != d.generation || !d.pending {
		d.logger.Debug("Discarding stale response", "op", req.Op, "generation", req.Generation, "latest", d.generation)
		event.Type = logging.EventStale
		event.Message = fmt.Sprintf("superseded by generation %d", d.generation)
		d.logEvent(event)
		return false
	}

	d.pending = false
	d.pendingOp = ""

	if res.Err != nil {
		d.err = res.Err
		var berr *backend.Error
		if errors.As(res.Err, &berr) {
			event.Status = berr.StatusCode
		}
		d.logger.Error("Request failed", "op", req.Op, "generation", req.Generation, "err", res.Err)
		event.Type = logging.EventError
		event.Message = ErrorMessage(res.Err)
		d.logEvent(event)
		return true
	}

	d.records = res.Records
	d.lastOp = req.Op
	d.err = nil

	d.logger.Info("Scored tasks", "op", req.Op, "count", len(res.Records), "elapsed", res.Elapsed)
	event.Type = logging.EventResponse
	event.Count = len(res.Records)
	d.logEvent(event)
	return true
}

// SetStrategy selects a sort strategy. The retained sequence is re-rendered
// without a new request.
func (d *Dispatcher) SetStrategy(s sorting.Strategy) error {
	if !s.Valid() {
		return fmt.Errorf("unknown strategy %q", s)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setStrategyLocked(s)
	return nil
}

// CycleStrategy advances to the next strategy and returns it.
func (d *Dispatcher) CycleStrategy() sorting.Strategy {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.strategy.Next()
	d.setStrategyLocked(next)
	return next
}

func (d *Dispatcher) setStrategyLocked(s sorting.Strategy) {
	if s == d.strategy {
		return
	}
	d.strategy = s
	d.logEvent(logging.Event{Type: logging.EventStrategy, Strategy: string(s), Count: len(d.records)})
}

// Dispatch applies intent synchronously and returns the resulting state.
// Submissions return the validation or backend error; the state still
// reflects the prior sequence in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) (State, error) {
	switch intent.Kind {
	case IntentAnalyze, IntentSuggest:
		req, err := d.Begin(intent.Kind.operation(), intent.Input)
		if err != nil {
			return d.State(), err
		}
		res := d.Fetch(ctx, req)
		if !d.Apply(res) {
			return d.State(), ErrStale
		}
		return d.State(), res.Err
	case IntentChangeStrategy:
		err := d.SetStrategy(intent.Strategy)
		return d.State(), err
	default:
		return d.State(), fmt.Errorf("unknown intent %d", intent.Kind)
	}
}

func (d *Dispatcher) logEvent(e logging.Event) {
	if err := d.events.Log(e); err != nil {
		d.logger.Warn("Failed to write run log", "err", err)
	}
}
