// Package backend talks to the remote scoring service.
package backend

import (
	"context"
	"fmt"

	"github.com/nibzard/taskrank/internal/task"
)

// Operation selects a scoring endpoint.
type Operation string

const (
	// Analyze scores every task and returns them ordered by score.
	Analyze Operation = "analyze"
	// Suggest scores tasks, explains each score and returns a short list to focus on.
	Suggest Operation = "suggest"
)

// Valid reports whether op names a known endpoint.
func (op Operation) Valid() bool {
	return op == Analyze || op == Suggest
}

// genericReason is shown when the service gives no message of its own.
func (op Operation) genericReason() string {
	return fmt.Sprintf("Failed to %s tasks", op)
}

// Scorer submits task batches for enrichment.
type Scorer interface {
	// Submit sends records to the operation's endpoint and returns the
	// enriched sequence in the service's order.
	Submit(ctx context.Context, op Operation, records []task.Record) ([]task.Record, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, op Operation, records []task.Record) ([]task.Record, error)

// Submit calls f.
func (f ScorerFunc) Submit(ctx context.Context, op Operation, records []task.Record) ([]task.Record, error) {
	return f(ctx, op, records)
}

// ReasonUnreachable is reported for transport failures.
const ReasonUnreachable = "Failed to reach backend. Is the scoring server running?"

// Error is a failed round trip to the scoring service.
type Error struct {
	Op         Operation
	StatusCode int    // 0 for transport failures
	Reason     string // user-facing reason
	Err        error  // underlying error, if any
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user. Service failures carry an
// "Error: " prefix; transport failures are shown as is.
func (e *Error) Message() string {
	if e.Transport() {
		return e.Reason
	}
	return "Error: " + e.Reason
}

// Transport reports whether the request never got an HTTP response.
func (e *Error) Transport() bool {
	return e.StatusCode == 0
}

type requestIDKey struct{}

// WithRequestID attaches a request id for the scorer to send along.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
