package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/taskrank/internal/task"
)

// DefaultBaseURL is where the scoring service listens in development.
const DefaultBaseURL = "http://127.0.0.1:8000/api/tasks"

// RequestIDHeader carries a per-request id for correlating logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// HTTPClient is a Scorer backed by the scoring service's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
	newID   func() string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		h.client.Timeout = d
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(h *HTTPClient) {
		if fn != nil {
			h.newID = fn
		}
	}
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  log.New(io.Discard),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the service root the client posts to.
func (h *HTTPClient) BaseURL() string {
	return h.baseURL
}

// Endpoint returns the URL for an operation.
func (h *HTTPClient) Endpoint(op Operation) string {
	return h.baseURL + "/" + string(op) + "/"
}

// Submit posts the records, stripped of enrichment fields, and decodes the
// enriched response.
func (h *HTTPClient) Submit(ctx context.Context, op Operation, records []task.Record) ([]task.Record, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operation %q", op)
	}

	body, err := encodeRequest(records)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint(op), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = h.newID()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	logger := h.logger.With("op", op, "request_id", requestID)
	logger.Debug("Submitting tasks", "count", len(records), "url", req.URL.String())
	start := time.Now()

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Debug("Request failed", "err", err)
		return nil, &Error{Op: op, Reason: ReasonUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := serverReason(resp.Body)
		if reason == "" {
			reason = op.genericReason()
		}
		logger.Debug("Service rejected request", "status", resp.StatusCode, "reason", reason)
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}

	enriched, err := decodeResponse(resp.Body)
	if err != nil {
		logger.Debug("Undecodable response", "status", resp.StatusCode, "err", err)
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Reason: op.genericReason(), Err: err}
	}

	logger.Debug("Received scores", "count", len(enriched), "status", resp.StatusCode, "elapsed", time.Since(start))
	return enriched, nil
}

func encodeRequest(records []task.Record) ([]byte, error) {
	stripped := task.StripAll(records)
	return json.Marshal(stripped)
}

func decodeResponse(r io.Reader) ([]task.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("response is not a JSON array")
	}
	var records []task.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if records == nil {
		records = []task.Record{}
	}
	return records, nil
}

// serverReason extracts the "error" message from a failed response body.
func serverReason(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
