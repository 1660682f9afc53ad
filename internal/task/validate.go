package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// User-facing validation messages.
const (
	MsgInvalidJSON = "Invalid JSON. Please check your input."
	MsgNotArray    = "JSON must be an array of task objects."
)

// ErrNotArray is wrapped by validation errors for inputs whose top-level
// value is not an array.
var ErrNotArray = errors.New("top-level value is not an array")

// batchSchemaURL names the built-in batch schema inside the compiler.
const batchSchemaURL = "taskrank-batch.schema.json"

// batchSchema is the built-in structural shape: an array of anything.
const batchSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "task batch",
  "type": "array"
}`

var (
	batchOnce     sync.Once
	batchCompiled *jsonschema.Schema
	batchErr      error
)

// ValidationError reports rejected input.
type ValidationError struct {
	Path    string // JSON path to the error location, empty for the whole document
	Message string // user-facing message
	Err     error  // underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is an optional JSON Schema file with stricter rules for the
	// batch. It runs after the built-in shape check.
	SchemaPath string
}

// Validate parses raw text into a task sequence.
func Validate(raw string) ([]Record, error) {
	return ValidateWithOptions(raw, ValidationOptions{})
}

// ValidateWithOptions parses raw text into a task sequence, applying an
// optional user schema.
func ValidateWithOptions(raw string, opts ValidationOptions) ([]Record, error) {
	data := []byte(strings.TrimSpace(raw))

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Err: err}
	}

	schema, err := builtinSchema()
	if err != nil {
		return nil, fmt.Errorf("compile batch schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &ValidationError{Message: MsgNotArray, Err: fmt.Errorf("%w: %v", ErrNotArray, err)}
	}

	if opts.SchemaPath != "" {
		user, err := compileSchemaFile(opts.SchemaPath)
		if err != nil {
			return nil, err
		}
		if err := user.Validate(doc); err != nil {
			return nil, schemaViolation(err)
		}
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Err: err}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// decodeDocument decodes a single JSON document, keeping number precision.
func decodeDocument(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return doc, nil
}

func builtinSchema() (*jsonschema.Schema, error) {
	batchOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(batchSchemaURL, strings.NewReader(batchSchema)); err != nil {
			batchErr = err
			return
		}
		batchCompiled, batchErr = compiler.Compile(batchSchemaURL)
	})
	return batchCompiled, batchErr
}

func compileSchemaFile(path string) (*jsonschema.Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return schema, nil
}

// schemaViolation flattens a schema error into the first leaf cause.
func schemaViolation(err error) *ValidationError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error(), Err: err}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &ValidationError{
		Path:    jsonPointerToPath(leaf.InstanceLocation),
		Message: leaf.Message,
		Err:     err,
	}
}

// jsonPointerToPath converts "/2/title" into "[2].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
