package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field names understood by the presentation pipeline.
const (
	FieldTitle          = "title"
	FieldDueDate        = "due_date"
	FieldImportance     = "importance"
	FieldEstimatedHours = "estimated_hours"
	FieldDependencies   = "dependencies"
	FieldScore          = "score"
	FieldExplanation    = "explanation"
)

// DateLayout is the due date format used by the scoring service.
const DateLayout = "2006-01-02"

// Record is a single task, before or after enrichment.
type Record struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// NewRecord builds a record from raw JSON bytes.
func NewRecord(raw []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalJSON(raw); err != nil {
		return Record{}, err
	}
	return r, nil
}

// MustRecord is like NewRecord but panics on malformed input.
// Intended for tests and literals.
func MustRecord(raw string) Record {
	r, err := NewRecord([]byte(raw))
	if err != nil {
		panic(err)
	}
	return r
}

// UnmarshalJSON stores the element verbatim and indexes its fields when it is an object.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return fmt.Errorf("invalid task record")
	}
	r.raw = append(json.RawMessage(nil), trimmed...)
	r.fields = nil
	if len(trimmed) > 0 && trimmed[0] == '{' {
		fields := make(map[string]json.RawMessage)
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return fmt.Errorf("decode task record: %w", err)
		}
		r.fields = fields
	}
	return nil
}

// MarshalJSON returns the record exactly as it was received.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// Raw returns the record's JSON bytes.
func (r Record) Raw() json.RawMessage {
	return r.raw
}

// IsObject reports whether the record is a JSON object.
func (r Record) IsObject() bool {
	return r.fields != nil
}

// Has reports whether the field is present and not null.
func (r Record) Has(key string) bool {
	v, ok := r.fields[key]
	return ok && !isNull(v)
}

// Keys returns the record's field names in no particular order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	return keys
}

// Text returns the field as display text. Strings are returned as-is,
// numbers and true as their JSON literal. Falsy values (missing, null, "",
// 0 and false) and composite values report false.
func (r Record) Text(key string) (string, bool) {
	v, ok := r.fields[key]
	if !ok || isNull(v) {
		return "", false
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	case 'f':
		return "", false
	case 't':
		return string(v), true
	default:
		if f, err := strconv.ParseFloat(string(v), 64); err == nil && f == 0 {
			return "", false
		}
		return string(v), true
	}
}

// Literal returns the field as display text, keeping falsy values such as
// 0, false and "" that Text drops. Only missing and null report false.
func (r Record) Literal(key string) (string, bool) {
	v, ok := r.fields[key]
	if !ok || isNull(v) {
		return "", false
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, true
		}
	}
	return string(v), true
}

// Number returns the field as a finite number. JSON numbers and numeric
// strings are accepted; anything else reports false.
func (r Record) Number(key string) (float64, bool) {
	v, ok := r.fields[key]
	if !ok || isNull(v) {
		return 0, false
	}
	var s string
	switch v[0] {
	case '"':
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
	case '{', '[', 't', 'f':
		return 0, false
	default:
		s = string(v)
	}
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberOr returns the field as a number, or def when it is absent or not numeric.
func (r Record) NumberOr(key string, def float64) float64 {
	if f, ok := r.Number(key); ok {
		return f
	}
	return def
}

// Date returns the field parsed as a calendar date.
func (r Record) Date(key string) (time.Time, bool) {
	s, ok := r.Text(key)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(s)
}

// ParseDate parses a due date. "YYYY-MM-DD" is tried first, then RFC 3339.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Score returns the effective score; missing or non-numeric scores count as 0.
func (r Record) Score() float64 {
	return r.NumberOr(FieldScore, 0)
}

// EstimatedHours returns the effective estimate; missing or non-numeric count as 0.
func (r Record) EstimatedHours() float64 {
	return r.NumberOr(FieldEstimatedHours, 0)
}

// Enriched reports whether the scoring service has added a score.
func (r Record) Enriched() bool {
	return r.Has(FieldScore)
}

// Stripped returns a copy of the record without enrichment fields.
// Non-object records are returned unchanged.
func (r Record) Stripped() Record {
	if r.fields == nil {
		return r
	}
	_, hasScore := r.fields[FieldScore]
	_, hasExplanation := r.fields[FieldExplanation]
	if !hasScore && !hasExplanation {
		return r
	}
	fields := make(map[string]json.RawMessage, len(r.fields))
	for k, v := range r.fields {
		if k == FieldScore || k == FieldExplanation {
			continue
		}
		fields[k] = v
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		// fields came from a successful decode, so re-encoding cannot fail
		return r
	}
	return Record{raw: raw, fields: fields}
}

// StripAll applies Stripped to every record, keeping order.
func StripAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Stripped()
	}
	return out
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(v) == "null"
}
