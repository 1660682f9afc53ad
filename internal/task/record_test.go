package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecordText(t *testing.T) {
	r := MustRecord(`{"title":"Write","empty":"","n":0,"neg":-0.0,"num":3,"b":false,"yes":true,"nil":null,"list":[1],"obj":{}}`)

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"title", "Write", true},
		{"empty", "", false},
		{"n", "", false},
		{"neg", "", false},
		{"num", "3", true},
		{"b", "", false},
		{"yes", "true", true},
		{"nil", "", false},
		{"list", "", false},
		{"obj", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Text(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Text(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRecordLiteral(t *testing.T) {
	r := MustRecord(`{"importance":0,"hours":"","nil":null,"s":"x"}`)

	if got, ok := r.Literal("importance"); !ok || got != "0" {
		t.Errorf("Literal(importance) = (%q, %v), want (0, true)", got, ok)
	}
	if got, ok := r.Literal("hours"); !ok || got != "" {
		t.Errorf("Literal(hours) = (%q, %v), want (\"\", true)", got, ok)
	}
	if _, ok := r.Literal("nil"); ok {
		t.Error("Literal(nil) ok = true, want false")
	}
	if got, _ := r.Literal("s"); got != "x" {
		t.Errorf("Literal(s) = %q, want x", got)
	}
}

func TestRecordNumber(t *testing.T) {
	r := MustRecord(`{"a":150,"b":"2.5","c":"abc","d":true,"e":null,"f":[1],"g":" 7 ","h":"NaN","i":-3e2}`)

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"a", 150, true},
		{"b", 2.5, true},
		{"c", 0, false},
		{"d", 0, false},
		{"e", 0, false},
		{"f", 0, false},
		{"g", 7, true},
		{"h", 0, false},
		{"i", -300, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, ok := r.Number(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Number(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRecordEffectiveValues(t *testing.T) {
	r := MustRecord(`{"title":"x"}`)
	if r.Score() != 0 {
		t.Errorf("Score() = %v, want 0", r.Score())
	}
	if r.EstimatedHours() != 0 {
		t.Errorf("EstimatedHours() = %v, want 0", r.EstimatedHours())
	}
	if r.Enriched() {
		t.Error("Enriched() = true, want false")
	}

	scored := MustRecord(`{"score":142,"estimated_hours":3}`)
	if scored.Score() != 142 || scored.EstimatedHours() != 3 || !scored.Enriched() {
		t.Errorf("scored record = (%v, %v, %v)", scored.Score(), scored.EstimatedHours(), scored.Enriched())
	}
}

func TestRecordDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{`{"due_date":"2024-02-01"}`, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{`{"due_date":"2024-02-01T10:00:00+02:00"}`, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), true},
		{`{"due_date":"next week"}`, time.Time{}, false},
		{`{"due_date":"2024-13-01"}`, time.Time{}, false},
		{`{"due_date":20240201}`, time.Time{}, false},
		{`{}`, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := MustRecord(tt.raw).Date(FieldDueDate)
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("Date(%s) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRecordNonObject(t *testing.T) {
	r := MustRecord(`42`)
	if r.IsObject() {
		t.Error("IsObject() = true, want false")
	}
	if _, ok := r.Text(FieldTitle); ok {
		t.Error("Text(title) ok = true on a number")
	}
	if r.Stripped().Raw() == nil || string(r.Stripped().Raw()) != "42" {
		t.Errorf("Stripped() = %s, want 42", r.Stripped().Raw())
	}
}

func TestRecordStripped(t *testing.T) {
	r := MustRecord(`{"title":"A","score":150,"explanation":"why","dependencies":[2]}`)
	s := r.Stripped()

	if s.Has(FieldScore) || s.Has(FieldExplanation) {
		t.Errorf("Stripped() still has enrichment: %s", s.Raw())
	}
	if title, _ := s.Text(FieldTitle); title != "A" {
		t.Errorf("title = %q, want A", title)
	}
	if !s.Has(FieldDependencies) {
		t.Error("Stripped() dropped dependencies")
	}
	// The original record is untouched.
	if !r.Has(FieldScore) {
		t.Error("Stripped() mutated the receiver")
	}
}

func TestRecordMarshalRoundTrip(t *testing.T) {
	in := `[{"title":"A","score":1},3,{"title":"B"}]`
	var records []Record
	if err := json.Unmarshal([]byte(in), &records); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != in {
		t.Errorf("Marshal = %s, want %s", out, in)
	}
}

func TestStripAll(t *testing.T) {
	records := []Record{
		MustRecord(`{"title":"A","score":1}`),
		MustRecord(`{"title":"B"}`),
	}
	stripped := StripAll(records)
	if len(stripped) != 2 {
		t.Fatalf("len = %d, want 2", len(stripped))
	}
	if stripped[0].Has(FieldScore) {
		t.Error("StripAll kept score")
	}
	if !records[0].Has(FieldScore) {
		t.Error("StripAll mutated input")
	}
}
