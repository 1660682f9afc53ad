package sorting

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nibzard/taskrank/internal/task"
)

func records(t *testing.T, raw string) []task.Record {
	t.Helper()
	out, err := task.Validate(raw)
	if err != nil {
		t.Fatalf("Validate(%s): %v", raw, err)
	}
	return out
}

func titles(records []task.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r.Text(task.FieldTitle)
	}
	return out
}

func rawJSON(t *testing.T, records []task.Record) string {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestEndToEndExample(t *testing.T) {
	input := records(t, `[
		{"title":"A","score":150,"estimated_hours":2,"due_date":"2024-01-01"},
		{"title":"B","score":90,"estimated_hours":1,"due_date":"2024-02-01"}
	]`)

	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{ByScore, []string{"A", "B"}},
		{Fastest, []string{"B", "A"}},
		{Deadline, []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			got := titles(Sort(input, tt.strategy))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sort(%s) mismatch (-want +got):\n%s", tt.strategy, diff)
			}
		})
	}
}

func TestSortByScore(t *testing.T) {
	input := records(t, `[
		{"title":"none"},
		{"title":"high","score":200},
		{"title":"text","score":"abc"},
		{"title":"neg","score":-5},
		{"title":"str","score":"120"},
		{"title":"null","score":null}
	]`)

	got := Sort(input, ByScore)
	want := []string{"high", "str", "none", "text", "null", "neg"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i+1 < len(got); i++ {
		if got[i].Score() < got[i+1].Score() {
			t.Errorf("score[%d]=%v < score[%d]=%v", i, got[i].Score(), i+1, got[i+1].Score())
		}
	}
}

func TestSortFastest(t *testing.T) {
	input := records(t, `[
		{"title":"eight","estimated_hours":8},
		{"title":"none"},
		{"title":"half","estimated_hours":0.5},
		{"title":"nan","estimated_hours":"lots"},
		{"title":"two","estimated_hours":"2"}
	]`)

	got := Sort(input, Fastest)
	want := []string{"none", "nan", "half", "two", "eight"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i+1 < len(got); i++ {
		if got[i].EstimatedHours() > got[i+1].EstimatedHours() {
			t.Errorf("hours[%d] > hours[%d]", i, i+1)
		}
	}
}

func TestSortDeadline(t *testing.T) {
	input := records(t, `[
		{"title":"bad","due_date":"someday"},
		{"title":"march","due_date":"2024-03-01"},
		{"title":"missing"},
		{"title":"jan","due_date":"2024-01-15"},
		{"title":"jan-ts","due_date":"2024-01-15T12:00:00Z"},
		{"title":"feb","due_date":"2024-02-01"}
	]`)

	got := Sort(input, Deadline)
	want := []string{"jan", "jan-ts", "feb", "march", "bad", "missing"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortIsStable(t *testing.T) {
	input := records(t, `[
		{"title":"a","score":100,"estimated_hours":1,"due_date":"2024-01-01"},
		{"title":"b","score":100,"estimated_hours":1,"due_date":"2024-01-01"},
		{"title":"c","score":100,"estimated_hours":1,"due_date":"2024-01-01"},
		{"title":"d","score":100,"estimated_hours":1,"due_date":"2024-01-01"}
	]`)

	for _, s := range Strategies() {
		got := titles(Sort(input, s))
		if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got); diff != "" {
			t.Errorf("Sort(%s) reordered ties (-want +got):\n%s", s, diff)
		}
	}
}

func TestSortStableAmongTiesWithOthers(t *testing.T) {
	input := records(t, `[
		{"title":"x1","estimated_hours":3},
		{"title":"y1","estimated_hours":1},
		{"title":"x2","estimated_hours":3},
		{"title":"y2","estimated_hours":1},
		{"title":"x3","estimated_hours":3}
	]`)
	got := titles(Sort(input, Fastest))
	want := []string{"y1", "y2", "x1", "x2", "x3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	input := records(t, `[
		{"title":"A","score":1,"estimated_hours":9,"due_date":"2025-01-01"},
		{"title":"B","score":3,"estimated_hours":1,"due_date":"2023-01-01"},
		{"title":"C","score":2,"estimated_hours":5}
	]`)
	before := rawJSON(t, input)

	for _, s := range Strategies() {
		out := Sort(input, s)
		if len(out) > 0 && &out[0] == &input[0] {
			t.Errorf("Sort(%s) returned the input slice", s)
		}
		if after := rawJSON(t, input); after != before {
			t.Errorf("Sort(%s) mutated input:\n got %s\nwant %s", s, after, before)
		}
	}
}

func TestSortEmptyAndNil(t *testing.T) {
	if got := Sort(nil, ByScore); got == nil || len(got) != 0 {
		t.Errorf("Sort(nil) = %v, want empty non-nil slice", got)
	}
	if got := Sort([]task.Record{}, Deadline); len(got) != 0 {
		t.Errorf("Sort(empty) = %v", got)
	}
}

func TestSortUnknownStrategyUsesScore(t *testing.T) {
	input := records(t, `[{"title":"lo","score":1},{"title":"hi","score":2}]`)
	got := titles(Sort(input, Strategy("bogus")))
	if diff := cmp.Diff([]string{"hi", "lo"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", ByScore, false},
		{"score", ByScore, false},
		{"FASTEST", Fastest, false},
		{" deadline ", Deadline, false},
		{"priority", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStrategyNext(t *testing.T) {
	if ByScore.Next() != Fastest || Fastest.Next() != Deadline || Deadline.Next() != ByScore {
		t.Error("Next() does not cycle score -> fastest -> deadline -> score")
	}
	if Strategy("x").Next() != Default {
		t.Error("Next() on unknown strategy should reset to default")
	}
	if !Deadline.Valid() || Strategy("x").Valid() {
		t.Error("Valid() mismatch")
	}
}
