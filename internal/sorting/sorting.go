// Package sorting reorders scored task sequences for viewing.
//
// Every strategy is a stable sort over a copy of the input. Records whose
// keys compare equal keep the order the scoring service returned them in.
package sorting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nibzard/taskrank/internal/task"
)

// Strategy is a client-side viewing order.
type Strategy string

const (
	// ByScore orders by descending score. Missing or non-numeric scores count as 0.
	ByScore Strategy = "score"
	// Fastest orders by ascending estimated hours. Missing or non-numeric count as 0.
	Fastest Strategy = "fastest"
	// Deadline orders by ascending due date. Records without a parsable date
	// come after every dated record.
	Deadline Strategy = "deadline"
)

// Default is the strategy used when none is selected.
const Default = ByScore

// Strategies lists every strategy in selector order.
func Strategies() []Strategy {
	return []Strategy{ByScore, Fastest, Deadline}
}

// ParseStrategy parses a strategy name. An empty name selects Default.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case "":
		return Default, nil
	case ByScore, Fastest, Deadline:
		return s, nil
	default:
		return "", fmt.Errorf("unknown sorting strategy %q (expected score|fastest|deadline)", name)
	}
}

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case ByScore, Fastest, Deadline:
		return true
	}
	return false
}

// Next returns the following strategy in selector order, wrapping around.
func (s Strategy) Next() Strategy {
	all := Strategies()
	for i, candidate := range all {
		if candidate == s {
			return all[(i+1)%len(all)]
		}
	}
	return Default
}

// Label returns a short human description of the strategy.
func (s Strategy) Label() string {
	switch s {
	case Fastest:
		return "Fastest wins"
	case Deadline:
		return "Deadline first"
	default:
		return "Highest score"
	}
}

// Sort returns a new slice ordered by the strategy. The input is not modified.
// Unknown strategies fall back to Default.
func Sort(records []task.Record, strategy Strategy) []task.Record {
	out := make([]task.Record, len(records))
	copy(out, records)

	switch strategy {
	case Fastest:
		keys := make([]float64, len(out))
		for i, r := range out {
			keys[i] = r.EstimatedHours()
		}
		sortStable(out, func(i, j int) bool { return keys[i] < keys[j] })
	case Deadline:
		keys := make([]dateKey, len(out))
		for i, r := range out {
			t, ok := r.Date(task.FieldDueDate)
			keys[i] = dateKey{t: t, ok: ok}
		}
		sortStable(out, func(i, j int) bool { return keys[i].before(keys[j]) })
	default:
		keys := make([]float64, len(out))
		for i, r := range out {
			keys[i] = r.Score()
		}
		sortStable(out, func(i, j int) bool { return keys[i] > keys[j] })
	}
	return out
}

type dateKey struct {
	t  time.Time
	ok bool
}

// before treats undated records as later than any dated one.
func (a dateKey) before(b dateKey) bool {
	switch {
	case a.ok && b.ok:
		return a.t.Before(b.t)
	case a.ok:
		return true
	default:
		return false
	}
}

// sortStable sorts records in place. less compares original positions, so
// precomputed key slices stay valid while the index order is sorted.
func sortStable(records []task.Record, less func(i, j int) bool) {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(idx[a], idx[b]) })

	sorted := make([]task.Record, len(records))
	for pos, i := range idx {
		sorted[pos] = records[i]
	}
	copy(records, sorted)
}
