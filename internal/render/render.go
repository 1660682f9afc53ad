// Package render turns scored task sequences into display units.
package render

import (
	"fmt"
	"strconv"

	"github.com/nibzard/taskrank/internal/priority"
	"github.com/nibzard/taskrank/internal/sorting"
	"github.com/nibzard/taskrank/internal/task"
)

// Display fallbacks.
const (
	EmptyStateText     = "No tasks to display. Paste some JSON and click Analyze."
	UntitledText       = "(Untitled Task)"
	NotAvailable       = "N/A"
	NoExplanationText  = "No explanation available. (Use Suggest to generate explanations.)"
	metaSeparator      = " • "
	scoreLabelTemplate = "Score: %s"
)

// Kind distinguishes task units from the empty-state placeholder.
type Kind string

const (
	KindTask        Kind = "task"
	KindPlaceholder Kind = "placeholder"
)

// Unit is the rendered form of one task, or the empty-state placeholder.
type Unit struct {
	Kind        Kind          `json:"kind" yaml:"kind"`
	Title       string        `json:"title,omitempty" yaml:"title,omitempty"`
	Score       float64       `json:"score" yaml:"score"`
	ScoreLabel  string        `json:"score_label,omitempty" yaml:"score_label,omitempty"`
	Meta        string        `json:"meta,omitempty" yaml:"meta,omitempty"`
	Explanation string        `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Tier        priority.Tier `json:"tier" yaml:"tier"`
	Class       string        `json:"class,omitempty" yaml:"class,omitempty"`
	Message     string        `json:"message,omitempty" yaml:"message,omitempty"`
}

// IsPlaceholder reports whether u is the empty-state unit.
func (u Unit) IsPlaceholder() bool {
	return u.Kind == KindPlaceholder
}

// Placeholder returns the empty-state unit.
func Placeholder() Unit {
	return Unit{Kind: KindPlaceholder, Message: EmptyStateText}
}

// Render maps records to display units in order. An empty sequence renders
// as exactly one placeholder.
func Render(records []task.Record) []Unit {
	if len(records) == 0 {
		return []Unit{Placeholder()}
	}
	units := make([]Unit, len(records))
	for i, r := range records {
		units[i] = Task(r)
	}
	return units
}

// View runs the whole presentation pipeline: sort by strategy, classify,
// and render.
func View(records []task.Record, strategy sorting.Strategy) []Unit {
	return Render(sorting.Sort(records, strategy))
}

// Task renders a single record.
func Task(r task.Record) Unit {
	score := r.Score()
	tier := priority.Classify(score)

	title, ok := r.Text(task.FieldTitle)
	if !ok {
		title = UntitledText
	}
	explanation, ok := r.Text(task.FieldExplanation)
	if !ok {
		explanation = NoExplanationText
	}

	return Unit{
		Kind:        KindTask,
		Title:       title,
		Score:       score,
		ScoreLabel:  fmt.Sprintf(scoreLabelTemplate, formatNumber(score)),
		Meta:        metaLine(r),
		Explanation: explanation,
		Tier:        tier,
		Class:       tier.Class(),
	}
}

// metaLine builds "Due: X • Importance: Y • Hours: Z". An empty due date
// reads as N/A; importance and hours only fall back when missing or null.
func metaLine(r task.Record) string {
	due, ok := r.Text(task.FieldDueDate)
	if !ok {
		due = NotAvailable
	}
	importance, ok := r.Literal(task.FieldImportance)
	if !ok {
		importance = NotAvailable
	}
	hours, ok := r.Literal(task.FieldEstimatedHours)
	if !ok {
		hours = NotAvailable
	}
	return "Due: " + due + metaSeparator + "Importance: " + importance + metaSeparator + "Hours: " + hours
}

// formatNumber prints integers without a decimal point.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
