package app

import (
	"github.com/nibzard/taskrank/internal/backend"
	"github.com/nibzard/taskrank/internal/sorting"
)

// IntentKind names a user action.
type IntentKind int

const (
	IntentAnalyze IntentKind = iota
	IntentSuggest
	IntentChangeStrategy
)

func (k IntentKind) String() string {
	switch k {
	case IntentAnalyze:
		return "analyze"
	case IntentSuggest:
		return "suggest"
	case IntentChangeStrategy:
		return "change-strategy"
	default:
		return "unknown"
	}
}

func (k IntentKind) operation() backend.Operation {
	if k == IntentSuggest {
		return backend.Suggest
	}
	return backend.Analyze
}

// Intent is a discrete user action.
type Intent struct {
	Kind     IntentKind
	Input    string           // raw JSON for Analyze and Suggest
	Strategy sorting.Strategy // target for ChangeStrategy
}

// Analyze submits input for scoring.
func Analyze(input string) Intent {
	return Intent{Kind: IntentAnalyze, Input: input}
}

// Suggest submits input for scoring with explanations.
func Suggest(input string) Intent {
	return Intent{Kind: IntentSuggest, Input: input}
}

// ChangeStrategy selects a sort strategy.
func ChangeStrategy(s sorting.Strategy) Intent {
	return Intent{Kind: IntentChangeStrategy, Strategy: s}
}
