// Package priority maps scores to display tiers.
package priority

import "math"

// Tier thresholds are inclusive lower bounds.
const (
	HighThreshold   = 140
	MediumThreshold = 100
)

// Tier is a display category derived from a score. It never affects ordering.
type Tier int

const (
	Low Tier = iota
	Medium
	High
)

// Classify returns the tier for a score. NaN classifies as Low.
func Classify(score float64) Tier {
	switch {
	case math.IsNaN(score):
		return Low
	case score >= HighThreshold:
		return High
	case score >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// ClassifyOptional classifies a score that may be missing; missing counts as 0.
func ClassifyOptional(score float64, ok bool) Tier {
	if !ok {
		return Classify(0)
	}
	return Classify(score)
}

func (t Tier) String() string {
	switch t {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// Class returns the visual category tag for the tier.
func (t Tier) Class() string {
	return "priority-" + t.String()
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
