package rule

import (
	"flint/internal/diag"
)

// Cost is an advisory execution-cost hint. The registry uses it to order
// expensive rules last and to skip them wholesale under a fast budget; it is
// never an enforced deadline.
type Cost uint8

const (
	CostTrivial Cost = iota
	CostLow
	CostMedium
	CostHigh
)

func (c Cost) String() string {
	switch c {
	case CostTrivial:
		return "trivial"
	case CostLow:
		return "low"
	case CostMedium:
		return "medium"
	case CostHigh:
		return "high"
	}
	return "unknown"
}

// ParseCost maps a config string to a Cost.
func ParseCost(s string) (Cost, bool) {
	switch s {
	case "trivial":
		return CostTrivial, true
	case "low":
		return CostLow, true
	case "medium":
		return CostMedium, true
	case "high":
		return CostHigh, true
	}
	return CostTrivial, false
}

// Category tags a file class ("widget-like", "test", "production"). Rules
// with no categories apply everywhere.
type Category string

const (
	CategoryWidget     Category = "widget-like"
	CategoryTest       Category = "test"
	CategoryProduction Category = "production"
)

// Descriptor is the identity and policy of one rule. ID is globally unique
// and serves as the dedup/sort key for findings.
type Descriptor struct {
	ID         string
	Severity   diag.Severity
	Cost       Cost
	Categories []Category
}

// AppliesTo reports whether a file with the given categories is in scope:
// an empty descriptor category set matches everything, otherwise the sets
// must intersect.
func (d Descriptor) AppliesTo(categories []Category) bool {
	if len(d.Categories) == 0 {
		return true
	}
	for _, want := range d.Categories {
		for _, have := range categories {
			if want == have {
				return true
			}
		}
	}
	return false
}
