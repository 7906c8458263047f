package diag

import (
	"flint/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit is one proposed text mutation. An insertion has an empty span
// (Start == End). OldText, when non-empty, is a guard: the fix engine
// refuses to apply the edit if the buffer no longer matches.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixApplicability states how much trust an automated fix deserves.
type FixApplicability uint8

const (
	// FixAlwaysSafe fixes may be applied in bulk without review.
	FixAlwaysSafe FixApplicability = iota
	// FixSafeWithHeuristics fixes rest on name-based heuristics and may
	// misfire on unusual code.
	FixSafeWithHeuristics
	// FixManualReview fixes change behaviour and need a human.
	FixManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixAlwaysSafe:
		return "always-safe"
	case FixSafeWithHeuristics:
		return "safe-with-heuristics"
	case FixManualReview:
		return "manual-review"
	}
	return "unknown"
}

// Fix is a structured remediation: one or more text edits that together
// rewrite the offending code. Edits of one fix must not overlap.
type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is one reported issue, anchored to a primary span. RuleID
// names the producing rule for regular findings; internal conditions set
// Code instead (and keep RuleID when one is implicated, e.g. RuleFailure).
type Diagnostic struct {
	RuleID     string
	Code       Code
	Severity   Severity
	Message    string
	Correction string
	Primary    source.Span
	Notes      []Note
	Fixes      []Fix
}

// WithFix returns a copy of d with an extra fix appended.
func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes[:len(d.Fixes):len(d.Fixes)], Fix{Title: title, Edits: edits})
	return d
}

// WithFixSuggestion returns a copy of d with the configured fix appended.
func (d Diagnostic) WithFixSuggestion(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes[:len(d.Fixes):len(d.Fixes)], fix)
	return d
}
