package fix

import (
	"errors"
	"fmt"
	"sort"

	"flint/internal/diag"
)

// ErrConflictingEdit is returned when the edits of one fix overlap each
// other. Only the fix is rejected; its finding is still reported.
var ErrConflictingEdit = errors.New("fix edits overlap")

// ValidateEdits checks that no two edits of one fix overlap. Spans are
// half-open intervals, so adjacent edits are fine and two insertions at
// the same offset are fine.
func ValidateEdits(edits []diag.TextEdit) error {
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if edits[i].Span.File != edits[j].Span.File {
				continue
			}
			if spansConflict(edits[i], edits[j]) {
				return fmt.Errorf("%w: %s and %s", ErrConflictingEdit,
					edits[i].Span, edits[j].Span)
			}
		}
	}
	return nil
}

// Sanitize drops every fix whose edits fail ValidateEdits, keeping the
// diagnostics themselves intact. Each dropped fix is reported to rep as a
// ConflictingEdit internal diagnostic so the malformed remediation stays
// visible to operators. rep may be nil.
func Sanitize(diagnostics []diag.Diagnostic, rep diag.Reporter) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if len(d.Fixes) == 0 {
			out = append(out, d)
			continue
		}
		kept := make([]diag.Fix, 0, len(d.Fixes))
		for _, f := range d.Fixes {
			err := ValidateEdits(f.Edits)
			if err == nil {
				kept = append(kept, f)
				continue
			}
			if rep != nil {
				diag.NewInternal(rep, diag.ConflictingEdit, d.Primary,
					fmt.Sprintf("dropping fix %q: %v", f.Title, err)).
					ForRule(d.RuleID).
					Emit()
			}
		}
		d.Fixes = kept
		out = append(out, d)
	}
	return out
}

// Preview applies the edits of one fix to a copy of buf and returns the
// result without touching disk. Edits are applied in descending offset
// order so earlier offsets stay valid. The output length always equals
// len(buf) plus the summed length deltas of the edits.
func Preview(buf []byte, edits []diag.TextEdit) ([]byte, error) {
	if err := ValidateEdits(edits); err != nil {
		return nil, err
	}

	ordered := make([]diag.TextEdit, len(edits))
	copy(ordered, edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Span.Start == ordered[j].Span.Start {
			return ordered[i].Span.End > ordered[j].Span.End
		}
		return ordered[i].Span.Start > ordered[j].Span.Start
	})

	working := append([]byte(nil), buf...)
	for _, edit := range ordered {
		start, end := int(edit.Span.Start), int(edit.Span.End)
		if end > len(working) {
			return nil, fmt.Errorf("edit span %s out of range (%d bytes)", edit.Span, len(working))
		}
		if edit.OldText != "" && string(working[start:end]) != edit.OldText {
			return nil, fmt.Errorf("edit span %s: buffer does not match expected text", edit.Span)
		}
		suffix := append([]byte(nil), working[end:]...)
		working = append(append(working[:start], []byte(edit.NewText)...), suffix...)
	}
	return working, nil
}
