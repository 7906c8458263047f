package rules

import (
	"fmt"

	"flint/internal/diag"
	"flint/internal/rule"
	"flint/internal/tree"
)

// TestHygiene flags focused test entry points left in a suite. Scoped to
// test files only: the registry never even asks it to register elsewhere.
type TestHygiene struct{}

func (TestHygiene) Descriptor() rule.Descriptor {
	return rule.Descriptor{
		ID:         "no_focused_test",
		Severity:   diag.SevError,
		Cost:       rule.CostTrivial,
		Categories: []rule.Category{rule.CategoryTest},
	}
}

func (h TestHygiene) Register(r *rule.Registrar) {
	r.OnKind(tree.KindInvocation, h.checkInvocation)
}

func (TestHygiene) checkInvocation(n tree.NodeID, tc rule.TraversalContext, emit rule.Emit) {
	t := tc.Tree()
	sym := t.SymbolOf(n)
	if !FocusedTests.Has(sym) {
		return
	}
	emit(diag.Diagnostic{
		Message:    fmt.Sprintf("%s() narrows the suite to a single test", sym),
		Correction: "restore the regular test entry point before committing",
		Primary:    t.SpanOf(n),
	})
}
