package rules

import (
	"fmt"

	"flint/internal/diag"
	"flint/internal/fix"
	"flint/internal/heur"
	"flint/internal/rule"
	"flint/internal/tree"
)

// MountedGuard flags state-mutating calls that are not protected by a
// liveness check. All three guard shapes count: a wrapping `if (mounted)`,
// the true branch of a `mounted ?:` ternary, and a preceding
// `if (!mounted) return;`. Calls inside recognized deferral wrappers
// (SafeDeferrals) are suppressed for the whole wrapped subtree.
type MountedGuard struct{}

func (MountedGuard) Descriptor() rule.Descriptor {
	return rule.Descriptor{
		ID:         "unguarded_state_update",
		Severity:   diag.SevWarning,
		Cost:       rule.CostLow,
		Categories: []rule.Category{rule.CategoryWidget},
	}
}

func (g MountedGuard) Register(r *rule.Registrar) {
	r.OnKind(tree.KindInvocation, g.checkInvocation)
}

func (MountedGuard) checkInvocation(n tree.NodeID, tc rule.TraversalContext, emit rule.Emit) {
	t := tc.Tree()
	sym := t.SymbolOf(n)

	if SafeDeferrals.Has(sym) {
		tc.PushSuppressed()
		return
	}
	if !StateMutators.Has(sym) {
		return
	}
	if tc.Suppressed() {
		return
	}
	if heur.IsGuardedBy(t, n, heur.TextGuard("mounted")) {
		return
	}

	emit(diag.Diagnostic{
		Message:    fmt.Sprintf("%s() may run after the element is gone", sym),
		Correction: "check `mounted` before mutating state",
		Primary:    t.SpanOf(n),
	})
}

// FixesFor wraps the offending call in a mounted check. The rewrite changes
// control flow, so it stays behind heuristic applicability.
func (MountedGuard) FixesFor(d diag.Diagnostic, _ *tree.Tree) []diag.Fix {
	return []diag.Fix{
		fix.WrapWith(
			"guard with a mounted check",
			d.Primary,
			"if (mounted) { ",
			" }",
			fix.WithID(fmt.Sprintf("unguarded_state_update-%d-%d", d.Primary.File, d.Primary.Start)),
		),
	}
}
