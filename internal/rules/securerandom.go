package rules

import (
	"flint/internal/diag"
	"flint/internal/fix"
	"flint/internal/rule"
	"flint/internal/tree"
)

// SecureRandom flags constructions of non-cryptographic random sources.
// Applies to every file category: insecure randomness in tests masks the
// same bug the production path has.
type SecureRandom struct{}

func (SecureRandom) Descriptor() rule.Descriptor {
	return rule.Descriptor{
		ID:       "secure_random_source",
		Severity: diag.SevWarning,
		Cost:     rule.CostTrivial,
	}
}

func (s SecureRandom) Register(r *rule.Registrar) {
	r.OnKind(tree.KindConstructorCall, s.checkCtor)
}

func (SecureRandom) checkCtor(n tree.NodeID, tc rule.TraversalContext, emit rule.Emit) {
	t := tc.Tree()
	sym := t.SymbolOf(n)
	if !InsecureRandom.Has(sym) {
		return
	}

	d := diag.Diagnostic{
		Message:    "random source is not cryptographically secure",
		Correction: "use Random.secure() when the value guards anything of worth",
		Primary:    t.SpanOf(n),
	}
	// Offer the rewrite only for the plain no-argument form: a seeded
	// Random(seed) is usually deliberate determinism.
	if t.NodeText(n) == sym+"()" {
		d = d.WithFixSuggestion(fix.ReplaceSpan(
			"switch to a secure source",
			t.SpanOf(n),
			sym+".secure()",
			sym+"()",
			fix.WithApplicability(diag.FixSafeWithHeuristics),
		))
	}
	emit(d)
}
