package rules

import "flint/internal/rule"

// All returns the built-in detectors in their canonical registration order.
func All() []rule.Rule {
	return []rule.Rule{
		DisposeCheck{},
		MountedGuard{},
		SecureRandom{},
		TestHygiene{},
	}
}

// NewRegistry builds a registry holding every built-in detector.
func NewRegistry() *rule.Registry {
	r := rule.NewRegistry()
	r.MustRegister(All()...)
	return r
}
