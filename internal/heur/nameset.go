package heur

import (
	"sort"

	"flint/internal/tree"
)

// NameSet is a closed vocabulary of canonical names (known disposable
// controller types, deprecated hash algorithms, key-construction methods).
// Rules extend coverage by adding table rows, never by branching in shared
// code.
type NameSet map[string]struct{}

// NewNameSet builds a set from its entries.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports exact membership.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the sorted entries, for diagnostics and rule listings.
func (s NameSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// MatchesKnownTypeSet reports whether the node's static type is in the set.
// When the front end resolved no type, the check degrades to the node's
// identifier text; absence of type information must not crash or silently
// disable a rule.
func MatchesKnownTypeSet(t *tree.Tree, n tree.NodeID, set NameSet) bool {
	if typeName := t.TypeNameOf(n); typeName != "" {
		return set.Has(typeName)
	}
	if sym := t.SymbolOf(n); sym != "" {
		return set.Has(sym)
	}
	return false
}

// MatchesKnownMethodSet reports whether the node is an invocation (or
// constructor call) of a method in the set.
func MatchesKnownMethodSet(t *tree.Tree, n tree.NodeID, set NameSet) bool {
	switch t.KindOf(n) {
	case tree.KindInvocation, tree.KindConstructorCall:
		return set.Has(t.SymbolOf(n))
	}
	return false
}
