package heur

import (
	"strings"

	"flint/internal/tree"
)

// CondPredicate recognizes a guard condition and its negation. The split
// matters because the early-return shape inverts the condition
// (`if (!mounted) return;`) while the wrapping shapes do not.
type CondPredicate interface {
	Matches(t *tree.Tree, cond tree.NodeID) bool
	MatchesNegated(t *tree.Tree, cond tree.NodeID) bool
}

// TextGuard matches a condition by its exact source text. This is a
// textual heuristic: `mounted && x` does not match, which under-reports
// compound guards but never mistakes an unrelated flag for the guard.
type TextGuard string

func (g TextGuard) Matches(t *tree.Tree, cond tree.NodeID) bool {
	return strings.TrimSpace(t.NodeText(cond)) == string(g)
}

func (g TextGuard) MatchesNegated(t *tree.Tree, cond tree.NodeID) bool {
	return strings.TrimSpace(t.NodeText(cond)) == "!"+string(g)
}

// FuncGuard adapts two plain predicates into a CondPredicate.
type FuncGuard struct {
	Match   NodePredicate
	Negated NodePredicate
}

func (g FuncGuard) Matches(t *tree.Tree, cond tree.NodeID) bool {
	return g.Match != nil && g.Match(t, cond)
}

func (g FuncGuard) MatchesNegated(t *tree.Tree, cond tree.NodeID) bool {
	return g.Negated != nil && g.Negated(t, cond)
}

// IsGuardedBy reports whether n is protected by a recognized guard shape:
//
//	if (cond) { n }          wrapping if, n in the then branch
//	cond ? n : other         ternary, n in the true branch
//	if (!cond) return; ...n  early return before n in an enclosing block
//
// All three count as equivalent. The walk stops at the enclosing method or
// lambda: a guard in an outer scope does not protect code in a nested
// closure that may run later.
func IsGuardedBy(t *tree.Tree, n tree.NodeID, pred CondPredicate) bool {
	if wrappedInGuard(t, n, pred) {
		return true
	}
	return precededByEarlyReturn(t, n, pred)
}

func wrappedInGuard(t *tree.Tree, n tree.NodeID, pred CondPredicate) bool {
	prev := n
	for cur := t.ParentOf(n); cur.IsValid(); prev, cur = cur, t.ParentOf(cur) {
		children := t.ChildrenOf(cur)
		switch t.KindOf(cur) {
		case tree.KindIf:
			// children: [cond, then, else?]; only the then branch is guarded.
			if len(children) >= 2 && prev == children[1] && pred.Matches(t, children[0]) {
				return true
			}
		case tree.KindTernary:
			if len(children) >= 2 && prev == children[1] && pred.Matches(t, children[0]) {
				return true
			}
		}
		if t.KindOf(cur).IsDeclBoundary() {
			return false
		}
	}
	return false
}

func precededByEarlyReturn(t *tree.Tree, n tree.NodeID, pred CondPredicate) bool {
	// Check every block between n and the declaration boundary.
	for cur := t.ParentOf(n); cur.IsValid(); cur = t.ParentOf(cur) {
		if t.KindOf(cur) == tree.KindBlock {
			stmt := StatementOf(t, n, cur)
			if stmt.IsValid() && blockHasEarlyReturnBefore(t, cur, stmt, pred) {
				return true
			}
		}
		if t.KindOf(cur).IsDeclBoundary() {
			return false
		}
	}
	return false
}

func blockHasEarlyReturnBefore(t *tree.Tree, block, stmt tree.NodeID, pred CondPredicate) bool {
	for _, sibling := range t.ChildrenOf(block) {
		if sibling == stmt {
			return false
		}
		if t.KindOf(sibling) != tree.KindIf {
			continue
		}
		children := t.ChildrenOf(sibling)
		if len(children) < 2 || !pred.MatchesNegated(t, children[0]) {
			continue
		}
		if branchIsReturn(t, children[1]) {
			return true
		}
	}
	return false
}

// branchIsReturn accepts both `if (!c) return;` and `if (!c) { return; }`.
func branchIsReturn(t *tree.Tree, branch tree.NodeID) bool {
	switch t.KindOf(branch) {
	case tree.KindReturn:
		return true
	case tree.KindBlock:
		children := t.ChildrenOf(branch)
		return len(children) == 1 && t.KindOf(children[0]) == tree.KindReturn
	}
	return false
}
