package heur

import (
	"flint/internal/tree"
)

// NodePredicate tests one node.
type NodePredicate func(t *tree.Tree, n tree.NodeID) bool

// KindIs returns a predicate matching nodes of the given kind.
func KindIs(k tree.Kind) NodePredicate {
	return func(t *tree.Tree, n tree.NodeID) bool {
		return t.KindOf(n) == k
	}
}

// DeclBoundary is the default ancestor-walk boundary: method and lambda
// declarations. Walks must not leak across unrelated scopes.
func DeclBoundary(t *tree.Tree, n tree.NodeID) bool {
	return t.KindOf(n).IsDeclBoundary()
}

// AncestorMatching walks parents of n (exclusive) until pred succeeds,
// returning that ancestor. The walk stops without a match when boundary
// succeeds first; a nil boundary means DeclBoundary. Note the boundary node
// itself is still tested: "the enclosing method" is findable with a nil
// boundary.
func AncestorMatching(t *tree.Tree, n tree.NodeID, pred, boundary NodePredicate) (tree.NodeID, bool) {
	if boundary == nil {
		boundary = DeclBoundary
	}
	for cur := t.ParentOf(n); cur.IsValid(); cur = t.ParentOf(cur) {
		if pred(t, cur) {
			return cur, true
		}
		if boundary(t, cur) {
			return tree.NoNodeID, false
		}
	}
	return tree.NoNodeID, false
}

// EnclosingOfKind returns the nearest ancestor of the given kind within the
// default declaration boundary.
func EnclosingOfKind(t *tree.Tree, n tree.NodeID, k tree.Kind) (tree.NodeID, bool) {
	return AncestorMatching(t, n, KindIs(k), nil)
}

// EnclosingMethod returns the method declaration containing n, crossing
// lambda boundaries (a node inside a callback still belongs to its method).
func EnclosingMethod(t *tree.Tree, n tree.NodeID) (tree.NodeID, bool) {
	return AncestorMatching(t, n, KindIs(tree.KindMethodDecl), func(*tree.Tree, tree.NodeID) bool {
		return false
	})
}

// EnclosingClass returns the class declaration containing n, crossing all
// inner boundaries.
func EnclosingClass(t *tree.Tree, n tree.NodeID) (tree.NodeID, bool) {
	return AncestorMatching(t, n, KindIs(tree.KindClassDecl), func(*tree.Tree, tree.NodeID) bool {
		return false
	})
}

// StatementOf returns the ancestor of n (or n itself) whose parent is the
// given block, or NoNodeID when n is not inside block.
func StatementOf(t *tree.Tree, n, block tree.NodeID) tree.NodeID {
	for cur := n; cur.IsValid(); cur = t.ParentOf(cur) {
		if t.ParentOf(cur) == block {
			return cur
		}
	}
	return tree.NoNodeID
}

// IsInside reports whether n is a descendant of ancestor (or equal to it).
func IsInside(t *tree.Tree, n, ancestor tree.NodeID) bool {
	for cur := n; cur.IsValid(); cur = t.ParentOf(cur) {
		if cur == ancestor {
			return true
		}
	}
	return false
}
