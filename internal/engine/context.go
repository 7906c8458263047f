package engine

import (
	"flint/internal/tree"
)

// walker implements rule.TraversalContext for the callback currently being
// invoked. All methods are scoped to (current rule, current node).

// Tree returns the tree being walked.
func (w *walker) Tree() *tree.Tree {
	return w.tree
}

// Ancestors returns the node stack above the current node, outermost
// first. The slice aliases the walker's stack and must not be retained
// past the callback.
func (w *walker) Ancestors() []tree.NodeID {
	return w.stack
}

// SkipChildren suppresses descent into the current node's subtree for the
// calling rule only. Other rules still see the children.
func (w *walker) SkipChildren() {
	st := &w.states[w.curRule]
	if st.skipDepth < 0 {
		st.skipDepth = len(w.stack)
	}
}

// PushSuppressed opens a safe region covering the current node's subtree
// for the calling rule. The region closes automatically when the walk
// leaves the node.
func (w *walker) PushSuppressed() {
	st := &w.states[w.curRule]
	st.suppressDepths = append(st.suppressDepths, len(w.stack))
}

// PopSuppressed closes the innermost open region early. Normally regions
// close on their own with subtree exit.
func (w *walker) PopSuppressed() {
	st := &w.states[w.curRule]
	if n := len(st.suppressDepths); n > 0 {
		st.suppressDepths = st.suppressDepths[:n-1]
	}
}

// Suppressed reports whether the calling rule is inside a safe region.
func (w *walker) Suppressed() bool {
	return len(w.states[w.curRule].suppressDepths) > 0
}
