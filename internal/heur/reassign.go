package heur

import (
	"strings"

	"flint/internal/tree"
)

// FieldReassignedOrNullifiedAfter scans the statements of block following
// stmt for an assignment to the named field, either nulling it out or
// installing a fresh value. Rules use it to tell "cancel-then-null" and
// "cancel-then-restart" debounce patterns apart from a plain leak.
func FieldReassignedOrNullifiedAfter(t *tree.Tree, block, stmt tree.NodeID, fieldName string) bool {
	children := t.ChildrenOf(block)
	after := false
	for _, sibling := range children {
		if sibling == stmt {
			after = true
			continue
		}
		if !after {
			continue
		}
		if subtreeAssignsField(t, sibling, fieldName) {
			return true
		}
	}
	return false
}

func subtreeAssignsField(t *tree.Tree, n tree.NodeID, fieldName string) bool {
	found := false
	t.Walk(n, func(id tree.NodeID) bool {
		if found {
			return false
		}
		if t.KindOf(id) != tree.KindAssignment {
			return true
		}
		children := t.ChildrenOf(id)
		if len(children) < 1 {
			return true
		}
		target := strings.TrimSpace(t.NodeText(children[0]))
		if target == fieldName || target == "this."+fieldName {
			found = true
			return false
		}
		return true
	})
	return found
}
