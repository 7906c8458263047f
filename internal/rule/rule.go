package rule

import (
	"flint/internal/diag"
	"flint/internal/tree"
)

// Emit delivers one finding from a rule callback. The engine stamps the
// rule's id and descriptor severity before storing.
type Emit func(d diag.Diagnostic)

// TraversalContext is the per-file, per-walk state the engine exposes to
// callbacks. It is owned by the engine and valid only for the duration of
// the callback invocation.
type TraversalContext interface {
	// Tree returns the tree being walked.
	Tree() *tree.Tree
	// Ancestors returns the current node stack, outermost first, not
	// including the current node. The slice is reused between nodes and
	// must not be retained.
	Ancestors() []tree.NodeID
	// SkipChildren stops descent into the current node's subtree for the
	// calling rule only; other rules still see the children.
	SkipChildren()
	// PushSuppressed opens a safe region (deferred callback, mounted
	// guard) covering the current node's subtree for the calling rule;
	// the engine closes it when the walk leaves the node. PopSuppressed
	// closes the innermost region early.
	PushSuppressed()
	PopSuppressed()
	// Suppressed reports whether the calling rule is inside at least one
	// safe region.
	Suppressed() bool
}

// Callback is invoked for every visited node whose kind the rule
// subscribed to.
type Callback func(node tree.NodeID, tc TraversalContext, emit Emit)

// Rule is the contract every detector implements. A rule is constructed
// once; Register is called once per file traversal to populate a fresh
// registration table.
type Rule interface {
	Descriptor() Descriptor
	Register(r *Registrar)
}

// FixProvider is implemented by rules that can propose automated
// remediation for their findings after the fact. Most rules instead attach
// fixes directly at emit time.
type FixProvider interface {
	FixesFor(d diag.Diagnostic, t *tree.Tree) []diag.Fix
}

// Registrar is one rule's registration table: node kind to callbacks, in
// registration order. Built once per file; the engine only reads it.
type Registrar struct {
	table map[tree.Kind][]Callback
}

func NewRegistrar() *Registrar {
	return &Registrar{table: make(map[tree.Kind][]Callback)}
}

// OnKind subscribes cb to nodes of the given kind.
func (r *Registrar) OnKind(k tree.Kind, cb Callback) {
	r.table[k] = append(r.table[k], cb)
}

// OnKinds subscribes cb to several kinds at once.
func (r *Registrar) OnKinds(kinds []tree.Kind, cb Callback) {
	for _, k := range kinds {
		r.OnKind(k, cb)
	}
}

// Callbacks returns the callbacks subscribed to kind, in registration
// order.
func (r *Registrar) Callbacks(k tree.Kind) []Callback {
	return r.table[k]
}

// Empty reports whether the rule registered nothing.
func (r *Registrar) Empty() bool {
	return len(r.table) == 0
}
