// Package engine drives one pre-order traversal per file and fans each node
// out to every subscribed rule callback, so a hundred rules cost one walk.
package engine

import (
	"context"
	"fmt"

	"flint/internal/diag"
	"flint/internal/rule"
	"flint/internal/tree"
)

// Options configures one engine run.
type Options struct {
	// MaxDiagnostics caps the per-file bag. Zero means DefaultMaxDiagnostics.
	MaxDiagnostics int
}

// DefaultMaxDiagnostics bounds a single file's output.
const DefaultMaxDiagnostics = 1000

type registration struct {
	ruleIdx int
	cb      rule.Callback
}

type ruleState struct {
	desc rule.Descriptor
	// failed is set when a callback panicked; the rule is muted for the
	// rest of the file.
	failed bool
	// suppressDepths records the stack depth of each open safe region.
	// Regions close automatically when the walk leaves the node that
	// opened them.
	suppressDepths []int
	// skipDepth is the stack depth at which the rule asked to skip the
	// current subtree, or -1.
	skipDepth int
}

// Run walks the tree once in pre-order (parent first, children
// left-to-right) and invokes every registered callback whose kind matches
// the current node. Within one node, callbacks run in rule order, then
// registration order; rules must not depend on that order beyond its
// run-to-run determinism.
//
// Rules that apply to the file must already be selected (see
// rule.Registry.ActiveFor); Run registers and executes all of them.
// Cancellation is observed between top-level declarations. The returned bag
// is deduplicated but not sorted; callers sort after merging.
func Run(ctx context.Context, t *tree.Tree, rules []rule.Rule, opts Options) *diag.Bag {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)

	w := &walker{
		tree:     t,
		reporter: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		table:    make(map[tree.Kind][]registration),
		states:   make([]ruleState, len(rules)),
	}

	for i, rl := range rules {
		w.states[i] = ruleState{desc: rl.Descriptor(), skipDepth: -1}
		reg := rule.NewRegistrar()
		rl.Register(reg)
		for k := tree.Kind(0); k.Valid(); k++ {
			for _, cb := range reg.Callbacks(k) {
				w.table[k] = append(w.table[k], registration{ruleIdx: i, cb: cb})
			}
		}
	}

	root := t.Root()
	w.visit(root)
	w.stack = append(w.stack, root)

	// Top-level declarations are the cancellation and suppression-reset
	// granularity: each one starts with clean per-rule state. State pinned
	// at the file root (a rule skipping the whole file) survives the reset.
	for _, decl := range t.ChildrenOf(root) {
		if ctx.Err() != nil {
			break
		}
		w.resetPerDecl()
		w.walk(decl)
	}
	w.stack = w.stack[:0]

	bag.Dedup()
	return bag
}

type walker struct {
	tree     *tree.Tree
	reporter diag.Reporter
	table    map[tree.Kind][]registration
	states   []ruleState
	stack    []tree.NodeID

	// current invocation scope
	curNode tree.NodeID
	curRule int
}

func (w *walker) resetPerDecl() {
	for i := range w.states {
		st := &w.states[i]
		if st.skipDepth > 0 {
			st.skipDepth = -1
		}
		for n := len(st.suppressDepths); n > 0 && st.suppressDepths[n-1] > 0; n-- {
			st.suppressDepths = st.suppressDepths[:n-1]
		}
	}
}

func (w *walker) walk(id tree.NodeID) {
	w.visit(id)
	w.stack = append(w.stack, id)
	for _, c := range w.tree.ChildrenOf(id) {
		w.walk(c)
	}
	w.stack = w.stack[:len(w.stack)-1]

	depth := len(w.stack)
	for i := range w.states {
		st := &w.states[i]
		if st.skipDepth == depth {
			st.skipDepth = -1
		}
		for n := len(st.suppressDepths); n > 0 && st.suppressDepths[n-1] == depth; n-- {
			st.suppressDepths = st.suppressDepths[:n-1]
		}
	}
}

func (w *walker) visit(id tree.NodeID) {
	regs := w.table[w.tree.KindOf(id)]
	if len(regs) == 0 {
		return
	}
	depth := len(w.stack)
	for _, reg := range regs {
		st := &w.states[reg.ruleIdx]
		if st.failed {
			continue
		}
		if st.skipDepth >= 0 && depth > st.skipDepth {
			continue
		}
		w.invoke(id, reg)
	}
}

// invoke runs one callback with panic isolation: a buggy rule must not
// blind the rest of the engine.
func (w *walker) invoke(id tree.NodeID, reg registration) {
	w.curNode = id
	w.curRule = reg.ruleIdx
	st := &w.states[reg.ruleIdx]

	defer func() {
		if r := recover(); r != nil {
			st.failed = true
			diag.NewInternal(w.reporter, diag.RuleFailure, w.tree.SpanOf(id),
				fmt.Sprintf("rule callback panicked: %v", r)).
				ForRule(st.desc.ID).
				Emit()
		}
	}()

	reg.cb(id, w, w.emit)
}

// emit stamps the current rule's identity and descriptor severity onto the
// finding before storing it.
func (w *walker) emit(d diag.Diagnostic) {
	st := w.states[w.curRule]
	if !d.Code.Internal() {
		d.RuleID = st.desc.ID
		d.Severity = st.desc.Severity
	}
	w.reporter.Report(d)
}
