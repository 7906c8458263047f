package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flint/internal/diag"
	"flint/internal/engine"
	"flint/internal/fix"
	"flint/internal/rule"
	"flint/internal/source"
	"flint/internal/tree"
)

func runWidgetFile(t *testing.T, tr *tree.Tree) []diag.Diagnostic {
	t.Helper()
	active := NewRegistry().ActiveFor([]rule.Category{rule.CategoryWidget}, rule.BudgetFull)
	bag := engine.Run(context.Background(), tr, active, engine.Options{})
	bag.Sort()
	return bag.Items()
}

func findingsFor(items []diag.Diagnostic, ruleID string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range items {
		if d.RuleID == ruleID && !d.Code.Internal() {
			out = append(out, d)
		}
	}
	return out
}

// nodeID converts a builder's 0-based bundle index to the 1-based arena id.
func nodeID(idx int) tree.NodeID { return tree.NodeID(idx + 1) }

func TestLeakedFieldWithoutTeardown(t *testing.T) {
	src := `class Foo extends State<Foo> { Timer _timer; }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	field := b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0,
		tree.WithSymbol("_timer"), tree.WithType("Timer"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	found := findingsFor(runWidgetFile(t, tr), "always_dispose")
	require.Len(t, found, 1)
	assert.Equal(t, tr.SpanOf(nodeID(field)), found[0].Primary, "anchored at the field declaration")
	assert.Equal(t, diag.SevWarning, found[0].Severity)
	assert.Empty(t, found[0].Fixes, "no teardown body to patch")
	assert.Contains(t, found[0].Correction, "override dispose()")
}

func TestDirectTeardownCallIsClean(t *testing.T) {
	src := `class Foo extends State<Foo> { Timer _timer; void dispose() { _timer.cancel(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0,
		tree.WithSymbol("_timer"), tree.WithType("Timer"))
	method := b.AddText(class, tree.KindMethodDecl, `void dispose() { _timer.cancel(); }`, 0,
		tree.WithSymbol("dispose"))
	body := b.AddText(method, tree.KindBlock, `{ _timer.cancel(); }`, 0)
	b.AddText(body, tree.KindInvocation, "_timer.cancel()", 0, tree.WithSymbol("cancel"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	assert.Empty(t, findingsFor(runWidgetFile(t, tr), "always_dispose"))
}

func TestTeardownThroughPrivateHelper(t *testing.T) {
	src := `class Foo extends State<Foo> { Timer _timer; void dispose() { _cleanup(); } void _cleanup() { _timer.cancel(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0,
		tree.WithSymbol("_timer"), tree.WithType("Timer"))
	dispose := b.AddText(class, tree.KindMethodDecl, `void dispose() { _cleanup(); }`, 0,
		tree.WithSymbol("dispose"))
	disposeBody := b.AddText(dispose, tree.KindBlock, `{ _cleanup(); }`, 0)
	b.AddText(disposeBody, tree.KindInvocation, "_cleanup()", 0, tree.WithSymbol("_cleanup"))
	helper := b.AddText(class, tree.KindMethodDecl, `void _cleanup() { _timer.cancel(); }`, 0,
		tree.WithSymbol("_cleanup"))
	helperBody := b.AddText(helper, tree.KindBlock, `{ _timer.cancel(); }`, 0)
	b.AddText(helperBody, tree.KindInvocation, "_timer.cancel()", 0, tree.WithSymbol("cancel"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	assert.Empty(t, findingsFor(runWidgetFile(t, tr), "always_dispose"),
		"helper indirection is seen through")
}

func TestLeakedFieldFixPatchesTeardown(t *testing.T) {
	src := `class Foo extends State<Foo> { Timer _timer; void dispose() { super.dispose(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0,
		tree.WithSymbol("_timer"), tree.WithType("Timer"))
	method := b.AddText(class, tree.KindMethodDecl, `void dispose() { super.dispose(); }`, 0,
		tree.WithSymbol("dispose"))
	b.AddText(method, tree.KindBlock, `{ super.dispose(); }`, 0)
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	found := findingsFor(runWidgetFile(t, tr), "always_dispose")
	require.Len(t, found, 1)
	require.Len(t, found[0].Fixes, 1)

	out, err := fix.Preview([]byte(src), found[0].Fixes[0].Edits)
	require.NoError(t, err)
	assert.Contains(t, string(out), "_timer?.cancel();")
}

func TestTypeFallbackFromDeclarationText(t *testing.T) {
	// No resolved type on the field: the declaration text still names Timer.
	src := `class Foo extends State<Foo> { Timer _timer; }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0, tree.WithSymbol("_timer"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	assert.Len(t, findingsFor(runWidgetFile(t, tr), "always_dispose"), 1)
}

func TestUnrelatedClassIgnored(t *testing.T) {
	src := `class Foo { Timer _timer; }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0, tree.WithSymbol("Foo"))
	b.AddText(class, tree.KindFieldDecl, "Timer _timer;", 0,
		tree.WithSymbol("_timer"), tree.WithType("Timer"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	assert.Empty(t, findingsFor(runWidgetFile(t, tr), "always_dispose"),
		"no teardown lifecycle, nothing to enforce")
}

func TestUnguardedStateUpdateFlagged(t *testing.T) {
	src := `class Foo extends State<Foo> { void m() { setState(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	method := b.AddText(class, tree.KindMethodDecl, `void m() { setState(); }`, 0,
		tree.WithSymbol("m"))
	body := b.AddText(method, tree.KindBlock, `{ setState(); }`, 0)
	call := b.AddText(body, tree.KindInvocation, "setState()", 0, tree.WithSymbol("setState"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	found := findingsFor(runWidgetFile(t, tr), "unguarded_state_update")
	require.Len(t, found, 1)
	assert.Equal(t, tr.SpanOf(nodeID(call)), found[0].Primary)

	fixes := MountedGuard{}.FixesFor(found[0], tr)
	require.Len(t, fixes, 1)
	out, err := fix.Preview([]byte(src), fixes[0].Edits)
	require.NoError(t, err)
	assert.Contains(t, string(out), "if (mounted) { setState() }")
}

func TestEarlyReturnGuardAccepted(t *testing.T) {
	src := `class Foo extends State<Foo> { void m() { if (!mounted) return; setState(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	method := b.AddText(class, tree.KindMethodDecl, `void m() { if (!mounted) return; setState(); }`, 0,
		tree.WithSymbol("m"))
	body := b.AddText(method, tree.KindBlock, `{ if (!mounted) return; setState(); }`, 0)
	ifn := b.AddText(body, tree.KindIf, `if (!mounted) return;`, 0)
	b.AddText(ifn, tree.KindIdentifier, "!mounted", 0)
	b.AddText(ifn, tree.KindReturn, "return;", 0)
	b.AddText(body, tree.KindInvocation, "setState()", 0, tree.WithSymbol("setState"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	assert.Empty(t, findingsFor(runWidgetFile(t, tr), "unguarded_state_update"))
}

func TestDeferralWrapperSuppresses(t *testing.T) {
	src := `class Foo extends State<Foo> { void m() { addPostFrameCallback(() { setState(); }); setState(); } }`
	b := tree.NewBuilder("foo.dart", src)
	class := b.AddText(b.Root(), tree.KindClassDecl, src, 0,
		tree.WithSymbol("Foo"), tree.WithType("State<Foo>"))
	method := b.AddText(class, tree.KindMethodDecl,
		`void m() { addPostFrameCallback(() { setState(); }); setState(); }`, 0,
		tree.WithSymbol("m"))
	body := b.AddText(method, tree.KindBlock, `{ addPostFrameCallback(() { setState(); }); setState(); }`, 0)
	deferCall := b.AddText(body, tree.KindInvocation, `addPostFrameCallback(() { setState(); })`, 0,
		tree.WithSymbol("addPostFrameCallback"))
	lam := b.AddText(deferCall, tree.KindLambda, `() { setState(); }`, 0)
	lamBody := b.AddText(lam, tree.KindBlock, `{ setState(); }`, 0)
	b.AddText(lamBody, tree.KindInvocation, "setState()", 0, tree.WithSymbol("setState"))
	bare := b.AddText(body, tree.KindInvocation, "setState()", 1, tree.WithSymbol("setState"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	found := findingsFor(runWidgetFile(t, tr), "unguarded_state_update")
	require.Len(t, found, 1, "deferred call suppressed, bare call flagged")
	assert.Equal(t, tr.SpanOf(nodeID(bare)), found[0].Primary)
}

func TestInsecureRandomConstructor(t *testing.T) {
	src := `var r = Random(); var s = Random(42);`
	b := tree.NewBuilder("r.dart", src)
	plain := b.AddText(b.Root(), tree.KindConstructorCall, "Random()", 0, tree.WithSymbol("Random"))
	seeded := b.AddText(b.Root(), tree.KindConstructorCall, "Random(42)", 0, tree.WithSymbol("Random"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	active := NewRegistry().ActiveFor([]rule.Category{rule.CategoryProduction}, rule.BudgetFull)
	bag := engine.Run(context.Background(), tr, active, engine.Options{})
	bag.Sort()

	found := findingsFor(bag.Items(), "secure_random_source")
	require.Len(t, found, 2)
	assert.Equal(t, tr.SpanOf(nodeID(plain)), found[0].Primary)
	require.Len(t, found[0].Fixes, 1, "plain form gets the rewrite")
	assert.Equal(t, tr.SpanOf(nodeID(seeded)), found[1].Primary)
	assert.Empty(t, found[1].Fixes, "seeded form is deliberate determinism")
}

// countingRule proves that scoped-out rules never even register.
type countingRule struct {
	inner      rule.Rule
	registered *int
}

func (c countingRule) Descriptor() rule.Descriptor { return c.inner.Descriptor() }
func (c countingRule) Register(r *rule.Registrar) {
	*c.registered++
	c.inner.Register(r)
}

func TestTestOnlyRuleExcludedBeforeTraversal(t *testing.T) {
	registered := 0
	reg := rule.NewRegistry()
	reg.MustRegister(countingRule{inner: TestHygiene{}, registered: &registered})

	src := `void main() { solo_test("only this", body); }`
	b := tree.NewBuilder("main.dart", src)
	method := b.AddText(b.Root(), tree.KindMethodDecl, src, 0, tree.WithSymbol("main"))
	body := b.AddText(method, tree.KindBlock, `{ solo_test("only this", body); }`, 0)
	b.AddText(body, tree.KindInvocation, `solo_test("only this", body)`, 0, tree.WithSymbol("solo_test"))
	tr := b.MustTree(source.NewFileSet(), source.NewInterner())

	active := reg.ActiveFor([]rule.Category{rule.CategoryProduction}, rule.BudgetFull)
	assert.Empty(t, active)
	bag := engine.Run(context.Background(), tr, active, engine.Options{})
	assert.Zero(t, registered, "excluded rule was asked to register")
	assert.Empty(t, bag.Items())

	active = reg.ActiveFor([]rule.Category{rule.CategoryTest}, rule.BudgetFull)
	bag = engine.Run(context.Background(), tr, active, engine.Options{})
	assert.Equal(t, 1, registered)
	found := findingsFor(bag.Items(), "no_focused_test")
	require.Len(t, found, 1)
	assert.Equal(t, diag.SevError, found[0].Severity)
}
