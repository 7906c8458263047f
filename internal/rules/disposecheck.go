package rules

import (
	"fmt"
	"strings"

	"flint/internal/diag"
	"flint/internal/fix"
	"flint/internal/heur"
	"flint/internal/rule"
	"flint/internal/source"
	"flint/internal/tree"
)

// DisposeCheck flags fields of known disposable types whose owning class has
// a teardown lifecycle but never releases them. Delegation through private
// helpers is seen through by textually expanding their bodies into the
// teardown method before matching.
type DisposeCheck struct {
	// MaxExpandDepth bounds helper inlining; zero means
	// heur.DefaultExpandDepth.
	MaxExpandDepth int
}

func (DisposeCheck) Descriptor() rule.Descriptor {
	return rule.Descriptor{
		ID:         "always_dispose",
		Severity:   diag.SevWarning,
		Cost:       rule.CostMedium,
		Categories: []rule.Category{rule.CategoryWidget},
	}
}

func (c DisposeCheck) Register(r *rule.Registrar) {
	r.OnKind(tree.KindClassDecl, c.checkClass)
}

func (c DisposeCheck) checkClass(class tree.NodeID, tc rule.TraversalContext, emit rule.Emit) {
	t := tc.Tree()
	// The class node's type name carries the resolved base class.
	if !StatefulBases.Has(baseTypeName(t.TypeNameOf(class))) {
		return
	}

	fields := disposableFields(t, class)
	if len(fields) == 0 {
		return
	}

	teardown := findTeardown(t, class)
	var expanded string
	var teardownBody tree.NodeID
	if teardown.IsValid() {
		teardownBody = t.FirstChildOfKind(teardown, tree.KindBlock)
		expanded = heur.ExpandHelperCalls(
			t.NodeText(teardownBody),
			privateHelperBodies(t, class),
			c.MaxExpandDepth,
		)
	}

	for _, f := range fields {
		if teardown.IsValid() && mentionsTeardown(expanded, f.name, f.verb) {
			continue
		}
		d := diag.Diagnostic{
			Message: fmt.Sprintf("field %q of disposable type %s is never released", f.name, f.typeName),
			Primary: t.SpanOf(f.id),
		}
		if teardown.IsValid() && teardownBody.IsValid() {
			d.Correction = fmt.Sprintf("call %s.%s() in %s()", f.name, f.verb, t.SymbolOf(teardown))
			d = d.WithFixSuggestion(releaseFix(t, teardownBody, f))
		} else {
			d.Correction = fmt.Sprintf("override dispose() and call %s.%s() there", f.name, f.verb)
		}
		emit(d)
	}
}

type disposableField struct {
	id       tree.NodeID
	name     string
	typeName string
	verb     string
}

func disposableFields(t *tree.Tree, class tree.NodeID) []disposableField {
	var out []disposableField
	for _, fd := range t.ChildrenOfKind(class, tree.KindFieldDecl) {
		typeName := fieldTypeName(t, fd)
		verb, ok := Disposables[typeName]
		if !ok {
			continue
		}
		name := t.SymbolOf(fd)
		if name == "" {
			continue
		}
		out = append(out, disposableField{id: fd, name: name, typeName: typeName, verb: verb})
	}
	return out
}

// fieldTypeName prefers the front end's resolved type; without one it falls
// back to the first type-looking token of the declaration text, so missing
// type info degrades the check instead of disabling it.
func fieldTypeName(t *tree.Tree, field tree.NodeID) string {
	if typeName := t.TypeNameOf(field); typeName != "" {
		return baseTypeName(typeName)
	}
	for _, tok := range strings.Fields(t.NodeText(field)) {
		switch tok {
		case "final", "late", "var", "static", "const":
			continue
		}
		return baseTypeName(tok)
	}
	return ""
}

// baseTypeName strips generic arguments and nullability markers:
// "StreamSubscription<int>?" matches the "StreamSubscription" row.
func baseTypeName(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "?")
}

func findTeardown(t *tree.Tree, class tree.NodeID) tree.NodeID {
	for _, m := range t.ChildrenOfKind(class, tree.KindMethodDecl) {
		if TeardownMethods.Has(t.SymbolOf(m)) {
			return m
		}
	}
	return tree.NoNodeID
}

// privateHelperBodies maps each same-class private method name to its body
// text, the input ExpandHelperCalls needs.
func privateHelperBodies(t *tree.Tree, class tree.NodeID) map[string]string {
	helpers := make(map[string]string)
	for _, m := range t.ChildrenOfKind(class, tree.KindMethodDecl) {
		name := t.SymbolOf(m)
		if !strings.HasPrefix(name, "_") {
			continue
		}
		if body := t.FirstChildOfKind(m, tree.KindBlock); body.IsValid() {
			helpers[name] = t.NodeText(body)
		}
	}
	return helpers
}

// mentionsTeardown reports whether the expanded teardown text calls the
// release verb on the field, directly or null-aware.
func mentionsTeardown(expanded, field, verb string) bool {
	return strings.Contains(expanded, field+"."+verb+"(") ||
		strings.Contains(expanded, field+"?."+verb+"(")
}

// releaseFix inserts a null-aware release call at the top of the teardown
// body, right after the opening brace.
func releaseFix(t *tree.Tree, body tree.NodeID, f disposableField) diag.Fix {
	sp := t.SpanOf(body)
	at := source.Span{File: sp.File, Start: sp.Start + 1, End: sp.Start + 1}
	return fix.InsertText(
		fmt.Sprintf("release %s in teardown", f.name),
		at,
		fmt.Sprintf("\n    %s?.%s();", f.name, f.verb),
		"",
		fix.WithID(fmt.Sprintf("always_dispose-%s", f.name)),
		fix.Preferred(),
	)
}
