package tree

import (
	"errors"
	"fmt"

	"flint/internal/source"
)

// ErrOutOfRange is returned by Text when a span reaches past the file
// buffer. It indicates a front-end/engine desync, not a user error.
var ErrOutOfRange = errors.New("span out of file bounds")

// Node is one syntax node. Parent is a navigation back-reference only; the
// arena owns all nodes.
type Node struct {
	Kind     Kind
	Span     source.Span
	Parent   NodeID
	Children []NodeID
	// Symbol is the identifier-ish text of the node (identifier name, invoked
	// method name, declared field name). NoStringID when not applicable.
	Symbol source.StringID
	// TypeName is the best-effort static type reported by the front end.
	// NoStringID when the front end could not resolve one; heuristics then
	// fall back to name matching.
	TypeName source.StringID
}

// Tree is one file's immutable parsed tree plus its source buffer.
type Tree struct {
	arena    *Arena
	root     NodeID
	file     *source.File
	interner *source.Interner
}

// New assembles a Tree from already-populated parts. The builder and the
// bundle codec are the only intended callers.
func New(arena *Arena, root NodeID, file *source.File, interner *source.Interner) *Tree {
	return &Tree{arena: arena, root: root, file: file, interner: interner}
}

// Root returns the root node ID.
func (t *Tree) Root() NodeID { return t.root }

// File returns the underlying source file.
func (t *Tree) File() *source.File { return t.file }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return t.arena.Len() }

// Node returns the node for id, or nil for an invalid id.
func (t *Tree) Node(id NodeID) *Node { return t.arena.Get(id) }

// KindOf returns the kind of id, or KindUnknown for an invalid id.
func (t *Tree) KindOf(id NodeID) Kind {
	if n := t.arena.Get(id); n != nil {
		return n.Kind
	}
	return KindUnknown
}

// SpanOf returns the source span of id.
func (t *Tree) SpanOf(id NodeID) source.Span {
	if n := t.arena.Get(id); n != nil {
		return n.Span
	}
	return source.Span{}
}

// ParentOf returns the parent of id, NoNodeID for the root.
func (t *Tree) ParentOf(id NodeID) NodeID {
	if n := t.arena.Get(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// ChildrenOf returns the ordered children of id. The returned slice is
// owned by the arena and must not be modified.
func (t *Tree) ChildrenOf(id NodeID) []NodeID {
	if n := t.arena.Get(id); n != nil {
		return n.Children
	}
	return nil
}

// SymbolOf returns the identifier text attached to id, "" when absent.
func (t *Tree) SymbolOf(id NodeID) string {
	n := t.arena.Get(id)
	if n == nil || n.Symbol == source.NoStringID {
		return ""
	}
	s, _ := t.interner.Lookup(n.Symbol)
	return s
}

// TypeNameOf returns the front end's static type for id, "" when unknown.
func (t *Tree) TypeNameOf(id NodeID) string {
	n := t.arena.Get(id)
	if n == nil || n.TypeName == source.NoStringID {
		return ""
	}
	s, _ := t.interner.Lookup(n.TypeName)
	return s
}

// Text returns the source text covered by span.
func (t *Tree) Text(span source.Span) (string, error) {
	if int(span.End) > len(t.file.Content) || span.Start > span.End {
		return "", fmt.Errorf("%w: %s in %s", ErrOutOfRange, span.String(), t.file.Path)
	}
	return string(t.file.Content[span.Start:span.End]), nil
}

// NodeText returns the source text of the node, "" for an invalid id.
// Out-of-range spans surface through Text; NodeText is for callers that
// already trust the node.
func (t *Tree) NodeText(id NodeID) string {
	n := t.arena.Get(id)
	if n == nil {
		return ""
	}
	s, err := t.Text(n.Span)
	if err != nil {
		return ""
	}
	return s
}

// FirstChildOfKind returns the first direct child of id with the given
// kind, or NoNodeID.
func (t *Tree) FirstChildOfKind(id NodeID, kind Kind) NodeID {
	for _, c := range t.ChildrenOf(id) {
		if t.KindOf(c) == kind {
			return c
		}
	}
	return NoNodeID
}

// ChildrenOfKind returns all direct children of id with the given kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for _, c := range t.ChildrenOf(id) {
		if t.KindOf(c) == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits the subtree rooted at id in pre-order, children
// left-to-right. Returning false from visit prunes the node's subtree.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !id.IsValid() || t.arena.Get(id) == nil {
		return
	}
	if !visit(id) {
		return
	}
	for _, c := range t.ChildrenOf(id) {
		t.Walk(c, visit)
	}
}
