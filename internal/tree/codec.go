package tree

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"flint/internal/source"
)

// Bundle schema version. Increment when BundleNode layout changes.
const BundleSchemaVersion uint16 = 1

// ErrDecode wraps every bundle validation failure. A file whose bundle does
// not decode has no tree at all, which is a fatal per-file condition for the
// driver.
var ErrDecode = errors.New("tree bundle decode error")

// BundleNode is the wire form of one syntax node. Children reference other
// nodes by their 0-based position in Bundle.Nodes. Parent links are not on
// the wire; they are rebuilt (and cross-checked) during decode.
type BundleNode struct {
	Kind     uint8    `msgpack:"k"`
	Start    uint32   `msgpack:"s"`
	End      uint32   `msgpack:"e"`
	Children []uint32 `msgpack:"c,omitempty"`
	Symbol   string   `msgpack:"n,omitempty"`
	TypeName string   `msgpack:"t,omitempty"`
}

// Bundle is the interchange format the external front end emits per file:
// the raw source buffer plus its flat node table. Node 0 is the root.
type Bundle struct {
	Schema uint16       `msgpack:"schema"`
	Path   string       `msgpack:"path"`
	Source []byte       `msgpack:"source"`
	Nodes  []BundleNode `msgpack:"nodes"`
}

// EncodeBundle writes the msgpack form of b. Used by tests and by bundle
// producers; the analyzer itself only decodes.
func EncodeBundle(w io.Writer, b *Bundle) error {
	if b.Schema == 0 {
		b.Schema = BundleSchemaVersion
	}
	return msgpack.NewEncoder(w).Encode(b)
}

// DecodeBundle reads one msgpack bundle from r.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b.Schema != BundleSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema %d", ErrDecode, b.Schema)
	}
	if len(b.Nodes) == 0 {
		return nil, fmt.Errorf("%w: bundle has no nodes", ErrDecode)
	}
	return &b, nil
}

// FromBundle validates the bundle and materializes it as a Tree. The source
// buffer is registered in fs verbatim: bundle offsets are authoritative, so
// no re-normalization happens here. The bundle path names the real on-disk
// source file, so the file is registered as a regular (non-virtual) buffer
// and the fix engine may write back to it.
//
// Validation enforces the tree invariants at the trust boundary:
// every node except the root has exactly one parent, spans stay within the
// buffer, and a parent's span contains each child's span.
func FromBundle(b *Bundle, fs *source.FileSet, in *source.Interner) (*Tree, error) {
	fileID := fs.Add(b.Path, b.Source, 0)
	bufLen := uint32(len(b.Source))

	arena := NewArena(uint(len(b.Nodes)))
	parents := make([]NodeID, len(b.Nodes))

	for idx, bn := range b.Nodes {
		kind := Kind(bn.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: node %d has unknown kind %d", ErrDecode, idx, bn.Kind)
		}
		if bn.Start > bn.End || bn.End > bufLen {
			return nil, fmt.Errorf("%w: node %d span %d-%d exceeds buffer (%d bytes)",
				ErrDecode, idx, bn.Start, bn.End, bufLen)
		}
		n := Node{
			Kind: kind,
			Span: source.Span{File: fileID, Start: bn.Start, End: bn.End},
		}
		if bn.Symbol != "" {
			n.Symbol = in.Intern(bn.Symbol)
		}
		if bn.TypeName != "" {
			n.TypeName = in.Intern(bn.TypeName)
		}
		arena.Allocate(n)
	}

	for idx, bn := range b.Nodes {
		parentID := NodeID(idx + 1)
		parent := arena.Get(parentID)
		for _, childIdx := range bn.Children {
			if int(childIdx) >= len(b.Nodes) {
				return nil, fmt.Errorf("%w: node %d references missing child %d", ErrDecode, idx, childIdx)
			}
			childID := NodeID(childIdx + 1)
			if parents[childIdx] != NoNodeID {
				return nil, fmt.Errorf("%w: node %d has two parents", ErrDecode, childIdx)
			}
			if childID == parentID {
				return nil, fmt.Errorf("%w: node %d is its own child", ErrDecode, idx)
			}
			child := arena.Get(childID)
			if !parent.Span.Contains(child.Span) {
				return nil, fmt.Errorf("%w: node %d span %s not contained in parent %d span %s",
					ErrDecode, childIdx, child.Span, idx, parent.Span)
			}
			parents[childIdx] = parentID
			child.Parent = parentID
			parent.Children = append(parent.Children, childID)
		}
	}

	// Node 0 is the root and must be the only orphan.
	if parents[0] != NoNodeID {
		return nil, fmt.Errorf("%w: root node has a parent", ErrDecode)
	}
	for idx := 1; idx < len(parents); idx++ {
		if parents[idx] == NoNodeID {
			return nil, fmt.Errorf("%w: node %d is unreachable", ErrDecode, idx)
		}
	}

	return New(arena, NodeID(1), fs.Get(fileID), in), nil
}
