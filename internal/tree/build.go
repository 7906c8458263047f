package tree

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"flint/internal/source"
)

// NodeOpt mutates a node during construction.
type NodeOpt func(*BundleNode)

// WithSymbol sets the identifier text of the node.
func WithSymbol(name string) NodeOpt {
	return func(n *BundleNode) { n.Symbol = name }
}

// WithType sets the front-end-resolved type name of the node.
func WithType(name string) NodeOpt {
	return func(n *BundleNode) { n.TypeName = name }
}

// Builder assembles a Bundle programmatically. It exists for tests and for
// demo bundle generation; real bundles come from the external front end.
// Node 0 is always the file root spanning the whole buffer.
type Builder struct {
	path  string
	src   string
	nodes []BundleNode
}

// NewBuilder starts a bundle for the given buffer with a file root node.
func NewBuilder(path, src string) *Builder {
	return &Builder{
		path: path,
		src:  src,
		nodes: []BundleNode{{
			Kind: uint8(KindFile),
			End:  mustU32(len(src)),
		}},
	}
}

// Root returns the index of the file root node.
func (b *Builder) Root() int { return 0 }

// Add appends a node under parent and returns its index.
func (b *Builder) Add(parent int, kind Kind, start, end uint32, opts ...NodeOpt) int {
	n := BundleNode{Kind: uint8(kind), Start: start, End: end}
	for _, opt := range opts {
		opt(&n)
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.nodes[parent].Children = append(b.nodes[parent].Children, mustU32(idx))
	return idx
}

// AddText appends a node whose span is the n-th occurrence (0-based) of
// text within the buffer. It panics when the occurrence does not exist,
// which in tests is a fixture bug.
func (b *Builder) AddText(parent int, kind Kind, text string, occurrence int, opts ...NodeOpt) int {
	start, end := b.locate(text, occurrence)
	return b.Add(parent, kind, start, end, opts...)
}

func (b *Builder) locate(text string, occurrence int) (uint32, uint32) {
	off := 0
	for i := 0; ; i++ {
		pos := strings.Index(b.src[off:], text)
		if pos < 0 {
			panic(fmt.Sprintf("builder: occurrence %d of %q not found in %s", occurrence, text, b.path))
		}
		pos += off
		if i == occurrence {
			return mustU32(pos), mustU32(pos + len(text))
		}
		off = pos + 1
	}
}

// Bundle returns the assembled bundle.
func (b *Builder) Bundle() *Bundle {
	return &Bundle{
		Schema: BundleSchemaVersion,
		Path:   b.path,
		Source: []byte(b.src),
		Nodes:  b.nodes,
	}
}

// Tree materializes the bundle through the codec, so every built tree goes
// through the same validation as front-end input.
func (b *Builder) Tree(fs *source.FileSet, in *source.Interner) (*Tree, error) {
	return FromBundle(b.Bundle(), fs, in)
}

// MustTree is Tree with a panic on error, for test fixtures.
func (b *Builder) MustTree(fs *source.FileSet, in *source.Interner) *Tree {
	t, err := b.Tree(fs, in)
	if err != nil {
		panic(err)
	}
	return t
}

func mustU32(v int) uint32 {
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return u
}
