package tree

import (
	"fmt"

	"fortio.org/safecast"
)

// NodeID indexes a node within one tree's arena. IDs are 1-based;
// NoNodeID (0) means "no node".
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Arena is flat storage for the nodes of one tree. Nodes are allocated once
// while a bundle is decoded and never mutated afterwards.
type Arena struct {
	nodes []Node
}

// NewArena creates an arena with the given capacity hint.
func NewArena(capHint uint) *Arena {
	return &Arena{nodes: make([]Node, 0, capHint)}
}

// Allocate appends a node and returns its 1-based ID.
func (a *Arena) Allocate(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	id, err := safecast.Conv[uint32](len(a.nodes))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	return NodeID(id)
}

// Get returns the node for id, or nil for NoNodeID or an out-of-range id.
func (a *Arena) Get(id NodeID) *Node {
	if id == NoNodeID || int(id) > len(a.nodes) {
		return nil
	}
	return &a.nodes[id-1]
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}
