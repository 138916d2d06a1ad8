package graph

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// Node is one instance of a kind within a graph. Inputs are non-owning
// references; the graph owns every node.
type Node struct {
	id     int
	graph  *Graph
	kind   *registry.Kind
	block  *Node
	inputs []*Node
	attrs  map[string]ir.AttrValue
	mode   ir.Mode
	pin    ir.PinState
	throws bool

	// backedges is index-aligned with inputs on blocks and phis.
	backedges []bool

	// blk is set on block nodes only.
	blk *blockInfo
}

type blockInfo struct {
	matured bool
	members []*Node
	phis    []*Node
}

// ID returns the graph-unique identifier.
func (n *Node) ID() int { return n.id }

// Graph returns the owning graph.
func (n *Node) Graph() *Graph { return n.graph }

// Op returns the kind identity.
func (n *Node) Op() ir.Op { return n.kind.Op }

// Kind returns the kind's schema record.
func (n *Node) Kind() *registry.Kind { return n.kind }

// Block returns the owning block, or nil for blocks and the anchor.
func (n *Node) Block() *Node { return n.block }

// NumInputs returns the number of inputs.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Input returns input i, or nil when i is out of range.
func (n *Node) Input(i int) *Node {
	if i < 0 || i >= len(n.inputs) {
		return nil
	}
	return n.inputs[i]
}

// Inputs returns a copy of the input list.
func (n *Node) Inputs() []*Node {
	out := make([]*Node, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Mode returns the resolved value representation.
func (n *Node) Mode() ir.Mode { return n.mode }

// PinState returns the resolved pin state.
func (n *Node) PinState() ir.PinState { return n.pin }

// Pinned reports whether the node is fixed in its block.
func (n *Node) Pinned() bool { return n.pin == ir.PinStatePinned }

// ThrowsException reports whether a fragile node has an exception edge.
func (n *Node) ThrowsException() bool { return n.throws }

// IsPlaceholder reports whether n stands for a not-yet-known value.
func (n *Node) IsPlaceholder() bool { return n.kind.Op == ir.OpDummy }

// IsBad reports whether n is the graph's failure marker.
func (n *Node) IsBad() bool { return n.kind.Op == ir.OpBad }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.kind.Name, n.id)
}

// Block-only accessors.

// IsBlock reports whether n is a basic block.
func (n *Node) IsBlock() bool { return n.blk != nil }

// IsMatured reports whether the block's predecessor list is frozen. It is
// false for non-block nodes.
func (n *Node) IsMatured() bool { return n.blk != nil && n.blk.matured }

// NumPreds returns the control-flow predecessor count of a block, or -1
// for other nodes.
func (n *Node) NumPreds() int {
	if n.blk == nil {
		return -1
	}
	return len(n.inputs)
}

// Pred returns control-flow predecessor i of a block.
func (n *Node) Pred(i int) *Node {
	if n.blk == nil {
		return nil
	}
	return n.Input(i)
}

// Members returns the nodes placed in a block, in creation order.
func (n *Node) Members() []*Node {
	if n.blk == nil {
		return nil
	}
	out := make([]*Node, len(n.blk.members))
	copy(out, n.blk.members)
	return out
}

// Phis returns the phis of a block, in creation order.
func (n *Node) Phis() []*Node {
	if n.blk == nil {
		return nil
	}
	out := make([]*Node, len(n.blk.phis))
	copy(out, n.blk.phis)
	return out
}
