package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/irgraph/internal/ir"
)

// Position is one input slot of one node.
type Position struct {
	Node  int `json:"node"`
	Index int `json:"index"`
}

func (p Position) String() string { return fmt.Sprintf("%d[%d]", p.Node, p.Index) }

// NewPlaceholder creates a Dummy node of mode m standing for a value that
// is not known yet. Use mode X for unknown block predecessors.
func (g *Graph) NewPlaceholder(m ir.Mode) (*Node, error) {
	return g.NewNode(ir.OpDummy, nil, nil, Init{Mode: m})
}

func (g *Graph) checkBlock(block *Node) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(block) || !block.IsBlock() {
		return ir.NewError(ir.ErrCodeInvalidBlock, "not a block of graph %q", g.name)
	}
	return nil
}

// AddPredecessor appends a control-flow predecessor to an immature block.
// Every phi of the block grows by one placeholder of its mode so that phi
// inputs stay index-aligned with the predecessors.
func (g *Graph) AddPredecessor(block, pred *Node) error {
	if err := g.checkBlock(block); err != nil {
		return err
	}
	if block.blk.matured {
		return ir.NewError(ir.ErrCodeBlockAlreadyMatured, "%s is matured with %d predecessors", block, len(block.inputs)).
			WithKind(block.kind.Name).WithNode(block.id)
	}
	if !g.owns(pred) {
		return ir.NewError(ir.ErrCodeInvalidInput, "predecessor does not belong to graph %q", g.name).
			WithKind(block.kind.Name).WithNode(block.id)
	}
	index := len(block.inputs)
	if err := checkInputMode(block.kind, index, pred); err != nil {
		return err
	}

	// Create the phi placeholders first so a failure leaves the block as it was.
	fills := make([]*Node, len(block.blk.phis))
	for i, phi := range block.blk.phis {
		ph, err := g.NewPlaceholder(phi.mode)
		if err != nil {
			return err
		}
		fills[i] = ph
	}

	block.inputs = append(block.inputs, pred)
	block.backedges = append(block.backedges, false)
	for i, phi := range block.blk.phis {
		phi.inputs = append(phi.inputs, fills[i])
		phi.backedges = append(phi.backedges, false)
	}

	g.log.Debug("predecessor added", "block", block.id, "pred", pred.id, "index", index, "phis", len(fills))
	return nil
}

// Mature freezes a block's predecessor list. If placeholders remain among
// the block's predecessors or its phis' inputs, the block is still matured
// and UNRESOLVED_BACKEDGE lists the positions; SetInput can resolve them
// later.
func (g *Graph) Mature(block *Node) error {
	if err := g.checkBlock(block); err != nil {
		return err
	}
	if block.blk.matured {
		return ir.NewError(ir.ErrCodeBlockAlreadyMatured, "%s is already matured", block).
			WithKind(block.kind.Name).WithNode(block.id)
	}
	block.blk.matured = true

	// Finalize the backedge arrays against the frozen count.
	preds := len(block.inputs)
	block.backedges = resize(block.backedges, preds)
	for _, phi := range block.blk.phis {
		phi.backedges = resize(phi.backedges, len(phi.inputs))
	}

	var open []Position
	open = appendPlaceholders(open, block)
	for _, phi := range block.blk.phis {
		open = appendPlaceholders(open, phi)
	}

	g.log.Debug("block matured", "block", block.id, "preds", preds, "phis", len(block.blk.phis))
	if len(open) > 0 {
		g.log.Warn("block matured with unresolved backedges", "block", block.id, "positions", formatPositions(open))
		return ir.NewError(ir.ErrCodeUnresolvedBackedge, "%d placeholder inputs remain", len(open)).
			WithKind(block.kind.Name).
			WithNode(block.id).
			WithDetail("positions", formatPositions(open))
	}
	return nil
}

// SetInput overwrites input index of n. For phis the bound is the block's
// predecessor count; for blocks it is their own predecessor count. When a
// placeholder on a block or phi is replaced, the position becomes a
// backedge.
func (g *Graph) SetInput(n *Node, index int, v *Node) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(n) {
		return ir.NewError(ir.ErrCodeInvalidInput, "node does not belong to graph %q", g.name)
	}
	k := n.kind
	if k.Op == ir.OpAnchor || k.Op == ir.OpProj {
		return ir.NewError(ir.ErrCodeInvalidInput, "inputs of %s are fixed", k.Name).WithKind(k.Name).WithNode(n.id)
	}

	bound := len(n.inputs)
	if k.Op == ir.OpPhi {
		bound = n.block.NumPreds()
	}
	if index < 0 || index >= bound || index >= len(n.inputs) {
		return ir.NewError(ir.ErrCodeIndexOutOfRange, "%s has %d inputs, index %d", n, bound, index).
			WithKind(k.Name).WithNode(n.id).WithIndex(index)
	}
	if !g.owns(v) {
		return ir.NewError(ir.ErrCodeInvalidInput, "value does not belong to graph %q", g.name).
			WithKind(k.Name).WithNode(n.id).WithIndex(index)
	}
	if err := checkInputMode(k, index, v); err != nil {
		return err
	}
	if k.Op == ir.OpPhi {
		if err := checkPhiInputs(k, []*Node{v}, n.mode); err != nil {
			return err
		}
	}

	if index == 0 {
		if err := checkSelector(k, n.attrs, v); err != nil {
			return err
		}
	}
	if n.mode == ir.ModeT {
		next := make([]*Node, len(n.inputs))
		copy(next, n.inputs)
		next[index] = v
		if err := g.checkShape(n, n.attrs, next); err != nil {
			return err
		}
	}

	old := n.inputs[index]
	n.inputs[index] = v
	if n.backedges != nil && old != nil && old.IsPlaceholder() && !v.IsPlaceholder() {
		n.backedges[index] = true
	}
	g.log.Debug("input set", "node", n.id, "index", index, "value", v.id, "was", old.id)
	return nil
}

// AppendInput appends an input to a node of dynamic arity (End keepalives,
// Sync predecessors) and updates its count attribute.
func (g *Graph) AppendInput(n *Node, v *Node) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(n) {
		return ir.NewError(ir.ErrCodeInvalidInput, "node does not belong to graph %q", g.name)
	}
	k := n.kind
	if k.Arity != ir.ArityDynamic {
		return ir.NewError(ir.ErrCodeArityMismatch, "%s does not have dynamic arity", k.Name).WithKind(k.Name).WithNode(n.id)
	}
	if !g.owns(v) {
		return ir.NewError(ir.ErrCodeInvalidInput, "value does not belong to graph %q", g.name).WithKind(k.Name).WithNode(n.id)
	}
	if err := checkInputMode(k, len(n.inputs), v); err != nil {
		return err
	}
	n.inputs = append(n.inputs, v)
	n.attrs[k.CountAttr] = ir.Size(len(n.inputs) - k.NumInputs())
	g.log.Debug("input appended", "node", n.id, "value", v.id, k.CountAttr, len(n.inputs)-k.NumInputs())
	return nil
}

// Unresolved returns every input position still holding a placeholder, in
// node id order.
func (g *Graph) Unresolved() []Position {
	var out []Position
	for _, n := range g.nodes {
		if n.kind.Op == ir.OpAnchor {
			continue
		}
		out = appendPlaceholders(out, n)
	}
	return out
}

// SetBackedge marks input i of a block or phi as a backedge.
func (g *Graph) SetBackedge(n *Node, i int) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(n) || n.backedges == nil {
		return ir.NewError(ir.ErrCodeInvalidInput, "only blocks and phis carry backedges")
	}
	if i < 0 || i >= len(n.backedges) {
		return ir.NewError(ir.ErrCodeIndexOutOfRange, "%s has %d inputs, index %d", n, len(n.backedges), i).
			WithKind(n.kind.Name).WithNode(n.id).WithIndex(i)
	}
	n.backedges[i] = true
	return nil
}

// IsBackedge reports whether input i of a block or phi is a backedge.
func (n *Node) IsBackedge(i int) bool {
	return i >= 0 && i < len(n.backedges) && n.backedges[i]
}

// AllBad reports whether a block or phi has inputs and every one is Bad.
func (n *Node) AllBad() bool {
	if len(n.inputs) == 0 {
		return false
	}
	for _, in := range n.inputs {
		if !in.IsBad() {
			return false
		}
	}
	return true
}

func appendPlaceholders(out []Position, n *Node) []Position {
	for i, in := range n.inputs {
		if in != nil && in.IsPlaceholder() {
			out = append(out, Position{Node: n.id, Index: i})
		}
	}
	return out
}

func resize(b []bool, n int) []bool {
	if len(b) >= n {
		return b[:n]
	}
	return append(b, make([]bool, n-len(b))...)
}

func formatPositions(ps []Position) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}
