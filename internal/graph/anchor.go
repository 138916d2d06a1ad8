package graph

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
)

// Role names one slot of the anchor table.
type Role uint8

const (
	RoleAnchor Role = iota
	RoleStartBlock
	RoleEndBlock
	RoleStart
	RoleEnd
	RoleNoMem
	RoleBad
	RoleUnknown

	numRoles
)

var roleNames = [...]string{
	RoleAnchor:     "anchor",
	RoleStartBlock: "start_block",
	RoleEndBlock:   "end_block",
	RoleStart:      "start",
	RoleEnd:        "end",
	RoleNoMem:      "no_mem",
	RoleBad:        "bad",
	RoleUnknown:    "unknown",
}

func (r Role) String() string {
	if r < numRoles {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// ParseRole resolves a role name such as "start" or "no_mem".
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return Role(r), nil
		}
	}
	return 0, fmt.Errorf("unknown anchor role %q", name)
}

// Roles returns every role in table order.
func Roles() []Role {
	out := make([]Role, numRoles)
	for i := range out {
		out[i] = Role(i)
	}
	return out
}

// singletonRole maps singleton kinds to their anchor slot.
var singletonRole = map[ir.Op]Role{
	ir.OpAnchor:  RoleAnchor,
	ir.OpStart:   RoleStart,
	ir.OpEnd:     RoleEnd,
	ir.OpNoMem:   RoleNoMem,
	ir.OpBad:     RoleBad,
	ir.OpUnknown: RoleUnknown,
}

// The anchor table is the anchor node's input vector: slot r-1 holds role
// r. The anchor itself is role 0 and is held directly by the graph, so the
// table is reachable by identity without traversal.

func (g *Graph) setRole(r Role, n *Node) {
	g.anchor.inputs[r-1] = n
}

// Anchor returns the node registered for role r.
func (g *Graph) Anchor(r Role) (*Node, bool) {
	if g.freed || r >= numRoles {
		return nil, false
	}
	if r == RoleAnchor {
		return g.anchor, true
	}
	n := g.anchor.inputs[r-1]
	return n, n != nil
}

func (g *Graph) role(r Role) *Node {
	n, _ := g.Anchor(r)
	return n
}

// AnchorNode returns the anchor.
func (g *Graph) AnchorNode() *Node { return g.role(RoleAnchor) }

// StartBlock returns the entry block.
func (g *Graph) StartBlock() *Node { return g.role(RoleStartBlock) }

// EndBlock returns the exit block.
func (g *Graph) EndBlock() *Node { return g.role(RoleEndBlock) }

// Start returns the Start node, or nil before it is created.
func (g *Graph) Start() *Node { return g.role(RoleStart) }

// End returns the End node, or nil before it is created.
func (g *Graph) End() *Node { return g.role(RoleEnd) }

// NoMem returns the NoMem node, or nil before it is created.
func (g *Graph) NoMem() *Node { return g.role(RoleNoMem) }

// Bad returns the Bad node, or nil before it is created.
func (g *Graph) Bad() *Node { return g.role(RoleBad) }

// Unknown returns the Unknown node, or nil before it is created.
func (g *Graph) Unknown() *Node { return g.role(RoleUnknown) }

// checkSingleton fails if the graph already holds an instance of op.
func (g *Graph) checkSingleton(op ir.Op) error {
	r, ok := singletonRole[op]
	if !ok {
		return nil
	}
	if existing, ok := g.Anchor(r); ok {
		return ir.NewError(ir.ErrCodeDuplicateSingleton, "graph already has %s", existing).
			WithKind(op.String()).WithNode(existing.id)
	}
	return nil
}

func (g *Graph) registerSingleton(n *Node) {
	if r, ok := singletonRole[n.kind.Op]; ok && r != RoleAnchor {
		g.setRole(r, n)
	}
}
