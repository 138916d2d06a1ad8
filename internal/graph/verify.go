package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/irgraph/internal/ir"
)

// Verify checks whole-graph structure and returns every problem found
// (it does not stop at the first):
//   - MISSING_SINGLETON for each empty anchor role
//   - UNRESOLVED_BACKEDGE for each input still holding a placeholder
//   - ALL_BAD_INPUTS for each block or phi whose inputs are all Bad
//   - ILLEGAL_CYCLE for each dependency cycle without a Phi or Block
//
// Verify only reports. Replacing offending nodes is a rewrite concern.
func (g *Graph) Verify() []error {
	if err := g.checkLive(); err != nil {
		return []error{err}
	}
	var errs []error

	for _, r := range Roles() {
		if _, ok := g.Anchor(r); !ok {
			errs = append(errs, ir.NewError(ir.ErrCodeMissingSingleton, "anchor role %s is empty", r).
				WithDetail("role", r.String()))
		}
	}

	for _, p := range g.Unresolved() {
		n := g.nodes[p.Node]
		errs = append(errs, ir.NewError(ir.ErrCodeUnresolvedBackedge, "input %s of %s is a placeholder",
			n.kind.InputLabel(p.Index), n).
			WithKind(n.kind.Name).WithNode(n.id).WithIndex(p.Index))
	}

	for _, n := range g.nodes {
		if (n.IsBlock() || n.kind.Op == ir.OpPhi) && n.AllBad() {
			errs = append(errs, ir.NewError(ir.ErrCodeAllBadInputs, "every input of %s is Bad", n).
				WithKind(n.kind.Name).WithNode(n.id))
		}
	}

	for _, scc := range g.illegalCycles() {
		ids := make([]string, len(scc))
		for i, n := range scc {
			ids[i] = n.String()
		}
		errs = append(errs, ir.NewError(ir.ErrCodeIllegalCycle, "cycle without Phi or Block: %s", strings.Join(ids, " -> ")).
			WithNode(scc[0].id).
			WithDetail("size", strconv.Itoa(len(scc))))
	}
	return errs
}

// illegalCycles finds dependency cycles (over inputs and owning blocks)
// that contain neither a Phi nor a Block. It uses Tarjan's strongly
// connected components algorithm; a component is a cycle when it has more
// than one node or a self-loop.
func (g *Graph) illegalCycles() [][]*Node {
	var (
		index   = 0
		stack   []*Node
		indices = make([]int, len(g.nodes))
		lowlink = make([]int, len(g.nodes))
		onStack = make([]bool, len(g.nodes))
		out     [][]*Node
	)
	for i := range indices {
		indices[i] = -1
	}

	successors := func(n *Node) []*Node {
		if n.block == nil {
			return n.inputs
		}
		return append([]*Node{n.block}, n.inputs...)
	}

	var strongConnect func(*Node)
	strongConnect = func(v *Node) {
		indices[v.id] = index
		lowlink[v.id] = index
		index++
		stack = append(stack, v)
		onStack[v.id] = true

		for _, w := range successors(v) {
			if w == nil {
				continue
			}
			if indices[w.id] < 0 {
				strongConnect(w)
				lowlink[v.id] = min(lowlink[v.id], lowlink[w.id])
			} else if onStack[w.id] {
				lowlink[v.id] = min(lowlink[v.id], indices[w.id])
			}
		}

		if lowlink[v.id] == indices[v.id] {
			var scc []*Node
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w.id] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if isCycle(scc) && !breaksCycle(scc) {
				out = append(out, reverse(scc))
			}
		}
	}

	for _, n := range g.nodes {
		if n == g.anchor {
			continue
		}
		if indices[n.id] < 0 {
			strongConnect(n)
		}
	}
	return out
}

func isCycle(scc []*Node) bool {
	if len(scc) > 1 {
		return true
	}
	n := scc[0]
	if n.block == n {
		return true
	}
	for _, in := range n.inputs {
		if in == n {
			return true
		}
	}
	return false
}

func breaksCycle(scc []*Node) bool {
	for _, n := range scc {
		if n.IsBlock() || n.kind.Op == ir.OpPhi {
			return true
		}
	}
	return false
}

func reverse(ns []*Node) []*Node {
	for i, j := 0, len(ns)-1; i < j; i, j = i+1, j-1 {
		ns[i], ns[j] = ns[j], ns[i]
	}
	return ns
}

// VerifyError joins Verify's findings into one error, or returns nil.
func (g *Graph) VerifyError() error {
	errs := g.Verify()
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return fmt.Errorf("%w (and %d more)", errs[0], len(errs)-1)
}
