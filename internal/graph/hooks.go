package graph

import (
	"fmt"
	"sort"

	"github.com/roach88/irgraph/internal/ir"
)

// Request is a construction request after input, block, arity and
// attribute validation. Custom constructors may inspect it and adjust
// Attrs; they must not retain it.
type Request struct {
	Kind   string
	Block  *Node
	Inputs []*Node
	Attrs  map[string]ir.AttrValue
	Flags  ir.ConsFlags
}

// Constructor is the capability of kinds that validate or complete their
// requests beyond the generic schema checks.
type Constructor interface {
	Construct(g *Graph, req *Request) error
}

// Encoder is the capability of kinds whose encoding does not follow the
// generic attribute layout. Encode returns the kind-specific fields that
// extend or replace the generic ones.
type Encoder interface {
	Encode(n *Node) (map[string]any, error)
}

// hooks maps ops declaring CustomConstruct or CustomEncode to the value
// implementing the capability. The kernel probes with type assertions.
var hooks = map[ir.Op]any{
	ir.OpAnchor:  anchorHook{},
	ir.OpASM:     asmHook{},
	ir.OpBlock:   blockHook{},
	ir.OpDeleted: deletedHook{},
	ir.OpPhi:     phiHook{},
}

func constructorFor(op ir.Op) (Constructor, bool) {
	c, ok := hooks[op].(Constructor)
	return c, ok
}

func encoderFor(op ir.Op) (Encoder, bool) {
	e, ok := hooks[op].(Encoder)
	return e, ok
}

// anchorHook: the anchor exists from graph creation on.
type anchorHook struct{}

func (anchorHook) Construct(g *Graph, req *Request) error {
	return ir.NewError(ir.ErrCodeDuplicateSingleton, "the anchor is created with the graph").WithKind(req.Kind)
}

func (anchorHook) Encode(n *Node) (map[string]any, error) {
	roles := make(map[string]any, numRoles-1)
	for r := RoleStartBlock; r < numRoles; r++ {
		if v := n.inputs[r-1]; v != nil {
			roles[r.String()] = int64(v.id)
		}
	}
	return map[string]any{"roles": roles, "inputs": []any{}}, nil
}

// deletedHook: Deleted marks nodes removed by rewrites; clients never build it.
type deletedHook struct{}

func (deletedHook) Construct(g *Graph, req *Request) error {
	return ir.NewError(ir.ErrCodeConstructionForbidden, "Deleted nodes are produced by graph rewrites only").WithKind(req.Kind)
}

func (deletedHook) Encode(n *Node) (map[string]any, error) {
	return map[string]any{"deleted": true}, nil
}

// asmHook aligns input constraints with the operand inputs and checks that
// constraint positions are unique.
type asmHook struct{}

func (asmHook) Construct(g *Graph, req *Request) error {
	in, _ := req.Attrs["input_constraints"].(ir.Constraints)
	if got, want := len(req.Inputs)-1, len(in); got != want {
		return ir.NewError(ir.ErrCodeArityMismatch, "%d operands for %d input constraints", got, want).WithKind(req.Kind)
	}
	for i, c := range in {
		if m := req.Inputs[i+1].Mode(); c.Mode != m && !m.Wildcard() {
			return ir.NewError(ir.ErrCodeInvalidInput, "operand %d has mode %s, constraint %q wants %s",
				i, m, c.Constraint, c.Mode).WithKind(req.Kind).WithIndex(i + 1)
		}
	}
	out, _ := req.Attrs["output_constraints"].(ir.Constraints)
	seen := make(map[uint32]bool, len(out))
	for _, c := range out {
		if seen[c.Position] {
			return ir.NewError(ir.ErrCodeInvalidAttribute, "output constraint position %d used twice", c.Position).WithKind(req.Kind)
		}
		seen[c.Position] = true
	}
	return nil
}

func (asmHook) Encode(n *Node) (map[string]any, error) {
	text, _ := n.attrs["text"].(ir.Ident)
	clobbers, _ := n.attrs["clobbers"].(ir.Idents)
	sorted := append([]string(nil), clobbers...)
	sort.Strings(sorted)
	return map[string]any{
		"asm": map[string]any{
			"text":     string(text),
			"clobbers": toAny(sorted),
			"operands": int64(len(n.inputs) - 1),
		},
	}, nil
}

// blockHook adds maturity and backedge positions.
type blockHook struct{}

func (blockHook) Encode(n *Node) (map[string]any, error) {
	if n.blk == nil {
		return nil, fmt.Errorf("node %s has no block state", n)
	}
	return map[string]any{
		"matured":   n.blk.matured,
		"backedges": backedgeList(n),
	}, nil
}

// phiHook adds backedge positions.
type phiHook struct{}

func (phiHook) Encode(n *Node) (map[string]any, error) {
	return map[string]any{"backedges": backedgeList(n)}, nil
}

func backedgeList(n *Node) []any {
	out := []any{}
	for i, b := range n.backedges {
		if b {
			out = append(out, int64(i))
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
