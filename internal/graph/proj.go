package graph

import (
	"strconv"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// NumOutputs returns the number of components of a tuple-valued node: the
// kind's fixed outputs plus the per-node extras of its result rule. Nodes
// that are not tuples have none.
func (g *Graph) NumOutputs(n *Node) int {
	return len(g.componentModes(n))
}

// OutputMode returns the mode of component i of a tuple-valued node.
func (g *Graph) OutputMode(n *Node, i int) (ir.Mode, error) {
	modes := g.componentModes(n)
	if i < 0 || i >= len(modes) {
		return ir.ModeNone, indexError(n, i, len(modes))
	}
	return modes[i], nil
}

// Project returns a Proj selecting component index of tuple. An existing
// projection of the same (tuple, index) pair is reused. On failure no node
// is created.
func (g *Graph) Project(tuple *Node, index int) (*Node, error) {
	if err := g.checkLive(); err != nil {
		return nil, err
	}
	if !g.owns(tuple) {
		return nil, ir.NewError(ir.ErrCodeInvalidInput, "tuple does not belong to graph %q", g.name).WithKind("Proj")
	}
	modes := g.componentModes(tuple)
	if index < 0 || index >= len(modes) {
		return nil, indexError(tuple, index, len(modes))
	}
	if p, ok := g.projs[projKey{tuple: tuple.id, index: index}]; ok {
		return p, nil
	}
	return g.NewNode(ir.OpProj, nil, []*Node{tuple}, Init{
		Attrs: map[string]ir.AttrValue{"proj": ir.Long(index)},
	})
}

// ProjectNamed projects the fixed output called name (for example "res" or
// "T_args").
func (g *Graph) ProjectNamed(tuple *Node, name string) (*Node, error) {
	if err := g.checkLive(); err != nil {
		return nil, err
	}
	if !g.owns(tuple) {
		return nil, ir.NewError(ir.ErrCodeInvalidInput, "tuple does not belong to graph %q", g.name).WithKind("Proj")
	}
	i, ok := tuple.kind.OutputIndex(name)
	if !ok {
		return nil, ir.NewError(ir.ErrCodeIndexOutOfRange, "%s has no output %q", tuple.kind.Name, name).
			WithKind(tuple.kind.Name).WithNode(tuple.id)
	}
	return g.Project(tuple, i)
}

// componentModes lists the component modes of a tuple value: either a
// tuple-kind node or a Proj selecting a nested tuple (Start T_args, Call
// T_result). Values that are not tuples have no components.
func (g *Graph) componentModes(n *Node) []ir.Mode {
	if n.mode != ir.ModeT {
		return nil
	}
	if n.kind.Op == ir.OpProj {
		pred := n.inputs[0]
		return g.nestedModes(pred.kind, pred.attrs, n.ProjNum())
	}
	return tupleModes(n.kind, n.attrs, n.inputs)
}

// tupleModes lists the outputs of a node of kind k holding attrs and
// inputs.
func tupleModes(k *registry.Kind, attrs map[string]ir.AttrValue, inputs []*Node) []ir.Mode {
	modes := make([]ir.Mode, 0, len(k.Outputs))
	for _, o := range k.Outputs {
		modes = append(modes, outputMode(o.Mode, attrs))
	}

	switch k.Results {
	case registry.ResultsFromCount:
		total, _ := attrs[k.ResultAttr].(ir.Unsigned)
		for len(modes) < int(total) {
			modes = append(modes, ir.ModeX)
		}
	case registry.ResultsFromType:
		if t, ok := attrs[k.ResultAttr].(*ir.Type); ok && t != nil {
			for _, r := range t.Results {
				modes = append(modes, r.ValueMode())
			}
		}
	case registry.ResultsFromInputs:
		for _, in := range inputs {
			modes = append(modes, in.mode)
		}
	case registry.ResultsFromASM:
		if cs, ok := attrs[k.ResultAttr].(ir.Constraints); ok {
			for _, c := range cs {
				modes = append(modes, c.Mode)
			}
		}
	}
	return modes
}

// nestedModes lists the components of output idx of a node of kind pred
// holding attrs, when that output is itself a tuple.
func (g *Graph) nestedModes(pred *registry.Kind, attrs map[string]ir.AttrValue, idx int) []ir.Mode {
	var nested registry.Nested
	if idx >= 0 && idx < len(pred.Outputs) {
		nested = pred.Outputs[idx].Nested
	}

	var types []*ir.Type
	switch nested {
	case registry.NestedGraphParams:
		if g.entity != nil && g.entity.Type.IsMethod() {
			types = g.entity.Type.Params
		}
	case registry.NestedTypeResults:
		if t, ok := attrs["type"].(*ir.Type); ok && t != nil {
			types = t.Results
		}
	}

	modes := make([]ir.Mode, len(types))
	for i, t := range types {
		modes[i] = t.ValueMode()
	}
	return modes
}

// projectionsOf returns the Proj nodes selecting from n, in id order.
func (g *Graph) projectionsOf(n *Node) []*Node {
	var out []*Node
	for _, p := range g.nodes {
		if p.kind.Op == ir.OpProj && len(p.inputs) == 1 && p.inputs[0] == n {
			out = append(out, p)
		}
	}
	return out
}

// checkShape refuses a change that would give n the attrs and inputs
// passed in while projections taken from n no longer fit its outputs:
// each projection keeps its index in range and its mode, and the same
// holds one level down for projections of nested tuples.
func (g *Graph) checkShape(n *Node, attrs map[string]ir.AttrValue, inputs []*Node) error {
	if n.mode != ir.ModeT || n.kind.Op == ir.OpProj {
		return nil
	}
	modes := tupleModes(n.kind, attrs, inputs)
	for _, p := range g.projectionsOf(n) {
		if err := fitsComponent(n, p, modes); err != nil {
			return err
		}
		if p.mode != ir.ModeT {
			continue
		}
		nested := g.nestedModes(n.kind, attrs, p.ProjNum())
		for _, q := range g.projectionsOf(p) {
			if err := fitsComponent(p, q, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func fitsComponent(tuple, p *Node, modes []ir.Mode) error {
	i := p.ProjNum()
	if i < 0 || i >= len(modes) {
		return indexError(tuple, i, len(modes)).
			WithDetail("projection", strconv.Itoa(p.id))
	}
	if m := modes[i]; m != p.mode && m != ir.ModeANY {
		return ir.NewError(ir.ErrCodeModeMismatch, "output %d of %s would become %s, projection %s has %s", i, tuple, m, p, p.mode).
			WithKind(tuple.kind.Name).WithNode(tuple.id).WithIndex(i)
	}
	return nil
}

func outputMode(rule registry.ModeRule, attrs map[string]ir.AttrValue) ir.Mode {
	if rule.Kind == registry.ModeFromAttr {
		return attrMode(attrs[rule.Attr])
	}
	return rule.Mode
}

func indexError(tuple *Node, index, count int) *ir.Error {
	return ir.NewError(ir.ErrCodeIndexOutOfRange, "%s has %d outputs, index %d", tuple, count, index).
		WithKind(tuple.kind.Name).
		WithNode(tuple.id).
		WithIndex(index).
		WithDetail("outputs", strconv.Itoa(count))
}
