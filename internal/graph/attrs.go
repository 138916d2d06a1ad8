package graph

import (
	"sort"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// materialize builds a node's attribute map: explicit values first, then
// derivation rules in schema order. Flags outside the kind's accepted set
// are rejected before anything else.
func materialize(k *registry.Kind, init Init) (map[string]ir.AttrValue, error) {
	if extra := init.Flags &^ k.ConsFlags; extra != 0 {
		return nil, ir.NewError(ir.ErrCodeInvalidFlags,
			"construction flags %s not accepted (accepts %s)", extra, k.ConsFlags).WithKind(k.Name)
	}

	attrs := make(map[string]ir.AttrValue, len(k.Attrs))

	// Sorted so that the first offending name is deterministic.
	names := make([]string, 0, len(init.Attrs))
	for name := range init.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := init.Attrs[name]
		spec, ok := k.Attr(name)
		if !ok {
			return nil, ir.NewError(ir.ErrCodeInvalidAttribute, "unknown attribute %q", name).WithKind(k.Name)
		}
		if spec.NoProp {
			return nil, ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q is derived and cannot be supplied", name).WithKind(k.Name)
		}
		if err := checkValue(k, spec, v); err != nil {
			return nil, err
		}
		attrs[name] = v
	}

	for i := range k.Attrs {
		spec := &k.Attrs[i]
		if _, ok := attrs[spec.Name]; ok {
			continue
		}
		var v ir.AttrValue
		if spec.Derive != nil {
			v = spec.Derive(init.Flags, attrs)
		}
		if v == nil {
			if spec.Optional {
				continue
			}
			return nil, ir.NewError(ir.ErrCodeMissingAttribute, "attribute %q has no value and no default", spec.Name).
				WithKind(k.Name).WithDetail("attr", spec.Name)
		}
		if err := checkValue(k, spec, v); err != nil {
			return nil, err
		}
		attrs[spec.Name] = v
	}

	if k.Check != nil {
		if err := k.Check(attrs); err != nil {
			return nil, ir.NewError(ir.ErrCodeInvalidAttribute, "%v", err).WithKind(k.Name)
		}
	}
	return attrs, nil
}

func checkValue(k *registry.Kind, spec *registry.AttrSpec, v ir.AttrValue) error {
	if isNilAttr(v) {
		return ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q is nil", spec.Name).
			WithKind(k.Name).WithDetail("attr", spec.Name)
	}
	if v.AttrType() != spec.Type {
		return ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q wants %s, got %s",
			spec.Name, spec.Type, v.AttrType()).WithKind(k.Name).WithDetail("attr", spec.Name)
	}
	if spec.Check != nil {
		if err := spec.Check(v); err != nil {
			return ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q: %v", spec.Name, err).
				WithKind(k.Name).WithDetail("attr", spec.Name)
		}
	}
	return nil
}

// isNilAttr reports a missing value, including a nil pointer held in the
// interface.
func isNilAttr(v ir.AttrValue) bool {
	switch val := v.(type) {
	case nil:
		return true
	case *ir.Type:
		return val == nil
	case *ir.Entity:
		return val == nil
	case *ir.SwitchTable:
		return val == nil
	}
	return false
}

// effectiveFlags combines the supplied construction flags with those the
// materialized attributes imply.
func effectiveFlags(k *registry.Kind, flags ir.ConsFlags, attrs map[string]ir.AttrValue) ir.ConsFlags {
	for _, spec := range k.Attrs {
		if spec.ToFlags == nil {
			continue
		}
		if v, ok := attrs[spec.Name]; ok {
			flags |= spec.ToFlags(v)
		}
	}
	return flags
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (ir.AttrValue, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames returns the names of the node's attributes in schema order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for _, spec := range n.kind.Attrs {
		if _, ok := n.attrs[spec.Name]; ok {
			names = append(names, spec.Name)
		}
	}
	return names
}

// Get returns the named attribute as its concrete semantic type.
func Get[T ir.AttrValue](n *Node, name string) (T, error) {
	var zero T
	v, ok := n.attrs[name]
	if !ok {
		return zero, ir.NewError(ir.ErrCodeMissingAttribute, "node has no attribute %q", name).
			WithKind(n.kind.Name).WithNode(n.id)
	}
	t, ok := v.(T)
	if !ok {
		return zero, ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q is %s", name, v.AttrType()).
			WithKind(n.kind.Name).WithNode(n.id)
	}
	return t, nil
}

// Typed accessors.

func (n *Node) Entity(name string) (*ir.Entity, error) { return Get[*ir.Entity](n, name) }
func (n *Node) Type(name string) (*ir.Type, error) { return Get[*ir.Type](n, name) }
func (n *Node) Tarval(name string) (ir.Tarval, error) { return Get[ir.Tarval](n, name) }
func (n *Node) Relation(name string) (ir.Relation, error) { return Get[ir.Relation](n, name) }
func (n *Node) Unsigned(name string) (ir.Unsigned, error) { return Get[ir.Unsigned](n, name) }
func (n *Node) Volatility(name string) (ir.Volatility, error) { return Get[ir.Volatility](n, name) }
func (n *Node) Align(name string) (ir.Align, error) { return Get[ir.Align](n, name) }
func (n *Node) Int(name string) (ir.Int, error) { return Get[ir.Int](n, name) }
func (n *Node) Long(name string) (ir.Long, error) { return Get[ir.Long](n, name) }
func (n *Node) Size(name string) (ir.Size, error) { return Get[ir.Size](n, name) }
func (n *Node) JmpPred(name string) (ir.JmpPred, error) { return Get[ir.JmpPred](n, name) }
func (n *Node) Ident(name string) (ir.Ident, error) { return Get[ir.Ident](n, name) }
func (n *Node) Idents(name string) (ir.Idents, error) { return Get[ir.Idents](n, name) }

func (n *Node) BuiltinKind(name string) (ir.BuiltinKind, error) {
	return Get[ir.BuiltinKind](n, name)
}

func (n *Node) Constraints(name string) (ir.Constraints, error) {
	return Get[ir.Constraints](n, name)
}

func (n *Node) SwitchTable(name string) (*ir.SwitchTable, error) {
	return Get[*ir.SwitchTable](n, name)
}

// ModeAttr returns a mode-valued attribute such as Load's "mode".
func (n *Node) ModeAttr(name string) (ir.Mode, error) {
	v, err := Get[ir.ModeValue](n, name)
	return v.Mode, err
}

// ProjNum returns the component index of a Proj node, or -1.
func (n *Node) ProjNum() int {
	if v, ok := n.attrs["proj"].(ir.Long); ok && n.kind.Op == ir.OpProj {
		return int(v)
	}
	return -1
}

// ConsFlags reconstructs the construction flags the node's current state
// implies: flags mapped back from attributes, plus floats and
// throws_exception from the resolved pin and exception state.
func (n *Node) ConsFlags() ir.ConsFlags {
	k := n.kind
	flags := effectiveFlags(k, ir.ConsNone, n.attrs)
	if k.PinInit == registry.PinInitFromFlags && n.pin == ir.PinStateFloats {
		flags |= ir.ConsFloats
	}
	if n.throws {
		flags |= ir.ConsThrowsException
	}
	return flags & k.ConsFlags
}

// SetAttr replaces an attribute value, keeping its semantic type. Derived
// (NoProp) attributes are recomputed; they cannot be set directly. Values
// that would change the node's resolved mode, or the shape of outputs
// already projected, are refused.
func (g *Graph) SetAttr(n *Node, name string, v ir.AttrValue) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(n) {
		return ir.NewError(ir.ErrCodeInvalidInput, "node does not belong to graph %q", g.name)
	}
	k := n.kind
	spec, ok := k.Attr(name)
	if !ok {
		return ir.NewError(ir.ErrCodeInvalidAttribute, "unknown attribute %q", name).WithKind(k.Name).WithNode(n.id)
	}
	if spec.NoProp || name == k.CountAttr || (k.Op == ir.OpProj && name == "proj") {
		return ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q cannot be set", name).WithKind(k.Name).WithNode(n.id)
	}
	if err := checkValue(k, spec, v); err != nil {
		return err
	}

	next := make(map[string]ir.AttrValue, len(n.attrs))
	for key, val := range n.attrs {
		next[key] = val
	}
	next[name] = v
	for i := range k.Attrs {
		s := &k.Attrs[i]
		if s.NoProp && s.Derive != nil {
			next[s.Name] = s.Derive(n.ConsFlags(), next)
		}
	}
	if k.Check != nil {
		if err := k.Check(next); err != nil {
			return ir.NewError(ir.ErrCodeInvalidAttribute, "%v", err).WithKind(k.Name).WithNode(n.id)
		}
	}
	if k.Mode.Kind == registry.ModeFromAttr && k.Mode.Attr == name {
		if m := attrMode(v); m != n.mode {
			return ir.NewError(ir.ErrCodeModeMismatch, "attribute %q would change mode %s to %s", name, n.mode, m).
				WithKind(k.Name).WithNode(n.id)
		}
	}

	if len(n.inputs) > 0 {
		if err := checkSelector(k, next, n.inputs[0]); err != nil {
			return err
		}
	}
	if err := g.checkShape(n, next, n.inputs); err != nil {
		return err
	}

	n.attrs = next
	g.log.Debug("attribute set", "node", n.id, "kind", k.Name, "attr", name, "value", ir.FormatAttr(v))
	return nil
}

// SetThrowsException sets whether a fragile node has an exception edge.
func (g *Graph) SetThrowsException(n *Node, throws bool) error {
	if err := g.checkLive(); err != nil {
		return err
	}
	if !g.owns(n) {
		return ir.NewError(ir.ErrCodeInvalidInput, "node does not belong to graph %q", g.name)
	}
	if !n.kind.Has(ir.FlagFragile) {
		return ir.NewError(ir.ErrCodeInvalidFlags, "kind is not fragile").WithKind(n.kind.Name).WithNode(n.id)
	}
	n.throws = throws
	return nil
}

// checkSelector requires the bounds of a Switch table to be in the
// selector's mode.
func checkSelector(k *registry.Kind, attrs map[string]ir.AttrValue, sel *Node) error {
	if k.Op != ir.OpSwitch || sel == nil || sel.mode.Wildcard() {
		return nil
	}
	t, ok := attrs["table"].(*ir.SwitchTable)
	if !ok || t == nil {
		return nil
	}
	if m := t.Mode(); m != ir.ModeNone && m != sel.mode {
		return ir.NewError(ir.ErrCodeInvalidAttribute, "table bounds are %s, selector is %s", m, sel.mode).
			WithKind(k.Name).WithDetail("attr", "table")
	}
	return nil
}

// attrMode extracts the mode a tarval or mode attribute carries.
func attrMode(v ir.AttrValue) ir.Mode {
	switch v := v.(type) {
	case ir.Tarval:
		return v.Mode
	case ir.ModeValue:
		return v.Mode
	}
	return ir.ModeNone
}
