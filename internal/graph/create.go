package graph

import (
	"strconv"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// Init carries the caller-supplied parts of a construction request.
type Init struct {
	// Attrs holds explicit attribute values by name. Attributes left out
	// are derived from their default rule or fail with MISSING_ATTRIBUTE.
	Attrs map[string]ir.AttrValue

	// Flags are construction flags (volatile, unaligned, floats,
	// throws_exception). Kinds accept only the flags they declare.
	Flags ir.ConsFlags

	// Mode is required for kinds whose mode the caller chooses (Phi, Conv,
	// Dummy, ...). For other kinds it is optional and must agree with the
	// derived mode.
	Mode ir.Mode
}

// CreateNode validates a construction request against the kind's schema
// and inserts the new node.
//
// Validation order:
//  1. graph alive, kind from this graph's registry
//  2. inputs: non-nil, owned by this graph, role-appropriate modes
//  3. block resolved by the kind's block rule
//  4. arity (fixed, variable, or dynamic via the count attribute)
//  5. attributes: explicit values, then derivations; flags accepted
//  6. custom construction capability, if the kind declares one
//  7. singleton uniqueness
//  8. value representation
//  9. pin and exception state
//
// The first failing step returns its error and nothing is inserted.
func (g *Graph) CreateNode(k *registry.Kind, block *Node, inputs []*Node, init Init) (*Node, error) {
	if err := g.checkLive(); err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ir.NewError(ir.ErrCodeUnknownKind, "nil kind")
	}
	if g.reg.ByOp(k.Op) != k {
		return nil, ir.NewError(ir.ErrCodeUnknownKind, "kind is not from this graph's registry").WithKind(k.Name)
	}

	if err := g.checkInputs(k, inputs); err != nil {
		return nil, err
	}
	blk, err := g.resolveBlock(k, block, inputs)
	if err != nil {
		return nil, err
	}
	if err := checkArity(k, blk, inputs, init); err != nil {
		return nil, err
	}

	attrs, err := materialize(k, init)
	if err != nil {
		return nil, err
	}
	flags := effectiveFlags(k, init.Flags, attrs)
	if len(inputs) > 0 {
		if err := checkSelector(k, attrs, inputs[0]); err != nil {
			return nil, err
		}
	}

	if k.CustomConstruct {
		if c, ok := constructorFor(k.Op); ok {
			req := &Request{Kind: k.Name, Block: blk, Inputs: inputs, Attrs: attrs, Flags: flags}
			if err := c.Construct(g, req); err != nil {
				return nil, err
			}
			attrs = req.Attrs
		}
	}

	if k.Singleton {
		if err := g.checkSingleton(k.Op); err != nil {
			return nil, err
		}
	}

	mode, err := g.resolveMode(k, inputs, attrs, init.Mode)
	if err != nil {
		return nil, err
	}
	if k.Op == ir.OpPhi {
		if err := checkPhiInputs(k, inputs, mode); err != nil {
			return nil, err
		}
	}

	ins := make([]*Node, len(inputs))
	copy(ins, inputs)
	n := g.insert(k, blk, ins, attrs, mode, ResolvePin(k, flags))
	n.throws = resolveThrows(k, flags)
	if k.Singleton {
		g.registerSingleton(n)
	}

	g.log.Debug("node created",
		"node", n.id,
		"kind", k.Name,
		"mode", mode.String(),
		"pin", n.pin.String(),
		"inputs", len(ins))
	return n, nil
}

// NewNode is CreateNode by kind identity.
func (g *Graph) NewNode(op ir.Op, block *Node, inputs []*Node, init Init) (*Node, error) {
	k := g.reg.ByOp(op)
	if k == nil {
		return nil, ir.NewError(ir.ErrCodeUnknownKind, "no kind for op %d", uint8(op))
	}
	return g.CreateNode(k, block, inputs, init)
}

// CreateByName is CreateNode by catalog name.
func (g *Graph) CreateByName(name string, block *Node, inputs []*Node, init Init) (*Node, error) {
	k, err := g.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return g.CreateNode(k, block, inputs, init)
}

func (g *Graph) checkInputs(k *registry.Kind, inputs []*Node) error {
	for i, in := range inputs {
		if in == nil {
			return ir.NewError(ir.ErrCodeInvalidInput, "input %s is nil", k.InputLabel(i)).WithKind(k.Name).WithIndex(i)
		}
		if !g.owns(in) {
			return ir.NewError(ir.ErrCodeInvalidInput, "input %s belongs to another graph", k.InputLabel(i)).
				WithKind(k.Name).WithIndex(i)
		}
		if err := checkInputMode(k, i, in); err != nil {
			return err
		}
	}
	return nil
}

// checkInputMode enforces the mode of role-typed inputs: block predecessors
// are control values, memory inputs carry memory, and tuples and blocks are
// never used as plain values.
func checkInputMode(k *registry.Kind, i int, in *Node) error {
	m := in.mode
	fail := func(want string) error {
		return ir.NewError(ir.ErrCodeInvalidInput, "input %s has mode %s, want %s", k.InputLabel(i), m, want).
			WithKind(k.Name).WithIndex(i).WithDetail("input", strconv.Itoa(in.id))
	}
	switch {
	case m == ir.ModeBB && k.Op != ir.OpEnd:
		return fail("a value (blocks are not inputs)")
	case m == ir.ModeT && k.Op != ir.OpProj:
		return fail("a single value (project the tuple first)")
	case k.Op == ir.OpBlock:
		if m != ir.ModeX && m != ir.ModeBad {
			return fail("X")
		}
	case k.Op == ir.OpSync || k.InputLabel(i) == "mem":
		if m != ir.ModeM && !m.Wildcard() {
			return fail("M")
		}
	}
	return nil
}

func (g *Graph) resolveBlock(k *registry.Kind, block *Node, inputs []*Node) (*Node, error) {
	fixed := func(want *Node, rule registry.BlockRule) (*Node, error) {
		if block != nil && block != want {
			return nil, ir.NewError(ir.ErrCodeInvalidBlock, "kind lives in the %s block, got %s", rule, block).WithKind(k.Name)
		}
		return want, nil
	}

	switch k.Block {
	case registry.BlockNone:
		if block != nil {
			return nil, ir.NewError(ir.ErrCodeInvalidBlock, "kind has no block, got %s", block).WithKind(k.Name)
		}
		return nil, nil
	case registry.BlockStart:
		return fixed(g.StartBlock(), k.Block)
	case registry.BlockEnd:
		return fixed(g.EndBlock(), k.Block)
	case registry.BlockFromInput:
		if len(inputs) == 0 {
			// Arity check reports the missing input.
			return block, nil
		}
		return fixed(inputs[0].block, k.Block)
	}

	if block == nil {
		return nil, ir.NewError(ir.ErrCodeInvalidBlock, "kind requires a block").WithKind(k.Name)
	}
	if !g.owns(block) {
		return nil, ir.NewError(ir.ErrCodeInvalidBlock, "block belongs to another graph").WithKind(k.Name)
	}
	if !block.IsBlock() {
		return nil, ir.NewError(ir.ErrCodeInvalidBlock, "%s is not a block", block).WithKind(k.Name)
	}
	return block, nil
}

func checkArity(k *registry.Kind, block *Node, inputs []*Node, init Init) error {
	got, fixed := len(inputs), k.NumInputs()
	mismatch := func(want string) error {
		return ir.NewError(ir.ErrCodeArityMismatch, "%s takes %s inputs, got %d", k.Name, want, got).
			WithKind(k.Name).
			WithDetail("expected", want).
			WithDetail("got", strconv.Itoa(got))
	}

	switch k.Arity {
	case ir.ArityFixed:
		if got != fixed {
			return mismatch(strconv.Itoa(fixed))
		}
	case ir.ArityVariable:
		if got < fixed {
			return mismatch("at least " + strconv.Itoa(fixed))
		}
		if k.Op == ir.OpPhi && block != nil && got != block.NumPreds() {
			return mismatch(strconv.Itoa(block.NumPreds()) + " (one per block predecessor)")
		}
	case ir.ArityDynamic:
		count, ok := init.Attrs[k.CountAttr].(ir.Size)
		if !ok {
			return ir.NewError(ir.ErrCodeArityMismatch, "dynamic arity requires size attribute %q", k.CountAttr).
				WithKind(k.Name).WithDetail("attr", k.CountAttr)
		}
		if want := fixed + int(count); got != want {
			return mismatch(strconv.Itoa(want) + " (" + k.CountAttr + ")")
		}
	}
	return nil
}

func (g *Graph) resolveMode(k *registry.Kind, inputs []*Node, attrs map[string]ir.AttrValue, want ir.Mode) (ir.Mode, error) {
	rule := k.Mode
	var m ir.Mode

	switch rule.Kind {
	case registry.ModeFixed:
		m = rule.Mode
	case registry.ModeFromInput:
		m = inputs[rule.Input].mode
		if m.Wildcard() && want.Valid() {
			return want, nil
		}
	case registry.ModeFromAttr:
		m = attrMode(attrs[rule.Attr])
	case registry.ModeFromCaller:
		if want == ir.ModeNone {
			return ir.ModeNone, ir.NewError(ir.ErrCodeMissingAttribute, "kind requires a caller-supplied mode").
				WithKind(k.Name).WithDetail("attr", "mode")
		}
		if !want.Valid() || want == ir.ModeT || want == ir.ModeBB {
			return ir.ModeNone, ir.NewError(ir.ErrCodeModeMismatch, "mode %s cannot be chosen by the caller", want).WithKind(k.Name)
		}
		if rule.Data && !want.IsData() {
			return ir.ModeNone, ir.NewError(ir.ErrCodeModeMismatch, "%s computes a value, mode %s is not a data mode", k.Name, want).WithKind(k.Name)
		}
		return want, nil
	case registry.ModeFromTuple:
		idx := int(attrs["proj"].(ir.Long))
		modes := g.componentModes(inputs[0])
		if idx >= len(modes) {
			return ir.ModeNone, indexError(inputs[0], idx, len(modes))
		}
		m = modes[idx]
		if m == ir.ModeANY && want.Valid() {
			return want, nil
		}
	}

	if want != ir.ModeNone && want != m {
		return ir.ModeNone, ir.NewError(ir.ErrCodeModeMismatch, "requested mode %s, kind yields %s", want, m).WithKind(k.Name)
	}
	return m, nil
}

func checkPhiInputs(k *registry.Kind, inputs []*Node, mode ir.Mode) error {
	for i, in := range inputs {
		if in.mode != mode && !in.mode.Wildcard() {
			return ir.NewError(ir.ErrCodeInvalidInput, "phi of mode %s got %s input", mode, in.mode).
				WithKind(k.Name).WithIndex(i)
		}
	}
	return nil
}

// ResolvePin derives a node's pin state from the kind's policy and the
// effective construction flags. An exception-pinned kind whose pin state
// comes from flags floats only when floats is requested and neither
// volatile nor throws_exception is present.
func ResolvePin(k *registry.Kind, flags ir.ConsFlags) ir.PinState {
	switch k.Pinning {
	case ir.PinningFloats:
		return ir.PinStateFloats
	case ir.PinningException:
		if k.PinInit == registry.PinInitFromFlags &&
			flags.Has(ir.ConsFloats) &&
			!flags.Has(ir.ConsVolatile) &&
			!flags.Has(ir.ConsThrowsException) {
			return ir.PinStateFloats
		}
	}
	return ir.PinStatePinned
}

func resolveThrows(k *registry.Kind, flags ir.ConsFlags) bool {
	return k.ThrowsInit == registry.ThrowsFromFlags && flags.Has(ir.ConsThrowsException)
}
