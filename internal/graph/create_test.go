package graph

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// TestFixedArity: with exactly N well-typed inputs construction succeeds;
// with N-1 or N+1 it fails with ARITY_MISMATCH.
func TestFixedArity(t *testing.T) {
	for _, k := range registry.Default().Kinds() {
		if k.Arity != ir.ArityFixed {
			continue
		}
		k := k
		t.Run(k.Name, func(t *testing.T) {
			f := newFixture(t)
			g := f.g
			extra := f.one
			if k.Singleton {
				// Fixture singletons already exist; use a graph without them.
				g = New(WithEntity(funcEntity))
				var err error
				extra, err = g.NewNode(ir.OpConst, nil, nil, Init{
					Attrs: map[string]ir.AttrValue{"tarval": ir.MustTarvalInt(ir.ModeIs, 0)},
				})
				require.NoError(t, err)
			}
			block, inputs, init := f.request(k)
			n := k.NumInputs()

			more := append(append([]*Node(nil), inputs...), extra)
			_, err := g.CreateNode(k, block, more, init)
			requireCode(t, err, ir.ErrCodeArityMismatch)

			if n > 0 {
				_, err = g.CreateNode(k, block, inputs[:n-1], init)
				requireCode(t, err, ir.ErrCodeArityMismatch)
			}

			node, err := g.CreateNode(k, block, inputs, init)
			if k.Op == ir.OpDeleted {
				requireCode(t, err, ir.ErrCodeConstructionForbidden)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, k.Op, node.Op())
			assert.Equal(t, n, node.NumInputs())
		})
	}
}

func TestVariableAndDynamicArity(t *testing.T) {
	f := newFixture(t)
	g := f.g

	t.Run("variable accepts any count past the fixed prefix", func(t *testing.T) {
		ret, err := g.NewNode(ir.OpReturn, f.block, []*Node{f.mem, f.arg0, f.one}, Init{})
		require.NoError(t, err)
		assert.Equal(t, 3, ret.NumInputs())
		assert.Equal(t, "res1", ret.Kind().InputLabel(2))

		_, err = g.NewNode(ir.OpReturn, f.block, nil, Init{})
		requireCode(t, err, ir.ErrCodeArityMismatch)
	})

	t.Run("dynamic count comes from its attribute", func(t *testing.T) {
		_, err := g.NewNode(ir.OpSync, f.block, []*Node{f.mem, f.mem}, Init{})
		requireCode(t, err, ir.ErrCodeArityMismatch)

		_, err = g.NewNode(ir.OpSync, f.block, []*Node{f.mem, f.mem}, Init{
			Attrs: map[string]ir.AttrValue{"n_preds": ir.Size(1)},
		})
		requireCode(t, err, ir.ErrCodeArityMismatch)

		sync, err := g.NewNode(ir.OpSync, f.block, []*Node{f.mem, f.mem}, Init{
			Attrs: map[string]ir.AttrValue{"n_preds": ir.Size(2)},
		})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeM, sync.Mode())
	})

	t.Run("phi input count follows the block", func(t *testing.T) {
		b, err := g.NewNode(ir.OpBlock, nil, []*Node{f.jmp}, Init{})
		require.NoError(t, err)

		_, err = g.NewNode(ir.OpPhi, b, []*Node{f.arg0, f.one}, Init{Mode: ir.ModeIs})
		requireCode(t, err, ir.ErrCodeArityMismatch)

		phi, err := g.NewNode(ir.OpPhi, b, []*Node{f.arg0}, Init{Mode: ir.ModeIs})
		require.NoError(t, err)
		assert.Equal(t, []*Node{phi}, b.Phis())
	})
}

func TestBlockResolution(t *testing.T) {
	f := newFixture(t)
	g := f.g
	other := New()

	tests := []struct {
		name  string
		op    ir.Op
		block *Node
		code  ir.ErrorCode
	}{
		{"caller block required", ir.OpJmp, nil, ir.ErrCodeInvalidBlock},
		{"node is not a block", ir.OpJmp, f.one, ir.ErrCodeInvalidBlock},
		{"foreign block", ir.OpJmp, other.StartBlock(), ir.ErrCodeInvalidBlock},
		{"start kinds refuse other blocks", ir.OpNoMem, f.block, ir.ErrCodeInvalidBlock},
		{"blocks have no block", ir.OpBlock, f.block, ir.ErrCodeInvalidBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.NewNode(tt.op, tt.block, nil, Init{})
			requireCode(t, err, tt.code)
		})
	}

	t.Run("start_block kinds resolve to the entry block", func(t *testing.T) {
		c := f.constant(t, ir.ModeIu, 3)
		assert.Same(t, g.StartBlock(), c.Block())

		explicit, err := g.NewNode(ir.OpConst, g.StartBlock(), nil, Init{
			Attrs: map[string]ir.AttrValue{"tarval": ir.MustTarvalInt(ir.ModeIu, 4)},
		})
		require.NoError(t, err)
		assert.Same(t, g.StartBlock(), explicit.Block())
	})

	t.Run("End lives in the exit block", func(t *testing.T) {
		assert.Same(t, g.EndBlock(), g.End().Block())
	})

	t.Run("Proj lives in its tuple's block", func(t *testing.T) {
		load, err := g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}},
		})
		require.NoError(t, err)
		res, err := g.ProjectNamed(load, "res")
		require.NoError(t, err)
		assert.Same(t, f.block, res.Block())
	})

	t.Run("nodes are recorded as block members", func(t *testing.T) {
		assert.Contains(t, f.block.Members(), f.jmp)
		assert.Nil(t, f.block.Block())
		assert.Nil(t, g.AnchorNode().Block())
	})
}

func TestInputValidation(t *testing.T) {
	f := newFixture(t)
	g := f.g
	other := newFixture(t)

	tests := []struct {
		name   string
		op     ir.Op
		block  *Node
		inputs []*Node
		init   Init
	}{
		{"nil input", ir.OpAdd, f.block, []*Node{f.arg0, nil}, Init{}},
		{"foreign input", ir.OpAdd, f.block, []*Node{f.arg0, other.g.Start()}, Init{}},
		{"tuple used as value", ir.OpAdd, f.block, []*Node{f.arg0, g.Start()}, Init{}},
		{"block used as value", ir.OpAdd, f.block, []*Node{f.arg0, f.block}, Init{}},
		{"memory input carries data", ir.OpLoad, f.block, []*Node{f.arg0, f.arg1},
			Init{Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}}}},
		{"block predecessor is data", ir.OpBlock, nil, []*Node{f.arg0}, Init{}},
		{"sync predecessor is data", ir.OpSync, f.block, []*Node{f.arg0},
			Init{Attrs: map[string]ir.AttrValue{"n_preds": ir.Size(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := g.Len()
			_, err := g.NewNode(tt.op, tt.block, tt.inputs, tt.init)
			requireCode(t, err, ir.ErrCodeInvalidInput)
			assert.Equal(t, before, g.Len(), "failed construction inserts nothing")
		})
	}

	t.Run("Bad is accepted as block predecessor and memory", func(t *testing.T) {
		_, err := g.NewNode(ir.OpBlock, nil, []*Node{g.Bad()}, Init{})
		require.NoError(t, err)
		_, err = g.NewNode(ir.OpLoad, f.block, []*Node{g.Bad(), f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}},
		})
		require.NoError(t, err)
	})
}

func TestAttributeMaterialization(t *testing.T) {
	f := newFixture(t)
	g := f.g

	t.Run("missing required attribute", func(t *testing.T) {
		_, err := g.NewNode(ir.OpConst, nil, nil, Init{})
		requireCode(t, err, ir.ErrCodeMissingAttribute)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := g.NewNode(ir.OpJmp, f.block, nil, Init{Attrs: map[string]ir.AttrValue{"tarval": ir.NewTarvalBool(true)}})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})

	t.Run("wrong semantic type", func(t *testing.T) {
		_, err := g.NewNode(ir.OpConst, nil, nil, Init{Attrs: map[string]ir.AttrValue{"tarval": ir.Long(3)}})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})

	t.Run("value check", func(t *testing.T) {
		_, err := g.NewNode(ir.OpAlloc, f.block, []*Node{f.mem, f.arg0}, Init{
			Attrs: map[string]ir.AttrValue{"alignment": ir.Unsigned(3)},
		})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)

		_, err = g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeM}},
		})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})

	t.Run("kind check across attributes", func(t *testing.T) {
		table := &ir.SwitchTable{Entries: []ir.SwitchEntry{
			{Min: ir.MustTarvalInt(ir.ModeIu, 0), Max: ir.MustTarvalInt(ir.ModeIu, 3), PN: 4},
		}}
		_, err := g.NewNode(ir.OpSwitch, f.block, []*Node{f.arg0}, Init{
			Attrs: map[string]ir.AttrValue{"n_outs": ir.Unsigned(2), "table": table},
		})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})

	t.Run("derived attributes cannot be supplied", func(t *testing.T) {
		_, err := g.NewNode(ir.OpASM, f.block, []*Node{f.mem}, Init{Attrs: map[string]ir.AttrValue{
			"input_constraints":  ir.Constraints{},
			"output_constraints": ir.Constraints{},
			"clobbers":           ir.Idents{},
			"text":               ir.Ident("nop"),
			"n_clobbers":         ir.Size(0),
		}})
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})

	t.Run("defaults", func(t *testing.T) {
		cond, err := g.NewNode(ir.OpCond, f.block, []*Node{f.arg0}, Init{})
		require.NoError(t, err)
		pred, err := cond.JmpPred("jmp_pred")
		require.NoError(t, err)
		assert.Equal(t, ir.JmpPredNone, pred)

		div, err := g.NewNode(ir.OpDiv, f.block, []*Node{f.mem, f.arg0, f.one}, Init{
			Attrs: map[string]ir.AttrValue{"resmode": ir.ModeValue{Mode: ir.ModeIs}},
		})
		require.NoError(t, err)
		nr, err := div.Int("no_remainder")
		require.NoError(t, err)
		assert.Equal(t, ir.Int(0), nr)

		load, err := g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}},
			Flags: ir.ConsVolatile | ir.ConsUnaligned,
		})
		require.NoError(t, err)
		vol, err := load.Volatility("volatility")
		require.NoError(t, err)
		assert.Equal(t, ir.IsVolatile, vol)
		al, err := load.Align("unaligned")
		require.NoError(t, err)
		assert.Equal(t, ir.NonAligned, al)
		assert.Equal(t, []string{"mode", "volatility", "unaligned"}, load.AttrNames())
	})

	t.Run("optional attributes may stay absent", func(t *testing.T) {
		b, err := g.NewNode(ir.OpBlock, nil, nil, Init{})
		require.NoError(t, err)
		_, ok := b.Attr("entity")
		assert.False(t, ok)
		_, err = b.Entity("entity")
		requireCode(t, err, ir.ErrCodeMissingAttribute)
	})

	t.Run("flags the kind does not accept", func(t *testing.T) {
		_, err := g.NewNode(ir.OpCall, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"type": methodType},
			Flags: ir.ConsFloats,
		})
		requireCode(t, err, ir.ErrCodeInvalidFlags)

		_, err = g.NewNode(ir.OpDiv, f.block, []*Node{f.mem, f.arg0, f.one}, Init{
			Attrs: map[string]ir.AttrValue{"resmode": ir.ModeValue{Mode: ir.ModeIs}},
			Flags: ir.ConsVolatile,
		})
		requireCode(t, err, ir.ErrCodeInvalidFlags)
	})
}

// TestAttributeRoundTrip: a value set at construction reads back unchanged
// for every semantic type in the catalog.
func TestAttributeRoundTrip(t *testing.T) {
	f := newFixture(t)
	g := f.g

	table := &ir.SwitchTable{Entries: []ir.SwitchEntry{
		{Min: ir.MustTarvalInt(ir.ModeIs, 1), Max: ir.MustTarvalInt(ir.ModeIs, 5), PN: 1},
		{Min: ir.MustTarvalInt(ir.ModeIs, 9), Max: ir.MustTarvalInt(ir.ModeIs, 9), PN: 2},
	}}
	outs := ir.Constraints{{Position: 0, Constraint: "=r", Mode: ir.ModeIu}}

	tests := []struct {
		name   string
		op     ir.Op
		block  *Node
		inputs []*Node
		attrs  map[string]ir.AttrValue
		mode   ir.Mode
		read   string
	}{
		{"entity", ir.OpAddress, nil, nil, map[string]ir.AttrValue{"entity": globalVar}, 0, "entity"},
		{"type", ir.OpSize, nil, nil, map[string]ir.AttrValue{"type": ptrType}, ir.ModeIu, "type"},
		{"tarval", ir.OpConst, nil, nil, map[string]ir.AttrValue{"tarval": ir.MustTarvalInt(ir.ModeLs, -9)}, 0, "tarval"},
		{"float tarval", ir.OpConst, nil, nil, map[string]ir.AttrValue{"tarval": mustFloat(t, 2.5)}, 0, "tarval"},
		{"relation", ir.OpCmp, f.block, []*Node{f.arg0, f.one}, map[string]ir.AttrValue{"relation": ir.RelationUnorderedLess}, 0, "relation"},
		{"builtin kind", ir.OpBuiltin, f.block, []*Node{f.mem}, map[string]ir.AttrValue{"kind": ir.BuiltinPopcount, "type": methodType}, 0, "kind"},
		{"alignment", ir.OpAlloc, f.block, []*Node{f.mem, f.arg0}, map[string]ir.AttrValue{"alignment": ir.Unsigned(16)}, 0, "alignment"},
		{"volatility", ir.OpCopyB, f.block, []*Node{f.mem, f.arg1, f.arg1}, map[string]ir.AttrValue{"type": intType, "volatility": ir.IsVolatile}, 0, "volatility"},
		{"unaligned", ir.OpStore, f.block, []*Node{f.mem, f.arg1, f.arg0}, map[string]ir.AttrValue{"unaligned": ir.NonAligned}, 0, "unaligned"},
		{"mode", ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeD}}, 0, "mode"},
		{"int", ir.OpDiv, f.block, []*Node{f.mem, f.arg0, f.one}, map[string]ir.AttrValue{"resmode": ir.ModeValue{Mode: ir.ModeIs}, "no_remainder": ir.Int(1)}, 0, "no_remainder"},
		{"long", ir.OpProj, nil, []*Node{g.Start()}, map[string]ir.AttrValue{"proj": ir.Long(2)}, 0, "proj"},
		{"size", ir.OpSync, f.block, []*Node{f.mem}, map[string]ir.AttrValue{"n_preds": ir.Size(1)}, 0, "n_preds"},
		{"jmp_pred", ir.OpCond, f.block, []*Node{f.arg0}, map[string]ir.AttrValue{"jmp_pred": ir.JmpPredTrue}, 0, "jmp_pred"},
		{"ident", ir.OpASM, f.block, []*Node{f.mem}, map[string]ir.AttrValue{
			"input_constraints": ir.Constraints{}, "output_constraints": outs,
			"clobbers": ir.Idents{"cc"}, "text": ir.Ident("rdtsc"),
		}, 0, "text"},
		{"asm constraints", ir.OpASM, f.block, []*Node{f.mem}, map[string]ir.AttrValue{
			"input_constraints": ir.Constraints{}, "output_constraints": outs,
			"clobbers": ir.Idents{"cc"}, "text": ir.Ident("rdtsc"),
		}, 0, "output_constraints"},
		{"idents", ir.OpASM, f.block, []*Node{f.mem}, map[string]ir.AttrValue{
			"input_constraints": ir.Constraints{}, "output_constraints": outs,
			"clobbers": ir.Idents{"cc", "memory"}, "text": ir.Ident("rdtsc"),
		}, 0, "clobbers"},
		{"switch table", ir.OpSwitch, f.block, []*Node{f.arg0}, map[string]ir.AttrValue{"n_outs": ir.Unsigned(3), "table": table}, 0, "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := g.NewNode(tt.op, tt.block, tt.inputs, Init{Attrs: tt.attrs, Mode: tt.mode})
			require.NoError(t, err)
			got, ok := n.Attr(tt.read)
			require.True(t, ok)
			assert.Equal(t, tt.attrs[tt.read], got)
		})
	}

	t.Run("typed accessors", func(t *testing.T) {
		addr, err := g.NewNode(ir.OpAddress, nil, nil, Init{Attrs: map[string]ir.AttrValue{"entity": globalVar}})
		require.NoError(t, err)
		e, err := addr.Entity("entity")
		require.NoError(t, err)
		assert.Same(t, globalVar, e)

		_, err = addr.Tarval("entity")
		requireCode(t, err, ir.ErrCodeInvalidAttribute)
	})
}

func mustFloat(t *testing.T, v float64) ir.Tarval {
	t.Helper()
	tv, err := ir.NewTarvalFloat(ir.ModeD, v)
	require.NoError(t, err)
	return tv
}

func TestModeResolution(t *testing.T) {
	f := newFixture(t)
	g := f.g

	t.Run("binop takes its left operand's mode", func(t *testing.T) {
		add, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg1, f.one}, Init{})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeP, add.Mode())
	})

	t.Run("fixed", func(t *testing.T) {
		cmp, err := g.NewNode(ir.OpCmp, f.block, []*Node{f.arg0, f.one}, Init{
			Attrs: map[string]ir.AttrValue{"relation": ir.RelationLess},
		})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeB, cmp.Mode())
	})

	t.Run("from attribute", func(t *testing.T) {
		c := f.constant(t, ir.ModeHu, 70000)
		assert.Equal(t, ir.ModeHu, c.Mode())
		tv, err := c.Tarval("tarval")
		require.NoError(t, err)
		assert.Equal(t, int64(70000&0xffff), tv.Int64())
	})

	t.Run("mux takes the false operand's mode", func(t *testing.T) {
		mux, err := g.NewNode(ir.OpMux, f.block, []*Node{f.one, f.arg1, f.arg1}, Init{})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeP, mux.Mode())
	})

	t.Run("caller mode required", func(t *testing.T) {
		_, err := g.NewNode(ir.OpConv, f.block, []*Node{f.arg0}, Init{})
		requireCode(t, err, ir.ErrCodeMissingAttribute)

		_, err = g.NewNode(ir.OpConv, f.block, []*Node{f.arg0}, Init{Mode: ir.ModeT})
		requireCode(t, err, ir.ErrCodeModeMismatch)

		conv, err := g.NewNode(ir.OpConv, f.block, []*Node{f.arg0}, Init{Mode: ir.ModeLs})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeLs, conv.Mode())
	})

	t.Run("requested mode must agree", func(t *testing.T) {
		_, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{Mode: ir.ModeLu})
		requireCode(t, err, ir.ErrCodeModeMismatch)

		add, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{Mode: ir.ModeIs})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeIs, add.Mode())
	})

	t.Run("wildcard operand defers to the requested mode", func(t *testing.T) {
		add, err := g.NewNode(ir.OpAdd, f.block, []*Node{g.Unknown(), f.one}, Init{})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeANY, add.Mode())

		add, err = g.NewNode(ir.OpAdd, f.block, []*Node{g.Unknown(), f.one}, Init{Mode: ir.ModeIs})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeIs, add.Mode())
	})

	t.Run("phi inputs match the phi", func(t *testing.T) {
		b, err := g.NewNode(ir.OpBlock, nil, []*Node{f.jmp, g.Bad()}, Init{})
		require.NoError(t, err)
		_, err = g.NewNode(ir.OpPhi, b, []*Node{f.arg0, f.arg1}, Init{Mode: ir.ModeIs})
		requireCode(t, err, ir.ErrCodeInvalidInput)

		phi, err := g.NewNode(ir.OpPhi, b, []*Node{f.arg0, g.Bad()}, Init{Mode: ir.ModeIs})
		require.NoError(t, err)
		assert.Equal(t, ir.ModeIs, phi.Mode())
	})
}

func TestPinResolution(t *testing.T) {
	f := newFixture(t)
	g := f.g
	loadAttrs := func() map[string]ir.AttrValue {
		return map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}}
	}

	tests := []struct {
		name   string
		flags  ir.ConsFlags
		attrs  map[string]ir.AttrValue
		pin    ir.PinState
		throws bool
	}{
		{"no flags", ir.ConsNone, nil, ir.PinStatePinned, false},
		{"floats", ir.ConsFloats, nil, ir.PinStateFloats, false},
		{"floats and unaligned", ir.ConsFloats | ir.ConsUnaligned, nil, ir.PinStateFloats, false},
		{"volatile wins over floats", ir.ConsFloats | ir.ConsVolatile, nil, ir.PinStatePinned, false},
		{"exception wins over floats", ir.ConsFloats | ir.ConsThrowsException, nil, ir.PinStatePinned, true},
		{"volatile", ir.ConsVolatile, nil, ir.PinStatePinned, false},
		{"volatile attribute wins over floats", ir.ConsFloats, map[string]ir.AttrValue{"volatility": ir.IsVolatile}, ir.PinStatePinned, false},
	}
	for _, tt := range tests {
		t.Run("Load/"+tt.name, func(t *testing.T) {
			attrs := loadAttrs()
			for k, v := range tt.attrs {
				attrs[k] = v
			}
			load, err := g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{Attrs: attrs, Flags: tt.flags})
			require.NoError(t, err)
			assert.Equal(t, tt.pin, load.PinState())
			assert.Equal(t, tt.throws, load.ThrowsException())
		})
	}

	t.Run("policy kinds", func(t *testing.T) {
		add, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{})
		require.NoError(t, err)
		assert.False(t, add.Pinned())
		assert.True(t, f.jmp.Pinned())
	})

	t.Run("call always starts pinned", func(t *testing.T) {
		call, err := g.NewNode(ir.OpCall, f.block, []*Node{f.mem, f.arg1, f.arg0}, Init{
			Attrs: map[string]ir.AttrValue{"type": methodType},
		})
		require.NoError(t, err)
		assert.True(t, call.Pinned())
		assert.False(t, call.ThrowsException())

		require.NoError(t, g.SetThrowsException(call, true))
		assert.True(t, call.ThrowsException())
	})

	t.Run("div floats on request", func(t *testing.T) {
		div, err := g.NewNode(ir.OpDiv, f.block, []*Node{f.mem, f.arg0, f.one}, Init{
			Attrs: map[string]ir.AttrValue{"resmode": ir.ModeValue{Mode: ir.ModeIs}},
			Flags: ir.ConsFloats,
		})
		require.NoError(t, err)
		assert.Equal(t, ir.PinStateFloats, div.PinState())
		assert.Equal(t, ir.ConsFloats, div.ConsFlags())
	})

	t.Run("throws only on fragile kinds", func(t *testing.T) {
		add, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{})
		require.NoError(t, err)
		requireCode(t, g.SetThrowsException(add, true), ir.ErrCodeInvalidFlags)
	})

	t.Run("flags reconstruct from state", func(t *testing.T) {
		load, err := g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: loadAttrs(),
			Flags: ir.ConsVolatile | ir.ConsUnaligned | ir.ConsThrowsException,
		})
		require.NoError(t, err)
		assert.Equal(t, ir.ConsVolatile|ir.ConsUnaligned|ir.ConsThrowsException, load.ConsFlags())
	})
}

func TestSetAttr(t *testing.T) {
	f := newFixture(t)
	g := f.g

	asm, err := g.NewNode(ir.OpASM, f.block, []*Node{f.mem}, Init{Attrs: map[string]ir.AttrValue{
		"input_constraints":  ir.Constraints{},
		"output_constraints": ir.Constraints{},
		"clobbers":           ir.Idents{"cc"},
		"text":               ir.Ident("pause"),
	}})
	require.NoError(t, err)
	n, err := asm.Size("n_clobbers")
	require.NoError(t, err)
	assert.Equal(t, ir.Size(1), n)

	require.NoError(t, g.SetAttr(asm, "clobbers", ir.Idents{"cc", "memory", "flags"}))
	n, err = asm.Size("n_clobbers")
	require.NoError(t, err)
	assert.Equal(t, ir.Size(3), n, "derived count follows its source")

	requireCode(t, g.SetAttr(asm, "n_clobbers", ir.Size(0)), ir.ErrCodeInvalidAttribute)
	requireCode(t, g.SetAttr(asm, "text", ir.Idents{"x"}), ir.ErrCodeInvalidAttribute)
	requireCode(t, g.SetAttr(asm, "nope", ir.Ident("x")), ir.ErrCodeInvalidAttribute)

	c := f.constant(t, ir.ModeIs, 5)
	require.NoError(t, g.SetAttr(c, "tarval", ir.MustTarvalInt(ir.ModeIs, 6)))
	requireCode(t, g.SetAttr(c, "tarval", ir.MustTarvalInt(ir.ModeLs, 6)), ir.ErrCodeModeMismatch)
	tv, err := c.Tarval("tarval")
	require.NoError(t, err)
	assert.Equal(t, int64(6), tv.Int64())

	requireCode(t, g.SetAttr(f.arg0, "proj", ir.Long(1)), ir.ErrCodeInvalidAttribute)
	requireCode(t, g.SetAttr(g.End(), "n_keepalives", ir.Size(4)), ir.ErrCodeInvalidAttribute)
}

func TestCreateByName(t *testing.T) {
	f := newFixture(t)

	_, err := f.g.CreateByName("Frobnicate", f.block, nil, Init{})
	requireCode(t, err, ir.ErrCodeUnknownKind)

	_, err = f.g.CreateNode(nil, f.block, nil, Init{})
	requireCode(t, err, ir.ErrCodeUnknownKind)

	jmp, err := f.g.CreateByName("Jmp", f.block, nil, Init{})
	require.NoError(t, err)
	assert.Equal(t, ir.OpJmp, jmp.Op())
	assert.Equal(t, "Jmp#"+strconv.Itoa(jmp.ID()), jmp.String())
}

func TestSwitchSelectorMode(t *testing.T) {
	f := newFixture(t)
	g := f.g
	top, err := ir.NewTarvalUint(ir.ModeLu, math.MaxUint64)
	require.NoError(t, err)
	wide := &ir.SwitchTable{Entries: []ir.SwitchEntry{{Min: ir.MustTarvalInt(ir.ModeLu, 1), Max: top, PN: 1}}}
	attrs := func(table *ir.SwitchTable) map[string]ir.AttrValue {
		return map[string]ir.AttrValue{"n_outs": ir.Unsigned(2), "table": table}
	}

	sel := f.constant(t, ir.ModeLu, 0)
	sw, err := g.NewNode(ir.OpSwitch, f.block, []*Node{sel}, Init{Attrs: attrs(wide)})
	require.NoError(t, err)

	_, err = g.NewNode(ir.OpSwitch, f.block, []*Node{f.arg0}, Init{Attrs: attrs(wide)})
	requireCode(t, err, ir.ErrCodeInvalidAttribute)

	requireCode(t, g.SetInput(sw, 0, f.arg0), ir.ErrCodeInvalidAttribute)
	narrow := &ir.SwitchTable{Entries: []ir.SwitchEntry{
		{Min: ir.MustTarvalInt(ir.ModeIs, 1), Max: ir.MustTarvalInt(ir.ModeIs, 2), PN: 1},
	}}
	requireCode(t, g.SetAttr(sw, "table", narrow), ir.ErrCodeInvalidAttribute)
	assert.Same(t, sel, sw.Input(0))
}

func TestNilPointerAttributes(t *testing.T) {
	f := newFixture(t)
	g := f.g

	tests := []struct {
		name   string
		op     ir.Op
		block  *Node
		inputs []*Node
		attrs  map[string]ir.AttrValue
	}{
		{"type", ir.OpCall, f.block, []*Node{f.mem, f.arg1}, map[string]ir.AttrValue{"type": (*ir.Type)(nil)}},
		{"entity", ir.OpAddress, nil, nil, map[string]ir.AttrValue{"entity": (*ir.Entity)(nil)}},
		{"switch table", ir.OpSwitch, f.block, []*Node{f.arg0}, map[string]ir.AttrValue{
			"n_outs": ir.Unsigned(2), "table": (*ir.SwitchTable)(nil),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := g.Len()
			_, err := g.NewNode(tt.op, tt.block, tt.inputs, Init{Attrs: tt.attrs})
			requireCode(t, err, ir.ErrCodeInvalidAttribute)
			assert.Equal(t, before, g.Len())
		})
	}

	addr, err := g.NewNode(ir.OpAddress, nil, nil, Init{Attrs: map[string]ir.AttrValue{"entity": globalVar}})
	require.NoError(t, err)
	requireCode(t, g.SetAttr(addr, "entity", (*ir.Entity)(nil)), ir.ErrCodeInvalidAttribute)
}

func TestValueKindsTakeDataModes(t *testing.T) {
	f := newFixture(t)
	g := f.g

	for _, op := range []ir.Op{ir.OpConv, ir.OpBitcast} {
		for _, m := range []ir.Mode{ir.ModeM, ir.ModeX} {
			t.Run(op.String()+" "+m.String(), func(t *testing.T) {
				_, err := g.NewNode(op, f.block, []*Node{f.arg0}, Init{Mode: m})
				requireCode(t, err, ir.ErrCodeModeMismatch)
			})
		}
	}

	bc, err := g.NewNode(ir.OpBitcast, f.block, []*Node{f.arg0}, Init{Mode: ir.ModeIu})
	require.NoError(t, err)
	assert.Equal(t, ir.ModeIu, bc.Mode())

	placeholder, err := g.NewPlaceholder(ir.ModeM)
	require.NoError(t, err, "placeholders still stand for memory values")
	assert.Equal(t, ir.ModeM, placeholder.Mode())
	assert.Equal(t, "caller(data)", g.Registry().MustLookup("Conv").Mode.String())
}
