package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgraph/internal/ir"
)

func TestOutputModes(t *testing.T) {
	f := newFixture(t)
	g := f.g

	mk := func(t *testing.T, op ir.Op, block *Node, inputs []*Node, attrs map[string]ir.AttrValue) *Node {
		t.Helper()
		n, err := g.NewNode(op, block, inputs, Init{Attrs: attrs})
		require.NoError(t, err)
		return n
	}
	ints := func(modes ...ir.Mode) []ir.Mode { return modes }

	tests := []struct {
		name string
		node func(t *testing.T) *Node
		want []ir.Mode
	}{
		{"Start", func(*testing.T) *Node { return g.Start() }, ints(ir.ModeX, ir.ModeM, ir.ModeP, ir.ModeT)},
		{"Start arguments", func(*testing.T) *Node { return f.args }, ints(ir.ModeIs, ir.ModeP)},
		{"Cond", func(t *testing.T) *Node {
			return mk(t, ir.OpCond, f.block, []*Node{f.arg0}, nil)
		}, ints(ir.ModeX, ir.ModeX)},
		{"Switch", func(t *testing.T) *Node {
			return mk(t, ir.OpSwitch, f.block, []*Node{f.arg0}, map[string]ir.AttrValue{
				"n_outs": ir.Unsigned(3), "table": &ir.SwitchTable{},
			})
		}, ints(ir.ModeX, ir.ModeX, ir.ModeX)},
		{"Load", func(t *testing.T) *Node {
			return mk(t, ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, map[string]ir.AttrValue{
				"mode": ir.ModeValue{Mode: ir.ModeF},
			})
		}, ints(ir.ModeM, ir.ModeF, ir.ModeX, ir.ModeX)},
		{"Tuple", func(t *testing.T) *Node {
			return mk(t, ir.OpTuple, f.block, []*Node{f.arg1, f.mem, f.one}, nil)
		}, ints(ir.ModeP, ir.ModeM, ir.ModeIs)},
		{"Builtin", func(t *testing.T) *Node {
			return mk(t, ir.OpBuiltin, f.block, []*Node{f.mem, f.arg0}, map[string]ir.AttrValue{
				"kind": ir.BuiltinPopcount,
				"type": ir.NewMethodType("popcount", []*ir.Type{intType}, []*ir.Type{intType}),
			})
		}, ints(ir.ModeM, ir.ModeIs)},
		{"ASM", func(t *testing.T) *Node {
			return mk(t, ir.OpASM, f.block, []*Node{f.mem, f.arg0}, map[string]ir.AttrValue{
				"input_constraints": ir.Constraints{{Position: 0, Constraint: "r", Mode: ir.ModeIs}},
				"output_constraints": ir.Constraints{
					{Position: 1, Constraint: "=r", Mode: ir.ModeIs},
					{Position: 2, Constraint: "=m", Mode: ir.ModeP},
				},
				"clobbers": ir.Idents{},
				"text":     ir.Ident("bsr %1, %0"),
			})
		}, ints(ir.ModeM, ir.ModeIs, ir.ModeP)},
		{"Call results", func(t *testing.T) *Node {
			call := mk(t, ir.OpCall, f.block, []*Node{f.mem, f.arg1, f.arg0, f.arg1}, map[string]ir.AttrValue{"type": methodType})
			res, err := g.ProjectNamed(call, "T_result")
			require.NoError(t, err)
			return res
		}, ints(ir.ModeIs)},
		{"not a tuple", func(*testing.T) *Node { return f.one }, ints()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.node(t)
			require.Equal(t, len(tt.want), g.NumOutputs(n))
			for i, want := range tt.want {
				got, err := g.OutputMode(n, i)
				require.NoError(t, err)
				assert.Equal(t, want, got, "output %d", i)

				p, err := g.Project(n, i)
				require.NoError(t, err)
				assert.Equal(t, ir.OpProj, p.Op())
				assert.Equal(t, want, p.Mode())
				assert.Equal(t, i, p.ProjNum())
				assert.Same(t, n.Block(), p.Block())
			}
			_, err := g.Project(n, len(tt.want))
			requireCode(t, err, ir.ErrCodeIndexOutOfRange)
			_, err = g.OutputMode(n, len(tt.want))
			requireCode(t, err, ir.ErrCodeIndexOutOfRange)
		})
	}
}

func TestProjectReusesExisting(t *testing.T) {
	f := newFixture(t)
	g := f.g

	again, err := g.ProjectNamed(g.Start(), "M")
	require.NoError(t, err)
	assert.Same(t, f.mem, again)

	before := g.Len()
	p, err := g.Project(f.args, 0)
	require.NoError(t, err)
	assert.Same(t, f.arg0, p)
	assert.Equal(t, before, g.Len())
}

// TestProjectOutOfRangeCreatesNothing projects past a two-output tuple.
func TestProjectOutOfRangeCreatesNothing(t *testing.T) {
	f := newFixture(t)
	g := f.g
	cond, err := g.NewNode(ir.OpCond, f.block, []*Node{f.arg0}, Init{})
	require.NoError(t, err)
	require.Equal(t, 2, g.NumOutputs(cond))

	before := g.Len()
	_, err = g.Project(cond, 5)
	requireCode(t, err, ir.ErrCodeIndexOutOfRange)
	assert.Equal(t, before, g.Len())

	var e *ir.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, cond.ID(), e.Node)
	assert.Equal(t, 5, e.Index)
	assert.Equal(t, "2", e.Details["outputs"])

	_, err = g.Project(cond, -1)
	requireCode(t, err, ir.ErrCodeIndexOutOfRange)

	// Creating the Proj directly goes through the same check.
	_, err = g.NewNode(ir.OpProj, nil, []*Node{cond}, Init{Attrs: map[string]ir.AttrValue{"proj": ir.Long(2)}})
	requireCode(t, err, ir.ErrCodeIndexOutOfRange)
	_, err = g.NewNode(ir.OpProj, nil, []*Node{cond}, Init{Attrs: map[string]ir.AttrValue{"proj": ir.Long(-1)}})
	requireCode(t, err, ir.ErrCodeInvalidAttribute)
	assert.Equal(t, before, g.Len())
}

func TestProjectNamed(t *testing.T) {
	f := newFixture(t)
	g := f.g
	div, err := g.NewNode(ir.OpDiv, f.block, []*Node{f.mem, f.arg0, f.one}, Init{
		Attrs: map[string]ir.AttrValue{"resmode": ir.ModeValue{Mode: ir.ModeIs}},
	})
	require.NoError(t, err)

	res, err := g.ProjectNamed(div, "res")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProjNum())
	assert.Equal(t, ir.ModeIs, res.Mode())

	exc, err := g.ProjectNamed(div, "X_except")
	require.NoError(t, err)
	assert.Equal(t, ir.ModeX, exc.Mode())

	_, err = g.ProjectNamed(div, "quotient")
	requireCode(t, err, ir.ErrCodeIndexOutOfRange)

	other := newFixture(t)
	_, err = g.Project(other.g.Start(), 0)
	requireCode(t, err, ir.ErrCodeInvalidInput)
}

func TestArgumentsWithoutEntity(t *testing.T) {
	g := New()
	require.NoError(t, g.InitSingletons())
	args, err := g.ProjectNamed(g.Start(), "T_args")
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumOutputs(args))
	_, err = g.Project(args, 0)
	requireCode(t, err, ir.ErrCodeIndexOutOfRange)
}

func TestUnknownComponentTakesRequestedMode(t *testing.T) {
	f := newFixture(t)
	g := f.g
	tuple, err := g.NewNode(ir.OpTuple, f.block, []*Node{g.Unknown(), f.one}, Init{})
	require.NoError(t, err)

	p, err := g.NewNode(ir.OpProj, nil, []*Node{tuple}, Init{
		Attrs: map[string]ir.AttrValue{"proj": ir.Long(0)},
		Mode:  ir.ModeLu,
	})
	require.NoError(t, err)
	assert.Equal(t, ir.ModeLu, p.Mode())

	_, err = g.NewNode(ir.OpProj, nil, []*Node{tuple}, Init{
		Attrs: map[string]ir.AttrValue{"proj": ir.Long(1)},
		Mode:  ir.ModeLu,
	})
	requireCode(t, err, ir.ErrCodeModeMismatch)
}

func TestOutputShapeFixedOnceProjected(t *testing.T) {
	f := newFixture(t)
	g := f.g

	t.Run("load result mode", func(t *testing.T) {
		load, err := g.NewNode(ir.OpLoad, f.block, []*Node{f.mem, f.arg1}, Init{
			Attrs: map[string]ir.AttrValue{"mode": ir.ModeValue{Mode: ir.ModeIs}},
		})
		require.NoError(t, err)
		require.NoError(t, g.SetAttr(load, "mode", ir.ModeValue{Mode: ir.ModeLu}), "no projections yet")

		res, err := g.ProjectNamed(load, "res")
		require.NoError(t, err)
		requireCode(t, g.SetAttr(load, "mode", ir.ModeValue{Mode: ir.ModeD}), ir.ErrCodeModeMismatch)

		m, err := g.OutputMode(load, 1)
		require.NoError(t, err)
		assert.Equal(t, ir.ModeLu, m)
		assert.Equal(t, ir.ModeLu, res.Mode())
	})

	t.Run("switch output count", func(t *testing.T) {
		sw, err := g.NewNode(ir.OpSwitch, f.block, []*Node{f.arg0}, Init{
			Attrs: map[string]ir.AttrValue{"n_outs": ir.Unsigned(5), "table": &ir.SwitchTable{}},
		})
		require.NoError(t, err)
		_, err = g.Project(sw, 4)
		require.NoError(t, err)

		requireCode(t, g.SetAttr(sw, "n_outs", ir.Unsigned(2)), ir.ErrCodeIndexOutOfRange)
		assert.Equal(t, 5, g.NumOutputs(sw))
		require.NoError(t, g.SetAttr(sw, "n_outs", ir.Unsigned(6)), "growing keeps every projection valid")
	})

	t.Run("tuple input", func(t *testing.T) {
		tuple, err := g.NewNode(ir.OpTuple, f.block, []*Node{f.arg0, f.one}, Init{})
		require.NoError(t, err)
		p, err := g.Project(tuple, 0)
		require.NoError(t, err)

		requireCode(t, g.SetInput(tuple, 0, f.arg1), ir.ErrCodeModeMismatch)
		assert.Same(t, f.arg0, tuple.Input(0))
		assert.Equal(t, ir.ModeIs, p.Mode())

		require.NoError(t, g.SetInput(tuple, 1, f.arg1), "component 1 is not projected")
	})
}

func TestProjectNamedOnFreedGraph(t *testing.T) {
	f := newFixture(t)
	start := f.g.Start()
	f.g.Free()
	_, err := f.g.ProjectNamed(start, "M")
	requireCode(t, err, ir.ErrCodeGraphFreed)
}
