package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgraph/internal/ir"
)

func codes(errs []error) []ir.ErrorCode {
	out := make([]ir.ErrorCode, len(errs))
	for i, err := range errs {
		out[i] = ir.CodeOf(err)
	}
	return out
}

func TestVerifyCleanGraph(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.g.Verify())
	assert.NoError(t, f.g.VerifyError())
}

func TestVerifyMissingSingletons(t *testing.T) {
	g := New()
	errs := g.Verify()
	require.Len(t, errs, 5)
	for _, err := range errs {
		requireCode(t, err, ir.ErrCodeMissingSingleton)
	}
	var e *ir.Error
	require.ErrorAs(t, errs[0], &e)
	assert.Equal(t, "start", e.Details["role"])

	err := g.VerifyError()
	requireCode(t, err, ir.ErrCodeMissingSingleton)
	assert.Contains(t, err.Error(), "and 4 more")
}

func TestVerifyFindings(t *testing.T) {
	f := newFixture(t)
	g := f.g

	// Placeholder left in a phi.
	b, err := g.NewNode(ir.OpBlock, nil, []*Node{f.jmp}, Init{})
	require.NoError(t, err)
	ph, err := g.NewPlaceholder(ir.ModeIs)
	require.NoError(t, err)
	_, err = g.NewNode(ir.OpPhi, b, []*Node{ph}, Init{Mode: ir.ModeIs})
	require.NoError(t, err)

	// Dead block.
	_, err = g.NewNode(ir.OpBlock, nil, []*Node{g.Bad()}, Init{})
	require.NoError(t, err)

	// Data cycle without a phi: x = x + 1.
	x, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{})
	require.NoError(t, err)
	require.NoError(t, g.SetInput(x, 0, x))

	assert.Equal(t, []ir.ErrorCode{
		ir.ErrCodeUnresolvedBackedge,
		ir.ErrCodeAllBadInputs,
		ir.ErrCodeIllegalCycle,
	}, codes(g.Verify()))
}

func TestVerifyCycles(t *testing.T) {
	t.Run("two-node data cycle", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		a, err := g.NewNode(ir.OpAdd, f.block, []*Node{f.arg0, f.one}, Init{})
		require.NoError(t, err)
		s, err := g.NewNode(ir.OpSub, f.block, []*Node{a, f.one}, Init{})
		require.NoError(t, err)
		require.NoError(t, g.SetInput(a, 0, s))

		errs := g.Verify()
		require.Len(t, errs, 1)
		var e *ir.Error
		require.ErrorAs(t, errs[0], &e)
		assert.Equal(t, ir.ErrCodeIllegalCycle, e.Code)
		assert.Equal(t, "2", e.Details["size"])
	})

	t.Run("loop through a phi", func(t *testing.T) {
		f := newFixture(t)
		g := f.g
		header, err := g.NewNode(ir.OpBlock, nil, []*Node{f.jmp}, Init{})
		require.NoError(t, err)
		phi, err := g.NewNode(ir.OpPhi, header, []*Node{f.arg0}, Init{Mode: ir.ModeIs})
		require.NoError(t, err)
		inc, err := g.NewNode(ir.OpAdd, header, []*Node{phi, f.one}, Init{})
		require.NoError(t, err)
		back, err := g.NewNode(ir.OpJmp, header, nil, Init{})
		require.NoError(t, err)
		require.NoError(t, g.AddPredecessor(header, back))
		require.NoError(t, g.SetInput(phi, 1, inc))
		require.NoError(t, g.Mature(header))

		assert.Empty(t, g.Verify())
	})
}
