package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgraph/internal/ir"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	errs := Validate(catalog())
	assert.Empty(t, errs)

	r := Default()
	assert.Equal(t, ir.NumOps, r.Len(), "every op has exactly one kind")
	assert.Same(t, r, Default(), "Default is built once")
}

func TestLookup(t *testing.T) {
	r := Default()

	k, err := r.Lookup("Add")
	require.NoError(t, err)
	assert.Equal(t, ir.OpAdd, k.Op)
	assert.Same(t, k, r.ByOp(ir.OpAdd))

	_, err = r.Lookup("Frobnicate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ir.ErrUnknownKind))
	assert.True(t, ir.IsUnknownKind(err))

	assert.Panics(t, func() { r.MustLookup("Frobnicate") })
}

func TestNamesInOpOrder(t *testing.T) {
	names := Default().Names()
	require.Len(t, names, ir.NumOps)
	assert.Equal(t, "Add", names[0])
	assert.Equal(t, "Unknown", names[len(names)-1])

	for i, op := range ir.Ops() {
		assert.Equal(t, op.String(), names[i])
	}
}

func TestCatalogRows(t *testing.T) {
	r := Default()

	tests := []struct {
		name      string
		inputs    []string
		arity     ir.Arity
		outputs   []string
		flags     []string
		pinning   ir.Pinning
		mode      string
		block     BlockRule
		singleton bool
	}{
		{"Add", []string{"left", "right"}, ir.ArityFixed, nil, []string{"commutative"}, ir.PinningFloats, "input(0)", BlockFromCaller, false},
		{"Sub", []string{"left", "right"}, ir.ArityFixed, nil, []string{}, ir.PinningFloats, "input(0)", BlockFromCaller, false},
		{"Cmp", []string{"left", "right"}, ir.ArityFixed, nil, []string{}, ir.PinningFloats, "fixed(b)", BlockFromCaller, false},
		{"Address", nil, ir.ArityFixed, nil, []string{"constlike", "start_block"}, ir.PinningFloats, "fixed(P)", BlockStart, false},
		{"Const", nil, ir.ArityFixed, nil, []string{"constlike", "start_block"}, ir.PinningFloats, "attr(tarval)", BlockStart, false},
		{"Block", nil, ir.ArityVariable, nil, []string{}, ir.PinningPinned, "fixed(BB)", BlockNone, false},
		{"Phi", nil, ir.ArityVariable, nil, []string{}, ir.PinningPinned, "caller", BlockFromCaller, false},
		{"Proj", []string{"pred"}, ir.ArityFixed, nil, []string{}, ir.PinningFloats, "tuple", BlockFromInput, false},
		{"Start", nil, ir.ArityFixed, []string{"X_initial_exec", "M", "P_frame_base", "T_args"}, []string{"cfopcode"}, ir.PinningPinned, "fixed(T)", BlockStart, true},
		{"End", nil, ir.ArityDynamic, nil, []string{"cfopcode"}, ir.PinningPinned, "fixed(X)", BlockEnd, true},
		{"Load", []string{"mem", "ptr"}, ir.ArityFixed, []string{"M", "res", "X_regular", "X_except"}, []string{"const_memory", "fragile", "uses_memory"}, ir.PinningException, "fixed(T)", BlockFromCaller, false},
		{"Store", []string{"mem", "ptr", "value"}, ir.ArityFixed, []string{"M", "X_regular", "X_except"}, []string{"fragile", "uses_memory"}, ir.PinningException, "fixed(T)", BlockFromCaller, false},
		{"Call", []string{"mem", "ptr"}, ir.ArityVariable, []string{"M", "T_result", "X_regular", "X_except"}, []string{"fragile", "uses_memory"}, ir.PinningException, "fixed(T)", BlockFromCaller, false},
		{"Cond", []string{"selector"}, ir.ArityFixed, []string{"false", "true"}, []string{"cfopcode", "forking"}, ir.PinningPinned, "fixed(T)", BlockFromCaller, false},
		{"IJmp", []string{"target"}, ir.ArityFixed, nil, []string{"cfopcode", "forking", "keep", "unknown_jump"}, ir.PinningPinned, "fixed(X)", BlockFromCaller, false},
		{"NoMem", nil, ir.ArityFixed, nil, []string{"dump_noblock"}, ir.PinningPinned, "fixed(M)", BlockStart, true},
		{"Sync", nil, ir.ArityDynamic, nil, []string{}, ir.PinningFloats, "fixed(M)", BlockFromCaller, false},
		{"Anchor", nil, ir.ArityVariable, nil, []string{"dump_noblock"}, ir.PinningPinned, "fixed(ANY)", BlockNone, true},
		{"Mux", []string{"sel", "false", "true"}, ir.ArityFixed, nil, []string{}, ir.PinningFloats, "input(1)", BlockFromCaller, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := r.MustLookup(tt.name)
			var inputs []string
			for _, p := range k.Inputs {
				inputs = append(inputs, p.Name)
			}
			var outputs []string
			for _, o := range k.Outputs {
				outputs = append(outputs, o.Name)
			}
			assert.Equal(t, tt.inputs, inputs)
			assert.Equal(t, tt.arity, k.Arity)
			assert.Equal(t, tt.outputs, outputs)
			assert.Equal(t, tt.flags, k.Flags.Names())
			assert.Equal(t, tt.pinning, k.Pinning)
			assert.Equal(t, tt.mode, k.Mode.String())
			assert.Equal(t, tt.block, k.Block)
			assert.Equal(t, tt.singleton, k.Singleton)
		})
	}
}

func TestSingletons(t *testing.T) {
	var names []string
	for _, k := range Default().Singletons() {
		names = append(names, k.Name)
	}
	assert.Equal(t, []string{"Anchor", "Bad", "End", "NoMem", "Start", "Unknown"}, names)
}

func TestCustomHooksDeclared(t *testing.T) {
	r := Default()
	var construct, encode []string
	for _, k := range r.Kinds() {
		if k.CustomConstruct {
			construct = append(construct, k.Name)
		}
		if k.CustomEncode {
			encode = append(encode, k.Name)
		}
	}
	assert.Equal(t, []string{"Anchor", "ASM", "Deleted"}, construct)
	assert.Equal(t, []string{"Anchor", "ASM", "Block", "Deleted", "Phi"}, encode)
}

func TestExceptionPinningInit(t *testing.T) {
	r := Default()
	tests := []struct {
		name   string
		init   PinInit
		throws ThrowsInit
	}{
		{"ASM", PinInitPinned, ThrowsNone},
		{"Builtin", PinInitPinned, ThrowsNone},
		{"Call", PinInitPinned, ThrowsFalse},
		{"Div", PinInitFromFlags, ThrowsFalse},
		{"Mod", PinInitFromFlags, ThrowsFalse},
		{"Load", PinInitFromFlags, ThrowsFromFlags},
		{"Store", PinInitFromFlags, ThrowsFromFlags},
	}
	for _, tt := range tests {
		k := r.MustLookup(tt.name)
		assert.Equal(t, ir.PinningException, k.Pinning, tt.name)
		assert.Equal(t, tt.init, k.PinInit, tt.name)
		assert.Equal(t, tt.throws, k.ThrowsInit, tt.name)
	}
	assert.Len(t, r.Filter(ir.FlagFragile), 5)
}

func TestAttributeDerivation(t *testing.T) {
	load := Default().MustLookup("Load")

	vol, ok := load.Attr("volatility")
	require.True(t, ok)
	assert.Equal(t, ir.IsVolatile, vol.Derive(ir.ConsVolatile, nil))
	assert.Equal(t, ir.NonVolatile, vol.Derive(ir.ConsNone, nil))
	assert.Equal(t, ir.ConsVolatile, vol.ToFlags(ir.IsVolatile))

	un, ok := load.Attr("unaligned")
	require.True(t, ok)
	assert.Equal(t, ir.NonAligned, un.Derive(ir.ConsUnaligned|ir.ConsVolatile, nil))
	assert.Equal(t, ir.ConsNone, un.ToFlags(ir.IsAligned))

	mode, ok := load.Attr("mode")
	require.True(t, ok)
	assert.True(t, mode.Required())

	asm := Default().MustLookup("ASM")
	n, ok := asm.Attr("n_clobbers")
	require.True(t, ok)
	assert.True(t, n.NoProp)
	assert.Equal(t, ir.Size(2), n.Derive(0, map[string]ir.AttrValue{"clobbers": ir.Idents{"cc", "memory"}}))
}

func TestValidateReportsAllProblems(t *testing.T) {
	bad := []*Kind{
		{Op: ir.OpAdd, Name: "Add", Inputs: binopInputs, Mode: FromInput(3), Binary: true},
		{Op: ir.OpAdd, Name: "Add2", Mode: FromCaller()},
		{Op: ir.OpEnd, Name: "End", Arity: ir.ArityDynamic, CountAttr: "n", Mode: Fixed(ir.ModeX), Singleton: true, Pinning: ir.PinningFloats},
		{Op: ir.OpCond, Name: "Cond", Outputs: []Output{{Name: "true", Mode: Fixed(ir.ModeX)}}, Mode: FromCaller()},
		{Op: ir.OpConst, Name: "Const", Flags: ir.FlagStartBlock, Mode: FromAttr("tarval")},
	}

	errs := Validate(bad)
	codes := map[string]bool{}
	for _, e := range errs {
		codes[e.Code] = true
	}

	assert.True(t, codes[ErrModeInputRange])
	assert.True(t, codes[ErrDuplicateKind])
	assert.True(t, codes[ErrDynamicCount])
	assert.True(t, codes[ErrSingletonPinning])
	assert.True(t, codes[ErrTupleShape])
	assert.True(t, codes[ErrStartBlockRule])
	assert.True(t, codes[ErrUnknownAttrRef])

	_, err := New(bad)
	var ce *CatalogError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, ce.Errors, len(errs))
}

func TestDescribe(t *testing.T) {
	s, err := Default().Describe("Load")
	require.NoError(t, err)

	assert.Equal(t, "Load", s.Name)
	assert.Equal(t, "fixed", s.Arity)
	assert.Equal(t, "exception", s.Pinning)
	assert.Equal(t, "from_flags", s.PinInit)
	assert.Equal(t, []string{"volatile", "unaligned", "floats", "throws_exception"}, s.ConsFlags)
	require.Len(t, s.Attrs, 3)
	assert.Equal(t, "flags & volatile ? is_volatile : non_volatile", s.Attrs[1].Default)
	assert.True(t, s.Attrs[1].ToFlags)
	assert.Equal(t, "attr(mode)", s.Outputs[1].Mode)

	start, err := Default().Describe("Start")
	require.NoError(t, err)
	assert.Equal(t, "graph_params", start.Outputs[3].Nested)

	_, err = Default().Describe("nope")
	assert.True(t, ir.IsUnknownKind(err))

	assert.Len(t, Default().DescribeAll(), ir.NumOps)
}
