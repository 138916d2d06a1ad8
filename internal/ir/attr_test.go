package ir

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSymbols(t *testing.T) *Symbols {
	t.Helper()
	syms := NewSymbols()
	intTy := NewPrimitiveType("int", ModeIs)
	require.NoError(t, syms.DefineType(intTy))
	require.NoError(t, syms.DefineType(NewMethodType("main_t", []*Type{intTy}, []*Type{intTy})))
	require.NoError(t, syms.DefineEntity(NewEntity("main", intTy)))
	return syms
}

func TestAttrRoundTrip(t *testing.T) {
	syms := testSymbols(t)
	intTy, _ := syms.Type("int")
	mainEnt, _ := syms.Entity("main")

	tests := []struct {
		name  string
		value AttrValue
	}{
		{"entity", mainEnt},
		{"type", intTy},
		{"unknown type", UnknownType()},
		{"tarval int", MustTarvalInt(ModeIs, -7)},
		{"tarval unsigned", MustTarvalInt(ModeBu, 200)},
		{"tarval bool", NewTarvalBool(true)},
		{"relation", RelationLessEqual},
		{"relation false", RelationFalse},
		{"builtin", BuiltinPopcount},
		{"unsigned", Unsigned(16)},
		{"volatility", IsVolatile},
		{"align", NonAligned},
		{"mode", ModeValue{Mode: ModeLu}},
		{"int", Int(-3)},
		{"long", Long(1 << 40)},
		{"size", Size(12)},
		{"jmp_pred", JmpPredTrue},
		{"constraints", Constraints{{Position: 0, Constraint: "=m", Mode: ModeP}, {Position: 1, Constraint: "r", Mode: ModeIs}}},
		{"ident", Ident("btsl %1, %0")},
		{"idents", Idents{"cc", "memory"}},
		{"switch table", &SwitchTable{Entries: []SwitchEntry{
			{Min: MustTarvalInt(ModeIs, 1), Max: MustTarvalInt(ModeIs, 3), PN: 1},
			{Min: MustTarvalInt(ModeIs, 7), Max: MustTarvalInt(ModeIs, 7), PN: 2},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeAttr(tt.value)
			require.NoError(t, err)

			// The encoding must be canonical-JSON clean.
			_, err = MarshalCanonical(raw)
			require.NoError(t, err)

			got, err := DecodeAttr(tt.value.AttrType(), raw, syms)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.value, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFloatTarvalRoundTrip(t *testing.T) {
	tv, err := NewTarvalFloat(ModeD, 2.5)
	require.NoError(t, err)

	raw, err := EncodeAttr(tv)
	require.NoError(t, err)
	got, err := DecodeAttr(AttrTarval, raw, nil)
	require.NoError(t, err)

	assert.Equal(t, tv, got)
	assert.InDelta(t, 2.5, got.(Tarval).Float64(), 0)
}

func TestDecodeTarvalShorthand(t *testing.T) {
	tests := []struct {
		in   string
		want Tarval
	}{
		{"Is:42", MustTarvalInt(ModeIs, 42)},
		{"Is:-1", MustTarvalInt(ModeIs, -1)},
		{"Bu:0x10", MustTarvalInt(ModeBu, 16)},
		{"b:true", NewTarvalBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DecodeAttr(AttrTarval, tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeAttr(AttrTarval, "42", nil)
	assert.Error(t, err)
}

func TestDecodeAttrErrors(t *testing.T) {
	syms := testSymbols(t)

	tests := []struct {
		name string
		typ  AttrType
		raw  any
	}{
		{"undefined entity", AttrEntity, "nosuch"},
		{"undefined type", AttrTypeRef, "nosuch"},
		{"bad relation", AttrRelation, "sideways"},
		{"relation out of range", AttrRelation, 99},
		{"negative unsigned", AttrUnsigned, -1},
		{"fractional int", AttrInt, 1.5},
		{"bad volatility", AttrVolatility, "maybe"},
		{"bad mode", AttrMode, "Q"},
		{"idents not list", AttrIdents, "cc"},
		{"switch pn zero", AttrSwitchTable, map[string]any{
			"entries": []any{map[string]any{"min": 1, "max": 1, "pn": 0}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAttr(tt.typ, tt.raw, syms)
			assert.Error(t, err)
		})
	}
}

func TestTarvalTruncation(t *testing.T) {
	tv := MustTarvalInt(ModeBs, 0x1ff)
	assert.Equal(t, int64(-1), tv.Int64())
	assert.Equal(t, uint64(0xff), tv.Bits)

	u := MustTarvalInt(ModeBu, -1)
	assert.Equal(t, int64(255), u.Int64())

	_, err := NewTarvalInt(ModeM, 1)
	assert.Error(t, err)
	assert.True(t, MustTarvalInt(ModeLs, 0).IsNull())
}

func TestRelationAlgebra(t *testing.T) {
	assert.Equal(t, RelationUnorderedGreater, RelationLessEqual.Negated())
	assert.Equal(t, RelationGreaterEqual, RelationLessEqual.Inversed())
	assert.Equal(t, RelationEqual, RelationEqual.Inversed())
	assert.Equal(t, RelationTrue, RelationFalse.Negated())

	for r := RelationFalse; r <= RelationTrue; r++ {
		parsed, err := ParseRelation(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}

func TestModes(t *testing.T) {
	tests := []struct {
		name   string
		sort   Sort
		bits   uint
		signed bool
	}{
		{"Bs", SortInt, 8, true},
		{"Hu", SortInt, 16, false},
		{"Is", SortInt, 32, true},
		{"Lu", SortInt, 64, false},
		{"D", SortFloat, 64, true},
		{"P", SortReference, 64, false},
		{"b", SortBoolean, 1, false},
		{"M", SortMemory, 0, false},
		{"X", SortControl, 0, false},
		{"T", SortTuple, 0, false},
		{"BB", SortBlock, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, m.String())
			assert.Equal(t, tt.sort, m.Sort())
			assert.Equal(t, tt.bits, m.Bits())
			assert.Equal(t, tt.signed, m.Signed())
		})
	}

	_, err := ParseMode("none")
	assert.Error(t, err, "the unset mode is not parseable")
}

func TestOpNames(t *testing.T) {
	assert.Len(t, Ops(), NumOps)
	for _, op := range Ops() {
		parsed, ok := ParseOp(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, parsed)
	}
	_, ok := ParseOp("add")
	assert.False(t, ok, "names are case-sensitive")
}

func TestFlagsAndConsFlags(t *testing.T) {
	f := FlagCommutative | FlagStartBlock
	assert.Equal(t, []string{"commutative", "start_block"}, f.Names())
	assert.True(t, f.Has(FlagStartBlock))
	assert.False(t, f.Has(FlagKeep))

	c, err := ParseConsFlags([]string{"volatile", "floats"})
	require.NoError(t, err)
	assert.Equal(t, ConsVolatile|ConsFloats, c)
	assert.Equal(t, "volatile,floats", c.String())

	_, err = ParseConsFlags([]string{"sticky"})
	assert.Error(t, err)
}

func TestErrorMatching(t *testing.T) {
	err := NewError(ErrCodeArityMismatch, "want %d inputs, got %d", 2, 3).WithKind("Add").WithIndex(2)
	wrapped := fmt.Errorf("build: %w", err)

	assert.True(t, errors.Is(wrapped, ErrArityMismatch))
	assert.False(t, errors.Is(wrapped, ErrMissingAttribute))
	assert.True(t, IsArityMismatch(wrapped))
	assert.Equal(t, ErrCodeArityMismatch, CodeOf(wrapped))
	assert.Equal(t, "ARITY_MISMATCH: want 2 inputs, got 3 (kind=Add, index=2)", err.Error())
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestUnsignedTarvals(t *testing.T) {
	top, err := NewTarvalUint(ModeLu, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), top.Uint64())
	assert.Equal(t, "Lu:18446744073709551615", top.String())
	assert.Equal(t, "Is:-1", MustTarvalInt(ModeIs, -1).String())

	tests := []struct {
		name string
		a, b Tarval
		want int
	}{
		{"unsigned wide", MustTarvalInt(ModeLu, 1), top, -1},
		{"unsigned narrow", MustTarvalInt(ModeIu, -1), MustTarvalInt(ModeIu, 7), 1},
		{"signed", MustTarvalInt(ModeLs, -1), MustTarvalInt(ModeLs, 1), -1},
		{"equal", MustTarvalInt(ModeIu, 3), MustTarvalInt(ModeIu, 3), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Cmp(tt.b))
		})
	}

	got, err := DecodeAttr(AttrTarval, "Lu:18446744073709551615", nil)
	require.NoError(t, err)
	assert.Equal(t, top, got)
}

func TestSwitchTableBounds(t *testing.T) {
	top, err := NewTarvalUint(ModeLu, math.MaxUint64)
	require.NoError(t, err)

	tests := []struct {
		name    string
		entries []SwitchEntry
		wantErr string
	}{
		{"full unsigned range", []SwitchEntry{{Min: MustTarvalInt(ModeLu, 1), Max: top, PN: 1}}, ""},
		{"unsigned 32 bit", []SwitchEntry{
			{Min: MustTarvalInt(ModeIu, 0), Max: MustTarvalInt(ModeIu, 9), PN: 1},
			{Min: MustTarvalInt(ModeIu, 10), Max: MustTarvalInt(ModeIu, -1), PN: 2},
		}, ""},
		{"empty unsigned range", []SwitchEntry{{Min: top, Max: MustTarvalInt(ModeLu, 1), PN: 1}}, "empty range [18446744073709551615, 1]"},
		{"mixed entry modes", []SwitchEntry{
			{Min: MustTarvalInt(ModeIs, 0), Max: MustTarvalInt(ModeIs, 1), PN: 1},
			{Min: MustTarvalInt(ModeIu, 2), Max: MustTarvalInt(ModeIu, 3), PN: 2},
		}, "differs from entry 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&SwitchTable{Entries: tt.entries}).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
