package ir

import (
	"fmt"
	"strings"
)

// AttrType is the semantic type of a kind attribute.
type AttrType uint8

const (
	AttrInvalid AttrType = iota
	AttrEntity
	AttrTypeRef
	AttrTarval
	AttrRelation
	AttrBuiltinKind
	AttrUnsigned
	AttrVolatility
	AttrAlign
	AttrMode
	AttrInt
	AttrLong
	AttrSize
	AttrJmpPred
	AttrAsmConstraints
	AttrIdent
	AttrIdents
	AttrSwitchTable

	attrTypeCount
)

var attrTypeNames = [...]string{
	AttrInvalid:        "invalid",
	AttrEntity:         "entity",
	AttrTypeRef:        "type",
	AttrTarval:         "tarval",
	AttrRelation:       "relation",
	AttrBuiltinKind:    "builtin_kind",
	AttrUnsigned:       "unsigned",
	AttrVolatility:     "volatility",
	AttrAlign:          "align",
	AttrMode:           "mode",
	AttrInt:            "int",
	AttrLong:           "long",
	AttrSize:           "size",
	AttrJmpPred:        "jmp_pred",
	AttrAsmConstraints: "asm_constraints",
	AttrIdent:          "ident",
	AttrIdents:         "idents",
	AttrSwitchTable:    "switch_table",
}

func (t AttrType) String() string {
	if t < attrTypeCount {
		return attrTypeNames[t]
	}
	return fmt.Sprintf("AttrType(%d)", uint8(t))
}

// ParseAttrType resolves a semantic type name.
func ParseAttrType(name string) (AttrType, bool) {
	for t := AttrInvalid + 1; t < attrTypeCount; t++ {
		if attrTypeNames[t] == name {
			return t, true
		}
	}
	return AttrInvalid, false
}

// AttrValue is the sealed set of attribute values. Every implementation
// reports the semantic type it belongs to.
type AttrValue interface {
	AttrType() AttrType
	attrValue()
}

// Unsigned is an unsigned count or alignment.
type Unsigned uint32

func (Unsigned) AttrType() AttrType { return AttrUnsigned }
func (Unsigned) attrValue()         {}

// Int is a plain integer attribute.
type Int int32

func (Int) AttrType() AttrType { return AttrInt }
func (Int) attrValue()         {}

// Long is a wide integer attribute (projection numbers).
type Long int64

func (Long) AttrType() AttrType { return AttrLong }
func (Long) attrValue()         {}

// Size is a non-negative element count.
type Size uint64

func (Size) AttrType() AttrType { return AttrSize }
func (Size) attrValue()         {}

// ModeValue wraps a Mode used as an attribute (Load mode, Div resmode).
type ModeValue struct{ Mode Mode }

func (ModeValue) AttrType() AttrType { return AttrMode }
func (ModeValue) attrValue()         {}

// Ident is interned identifier text.
type Ident string

func (Ident) AttrType() AttrType { return AttrIdent }
func (Ident) attrValue()         {}

// Idents is an ordered identifier list, such as ASM clobbers.
type Idents []string

func (Idents) AttrType() AttrType { return AttrIdents }
func (Idents) attrValue()         {}

// Volatility marks memory operations with visible side effects.
type Volatility uint8

const (
	NonVolatile Volatility = iota
	IsVolatile
)

func (Volatility) AttrType() AttrType { return AttrVolatility }
func (Volatility) attrValue()         {}

func (v Volatility) String() string {
	if v == IsVolatile {
		return "is_volatile"
	}
	return "non_volatile"
}

// Align tells whether a memory access respects its natural alignment.
type Align uint8

const (
	IsAligned Align = iota
	NonAligned
)

func (Align) AttrType() AttrType { return AttrAlign }
func (Align) attrValue()         {}

func (a Align) String() string {
	if a == NonAligned {
		return "non_aligned"
	}
	return "is_aligned"
}

// JmpPred is a branch prediction hint on Cond.
type JmpPred uint8

const (
	JmpPredNone JmpPred = iota
	JmpPredTrue
	JmpPredFalse
)

func (JmpPred) AttrType() AttrType { return AttrJmpPred }
func (JmpPred) attrValue()         {}

func (p JmpPred) String() string {
	switch p {
	case JmpPredTrue:
		return "true"
	case JmpPredFalse:
		return "false"
	}
	return "none"
}

// BuiltinKind selects the operation a Builtin node performs.
type BuiltinKind uint8

const (
	BuiltinTrap BuiltinKind = iota
	BuiltinDebugbreak
	BuiltinReturnAddress
	BuiltinFrameAddress
	BuiltinPrefetch
	BuiltinFfs
	BuiltinClz
	BuiltinCtz
	BuiltinPopcount
	BuiltinParity
	BuiltinBswap
	BuiltinInport
	BuiltinOutport
	BuiltinSaturatingIncrement
	BuiltinCompareSwap
	BuiltinMayAlias
	BuiltinVaStart
	BuiltinVaArg

	builtinCount
)

var builtinNames = [...]string{
	BuiltinTrap:                "trap",
	BuiltinDebugbreak:          "debugbreak",
	BuiltinReturnAddress:       "return_address",
	BuiltinFrameAddress:        "frame_address",
	BuiltinPrefetch:            "prefetch",
	BuiltinFfs:                 "ffs",
	BuiltinClz:                 "clz",
	BuiltinCtz:                 "ctz",
	BuiltinPopcount:            "popcount",
	BuiltinParity:              "parity",
	BuiltinBswap:               "bswap",
	BuiltinInport:              "inport",
	BuiltinOutport:             "outport",
	BuiltinSaturatingIncrement: "saturating_increment",
	BuiltinCompareSwap:         "compare_swap",
	BuiltinMayAlias:            "may_alias",
	BuiltinVaStart:             "va_start",
	BuiltinVaArg:               "va_arg",
}

func (BuiltinKind) AttrType() AttrType { return AttrBuiltinKind }
func (BuiltinKind) attrValue()         {}

func (b BuiltinKind) String() string {
	if b < builtinCount {
		return builtinNames[b]
	}
	return fmt.Sprintf("BuiltinKind(%d)", uint8(b))
}

// ParseBuiltinKind resolves a builtin name such as "popcount".
func ParseBuiltinKind(name string) (BuiltinKind, error) {
	for b := BuiltinKind(0); b < builtinCount; b++ {
		if builtinNames[b] == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown builtin kind %q", name)
}

// AsmConstraint binds one ASM operand position to a constraint string and
// the mode of the value passed through it.
type AsmConstraint struct {
	Position   uint32
	Constraint string
	Mode       Mode
}

// Constraints is an ordered ASM constraint list.
type Constraints []AsmConstraint

func (Constraints) AttrType() AttrType { return AttrAsmConstraints }
func (Constraints) attrValue()         {}

// SwitchEntry maps the closed range [Min, Max] to projection number PN.
type SwitchEntry struct {
	Min Tarval
	Max Tarval
	PN  uint32
}

// SwitchTable describes how a Switch selector value picks an output.
// Output 0 is the default and never appears as an entry.
type SwitchTable struct {
	Entries []SwitchEntry
}

func (*SwitchTable) AttrType() AttrType { return AttrSwitchTable }
func (*SwitchTable) attrValue()         {}

// NumOuts is the number of outputs the table addresses, default included.
func (t *SwitchTable) NumOuts() uint32 {
	n := uint32(1)
	for _, e := range t.Entries {
		if e.PN+1 > n {
			n = e.PN + 1
		}
	}
	return n
}

// Mode is the mode every entry's bounds are in, or ModeNone for an empty
// table.
func (t *SwitchTable) Mode() Mode {
	if len(t.Entries) == 0 {
		return ModeNone
	}
	return t.Entries[0].Min.Mode
}

// Validate checks entry ranges and projection numbers. All bounds share
// one mode and are compared by value in it.
func (t *SwitchTable) Validate() error {
	for i, e := range t.Entries {
		if e.PN == 0 {
			return fmt.Errorf("entry %d: projection 0 is reserved for the default", i)
		}
		if e.Min.Mode != e.Max.Mode {
			return fmt.Errorf("entry %d: range bounds have modes %s and %s", i, e.Min.Mode, e.Max.Mode)
		}
		if m := t.Entries[0].Min.Mode; e.Min.Mode != m {
			return fmt.Errorf("entry %d: mode %s differs from entry 0 mode %s", i, e.Min.Mode, m)
		}
		if e.Min.Cmp(e.Max) > 0 {
			return fmt.Errorf("entry %d: empty range [%s, %s]", i, e.Min.Value(), e.Max.Value())
		}
	}
	return nil
}

// FormatAttr renders an attribute value for traces and diagnostics.
func FormatAttr(v AttrValue) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case *Entity:
		if val == nil {
			return "<nil>"
		}
		return "&" + val.Name
	case *Type:
		if val == nil {
			return "<nil>"
		}
		return val.Name
	case Tarval:
		return val.String()
	case Relation:
		return val.String()
	case ModeValue:
		return val.Mode.String()
	case Ident:
		return fmt.Sprintf("%q", string(val))
	case Idents:
		return "[" + strings.Join(val, ",") + "]"
	case Constraints:
		parts := make([]string, len(val))
		for i, c := range val {
			parts[i] = fmt.Sprintf("%d:%s:%s", c.Position, c.Constraint, c.Mode)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *SwitchTable:
		if val == nil {
			return "<nil>"
		}
		parts := make([]string, len(val.Entries))
		for i, e := range val.Entries {
			parts[i] = fmt.Sprintf("%s..%s->%d", e.Min.Value(), e.Max.Value(), e.PN)
		}
		return "{" + strings.Join(parts, " ") + "}"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
