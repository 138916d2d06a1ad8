package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Tarval is a target value: a constant bit pattern interpreted in a mode.
// Integer patterns are kept normalized to the mode width so that equal
// constants compare equal with ==.
type Tarval struct {
	Mode Mode
	Bits uint64
}

func (Tarval) AttrType() AttrType { return AttrTarval }
func (Tarval) attrValue()         {}

// NewTarvalInt builds an integer or reference constant. The value is
// truncated to the mode width.
func NewTarvalInt(m Mode, v int64) (Tarval, error) {
	switch m.Sort() {
	case SortInt, SortReference:
		return Tarval{Mode: m, Bits: truncate(uint64(v), m.Bits())}, nil
	case SortBoolean:
		return NewTarvalBool(v != 0), nil
	}
	return Tarval{}, fmt.Errorf("mode %s cannot hold an integer constant", m)
}

// NewTarvalUint builds an integer constant from an unsigned pattern.
func NewTarvalUint(m Mode, v uint64) (Tarval, error) {
	return NewTarvalInt(m, int64(v))
}

// NewTarvalFloat builds a floating point constant.
func NewTarvalFloat(m Mode, v float64) (Tarval, error) {
	switch m {
	case ModeF:
		return Tarval{Mode: m, Bits: uint64(math.Float32bits(float32(v)))}, nil
	case ModeD:
		return Tarval{Mode: m, Bits: math.Float64bits(v)}, nil
	}
	return Tarval{}, fmt.Errorf("mode %s cannot hold a float constant", m)
}

// NewTarvalBool builds a constant in the internal boolean mode.
func NewTarvalBool(b bool) Tarval {
	if b {
		return Tarval{Mode: ModeB, Bits: 1}
	}
	return Tarval{Mode: ModeB}
}

// MustTarvalInt is like NewTarvalInt but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTarvalInt(m Mode, v int64) Tarval {
	tv, err := NewTarvalInt(m, v)
	if err != nil {
		panic(err)
	}
	return tv
}

func truncate(bits uint64, width uint) uint64 {
	if width == 0 || width >= 64 {
		return bits
	}
	return bits & (1<<width - 1)
}

// Int64 interprets the pattern as an integer, sign extending for signed
// modes.
func (t Tarval) Int64() int64 {
	w := t.Mode.Bits()
	if w == 0 || w >= 64 {
		return int64(t.Bits)
	}
	if t.Mode.Signed() && t.Bits&(1<<(w-1)) != 0 {
		return int64(t.Bits | ^uint64(0)<<w)
	}
	return int64(t.Bits)
}

// Uint64 interprets the pattern as an unsigned integer of the mode width.
func (t Tarval) Uint64() uint64 {
	return truncate(t.Bits, t.Mode.Bits())
}

// Cmp compares two integer constants of the same mode by value: signed
// modes compare as two's complement, all others as unsigned. It returns
// -1, 0 or +1.
func (t Tarval) Cmp(u Tarval) int {
	if t.Mode.Signed() {
		a, b := t.Int64(), u.Int64()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	a, b := t.Uint64(), u.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Float64 interprets the pattern as a float. Non-float modes convert their
// integer value.
func (t Tarval) Float64() float64 {
	switch t.Mode {
	case ModeF:
		return float64(math.Float32frombits(uint32(t.Bits)))
	case ModeD:
		return math.Float64frombits(t.Bits)
	}
	if !t.Mode.Signed() {
		return float64(t.Uint64())
	}
	return float64(t.Int64())
}

// IsNull reports whether the constant is zero in its mode.
func (t Tarval) IsNull() bool {
	if t.Mode.IsFloat() {
		return t.Float64() == 0
	}
	return t.Bits == 0
}

func (t Tarval) String() string {
	switch {
	case t.Mode == ModeB:
		if t.Bits != 0 {
			return "b:true"
		}
		return "b:false"
	case t.Mode.IsFloat():
		return fmt.Sprintf("%s:%g", t.Mode, t.Float64())
	}
	return t.Mode.String() + ":" + t.Value()
}

// Value renders an integer constant in decimal, unsigned modes without a
// sign.
func (t Tarval) Value() string {
	if t.Mode.Signed() {
		return strconv.FormatInt(t.Int64(), 10)
	}
	return strconv.FormatUint(t.Uint64(), 10)
}
