package ir

import "fmt"

// Mode is the value representation of a node: which kind of value it
// produces, if any.
type Mode uint8

const (
	ModeNone Mode = iota // unset; never the resolved mode of a node
	ModeBs
	ModeBu
	ModeHs
	ModeHu
	ModeIs
	ModeIu
	ModeLs
	ModeLu
	ModeF
	ModeD
	ModeP
	ModeB // internal boolean
	ModeM
	ModeX
	ModeT
	ModeBB
	ModeANY
	ModeBad

	modeCount
)

// Sort groups modes by the kind of value they carry.
type Sort uint8

const (
	SortNone Sort = iota
	SortInt
	SortFloat
	SortReference
	SortBoolean
	SortMemory
	SortControl
	SortTuple
	SortBlock
	SortAny
	SortBad
)

var sortNames = [...]string{
	SortNone:      "none",
	SortInt:       "int",
	SortFloat:     "float",
	SortReference: "reference",
	SortBoolean:   "boolean",
	SortMemory:    "memory",
	SortControl:   "control",
	SortTuple:     "tuple",
	SortBlock:     "block",
	SortAny:       "any",
	SortBad:       "bad",
}

func (s Sort) String() string {
	if int(s) < len(sortNames) {
		return sortNames[s]
	}
	return fmt.Sprintf("Sort(%d)", uint8(s))
}

type modeInfo struct {
	name   string
	sort   Sort
	bits   uint
	signed bool
}

var modeTable = [...]modeInfo{
	ModeNone: {"none", SortNone, 0, false},
	ModeBs:   {"Bs", SortInt, 8, true},
	ModeBu:   {"Bu", SortInt, 8, false},
	ModeHs:   {"Hs", SortInt, 16, true},
	ModeHu:   {"Hu", SortInt, 16, false},
	ModeIs:   {"Is", SortInt, 32, true},
	ModeIu:   {"Iu", SortInt, 32, false},
	ModeLs:   {"Ls", SortInt, 64, true},
	ModeLu:   {"Lu", SortInt, 64, false},
	ModeF:    {"F", SortFloat, 32, true},
	ModeD:    {"D", SortFloat, 64, true},
	ModeP:    {"P", SortReference, 64, false},
	ModeB:    {"b", SortBoolean, 1, false},
	ModeM:    {"M", SortMemory, 0, false},
	ModeX:    {"X", SortControl, 0, false},
	ModeT:    {"T", SortTuple, 0, false},
	ModeBB:   {"BB", SortBlock, 0, false},
	ModeANY:  {"ANY", SortAny, 0, false},
	ModeBad:  {"Bad", SortBad, 0, false},
}

var modeByName = func() map[string]Mode {
	m := make(map[string]Mode, len(modeTable))
	for i := ModeNone + 1; i < modeCount; i++ {
		m[modeTable[i].name] = i
	}
	return m
}()

func (m Mode) String() string {
	if m < modeCount {
		return modeTable[m].name
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Sort returns the mode's sort.
func (m Mode) Sort() Sort {
	if m < modeCount {
		return modeTable[m].sort
	}
	return SortNone
}

// Bits is the width of a data mode. Structural modes report 0.
func (m Mode) Bits() uint {
	if m < modeCount {
		return modeTable[m].bits
	}
	return 0
}

// Signed reports whether arithmetic in m is signed.
func (m Mode) Signed() bool {
	return m < modeCount && modeTable[m].signed
}

// IsInt reports whether m is an integer data mode.
func (m Mode) IsInt() bool { return m.Sort() == SortInt }

// IsFloat reports whether m is a floating point data mode.
func (m Mode) IsFloat() bool { return m.Sort() == SortFloat }

// IsData reports whether m carries a data value (int, float, reference or
// boolean).
func (m Mode) IsData() bool {
	switch m.Sort() {
	case SortInt, SortFloat, SortReference, SortBoolean:
		return true
	}
	return false
}

// Wildcard reports whether a value of mode m is accepted wherever a
// specific mode is expected. Bad and Unknown values are wildcards.
func (m Mode) Wildcard() bool {
	return m == ModeBad || m == ModeANY
}

// Valid reports whether m is a real mode.
func (m Mode) Valid() bool {
	return m > ModeNone && m < modeCount
}

// ParseMode resolves a mode name such as "Is" or "M".
func ParseMode(name string) (Mode, error) {
	if m, ok := modeByName[name]; ok {
		return m, nil
	}
	return ModeNone, fmt.Errorf("unknown mode %q", name)
}

// MustParseMode is like ParseMode but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseMode(name string) Mode {
	m, err := ParseMode(name)
	if err != nil {
		panic(err)
	}
	return m
}
