package ir

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Flags is the set of behavioral flags a kind declares. Passes rely on
// these; the kernel itself only consults start_block.
type Flags uint16

const (
	FlagCommutative Flags = 1 << iota
	FlagConstlike
	FlagUsesMemory
	FlagConstMemory
	FlagFragile
	FlagCFOpcode
	FlagForking
	FlagKeep
	FlagHighlevel
	FlagDumpNoBlock
	FlagUnknownJump
	FlagStartBlock

	flagEnd
)

var flagNames = map[Flags]string{
	FlagCommutative: "commutative",
	FlagConstlike:   "constlike",
	FlagUsesMemory:  "uses_memory",
	FlagConstMemory: "const_memory",
	FlagFragile:     "fragile",
	FlagCFOpcode:    "cfopcode",
	FlagForking:     "forking",
	FlagKeep:        "keep",
	FlagHighlevel:   "highlevel",
	FlagDumpNoBlock: "dump_noblock",
	FlagUnknownJump: "unknown_jump",
	FlagStartBlock:  "start_block",
}

// Has reports whether every flag in q is set in f.
func (f Flags) Has(q Flags) bool { return f&q == q }

// Len returns the number of flags set.
func (f Flags) Len() int { return bits.OnesCount16(uint16(f)) }

// Names returns the set flags as catalog names, sorted.
func (f Flags) Names() []string {
	names := make([]string, 0, f.Len())
	for bit := Flags(1); bit < flagEnd; bit <<= 1 {
		if f&bit != 0 {
			names = append(names, flagNames[bit])
		}
	}
	sort.Strings(names)
	return names
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), ",")
}

// ParseFlag resolves a single catalog flag name.
func ParseFlag(name string) (Flags, error) {
	for bit, n := range flagNames {
		if n == name {
			return bit, nil
		}
	}
	return 0, fmt.Errorf("unknown flag %q", name)
}

// Arity describes how a kind's input count is determined.
type Arity uint8

const (
	// ArityFixed: exactly the declared inputs.
	ArityFixed Arity = iota
	// ArityVariable: the declared inputs followed by any number of
	// caller-supplied inputs.
	ArityVariable
	// ArityDynamic: the count is carried by an attribute.
	ArityDynamic
)

func (a Arity) String() string {
	switch a {
	case ArityFixed:
		return "fixed"
	case ArityVariable:
		return "variable"
	case ArityDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("Arity(%d)", uint8(a))
}

// Pinning is the pinning policy a kind declares.
type Pinning uint8

const (
	PinningPinned Pinning = iota
	PinningFloats
	PinningException
)

func (p Pinning) String() string {
	switch p {
	case PinningPinned:
		return "pinned"
	case PinningFloats:
		return "floats"
	case PinningException:
		return "exception"
	}
	return fmt.Sprintf("Pinning(%d)", uint8(p))
}

// PinState is the resolved, per-node pin state.
type PinState uint8

const (
	PinStatePinned PinState = iota
	PinStateFloats
)

func (p PinState) String() string {
	if p == PinStateFloats {
		return "floats"
	}
	return "pinned"
}

// ConsFlags are construction-time flags. Attribute derivation and pin
// resolution read them; they are not stored on the node as such.
type ConsFlags uint8

const (
	ConsNone     ConsFlags = 0
	ConsVolatile ConsFlags = 1 << (iota - 1)
	ConsUnaligned
	ConsFloats
	ConsThrowsException
)

const consAll = ConsVolatile | ConsUnaligned | ConsFloats | ConsThrowsException

var consNames = []struct {
	flag ConsFlags
	name string
}{
	{ConsVolatile, "volatile"},
	{ConsUnaligned, "unaligned"},
	{ConsFloats, "floats"},
	{ConsThrowsException, "throws_exception"},
}

// Has reports whether every flag in q is set in c.
func (c ConsFlags) Has(q ConsFlags) bool { return c&q == q }

// Names returns the set construction flags in declaration order.
func (c ConsFlags) Names() []string {
	var names []string
	for _, cn := range consNames {
		if c&cn.flag != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c ConsFlags) String() string {
	if c == ConsNone {
		return "none"
	}
	return strings.Join(c.Names(), ",")
}

// ParseConsFlags combines construction flag names. "none" is accepted and
// contributes nothing.
func ParseConsFlags(names []string) (ConsFlags, error) {
	var c ConsFlags
	for _, name := range names {
		if name == "none" {
			continue
		}
		found := false
		for _, cn := range consNames {
			if cn.name == name {
				c |= cn.flag
				found = true
				break
			}
		}
		if !found {
			return ConsNone, fmt.Errorf("unknown construction flag %q", name)
		}
	}
	return c, nil
}

// Valid reports whether c uses only known bits.
func (c ConsFlags) Valid() bool { return c&^consAll == 0 }
