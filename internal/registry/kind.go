package registry

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
)

// Port is one named input or output role.
type Port struct {
	Name string
	Doc  string
}

// ModeRuleKind selects how a node's resolved mode is computed.
type ModeRuleKind uint8

const (
	// ModeFixed: always Mode.
	ModeFixed ModeRuleKind = iota
	// ModeFromInput: the mode of input Input.
	ModeFromInput
	// ModeFromAttr: the mode carried by attribute Attr (a tarval's mode or
	// a mode attribute).
	ModeFromAttr
	// ModeFromCaller: the caller supplies the mode at construction.
	ModeFromCaller
	// ModeFromTuple: the mode of the selected tuple component (Proj).
	ModeFromTuple
)

// ModeRule is a kind's value-representation rule.
type ModeRule struct {
	Kind  ModeRuleKind
	Mode  ir.Mode
	Input int
	Attr  string
	Data  bool // ModeFromCaller only: the caller's mode must be a data mode
}

// Fixed returns a rule that always yields m.
func Fixed(m ir.Mode) ModeRule { return ModeRule{Kind: ModeFixed, Mode: m} }

// FromInput returns a rule that copies the mode of input i.
func FromInput(i int) ModeRule { return ModeRule{Kind: ModeFromInput, Input: i} }

// FromAttr returns a rule that reads the mode out of attribute name.
func FromAttr(name string) ModeRule { return ModeRule{Kind: ModeFromAttr, Attr: name} }

// FromCaller returns a rule that takes the caller's mode.
func FromCaller() ModeRule { return ModeRule{Kind: ModeFromCaller} }

// FromCallerData is FromCaller limited to data modes, for kinds that
// compute a value.
func FromCallerData() ModeRule { return ModeRule{Kind: ModeFromCaller, Data: true} }

// FromTuple returns the projection rule.
func FromTuple() ModeRule { return ModeRule{Kind: ModeFromTuple} }

func (r ModeRule) String() string {
	switch r.Kind {
	case ModeFixed:
		return "fixed(" + r.Mode.String() + ")"
	case ModeFromInput:
		return fmt.Sprintf("input(%d)", r.Input)
	case ModeFromAttr:
		return "attr(" + r.Attr + ")"
	case ModeFromCaller:
		if r.Data {
			return "caller(data)"
		}
		return "caller"
	case ModeFromTuple:
		return "tuple"
	}
	return fmt.Sprintf("ModeRule(%d)", uint8(r.Kind))
}

// Nested describes the components of an output that is itself a tuple.
type Nested uint8

const (
	NestedNone Nested = iota
	// NestedGraphParams: one component per parameter of the graph's method
	// type (Start T_args).
	NestedGraphParams
	// NestedTypeResults: one component per result of the node's "type"
	// attribute (Call T_result).
	NestedTypeResults
)

func (n Nested) String() string {
	switch n {
	case NestedGraphParams:
		return "graph_params"
	case NestedTypeResults:
		return "type_results"
	}
	return "none"
}

// Output is one named result of a tuple-valued kind.
type Output struct {
	Name   string
	Doc    string
	Mode   ModeRule // ModeFixed or ModeFromAttr on the tuple node
	Nested Nested
}

// ResultRule describes outputs appended after the fixed output list whose
// count is only known per node.
type ResultRule uint8

const (
	ResultsNone ResultRule = iota
	// ResultsFromCount: ResultAttr holds the total output count.
	ResultsFromCount
	// ResultsFromType: one output per result of the method type in
	// ResultAttr.
	ResultsFromType
	// ResultsFromInputs: one output per input, inheriting its mode.
	ResultsFromInputs
	// ResultsFromASM: one output per output constraint.
	ResultsFromASM
)

func (r ResultRule) String() string {
	switch r {
	case ResultsFromCount:
		return "attr_count"
	case ResultsFromType:
		return "type_results"
	case ResultsFromInputs:
		return "inputs"
	case ResultsFromASM:
		return "asm_outputs"
	}
	return "none"
}

// BlockRule says where a node of the kind lives.
type BlockRule uint8

const (
	// BlockFromCaller: the caller names the block.
	BlockFromCaller BlockRule = iota
	// BlockStart: always the graph's entry block.
	BlockStart
	// BlockEnd: always the graph's exit block.
	BlockEnd
	// BlockFromInput: the block of input 0.
	BlockFromInput
	// BlockNone: the node has no block (Block, Anchor).
	BlockNone
)

func (b BlockRule) String() string {
	switch b {
	case BlockStart:
		return "start"
	case BlockEnd:
		return "end"
	case BlockFromInput:
		return "input(0)"
	case BlockNone:
		return "none"
	}
	return "caller"
}

// PinInit refines PinningException: where a node's pin state comes from.
type PinInit uint8

const (
	PinInitPolicy PinInit = iota // follow Pinning directly
	PinInitPinned                // exception kind that always starts pinned
	PinInitFromFlags             // floats only when construction flags allow it
)

func (p PinInit) String() string {
	switch p {
	case PinInitPinned:
		return "pinned"
	case PinInitFromFlags:
		return "from_flags"
	}
	return "policy"
}

// ThrowsInit says how a fragile node's exception state starts out.
type ThrowsInit uint8

const (
	ThrowsNone ThrowsInit = iota
	ThrowsFalse
	ThrowsFromFlags
)

func (t ThrowsInit) String() string {
	switch t {
	case ThrowsFalse:
		return "false"
	case ThrowsFromFlags:
		return "from_flags"
	}
	return "none"
}

// DeriveFunc computes a default attribute value from the construction
// flags and the attributes materialized so far. It returns nil when it has
// no value to offer.
type DeriveFunc func(flags ir.ConsFlags, attrs map[string]ir.AttrValue) ir.AttrValue

// AttrSpec is one entry of a kind's attribute schema.
type AttrSpec struct {
	Name string
	Type ir.AttrType
	Doc  string

	// Derive is the default-derivation rule; DeriveDoc renders it for the
	// exported schema.
	Derive    DeriveFunc
	DeriveDoc string

	// ToFlags maps a value back to the construction flags it implies.
	ToFlags func(ir.AttrValue) ir.ConsFlags

	// NoProp attributes are always derived and cannot be supplied or set.
	NoProp bool

	// Optional attributes may stay absent.
	Optional bool

	// Check rejects values the kind cannot accept.
	Check func(ir.AttrValue) error
}

// Required reports whether construction fails without this attribute.
func (a *AttrSpec) Required() bool {
	return a.Derive == nil && !a.Optional
}

// Kind is the immutable schema record of one node kind.
type Kind struct {
	Op   ir.Op
	Name string
	Doc  string

	Inputs    []Port
	Arity     ir.Arity
	InputName string // name of inputs past the fixed list
	CountAttr string // dynamic arity: attribute holding the extra input count

	Outputs    []Output
	Results    ResultRule
	ResultAttr string

	Attrs     []AttrSpec
	ConsFlags ir.ConsFlags // accepted construction flags

	// Check validates relations between materialized attributes.
	Check func(attrs map[string]ir.AttrValue) error

	Flags      ir.Flags
	Pinning    ir.Pinning
	PinInit    PinInit
	ThrowsInit ThrowsInit

	Mode      ModeRule
	Block     BlockRule
	Singleton bool

	CustomConstruct bool
	CustomEncode    bool

	// Binary kinds have a left/right operand pair starting at OpIndex.
	Binary  bool
	OpIndex int
}

// NumInputs is the length of the fixed input list.
func (k *Kind) NumInputs() int { return len(k.Inputs) }

// IsTuple reports whether nodes of the kind are tuple-valued.
func (k *Kind) IsTuple() bool {
	return k.Mode.Kind == ModeFixed && k.Mode.Mode == ir.ModeT
}

// Has reports whether the kind declares every flag in f.
func (k *Kind) Has(f ir.Flags) bool { return k.Flags.Has(f) }

// Attr finds an attribute spec by name.
func (k *Kind) Attr(name string) (*AttrSpec, bool) {
	for i := range k.Attrs {
		if k.Attrs[i].Name == name {
			return &k.Attrs[i], true
		}
	}
	return nil, false
}

// InputLabel names input i, synthesizing names past the fixed list.
func (k *Kind) InputLabel(i int) string {
	if i < len(k.Inputs) {
		return k.Inputs[i].Name
	}
	name := k.InputName
	if name == "" {
		name = "in"
	}
	return fmt.Sprintf("%s%d", name, i-len(k.Inputs))
}

// OutputIndex returns the position of the named fixed output.
func (k *Kind) OutputIndex(name string) (int, bool) {
	for i, o := range k.Outputs {
		if o.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (k *Kind) String() string { return k.Name }
