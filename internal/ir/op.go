package ir

import "fmt"

// Op identifies a node kind. The set is closed: every kind the registry
// knows about has exactly one Op constant.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpAddress
	OpAlign
	OpAlloc
	OpAnchor
	OpAnd
	OpASM
	OpBad
	OpBitcast
	OpBlock
	OpBuiltin
	OpCall
	OpCmp
	OpCond
	OpConfirm
	OpConst
	OpConv
	OpCopyB
	OpDeleted
	OpDiv
	OpDummy
	OpEnd
	OpEor
	OpFree
	OpIJmp
	OpId
	OpJmp
	OpLoad
	OpMember
	OpMinus
	OpMod
	OpMul
	OpMulh
	OpMux
	OpNoMem
	OpNot
	OpOffset
	OpOr
	OpPhi
	OpPin
	OpProj
	OpRaise
	OpReturn
	OpSel
	OpShl
	OpShr
	OpShrs
	OpSize
	OpStart
	OpStore
	OpSub
	OpSwitch
	OpSync
	OpTuple
	OpUnknown

	opCount
)

// NumOps is the number of valid node kinds.
const NumOps = int(opCount) - 1

var opNames = [...]string{
	OpInvalid: "invalid",
	OpAdd:     "Add",
	OpAddress: "Address",
	OpAlign:   "Align",
	OpAlloc:   "Alloc",
	OpAnchor:  "Anchor",
	OpAnd:     "And",
	OpASM:     "ASM",
	OpBad:     "Bad",
	OpBitcast: "Bitcast",
	OpBlock:   "Block",
	OpBuiltin: "Builtin",
	OpCall:    "Call",
	OpCmp:     "Cmp",
	OpCond:    "Cond",
	OpConfirm: "Confirm",
	OpConst:   "Const",
	OpConv:    "Conv",
	OpCopyB:   "CopyB",
	OpDeleted: "Deleted",
	OpDiv:     "Div",
	OpDummy:   "Dummy",
	OpEnd:     "End",
	OpEor:     "Eor",
	OpFree:    "Free",
	OpIJmp:    "IJmp",
	OpId:      "Id",
	OpJmp:     "Jmp",
	OpLoad:    "Load",
	OpMember:  "Member",
	OpMinus:   "Minus",
	OpMod:     "Mod",
	OpMul:     "Mul",
	OpMulh:    "Mulh",
	OpMux:     "Mux",
	OpNoMem:   "NoMem",
	OpNot:     "Not",
	OpOffset:  "Offset",
	OpOr:      "Or",
	OpPhi:     "Phi",
	OpPin:     "Pin",
	OpProj:    "Proj",
	OpRaise:   "Raise",
	OpReturn:  "Return",
	OpSel:     "Sel",
	OpShl:     "Shl",
	OpShr:     "Shr",
	OpShrs:    "Shrs",
	OpSize:    "Size",
	OpStart:   "Start",
	OpStore:   "Store",
	OpSub:     "Sub",
	OpSwitch:  "Switch",
	OpSync:    "Sync",
	OpTuple:   "Tuple",
	OpUnknown: "Unknown",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, NumOps)
	for op := OpInvalid + 1; op < opCount; op++ {
		m[opNames[op]] = op
	}
	return m
}()

// String returns the catalog name of the kind.
func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Valid reports whether o names a catalog kind.
func (o Op) Valid() bool {
	return o > OpInvalid && o < opCount
}

// ParseOp resolves a catalog name. Names are case-sensitive.
func ParseOp(name string) (Op, bool) {
	op, ok := opByName[name]
	return op, ok
}

// Ops returns every valid Op in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, NumOps)
	for op := OpInvalid + 1; op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}
