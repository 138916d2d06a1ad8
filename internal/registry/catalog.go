package registry

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/roach88/irgraph/internal/ir"
)

// Shared outputs.
var (
	outM         = Output{Name: "M", Doc: "memory result", Mode: Fixed(ir.ModeM)}
	outXRegular  = Output{Name: "X_regular", Doc: "control flow when no exception occurs", Mode: Fixed(ir.ModeX)}
	outXExcept   = Output{Name: "X_except", Doc: "control flow when exception occured", Mode: Fixed(ir.ModeX)}
	inMem        = Port{Name: "mem", Doc: "memory dependency"}
	inOp         = Port{Name: "op", Doc: "operand"}
	binopInputs  = []Port{{Name: "left", Doc: "first operand"}, {Name: "right", Doc: "second operand"}}
	startBlockCF = ir.FlagConstlike | ir.FlagStartBlock
)

// binop is the shared shape of binary operators: two operands, floating,
// result in the left operand's mode.
func binop(op ir.Op, doc string, flags ir.Flags) *Kind {
	return &Kind{
		Op:      op,
		Doc:     doc,
		Inputs:  binopInputs,
		Flags:   flags,
		Pinning: ir.PinningFloats,
		Mode:    FromInput(0),
		Block:   BlockFromCaller,
		Binary:  true,
	}
}

// entconst is the shared shape of symbolic constants over an entity.
func entconst(op ir.Op, doc string, mode ModeRule) *Kind {
	return &Kind{
		Op:      op,
		Doc:     doc,
		Flags:   startBlockCF,
		Pinning: ir.PinningFloats,
		Block:   BlockStart,
		Mode:    mode,
		Attrs: []AttrSpec{
			{Name: "entity", Type: ir.AttrEntity, Doc: "entity to operate on"},
		},
	}
}

// typeconst is the shared shape of symbolic constants over a type.
func typeconst(op ir.Op, doc string) *Kind {
	return &Kind{
		Op:      op,
		Doc:     doc,
		Flags:   startBlockCF,
		Pinning: ir.PinningFloats,
		Block:   BlockStart,
		Mode:    FromCallerData(),
		Attrs: []AttrSpec{
			{Name: "type", Type: ir.AttrTypeRef, Doc: "type to operate on"},
		},
	}
}

// unop is a floating single-operand kind.
func unop(op ir.Op, doc string, mode ModeRule) *Kind {
	return &Kind{
		Op:      op,
		Doc:     doc,
		Inputs:  []Port{inOp},
		Pinning: ir.PinningFloats,
		Mode:    mode,
	}
}

func constant(v ir.AttrValue, doc string) (DeriveFunc, string) {
	return func(ir.ConsFlags, map[string]ir.AttrValue) ir.AttrValue { return v }, doc
}

func volatilityAttr(doc string) AttrSpec {
	return AttrSpec{
		Name: "volatility",
		Type: ir.AttrVolatility,
		Doc:  doc,
		Derive: func(f ir.ConsFlags, _ map[string]ir.AttrValue) ir.AttrValue {
			if f.Has(ir.ConsVolatile) {
				return ir.IsVolatile
			}
			return ir.NonVolatile
		},
		DeriveDoc: "flags & volatile ? is_volatile : non_volatile",
		ToFlags: func(v ir.AttrValue) ir.ConsFlags {
			if v == ir.IsVolatile {
				return ir.ConsVolatile
			}
			return ir.ConsNone
		},
	}
}

func unalignedAttr(doc string) AttrSpec {
	return AttrSpec{
		Name: "unaligned",
		Type: ir.AttrAlign,
		Doc:  doc,
		Derive: func(f ir.ConsFlags, _ map[string]ir.AttrValue) ir.AttrValue {
			if f.Has(ir.ConsUnaligned) {
				return ir.NonAligned
			}
			return ir.IsAligned
		},
		DeriveDoc: "flags & unaligned ? non_aligned : is_aligned",
		ToFlags: func(v ir.AttrValue) ir.ConsFlags {
			if v == ir.NonAligned {
				return ir.ConsUnaligned
			}
			return ir.ConsNone
		},
	}
}

func countOf(attr string) DeriveFunc {
	return func(_ ir.ConsFlags, attrs map[string]ir.AttrValue) ir.AttrValue {
		switch v := attrs[attr].(type) {
		case ir.Constraints:
			return ir.Size(len(v))
		case ir.Idents:
			return ir.Size(len(v))
		}
		return ir.Size(0)
	}
}

func methodType(v ir.AttrValue) error {
	t := v.(*ir.Type)
	if t.IsMethod() || t.IsUnknown() {
		return nil
	}
	return fmt.Errorf("type %s is not a method type", t.Name)
}

func validRelation(v ir.AttrValue) error {
	if !v.(ir.Relation).Valid() {
		return fmt.Errorf("invalid relation %d", v.(ir.Relation))
	}
	return nil
}

func powerOfTwo(v ir.AttrValue) error {
	n := uint32(v.(ir.Unsigned))
	if n == 0 || bits.OnesCount32(n) != 1 {
		return fmt.Errorf("alignment %d is not a power of 2", n)
	}
	return nil
}

func nonNegative(v ir.AttrValue) error {
	if v.(ir.Long) < 0 {
		return errors.New("projection number is negative")
	}
	return nil
}

func dataMode(v ir.AttrValue) error {
	if m := v.(ir.ModeValue).Mode; !m.IsData() {
		return fmt.Errorf("mode %s is not a data mode", m)
	}
	return nil
}

func switchTable(v ir.AttrValue) error {
	return v.(*ir.SwitchTable).Validate()
}

func switchOuts(attrs map[string]ir.AttrValue) error {
	n, _ := attrs["n_outs"].(ir.Unsigned)
	if n < 1 {
		return errors.New("n_outs must count the default output")
	}
	if t, ok := attrs["table"].(*ir.SwitchTable); ok && t.NumOuts() > uint32(n) {
		return fmt.Errorf("table addresses %d outputs but n_outs is %d", t.NumOuts(), n)
	}
	return nil
}

// catalog builds the kind table. Rows are listed in Op order.
func catalog() []*Kind {
	noRemainder, noRemainderDoc := constant(ir.Int(0), "0")
	jmpPred, jmpPredDoc := constant(ir.JmpPredNone, "none")

	add := binop(ir.OpAdd, "returns the sum of its operands", ir.FlagCommutative)
	and := binop(ir.OpAnd, "returns the result of a bitwise and operation of its operands", ir.FlagCommutative)
	eor := binop(ir.OpEor, "returns the result of a bitwise exclusive or operation of its operands", ir.FlagCommutative)
	mul := binop(ir.OpMul, "returns the product of its operands", ir.FlagCommutative)
	mulh := binop(ir.OpMulh, "returns the upper word of the product of its operands", ir.FlagCommutative)
	or := binop(ir.OpOr, "returns the result of a bitwise or operation of its operands", ir.FlagCommutative)
	sub := binop(ir.OpSub, "returns the difference of its operands", 0)
	shl := binop(ir.OpShl, "returns its first operand's bits shifted left by the amount of the second operand", 0)
	shr := binop(ir.OpShr, "returns its first operand's bits shifted right by the amount of the second operand, zero extending", 0)
	shrs := binop(ir.OpShrs, "returns its first operand's bits shifted right by the amount of the second operand, sign extending", 0)

	cmp := binop(ir.OpCmp, "compares its two operands and checks whether a specified relation is fulfilled", 0)
	cmp.Mode = Fixed(ir.ModeB)
	cmp.Attrs = []AttrSpec{
		{Name: "relation", Type: ir.AttrRelation, Doc: "comparison relation", Check: validRelation},
	}

	tupleKind := func(k *Kind) *Kind {
		k.Mode = Fixed(ir.ModeT)
		return k
	}

	return []*Kind{
		add,
		entconst(ir.OpAddress, "symbolic constant that represents the address of an entity", Fixed(ir.ModeP)),
		typeconst(ir.OpAlign, "symbolic constant that represents the alignment of a type"),
		tupleKind(&Kind{
			Op:      ir.OpAlloc,
			Doc:     "allocates a block of memory on the stack",
			Inputs:  []Port{inMem, {Name: "size", Doc: "size of the block in bytes"}},
			Outputs: []Output{outM, {Name: "res", Doc: "pointer to newly allocated memory", Mode: Fixed(ir.ModeP)}},
			Attrs: []AttrSpec{
				{Name: "alignment", Type: ir.AttrUnsigned, Doc: "alignment of the memory block (must be a power of 2)", Check: powerOfTwo},
			},
			Flags:   ir.FlagUsesMemory | ir.FlagConstMemory,
			Pinning: ir.PinningPinned,
		}),
		{
			Op:              ir.OpAnchor,
			Doc:             "holds the graph's well-known nodes so they are reachable without searching",
			Arity:           ir.ArityVariable,
			InputName:       "anchor",
			Flags:           ir.FlagDumpNoBlock,
			Pinning:         ir.PinningPinned,
			Mode:            Fixed(ir.ModeANY),
			Block:           BlockNone,
			Singleton:       true,
			CustomConstruct: true,
			CustomEncode:    true,
		},
		and,
		tupleKind(&Kind{
			Op:         ir.OpASM,
			Doc:        "executes assembler fragments of the target machine",
			Inputs:     []Port{inMem},
			Arity:      ir.ArityVariable,
			InputName:  "input",
			Outputs:    []Output{outM},
			Results:    ResultsFromASM,
			ResultAttr: "output_constraints",
			Attrs: []AttrSpec{
				{Name: "input_constraints", Type: ir.AttrAsmConstraints, Doc: "input constraints"},
				{Name: "n_output_constraints", Type: ir.AttrSize, Doc: "number of output constraints", NoProp: true, Derive: countOf("output_constraints"), DeriveDoc: "len(output_constraints)"},
				{Name: "output_constraints", Type: ir.AttrAsmConstraints, Doc: "output constraints"},
				{Name: "n_clobbers", Type: ir.AttrSize, Doc: "number of clobbered registers/memory", NoProp: true, Derive: countOf("clobbers"), DeriveDoc: "len(clobbers)"},
				{Name: "clobbers", Type: ir.AttrIdents, Doc: "list of clobbered registers/memory"},
				{Name: "text", Type: ir.AttrIdent, Doc: "assembler text"},
			},
			Flags:           ir.FlagKeep | ir.FlagUsesMemory,
			Pinning:         ir.PinningException,
			PinInit:         PinInitPinned,
			CustomConstruct: true,
			CustomEncode:    true,
		}),
		{
			Op:        ir.OpBad,
			Doc:       "marks invalid input: values which should never be computed",
			Flags:     ir.FlagStartBlock | ir.FlagDumpNoBlock,
			Pinning:   ir.PinningPinned,
			Mode:      Fixed(ir.ModeBad),
			Block:     BlockStart,
			Singleton: true,
		},
		unop(ir.OpBitcast, "reinterprets the bits of a value in a mode of the same width", FromCallerData()),
		{
			Op:        ir.OpBlock,
			Doc:       "a basic block",
			Arity:     ir.ArityVariable,
			InputName: "cfgpred",
			Pinning:   ir.PinningPinned,
			Mode:      Fixed(ir.ModeBB),
			Block:     BlockNone,
			Attrs: []AttrSpec{
				{Name: "entity", Type: ir.AttrEntity, Doc: "entity representing this block", Optional: true},
			},
			CustomEncode: true,
		},
		tupleKind(&Kind{
			Op:         ir.OpBuiltin,
			Doc:        "performs a backend-specific builtin",
			Inputs:     []Port{inMem},
			Arity:      ir.ArityVariable,
			InputName:  "param",
			Outputs:    []Output{outM},
			Results:    ResultsFromType,
			ResultAttr: "type",
			Flags:      ir.FlagUsesMemory,
			Attrs: []AttrSpec{
				{Name: "kind", Type: ir.AttrBuiltinKind, Doc: "kind of builtin"},
				{Name: "type", Type: ir.AttrTypeRef, Doc: "method type for the builtin call", Check: methodType},
			},
			Pinning: ir.PinningException,
			PinInit: PinInitPinned,
		}),
		tupleKind(&Kind{
			Op:        ir.OpCall,
			Doc:       "calls other code; the operands of the callee's return become the call's results",
			Inputs:    []Port{inMem, {Name: "ptr", Doc: "pointer to called code"}},
			Arity:     ir.ArityVariable,
			InputName: "param",
			Outputs: []Output{
				outM,
				{Name: "T_result", Doc: "tuple containing all results", Mode: Fixed(ir.ModeT), Nested: NestedTypeResults},
				outXRegular,
				outXExcept,
			},
			Flags: ir.FlagFragile | ir.FlagUsesMemory,
			Attrs: []AttrSpec{
				{Name: "type", Type: ir.AttrTypeRef, Doc: "type of the call (usually type of the called procedure)", Check: methodType},
			},
			Pinning:    ir.PinningException,
			PinInit:    PinInitPinned,
			ThrowsInit: ThrowsFalse,
		}),
		cmp,
		tupleKind(&Kind{
			Op:     ir.OpCond,
			Doc:    "conditionally change control flow",
			Inputs: []Port{{Name: "selector", Doc: "condition parameter"}},
			Outputs: []Output{
				{Name: "false", Doc: "control flow if operand is \"false\"", Mode: Fixed(ir.ModeX)},
				{Name: "true", Doc: "control flow if operand is \"true\"", Mode: Fixed(ir.ModeX)},
			},
			Flags:   ir.FlagCFOpcode | ir.FlagForking,
			Pinning: ir.PinningPinned,
			Attrs: []AttrSpec{
				{Name: "jmp_pred", Type: ir.AttrJmpPred, Doc: "can indicate the most likely jump", Derive: jmpPred, DeriveDoc: jmpPredDoc},
			},
		}),
		{
			Op:     ir.OpConfirm,
			Doc:    "specifies constraints for a value without checking them",
			Inputs: []Port{{Name: "value", Doc: "value to express a constraint for"}, {Name: "bound", Doc: "value to compare against"}},
			Mode:   FromInput(0),
			Flags:  ir.FlagHighlevel,
			Attrs: []AttrSpec{
				{Name: "relation", Type: ir.AttrRelation, Doc: "relation of value to bound", Check: validRelation},
			},
			Pinning: ir.PinningPinned,
		},
		{
			Op:      ir.OpConst,
			Doc:     "returns a constant value",
			Flags:   startBlockCF,
			Block:   BlockStart,
			Mode:    FromAttr("tarval"),
			Pinning: ir.PinningFloats,
			Attrs: []AttrSpec{
				{Name: "tarval", Type: ir.AttrTarval, Doc: "constant value (a tarval object)"},
			},
		},
		unop(ir.OpConv, "converts values between modes", FromCallerData()),
		{
			Op:     ir.OpCopyB,
			Doc:    "copies a block of memory with statically known size/type",
			Inputs: []Port{inMem, {Name: "dst", Doc: "destination address"}, {Name: "src", Doc: "source address"}},
			Mode:   Fixed(ir.ModeM),
			Flags:  ir.FlagUsesMemory,
			Attrs: []AttrSpec{
				{Name: "type", Type: ir.AttrTypeRef, Doc: "type of copied data"},
				volatilityAttr("volatile CopyB nodes have a visible side-effect and may not be optimized"),
			},
			ConsFlags: ir.ConsVolatile,
			Pinning:   ir.PinningFloats,
		},
		{
			Op:              ir.OpDeleted,
			Doc:             "internal node temporarily set on nodes already removed from the graph",
			Mode:            Fixed(ir.ModeBad),
			Pinning:         ir.PinningPinned,
			Block:           BlockNone,
			CustomConstruct: true,
			CustomEncode:    true,
		},
		tupleKind(&Kind{
			Op:      ir.OpDiv,
			Doc:     "returns the quotient of its 2 operands",
			Inputs:  []Port{inMem, binopInputs[0], binopInputs[1]},
			Outputs: []Output{outM, {Name: "res", Doc: "result of computation", Mode: FromAttr("resmode")}, outXRegular, outXExcept},
			Flags:   ir.FlagFragile | ir.FlagUsesMemory | ir.FlagConstMemory,
			Attrs: []AttrSpec{
				{Name: "resmode", Type: ir.AttrMode, Doc: "mode of the result value", Check: dataMode},
				{Name: "no_remainder", Type: ir.AttrInt, Derive: noRemainder, DeriveDoc: noRemainderDoc},
			},
			ConsFlags:  ir.ConsFloats,
			Pinning:    ir.PinningException,
			PinInit:    PinInitFromFlags,
			ThrowsInit: ThrowsFalse,
			Binary:     true,
			OpIndex:    1,
		}),
		{
			Op:      ir.OpDummy,
			Doc:     "a placeholder value for not yet known inputs during cyclic construction",
			Flags:   ir.FlagCFOpcode | ir.FlagStartBlock | ir.FlagConstlike | ir.FlagDumpNoBlock,
			Pinning: ir.PinningPinned,
			Block:   BlockStart,
			Mode:    FromCaller(),
		},
		{
			Op:        ir.OpEnd,
			Doc:       "last node of a graph; references nodes in endless loops (keepalive edges)",
			Mode:      Fixed(ir.ModeX),
			Pinning:   ir.PinningPinned,
			Arity:     ir.ArityDynamic,
			InputName: "keepalive",
			CountAttr: "n_keepalives",
			Attrs: []AttrSpec{
				{Name: "n_keepalives", Type: ir.AttrSize, Doc: "number of keepalive edges"},
			},
			Flags:     ir.FlagCFOpcode,
			Block:     BlockEnd,
			Singleton: true,
		},
		eor,
		{
			Op:      ir.OpFree,
			Doc:     "frees a block of memory previously allocated by an Alloc node",
			Inputs:  []Port{inMem, {Name: "ptr", Doc: "pointer to the object to free"}},
			Mode:    Fixed(ir.ModeM),
			Flags:   ir.FlagUsesMemory | ir.FlagConstMemory,
			Pinning: ir.PinningPinned,
		},
		{
			Op:      ir.OpIJmp,
			Doc:     "jumps to the code in its argument",
			Inputs:  []Port{{Name: "target", Doc: "target address of the jump"}},
			Mode:    Fixed(ir.ModeX),
			Flags:   ir.FlagCFOpcode | ir.FlagForking | ir.FlagKeep | ir.FlagUnknownJump,
			Pinning: ir.PinningPinned,
		},
		{
			Op:      ir.OpId,
			Doc:     "returns its operand unchanged",
			Inputs:  []Port{{Name: "pred", Doc: "the value which is returned unchanged"}},
			Mode:    FromInput(0),
			Pinning: ir.PinningFloats,
		},
		{
			Op:      ir.OpJmp,
			Doc:     "jumps to the block connected through the out-value",
			Mode:    Fixed(ir.ModeX),
			Flags:   ir.FlagCFOpcode,
			Pinning: ir.PinningPinned,
		},
		tupleKind(&Kind{
			Op:      ir.OpLoad,
			Doc:     "loads a value from memory (heap or stack)",
			Inputs:  []Port{inMem, {Name: "ptr", Doc: "address to load from"}},
			Outputs: []Output{outM, {Name: "res", Doc: "result of load operation", Mode: FromAttr("mode")}, outXRegular, outXExcept},
			Flags:   ir.FlagFragile | ir.FlagUsesMemory | ir.FlagConstMemory,
			Attrs: []AttrSpec{
				{Name: "mode", Type: ir.AttrMode, Doc: "mode of the value to be loaded", Check: dataMode},
				volatilityAttr("volatile loads are a visible side-effect and may not be optimized"),
				unalignedAttr("pointers to unaligned loads don't need to respect the load-mode/type alignments"),
			},
			ConsFlags:  ir.ConsVolatile | ir.ConsUnaligned | ir.ConsFloats | ir.ConsThrowsException,
			Pinning:    ir.PinningException,
			PinInit:    PinInitFromFlags,
			ThrowsInit: ThrowsFromFlags,
		}),
		{
			Op:      ir.OpMember,
			Doc:     "computes the address of a compound type member",
			Inputs:  []Port{{Name: "ptr", Doc: "pointer to object to select from"}},
			Mode:    Fixed(ir.ModeP),
			Pinning: ir.PinningFloats,
			Attrs: []AttrSpec{
				{Name: "entity", Type: ir.AttrEntity, Doc: "entity which is selected"},
			},
		},
		unop(ir.OpMinus, "returns the additive inverse of its operand", FromInput(0)),
		tupleKind(&Kind{
			Op:      ir.OpMod,
			Doc:     "returns the remainder of its operands from an implied division",
			Inputs:  []Port{inMem, binopInputs[0], binopInputs[1]},
			Outputs: []Output{outM, {Name: "res", Doc: "result of computation", Mode: FromAttr("resmode")}, outXRegular, outXExcept},
			Flags:   ir.FlagFragile | ir.FlagUsesMemory | ir.FlagConstMemory,
			Attrs: []AttrSpec{
				{Name: "resmode", Type: ir.AttrMode, Doc: "mode of the result", Check: dataMode},
			},
			ConsFlags:  ir.ConsFloats,
			Pinning:    ir.PinningException,
			PinInit:    PinInitFromFlags,
			ThrowsInit: ThrowsFalse,
			Binary:     true,
			OpIndex:    1,
		}),
		mul,
		mulh,
		{
			Op:  ir.OpMux,
			Doc: "returns the false or true operand depending on the value of the sel operand",
			Inputs: []Port{
				{Name: "sel", Doc: "value making the output selection"},
				{Name: "false", Doc: "selected if sel input is false"},
				{Name: "true", Doc: "selected if sel input is true"},
			},
			Mode:    FromInput(1),
			Pinning: ir.PinningFloats,
		},
		{
			Op:        ir.OpNoMem,
			Doc:       "placeholder node for cases where you don't need any memory input",
			Mode:      Fixed(ir.ModeM),
			Flags:     ir.FlagDumpNoBlock,
			Pinning:   ir.PinningPinned,
			Block:     BlockStart,
			Singleton: true,
		},
		unop(ir.OpNot, "returns the bitwise complement of a value", FromInput(0)),
		entconst(ir.OpOffset, "symbolic constant that represents the offset of an entity in its owner type", FromCallerData()),
		or,
		{
			Op:           ir.OpPhi,
			Doc:          "chooses a value based on control flow; one input per predecessor of its block",
			Arity:        ir.ArityVariable,
			InputName:    "pred",
			Mode:         FromCaller(),
			Pinning:      ir.PinningPinned,
			CustomEncode: true,
		},
		{
			Op:      ir.OpPin,
			Doc:     "pins the value of its operand in the current block",
			Inputs:  []Port{{Name: "op", Doc: "value which is pinned"}},
			Mode:    FromInput(0),
			Flags:   ir.FlagHighlevel,
			Pinning: ir.PinningPinned,
		},
		{
			Op:      ir.OpProj,
			Doc:     "returns an entry of a tuple value",
			Inputs:  []Port{{Name: "pred", Doc: "the tuple value from which a part is extracted"}},
			Pinning: ir.PinningFloats,
			Block:   BlockFromInput,
			Mode:    FromTuple(),
			Attrs: []AttrSpec{
				{Name: "proj", Type: ir.AttrLong, Doc: "number of tuple component to be extracted", Check: nonNegative},
			},
		},
		tupleKind(&Kind{
			Op:      ir.OpRaise,
			Doc:     "raises an exception: unconditional change of control flow",
			Inputs:  []Port{inMem, {Name: "exo_ptr", Doc: "pointer to exception object to be thrown"}},
			Outputs: []Output{outM, {Name: "X", Doc: "control flow to exception handler", Mode: Fixed(ir.ModeX)}},
			Flags:   ir.FlagHighlevel | ir.FlagCFOpcode,
			Pinning: ir.PinningPinned,
		}),
		{
			Op:        ir.OpReturn,
			Doc:       "returns from the current function",
			Inputs:    []Port{inMem},
			Arity:     ir.ArityVariable,
			InputName: "res",
			Mode:      Fixed(ir.ModeX),
			Flags:     ir.FlagCFOpcode,
			Pinning:   ir.PinningPinned,
		},
		{
			Op:      ir.OpSel,
			Doc:     "computes the address of an array element",
			Inputs:  []Port{{Name: "ptr", Doc: "pointer to array to select from"}, {Name: "index", Doc: "index to select"}},
			Mode:    Fixed(ir.ModeP),
			Pinning: ir.PinningFloats,
			Attrs: []AttrSpec{
				{Name: "type", Type: ir.AttrTypeRef, Doc: "array type"},
			},
		},
		shl,
		shr,
		shrs,
		typeconst(ir.OpSize, "symbolic constant that represents the size of a type"),
		{
			Op:  ir.OpStart,
			Doc: "the first node of a graph; execution starts here",
			Outputs: []Output{
				{Name: "X_initial_exec", Doc: "control flow", Mode: Fixed(ir.ModeX)},
				{Name: "M", Doc: "initial memory", Mode: Fixed(ir.ModeM)},
				{Name: "P_frame_base", Doc: "frame base pointer", Mode: Fixed(ir.ModeP)},
				{Name: "T_args", Doc: "function arguments", Mode: Fixed(ir.ModeT), Nested: NestedGraphParams},
			},
			Mode:      Fixed(ir.ModeT),
			Pinning:   ir.PinningPinned,
			Flags:     ir.FlagCFOpcode,
			Singleton: true,
			Block:     BlockStart,
		},
		tupleKind(&Kind{
			Op:  ir.OpStore,
			Doc: "stores a value into memory (heap or stack)",
			Inputs: []Port{
				inMem,
				{Name: "ptr", Doc: "address to store to"},
				{Name: "value", Doc: "value to store"},
			},
			Outputs: []Output{outM, outXRegular, outXExcept},
			Flags:   ir.FlagFragile | ir.FlagUsesMemory,
			Attrs: []AttrSpec{
				volatilityAttr("volatile stores are a visible side-effect and may not be optimized"),
				unalignedAttr("pointers to unaligned stores don't need to respect the load-mode/type alignments"),
			},
			ConsFlags:  ir.ConsVolatile | ir.ConsUnaligned | ir.ConsFloats | ir.ConsThrowsException,
			Pinning:    ir.PinningException,
			PinInit:    PinInitFromFlags,
			ThrowsInit: ThrowsFromFlags,
		}),
		sub,
		tupleKind(&Kind{
			Op:         ir.OpSwitch,
			Doc:        "changes control flow to the output a table maps the selector value to",
			Inputs:     []Port{{Name: "selector", Doc: "input selector"}},
			Outputs:    []Output{{Name: "default", Doc: "control flow if no other case matches", Mode: Fixed(ir.ModeX)}},
			Results:    ResultsFromCount,
			ResultAttr: "n_outs",
			Check:      switchOuts,
			Flags:      ir.FlagCFOpcode | ir.FlagForking,
			Pinning:    ir.PinningPinned,
			Attrs: []AttrSpec{
				{Name: "n_outs", Type: ir.AttrUnsigned, Doc: "number of outputs (including the default)"},
				{Name: "table", Type: ir.AttrSwitchTable, Doc: "table describing mapping from input values to Proj numbers", Check: switchTable},
			},
		}),
		{
			Op:        ir.OpSync,
			Doc:       "unifies several partial memory blocks",
			Mode:      Fixed(ir.ModeM),
			Pinning:   ir.PinningFloats,
			Arity:     ir.ArityDynamic,
			InputName: "pred",
			CountAttr: "n_preds",
			Attrs: []AttrSpec{
				{Name: "n_preds", Type: ir.AttrSize, Doc: "number of memory predecessors"},
			},
		},
		{
			Op:        ir.OpTuple,
			Doc:       "builds a tuple from single values",
			Arity:     ir.ArityVariable,
			InputName: "pred",
			Mode:      Fixed(ir.ModeT),
			Results:   ResultsFromInputs,
			Pinning:   ir.PinningFloats,
		},
		{
			Op:        ir.OpUnknown,
			Doc:       "returns an unknown (at compile- and runtime) value",
			Pinning:   ir.PinningPinned,
			Block:     BlockStart,
			Mode:      Fixed(ir.ModeANY),
			Flags:     ir.FlagStartBlock | ir.FlagConstlike | ir.FlagDumpNoBlock,
			Singleton: true,
		},
	}
}
