package registry

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
)

// Catalog validation error codes (E200-E299)
const (
	ErrDuplicateKind     = "E201" // two rows share an Op or a name
	ErrDynamicCount      = "E202" // dynamic arity without a size count attribute
	ErrTupleShape        = "E203" // outputs declared on a non-tuple kind
	ErrExceptionPinning  = "E204" // exception pinning on a kind without memory semantics
	ErrUnknownAttrRef    = "E205" // mode or result rule naming a missing attribute
	ErrStartBlockRule    = "E206" // start_block flag without the start block rule
	ErrSingletonPinning  = "E207" // singleton that is not pinned
	ErrBinaryShape       = "E208" // binary operand pair outside the input list
	ErrModeInputRange    = "E209" // mode rule copying a nonexistent input
	ErrThrowsWithoutFrag = "E210" // exception state on a kind that is not fragile
	ErrInvalidOp         = "E211" // row with an invalid Op
)

// ValidationError represents one catalog consistency problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a kind table for internal consistency.
// Returns all errors found (does not fail-fast).
func Validate(kinds []*Kind) []ValidationError {
	var errs []ValidationError
	seenOp := make(map[ir.Op]bool)
	seenName := make(map[string]bool)

	for _, k := range kinds {
		field := k.Name

		if !k.Op.Valid() {
			errs = append(errs, ValidationError{Field: field, Message: "invalid op", Code: ErrInvalidOp})
			continue
		}

		// E201: duplicate op or name
		if seenOp[k.Op] || seenName[k.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "kind declared twice",
				Code:    ErrDuplicateKind,
			})
		}
		seenOp[k.Op] = true
		seenName[k.Name] = true

		// E202: dynamic arity needs a count attribute of type size
		if k.Arity == ir.ArityDynamic {
			a, ok := k.Attr(k.CountAttr)
			if !ok || a.Type != ir.AttrSize {
				errs = append(errs, ValidationError{
					Field:   field + ".count_attr",
					Message: fmt.Sprintf("dynamic arity requires a size attribute, got %q", k.CountAttr),
					Code:    ErrDynamicCount,
				})
			}
		}

		// E203: only tuple kinds have outputs
		if (len(k.Outputs) > 0 || k.Results != ResultsNone) && !k.IsTuple() {
			errs = append(errs, ValidationError{
				Field:   field + ".outputs",
				Message: fmt.Sprintf("outputs declared but mode rule is %s", k.Mode),
				Code:    ErrTupleShape,
			})
		}

		// E204: exception pinning is for memory operations
		if k.Pinning == ir.PinningException && !k.Has(ir.FlagUsesMemory) {
			errs = append(errs, ValidationError{
				Field:   field + ".pinning",
				Message: "exception pinning requires uses_memory",
				Code:    ErrExceptionPinning,
			})
		}
		if k.PinInit != PinInitPolicy && k.Pinning != ir.PinningException {
			errs = append(errs, ValidationError{
				Field:   field + ".pin_init",
				Message: "pin init is only meaningful for exception pinning",
				Code:    ErrExceptionPinning,
			})
		}

		// E205: attribute references
		if k.Mode.Kind == ModeFromAttr {
			errs = append(errs, checkAttrRef(k, field+".mode", k.Mode.Attr)...)
		}
		for _, o := range k.Outputs {
			if o.Mode.Kind == ModeFromAttr {
				errs = append(errs, checkAttrRef(k, field+".outputs."+o.Name, o.Mode.Attr)...)
			}
		}
		if k.Results == ResultsFromCount || k.Results == ResultsFromType || k.Results == ResultsFromASM {
			errs = append(errs, checkAttrRef(k, field+".result_attr", k.ResultAttr)...)
		}

		// E206: start_block flag implies the start block rule
		if k.Has(ir.FlagStartBlock) && k.Block != BlockStart {
			errs = append(errs, ValidationError{
				Field:   field + ".block",
				Message: fmt.Sprintf("start_block flag but block rule is %s", k.Block),
				Code:    ErrStartBlockRule,
			})
		}

		// E207: singletons are pinned
		if k.Singleton && k.Pinning != ir.PinningPinned {
			errs = append(errs, ValidationError{
				Field:   field + ".pinning",
				Message: "singleton kinds must be pinned",
				Code:    ErrSingletonPinning,
			})
		}

		// E208: binary operand pair
		if k.Binary {
			if k.OpIndex+1 >= len(k.Inputs) ||
				k.Inputs[k.OpIndex].Name != "left" || k.Inputs[k.OpIndex+1].Name != "right" {
				errs = append(errs, ValidationError{
					Field:   field + ".op_index",
					Message: fmt.Sprintf("no left/right pair at input %d", k.OpIndex),
					Code:    ErrBinaryShape,
				})
			}
		}

		// E209: mode copied from an existing input
		if k.Mode.Kind == ModeFromInput && k.Mode.Input >= len(k.Inputs) {
			errs = append(errs, ValidationError{
				Field:   field + ".mode",
				Message: fmt.Sprintf("mode rule copies input %d of %d", k.Mode.Input, len(k.Inputs)),
				Code:    ErrModeInputRange,
			})
		}

		// E210: exception state only on fragile kinds
		if k.ThrowsInit != ThrowsNone && !k.Has(ir.FlagFragile) {
			errs = append(errs, ValidationError{
				Field:   field + ".throws",
				Message: "throws init on a kind that is not fragile",
				Code:    ErrThrowsWithoutFrag,
			})
		}
	}

	return errs
}

func checkAttrRef(k *Kind, field, name string) []ValidationError {
	if _, ok := k.Attr(name); ok {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("references undeclared attribute %q", name),
		Code:    ErrUnknownAttrRef,
	}}
}
