package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes construction errors.
type ErrorCode string

const (
	// ErrCodeUnknownKind: the kind name is not in the registry.
	ErrCodeUnknownKind ErrorCode = "UNKNOWN_KIND"

	// ErrCodeArityMismatch: the input count does not match the kind's schema.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeMissingAttribute: a required attribute has neither a value nor
	// a derivation rule.
	ErrCodeMissingAttribute ErrorCode = "MISSING_ATTRIBUTE"

	// ErrCodeDuplicateSingleton: the graph already holds an instance.
	ErrCodeDuplicateSingleton ErrorCode = "DUPLICATE_SINGLETON"

	// ErrCodeIndexOutOfRange: projection or input index outside the valid range.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeBlockAlreadyMatured: the block's predecessor list is frozen.
	ErrCodeBlockAlreadyMatured ErrorCode = "BLOCK_ALREADY_MATURED"

	// ErrCodeUnresolvedBackedge: placeholders remain at maturation or
	// verification time.
	ErrCodeUnresolvedBackedge ErrorCode = "UNRESOLVED_BACKEDGE"

	// ErrCodeInvalidBlock: the block argument does not satisfy the kind's
	// block rule.
	ErrCodeInvalidBlock ErrorCode = "INVALID_BLOCK"

	// ErrCodeInvalidInput: an input is nil, foreign, or of the wrong mode.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeInvalidAttribute: unknown attribute, wrong semantic type, or a
	// value the kind rejects.
	ErrCodeInvalidAttribute ErrorCode = "INVALID_ATTRIBUTE"

	// ErrCodeInvalidFlags: construction flags the kind does not accept.
	ErrCodeInvalidFlags ErrorCode = "INVALID_FLAGS"

	// ErrCodeModeMismatch: a requested mode conflicts with the derived one.
	ErrCodeModeMismatch ErrorCode = "MODE_MISMATCH"

	// ErrCodeConstructionForbidden: the kind cannot be built through the kernel.
	ErrCodeConstructionForbidden ErrorCode = "CONSTRUCTION_FORBIDDEN"

	// ErrCodeAllBadInputs: a block or phi whose inputs are all Bad.
	ErrCodeAllBadInputs ErrorCode = "ALL_BAD_INPUTS"

	// ErrCodeIllegalCycle: a dependency cycle that does not pass through a
	// Phi or Block.
	ErrCodeIllegalCycle ErrorCode = "ILLEGAL_CYCLE"

	// ErrCodeMissingSingleton: an anchor role is empty.
	ErrCodeMissingSingleton ErrorCode = "MISSING_SINGLETON"

	// ErrCodeGraphFreed: the graph was destroyed.
	ErrCodeGraphFreed ErrorCode = "GRAPH_FREED"
)

// Error is the error type returned by every kernel and registry operation.
// All errors are synchronous and deterministic: repeating a failing call
// fails the same way.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the catalog name of the kind involved, if any.
	Kind string

	// Node is the id of the node involved, or -1.
	Node int

	// Index is the input or projection index involved, or -1.
	Index int

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	var ctx []string
	if e.Kind != "" {
		ctx = append(ctx, "kind="+e.Kind)
	}
	if e.Node >= 0 {
		ctx = append(ctx, fmt.Sprintf("node=%d", e.Node))
	}
	if e.Index >= 0 {
		ctx = append(ctx, fmt.Sprintf("index=%d", e.Index))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Is matches any *Error carrying the same code, so the exported sentinels
// work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// DetailKeys returns the detail keys in sorted order.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sentinels for errors.Is.
var (
	ErrUnknownKind           = &Error{Code: ErrCodeUnknownKind}
	ErrArityMismatch         = &Error{Code: ErrCodeArityMismatch}
	ErrMissingAttribute      = &Error{Code: ErrCodeMissingAttribute}
	ErrDuplicateSingleton    = &Error{Code: ErrCodeDuplicateSingleton}
	ErrIndexOutOfRange       = &Error{Code: ErrCodeIndexOutOfRange}
	ErrBlockAlreadyMatured   = &Error{Code: ErrCodeBlockAlreadyMatured}
	ErrUnresolvedBackedge    = &Error{Code: ErrCodeUnresolvedBackedge}
	ErrInvalidBlock          = &Error{Code: ErrCodeInvalidBlock}
	ErrInvalidInput          = &Error{Code: ErrCodeInvalidInput}
	ErrInvalidAttribute      = &Error{Code: ErrCodeInvalidAttribute}
	ErrInvalidFlags          = &Error{Code: ErrCodeInvalidFlags}
	ErrModeMismatch          = &Error{Code: ErrCodeModeMismatch}
	ErrConstructionForbidden = &Error{Code: ErrCodeConstructionForbidden}
	ErrAllBadInputs          = &Error{Code: ErrCodeAllBadInputs}
	ErrIllegalCycle          = &Error{Code: ErrCodeIllegalCycle}
	ErrMissingSingleton      = &Error{Code: ErrCodeMissingSingleton}
	ErrGraphFreed            = &Error{Code: ErrCodeGraphFreed}
)

// NewError creates an Error without node or index context.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    -1,
		Index:   -1,
	}
}

// WithKind sets the kind name and returns e.
func (e *Error) WithKind(kind string) *Error {
	e.Kind = kind
	return e
}

// WithNode sets the node id and returns e.
func (e *Error) WithNode(id int) *Error {
	e.Node = id
	return e
}

// WithIndex sets the index and returns e.
func (e *Error) WithIndex(i int) *Error {
	e.Index = i
	return e
}

// WithDetail adds one detail entry and returns e.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the code of an *Error anywhere in err's chain. It returns
// the empty code for nil and foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsUnknownKind returns true if err is an UNKNOWN_KIND error.
func IsUnknownKind(err error) bool { return HasCode(err, ErrCodeUnknownKind) }

// IsArityMismatch returns true if err is an ARITY_MISMATCH error.
func IsArityMismatch(err error) bool { return HasCode(err, ErrCodeArityMismatch) }

// IsIndexOutOfRange returns true if err is an INDEX_OUT_OF_RANGE error.
func IsIndexOutOfRange(err error) bool { return HasCode(err, ErrCodeIndexOutOfRange) }
