// Package ir provides the foundational value types of the SSA graph:
// node kind identities, modes, flags, construction flags, attribute values
// and the error type shared by every construction operation.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The Op set is closed; kinds are identified by Op, never by name at
//     runtime
//   - AttrValue is sealed; every attribute has exactly one semantic type
//   - Canonical JSON carries no floats; float constants are encoded by
//     their bit pattern
//   - All errors are *Error values carrying an ErrorCode
package ir
