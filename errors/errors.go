// Package errors provides error handling for the ten runtime.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//   - Network portability for distributed systems
//   - Sentry integration
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "try increasing the timeout")
//
//	// Check errors
//	if errors.Is(err, sql.ErrNoRows) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint          = crdb.WithHint
	WithHintf         = crdb.WithHintf
	WithDetail        = crdb.WithDetail
	WithDetailf       = crdb.WithDetailf
	WithSafeDetails   = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll = crdb.UnwrapAll
	GetAllHints = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Advanced features
var (
	Handled            = crdb.Handled
	HandledWithMessage = crdb.HandledWithMessage
	WithDomain         = crdb.WithDomain
	GetDomain          = crdb.GetDomain
	WithContextTags    = crdb.WithContextTags
	EncodeError        = crdb.EncodeError
	DecodeError        = crdb.DecodeError
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions and panics
var (
	AssertionFailedf  = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Common sentinel errors can be defined like:
//   var ErrNotFound = errors.New("not found")
//   var ErrClosed = errors.New("closed")

// Code is the runtime's closed error-code set (spec §6). Values are stable;
// only the associated diagnostic text is meant for humans.
type Code int

const (
	CodeOK Code = iota
	CodeGeneric
	CodeInvalidArgument
	CodeInvalidJSON
	CodeTenIsClosed
	CodeMsgNotConnected
	CodeTimeout
	CodeAddonNotFound
	CodeDeadlockPrevented
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeGeneric:
		return "Generic"
	case CodeInvalidArgument:
		return "InvalidArgument"
	case CodeInvalidJSON:
		return "InvalidJson"
	case CodeTenIsClosed:
		return "TenIsClosed"
	case CodeMsgNotConnected:
		return "MsgNotConnected"
	case CodeTimeout:
		return "Timeout"
	case CodeAddonNotFound:
		return "AddonNotFound"
	case CodeDeadlockPrevented:
		return "DeadlockPrevented"
	default:
		return "Unknown"
	}
}

// codedError attaches a Code to a wrapped cockroachdb error without losing
// its stack trace or Is/As chain.
type codedError struct {
	error
	code Code
}

// WithCode tags err with a closed-set Code. Operation errors (§7 category 2)
// are reported to callers via GetCode, never by inspecting error strings.
func WithCode(err error, code Code) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

func (e *codedError) Unwrap() error { return e.error }

// GetCode extracts the Code attached via WithCode, defaulting to CodeGeneric
// for plain errors and CodeOK for a nil error.
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ce *codedError
	if As(err, &ce) {
		return ce.code
	}
	return CodeGeneric
}
