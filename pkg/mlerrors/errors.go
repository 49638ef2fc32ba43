// Package mlerrors defines the error taxonomy shared by every public
// entry point of the ML service core (tensors, information maps, the
// catalog, the service handle, and the offloading endpoint).
package mlerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure the same way across every component, so
// callers can branch on it without caring which component raised it.
type Code int

const (
	// InvalidParameter covers null/empty/out-of-range arguments, a wrong
	// handle type, or a map without the expected discriminant.
	InvalidParameter Code = iota
	// OutOfMemory covers allocation failure. Distinct and non-retriable.
	OutOfMemory
	// NotSupported covers a compiled-out feature or an operation that is
	// meaningless for the active variant.
	NotSupported
	// PermissionDenied covers an OS-level write refusal.
	PermissionDenied
	// IoError covers DB open/write, URI fetch, and file read/write failures.
	IoError
	// StreamsPipe covers pipeline construction/parse/state-change failure
	// and request back-pressure (queue full).
	StreamsPipe
	// TryAgain covers a transient runtime that is not ready yet.
	TryAgain
	// TimedOut covers single-shot inference or training waits that
	// exceeded their budget.
	TimedOut
)

func (c Code) String() string {
	switch c {
	case InvalidParameter:
		return "invalid-parameter"
	case OutOfMemory:
		return "out-of-memory"
	case NotSupported:
		return "not-supported"
	case PermissionDenied:
		return "permission-denied"
	case IoError:
		return "io-error"
	case StreamsPipe:
		return "streams-pipe"
	case TryAgain:
		return "try-again"
	case TimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Errno returns the stable signed integer error code, as a negated
// POSIX error number.
func (c Code) Errno() int {
	switch c {
	case InvalidParameter:
		return -22 // EINVAL
	case OutOfMemory:
		return -12 // ENOMEM
	case NotSupported:
		return -95 // ENOTSUP (Linux EOPNOTSUPP numerically, kept distinct from EPERM)
	case PermissionDenied:
		return -1 // EPERM
	case IoError:
		return -5 // EIO
	case StreamsPipe:
		return -32 // ESTRPIPE
	case TryAgain:
		return -11 // EAGAIN
	case TimedOut:
		return -110 // ETIMEDOUT
	default:
		return -22
	}
}

// Error is the concrete error type returned by every public operation in
// this module. It is grounded on the teacher's storage.Error shape
// (Op/Path/Provider/Err with Is/Unwrap), generalized across the whole
// module instead of just storage.
type Error struct {
	Code Code
	Op   string // operation that failed, e.g. "catalog.RegisterModel"
	Msg  string // human-readable detail
	Err  error  // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, mlerrors.ErrInvalidParameter) to work by
// comparing codes against a target *Error - see the sentinel values below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return errors.Is(e.Err, target)
}

// Errno returns the negated POSIX error number for this error.
func (e *Error) Errno() int { return e.Code.Errno() }

// New constructs an Error for op with the given code and message.
func New(code Code, op string, msg string) error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// Wrap constructs an Error for op that carries an underlying cause.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// sentinel values usable with errors.Is(err, mlerrors.ErrInvalidParameter)
// for callers that only care about the category, not the message.
var (
	ErrInvalidParameter = &Error{Code: InvalidParameter}
	ErrOutOfMemory      = &Error{Code: OutOfMemory}
	ErrNotSupported     = &Error{Code: NotSupported}
	ErrPermissionDenied = &Error{Code: PermissionDenied}
	ErrIoError          = &Error{Code: IoError}
	ErrStreamsPipe      = &Error{Code: StreamsPipe}
	ErrTryAgain         = &Error{Code: TryAgain}
	ErrTimedOut         = &Error{Code: TimedOut}
)
