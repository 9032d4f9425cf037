// Package errs classifies the errors the storage engine can return so a
// caller (the CLI, or a test) can branch on what went wrong without string
// matching. All errors cross the engine boundary wrapped by this package;
// nothing below it retries internally (see spec §7).
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an engine failure.
type Kind int

const (
	// Parse covers a malformed tuple, pattern, or choice vector string.
	Parse Kind = iota
	// IO covers a file open/read/write/seek failure.
	IO
	// NoSpace covers a tuple too large to fit on a fresh page.
	NoSpace
	// NotFound covers an operation against a relation that does not exist.
	NotFound
	// Corruption covers an info file or page whose contents are internally
	// inconsistent with what was parsed.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse error"
	case IO:
		return "io error"
	case NoSpace:
		return "no space"
	case NotFound:
		return "not found"
	case Corruption:
		return "corruption"
	default:
		return "unknown error"
	}
}

// Error wraps a root cause with the Kind it belongs to and the operation
// that surfaced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps cause as a Kind-classified error attributed to op. The cause is
// wrapped with pkg/errors.WithStack, so the stack trace is recorded on the
// wrapped cause: %+v on errors.Unwrap of the returned error prints it, while
// %+v on the returned error itself prints the same text as Error().
func New(kind Kind, op string, cause error) error {
	if cause == nil {
		return &Error{Kind: kind, Op: op}
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(cause)}
}

// Newf is New with a formatted message as the cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return New(kind, op, fmt.Errorf(format, args...))
}

// Is reports whether err is (or wraps) an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
