// Package diag holds the engine's typed error taxonomy and small
// display-formatting helpers shared by every other package.
//
// Error kinds follow the source design: Configuration and Shape errors are
// returned to the call site and never recovered from internally; State and
// Provider errors are also well-typed values; Invariant violations are bugs
// and panic rather than surface as a normal error (see Invariant).
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error per the source design's error taxonomy.
type Kind int

const (
	// KindConfiguration covers missing/invalid operator config, unknown
	// relation/variable, duplicate ids.
	KindConfiguration Kind = iota
	// KindShape covers arity mismatch, schema validation failure, invalid
	// projection index, and graph cycles.
	KindShape
	// KindState covers operations against an inactive query, a closed
	// engine, or cold-starting before build.
	KindState
	// KindProvider covers an unimplemented provider method or unknown mode.
	KindProvider
	// KindInvariant marks an internal assertion failure — a bug. Code that
	// detects one must panic (see Invariant), never return it as a normal
	// error to a caller.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindShape:
		return "shape"
	case KindState:
		return "state"
	case KindProvider:
		return "provider"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the engine's well-typed error value. Every user-visible failure
// that is not an invariant violation is an *Error.
type Error struct {
	Kind Kind
	Op   string // short operation tag, e.g. "trie.insert", "engine.register"
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// do errors.Is(err, diag.ErrShape) style checks against the sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Configuration reports a Configuration-kind error.
func Configuration(op, format string, args ...any) *Error {
	return newf(KindConfiguration, op, format, args...)
}

// Shape reports a Shape-kind error.
func Shape(op, format string, args ...any) *Error {
	return newf(KindShape, op, format, args...)
}

// ShapeWrap reports a Shape-kind error wrapping err.
func ShapeWrap(op string, err error, format string, args ...any) *Error {
	return wrapf(KindShape, op, err, format, args...)
}

// State reports a State-kind error.
func State(op, format string, args ...any) *Error {
	return newf(KindState, op, format, args...)
}

// Provider reports a Provider-kind error.
func Provider(op, format string, args ...any) *Error {
	return newf(KindProvider, op, format, args...)
}

// Sentinels for errors.Is comparisons against a bare kind, e.g.:
//
//	if errors.Is(err, diag.ErrShape) { ... }
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrShape         = &Error{Kind: KindShape}
	ErrState         = &Error{Kind: KindState}
	ErrProvider      = &Error{Kind: KindProvider}
)

// Invariant panics with a KindInvariant error. Internal assertion failures
// (a ref count going negative, a trie unlink mismatch) are bugs and MUST
// NOT be silently recovered — see spec §7.
func Invariant(op, format string, args ...any) {
	panic(newf(KindInvariant, op, format, args...))
}
