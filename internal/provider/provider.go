// Package provider defines the external-predicate contract a Compute node
// wraps, plus a filesystem-backed example Enumerable implementation.
package provider

import (
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// StateHandle is an opaque, monotonically-advancing cursor a provider hands
// back to the engine. The engine never inspects it; it only ever passes
// the most recently returned handle back into the next DeltaSince or
// FlipsSince call.
type StateHandle any

// Mode identifies which of the two ComputeProvider contracts a provider
// implements.
type Mode int

const (
	ModeEnumerable Mode = iota
	ModePointwise
)

// ComputeProvider is implemented by both Enumerable and Pointwise
// providers; the Compute node type-switches on the concrete interface to
// pick its cycle.
type ComputeProvider interface {
	// Mode reports which contract this provider implements.
	Mode() Mode
}

// Enumerable providers can produce their entire current tuple set on
// demand and report what changed since a prior state handle.
type Enumerable interface {
	ComputeProvider

	// Enumerate returns the provider's full current tuple set, used on
	// cold start.
	Enumerate() ([]tuple.Tuple, StateHandle, error)

	// DeltaSince returns the adds/removes that happened after handle, plus
	// the new handle to pass on the next call.
	DeltaSince(handle StateHandle) (adds, removes []tuple.Tuple, next StateHandle, err error)
}

// Pointwise providers evaluate a predicate over candidate tuples rather
// than enumerating a set.
type Pointwise interface {
	ComputeProvider

	// EvalMany reports, for each candidate, whether the predicate holds.
	// The returned slice has the same length and order as candidates.
	EvalMany(candidates []tuple.Tuple) ([]bool, error)

	// FlipsSince optionally reports watched tuples whose truth value
	// changed since handle with no new upstream delta. A provider that
	// does not support this simply returns a nil slice and a nil error;
	// the Compute node treats that as "no flips" (see DESIGN.md,
	// "Pointwise FlipsSince optionality").
	FlipsSince(handle StateHandle) (flips []Flip, next StateHandle, err error)
}

// Flip records a watched tuple whose truth value changed.
type Flip struct {
	Tuple    tuple.Tuple
	NowTrue  bool
}
