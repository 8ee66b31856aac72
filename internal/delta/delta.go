// Package delta implements the normalized (adds, removes) pair that every
// operator node consumes and emits.
package delta

import "github.com/mrechner/lftj-engine/internal/tuple"

// Delta is a pair of tuple sets, keyed by each tuple's canonical Key() so
// membership and cancellation are O(1). A Delta produced by New or Merge
// is always normalized: Adds and Removes never share a key.
type Delta struct {
	Adds    map[string]tuple.Tuple
	Removes map[string]tuple.Tuple
}

// Empty returns a Delta with no adds or removes.
func Empty() Delta {
	return Delta{Adds: map[string]tuple.Tuple{}, Removes: map[string]tuple.Tuple{}}
}

// New builds a normalized Delta from raw add/remove slices: a tuple present
// in both cancels out of the result.
func New(adds, removes []tuple.Tuple) Delta {
	d := Empty()
	for _, t := range adds {
		d.Adds[t.Key()] = t
	}
	for _, t := range removes {
		d.Removes[t.Key()] = t
	}
	return normalize(d)
}

// IsEmpty reports whether the delta carries no adds and no removes.
func (d Delta) IsEmpty() bool { return len(d.Adds) == 0 && len(d.Removes) == 0 }

// AddsSlice returns the add set as a slice, in no particular order.
func (d Delta) AddsSlice() []tuple.Tuple { return values(d.Adds) }

// RemovesSlice returns the remove set as a slice, in no particular order.
func (d Delta) RemovesSlice() []tuple.Tuple { return values(d.Removes) }

func values(m map[string]tuple.Tuple) []tuple.Tuple {
	out := make([]tuple.Tuple, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	return out
}

// normalize removes any tuple present in both Adds and Removes — it
// cancels and disappears from the delta entirely, per the adds∩removes=∅
// invariant.
func normalize(d Delta) Delta {
	for k := range d.Adds {
		if _, ok := d.Removes[k]; ok {
			delete(d.Adds, k)
			delete(d.Removes, k)
		}
	}
	return d
}

// Merge combines two normalized deltas into one normalized delta:
// merge((A1,R1),(A2,R2)) = normalize(A1∪A2, R1∪R2), where a tuple in A2
// cancels a matching entry in R1 and vice versa. Merge is commutative and
// associative, with Empty() as identity.
func Merge(a, b Delta) Delta {
	out := Delta{
		Adds:    make(map[string]tuple.Tuple, len(a.Adds)+len(b.Adds)),
		Removes: make(map[string]tuple.Tuple, len(a.Removes)+len(b.Removes)),
	}
	for k, t := range a.Adds {
		out.Adds[k] = t
	}
	for k, t := range b.Adds {
		out.Adds[k] = t
	}
	for k, t := range a.Removes {
		out.Removes[k] = t
	}
	for k, t := range b.Removes {
		out.Removes[k] = t
	}
	return normalize(out)
}

// AddTuple adds t to the delta's add set in place, cancelling any pending
// remove of the same tuple.
func (d Delta) AddTuple(t tuple.Tuple) {
	k := t.Key()
	if _, ok := d.Removes[k]; ok {
		delete(d.Removes, k)
		return
	}
	d.Adds[k] = t
}

// RemoveTuple adds t to the delta's remove set in place, cancelling any
// pending add of the same tuple.
func (d Delta) RemoveTuple(t tuple.Tuple) {
	k := t.Key()
	if _, ok := d.Adds[k]; ok {
		delete(d.Adds, k)
		return
	}
	d.Removes[k] = t
}
