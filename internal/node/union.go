package node

import (
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

type unionEntry struct {
	tuple tuple.Tuple
	count int
}

// Union maintains a single tuple→contributor_count map across all of its
// inputs, so the same tuple arriving from two inputs is emitted once.
type Union struct {
	base
	counts map[string]unionEntry
}

// NewUnion creates an empty Union node.
func NewUnion(id string) *Union {
	return &Union{base: newBase(id), counts: map[string]unionEntry{}}
}

// OnDeltaReceived processes a delta from any input uniformly — Union
// doesn't need the source identity, only the tuple values.
func (u *Union) OnDeltaReceived(_ Node, d delta.Delta) {
	var adds, removes []tuple.Tuple
	for _, t := range d.AddsSlice() {
		key := t.Key()
		e := u.counts[key]
		e.tuple = t
		e.count++
		u.counts[key] = e
		if e.count == 1 {
			adds = append(adds, t)
		}
	}
	for _, t := range d.RemovesSlice() {
		key := t.Key()
		e, ok := u.counts[key]
		if !ok || e.count <= 0 {
			diag.Invariant("node.Union.OnDeltaReceived", "contributor count for %v would go negative", t)
		}
		e.count--
		if e.count == 0 {
			delete(u.counts, key)
			removes = append(removes, t)
		} else {
			u.counts[key] = e
		}
	}
	u.emit(u, delta.New(adds, removes))
}

// Materialized returns the currently-present tuples (contributor count >
// 0), in no particular order.
func (u *Union) Materialized() []tuple.Tuple {
	out := make([]tuple.Tuple, 0, len(u.counts))
	for _, e := range u.counts {
		out = append(out, e.tuple)
	}
	return out
}

// Reset clears the contributor-count map back to empty.
func (u *Union) Reset() { u.counts = map[string]unionEntry{} }
