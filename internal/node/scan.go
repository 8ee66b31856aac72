package node

import (
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/trie"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// Scan owns a relation's trie — the state tape of a source relation — and
// is the sole entry point the engine routes relation deltas through.
type Scan struct {
	base
	relationName string
	tr           *trie.Trie
	maintainSet  bool
}

// NewScan creates a Scan over relationName with the given tuple arity. When
// maintainSet is true, CurrentSet exposes the trie's materialized tuples as
// a queryable live view (§4.3 Supplement).
func NewScan(id, relationName string, arity int, maintainSet bool) *Scan {
	return &Scan{
		base:         newBase(id),
		relationName: relationName,
		tr:           trie.New(arity),
		maintainSet:  maintainSet,
	}
}

// RelationName returns the relation this scan owns.
func (s *Scan) RelationName() string { return s.relationName }

// Trie exposes the scan's backing trie, e.g. for a Join node that wants to
// open LevelIterators directly against a source relation.
func (s *Scan) Trie() *trie.Trie { return s.tr }

// CurrentSet returns the scan's materialized tuple set. Fails with a State
// error if the scan was not configured to maintain one.
func (s *Scan) CurrentSet() ([]tuple.Tuple, error) {
	if !s.maintainSet {
		return nil, diag.State("node.Scan.CurrentSet", "scan %q does not maintain a current set", s.id)
	}
	return s.tr.Tuples(), nil
}

// OnDeltaReceived satisfies Node so a Scan can sit as an input elsewhere in
// the graph's wiring, but a Scan has no upstream node — the engine calls
// Apply directly in response to a relation delta.
func (s *Scan) OnDeltaReceived(_ Node, d delta.Delta) {
	s.Apply(d)
}

// Apply applies d to the trie and emits it downstream. d is assumed
// already normalized (the Delta type guarantees adds ∩ removes = ∅).
func (s *Scan) Apply(d delta.Delta) {
	for _, t := range d.AddsSlice() {
		if err := s.tr.Insert(t); err != nil {
			diag.Invariant("node.Scan.Apply", "insert into relation %q: %v", s.relationName, err)
		}
	}
	for _, t := range d.RemovesSlice() {
		if err := s.tr.Remove(t); err != nil {
			diag.Invariant("node.Scan.Apply", "remove from relation %q: %v", s.relationName, err)
		}
	}
	s.emit(s, d)
}

// Reset clears the scan's trie back to empty.
func (s *Scan) Reset() { s.tr.Clear() }
