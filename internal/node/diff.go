package node

import (
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// Diff computes left EXCEPT right on a key attribute list: a left tuple is
// emitted iff no right tuple currently shares its key. It must know which
// of its two input edges a delta arrived on — the source identity the
// engine passes into OnDeltaReceived is a first-class argument precisely
// for this node (see DESIGN.md, "Diff's delta-source identification").
type Diff struct {
	base
	left, right Node
	keyIndices  []int

	leftTuples   map[string]tuple.Tuple            // all left tuples currently present, by Key()
	leftByKey    map[string]map[string]tuple.Tuple // key.Key() -> {tuple.Key() -> tuple}
	rightSupport map[string]int                    // key.Key() -> count of right tuples with that key
}

// NewDiff creates a Diff node keyed on keyIndices (positions into the left
// schema; right tuples are expected to share the same key arity/order).
func NewDiff(id string, keyIndices []int) *Diff {
	return &Diff{
		base:         newBase(id),
		keyIndices:   keyIndices,
		leftTuples:   map[string]tuple.Tuple{},
		leftByKey:    map[string]map[string]tuple.Tuple{},
		rightSupport: map[string]int{},
	}
}

// SetLeft wires the left (kept-unless-matched) input.
func (d *Diff) SetLeft(n Node) { d.left = n }

// SetRight wires the right (exclusion) input.
func (d *Diff) SetRight(n Node) { d.right = n }

func (d *Diff) extractKey(t tuple.Tuple) string {
	k, err := t.Project(d.keyIndices)
	if err != nil {
		diag.Invariant("node.Diff.extractKey", "%v", err)
	}
	return k.Key()
}

// OnDeltaReceived dispatches on source identity: left deltas update the
// stored left set, right deltas update key support counts.
func (d *Diff) OnDeltaReceived(source Node, delt delta.Delta) {
	switch source {
	case d.left:
		d.handleLeft(delt)
	case d.right:
		d.handleRight(delt)
	default:
		diag.Invariant("node.Diff.OnDeltaReceived", "delta from an unrecognized source")
	}
}

func (d *Diff) handleLeft(delt delta.Delta) {
	var adds, removes []tuple.Tuple
	for _, t := range delt.AddsSlice() {
		key := d.extractKey(t)
		d.leftTuples[t.Key()] = t
		if d.leftByKey[key] == nil {
			d.leftByKey[key] = map[string]tuple.Tuple{}
		}
		d.leftByKey[key][t.Key()] = t
		if d.rightSupport[key] == 0 {
			adds = append(adds, t)
		}
	}
	for _, t := range delt.RemovesSlice() {
		key := d.extractKey(t)
		delete(d.leftTuples, t.Key())
		if m := d.leftByKey[key]; m != nil {
			delete(m, t.Key())
			if len(m) == 0 {
				delete(d.leftByKey, key)
			}
		}
		if d.rightSupport[key] == 0 {
			removes = append(removes, t)
		}
	}
	d.emit(d, delta.New(adds, removes))
}

func (d *Diff) handleRight(delt delta.Delta) {
	var adds, removes []tuple.Tuple
	for _, r := range delt.AddsSlice() {
		key := d.extractKey(r)
		prev := d.rightSupport[key]
		d.rightSupport[key] = prev + 1
		if prev == 0 {
			for _, lt := range d.leftByKey[key] {
				removes = append(removes, lt)
			}
		}
	}
	for _, r := range delt.RemovesSlice() {
		key := d.extractKey(r)
		prev := d.rightSupport[key]
		if prev <= 0 {
			diag.Invariant("node.Diff.handleRight", "right support for key would go negative")
		}
		d.rightSupport[key] = prev - 1
		if prev-1 == 0 {
			delete(d.rightSupport, key)
			for _, lt := range d.leftByKey[key] {
				adds = append(adds, lt)
			}
		}
	}
	d.emit(d, delta.New(adds, removes))
}

// Materialized returns the currently-emitted left tuples (right support ==
// 0), in no particular order.
func (d *Diff) Materialized() []tuple.Tuple {
	out := make([]tuple.Tuple, 0, len(d.leftTuples))
	for _, t := range d.leftTuples {
		if d.rightSupport[d.extractKey(t)] == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Reset clears the left set and right support counts back to empty.
func (d *Diff) Reset() {
	d.leftTuples = map[string]tuple.Tuple{}
	d.leftByKey = map[string]map[string]tuple.Tuple{}
	d.rightSupport = map[string]int{}
}
