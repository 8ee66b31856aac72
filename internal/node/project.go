package node

import (
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

type projectEntry struct {
	tuple tuple.Tuple
	count int
}

// Project maintains a multiplicity map from projected tuple to the count of
// source tuples that project to it, emitting only on 0↔1 transitions.
type Project struct {
	base
	indices []int
	counts  map[string]projectEntry
}

// NewProject creates a Project node over the given projection indices.
func NewProject(id string, indices []int) *Project {
	return &Project{base: newBase(id), indices: indices, counts: map[string]projectEntry{}}
}

func (p *Project) project(t tuple.Tuple) tuple.Tuple {
	proj, err := t.Project(p.indices)
	if err != nil {
		diag.Invariant("node.Project.project", "%v", err)
	}
	return proj
}

// OnDeltaReceived processes one upstream delta. 0→1 transitions are
// computed before 1→0 transitions, matching §4.4's emission tie-break
// (immaterial to correctness since the output is a set, kept for parity
// with the source design).
func (p *Project) OnDeltaReceived(_ Node, d delta.Delta) {
	var adds, removes []tuple.Tuple
	for _, t := range d.AddsSlice() {
		proj := p.project(t)
		key := proj.Key()
		e := p.counts[key]
		e.tuple = proj
		e.count++
		p.counts[key] = e
		if e.count == 1 {
			adds = append(adds, proj)
		}
	}
	for _, t := range d.RemovesSlice() {
		proj := p.project(t)
		key := proj.Key()
		e, ok := p.counts[key]
		if !ok || e.count <= 0 {
			diag.Invariant("node.Project.OnDeltaReceived", "multiplicity for %v would go negative", proj)
		}
		e.count--
		if e.count == 0 {
			delete(p.counts, key)
			removes = append(removes, proj)
		} else {
			p.counts[key] = e
		}
	}
	p.emit(p, delta.New(adds, removes))
}

// Materialized returns the currently-present projected tuples (count > 0),
// in no particular order.
func (p *Project) Materialized() []tuple.Tuple {
	out := make([]tuple.Tuple, 0, len(p.counts))
	for _, e := range p.counts {
		out = append(out, e.tuple)
	}
	return out
}

// Reset clears the multiplicity map back to empty.
func (p *Project) Reset() { p.counts = map[string]projectEntry{} }
