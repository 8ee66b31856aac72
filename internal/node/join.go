package node

import (
	"sort"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/trie"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// VarSpec names one join variable: the attribute position it occupies
// within each input that mentions it. A variable mentioned by exactly one
// input is private to that input (an ordinary pass-through attribute); one
// mentioned by more than one input is a shared natural-join key.
type VarSpec struct {
	Name     string
	Mentions map[int]int // inputIndex -> attribute position within that input's tuple
}

// AtomSpec is the join's atom specification: every variable across all of
// its inputs (shared and private), in the fixed order leapfrog binds them.
// The join's output schema is exactly this variable order.
type AtomSpec struct {
	Vars []VarSpec
}

type joinOutputEntry struct {
	tuple tuple.Tuple
	count int
}

// Join implements delta-on-one-input LFTJ: the engine's heart. It keeps one
// internal trie per input, re-keyed to the join's global variable order
// (not the input's own attribute order — see DESIGN.md's "Join output
// schema" note), and a per-output reference count across all input-source
// contributions so duplicate join paths emit each result tuple exactly
// once.
type Join struct {
	base
	inputs []Node
	spec   AtomSpec

	// order[i] lists, for input i, the indices into spec.Vars (in global
	// order) that input i mentions — the level order of inputTries[i].
	order      [][]int
	inputTries []*trie.Trie

	results map[string]joinOutputEntry
}

// NewJoin builds a Join over numInputs relations per spec. spec.Vars must
// be non-empty (MissingAtomSpec otherwise).
func NewJoin(id string, numInputs int, spec AtomSpec) *Join {
	if len(spec.Vars) == 0 {
		diag.Invariant("node.NewJoin", "MissingAtomSpec: join %q has no variables", id)
	}
	order := make([][]int, numInputs)
	for vi, v := range spec.Vars {
		var idxs []int
		for i := range v.Mentions {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		for _, i := range idxs {
			order[i] = append(order[i], vi)
		}
	}
	tries := make([]*trie.Trie, numInputs)
	for i := range tries {
		tries[i] = trie.New(len(order[i]))
	}
	return &Join{
		base:       newBase(id),
		inputs:     make([]Node, numInputs),
		spec:       spec,
		order:      order,
		inputTries: tries,
		results:   map[string]joinOutputEntry{},
	}
}

// SetInput wires input i to n. The join dispatches on Node identity in
// OnDeltaReceived, so every input must be wired before deltas arrive.
func (j *Join) SetInput(i int, n Node) { j.inputs[i] = n }

func (j *Join) inputIndex(source Node) int {
	for i, n := range j.inputs {
		if n == source {
			return i
		}
	}
	return -1
}

// reorderedAtoms pulls, for input i, the atoms of t in that input's local
// (join-variable) order.
func (j *Join) reorderedAtoms(i int, t tuple.Tuple) []atom.Atom {
	out := make([]atom.Atom, len(j.order[i]))
	for k, vi := range j.order[i] {
		pos := j.spec.Vars[vi].Mentions[i]
		out[k] = t.At(pos)
	}
	return out
}

func (j *Join) buildLocalTuple(i int, t tuple.Tuple) tuple.Tuple {
	tp, err := tuple.New(j.reorderedAtoms(i, t)...)
	if err != nil {
		diag.Invariant("node.Join.buildLocalTuple", "%v", err)
	}
	return tp
}

func (j *Join) buildDeltaTrie(i int, tuples []tuple.Tuple) *trie.Trie {
	dt := trie.New(len(j.order[i]))
	for _, t := range tuples {
		if err := dt.Insert(j.buildLocalTuple(i, t)); err != nil {
			diag.Invariant("node.Join.buildDeltaTrie", "%v", err)
		}
	}
	return dt
}

// OnDeltaReceived implements delta-on-one-input LFTJ (§4.8): adds are
// joined against the other inputs' current committed tries using only the
// new rows for this input; removes are joined the same way using only the
// removed rows, before those rows are unlinked from this input's trie.
func (j *Join) OnDeltaReceived(source Node, d delta.Delta) {
	k := j.inputIndex(source)
	if k < 0 {
		diag.Invariant("node.Join.OnDeltaReceived", "delta from an unwired input")
	}

	var outAdds, outRemoves []tuple.Tuple

	if addSlice := d.AddsSlice(); len(addSlice) > 0 {
		tries := append([]*trie.Trie(nil), j.inputTries...)
		tries[k] = j.buildDeltaTrie(k, addSlice)
		for _, r := range j.run(tries) {
			key := r.Key()
			e := j.results[key]
			e.tuple = r
			e.count++
			j.results[key] = e
			if e.count == 1 {
				outAdds = append(outAdds, r)
			}
		}
		for _, t := range addSlice {
			if err := j.inputTries[k].Insert(j.buildLocalTuple(k, t)); err != nil {
				diag.Invariant("node.Join.OnDeltaReceived", "%v", err)
			}
		}
	}

	if rmSlice := d.RemovesSlice(); len(rmSlice) > 0 {
		tries := append([]*trie.Trie(nil), j.inputTries...)
		tries[k] = j.buildDeltaTrie(k, rmSlice)
		for _, r := range j.run(tries) {
			key := r.Key()
			e, ok := j.results[key]
			if !ok || e.count <= 0 {
				diag.Invariant("node.Join.OnDeltaReceived", "output ref count for %v would go negative", r)
			}
			e.count--
			if e.count == 0 {
				delete(j.results, key)
				outRemoves = append(outRemoves, r)
			} else {
				j.results[key] = e
			}
		}
		for _, t := range rmSlice {
			if err := j.inputTries[k].Remove(j.buildLocalTuple(k, t)); err != nil {
				diag.Invariant("node.Join.OnDeltaReceived", "%v", err)
			}
		}
	}

	j.emit(j, delta.New(outAdds, outRemoves))
}

// Materialized returns the join's currently-supported output tuples (ref
// count > 0), in no particular order.
func (j *Join) Materialized() []tuple.Tuple {
	out := make([]tuple.Tuple, 0, len(j.results))
	for _, e := range j.results {
		out = append(out, e.tuple)
	}
	return out
}

// Reset clears every input trie and the output reference-count map back to
// empty, preserving each input's arity.
func (j *Join) Reset() {
	for i, tr := range j.inputTries {
		j.inputTries[i] = trie.New(tr.Arity())
	}
	j.results = map[string]joinOutputEntry{}
}
