package node

import (
	"sort"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/trie"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// run executes the leapfrog triejoin over tries (one per input, in input
// order) and returns every output tuple — one per complete, consistent
// binding of j.spec.Vars, in the variable order, assembled directly as the
// join's output. A variable mentioned by a single input enumerates that
// input's values with no intersection; a variable mentioned by more than
// one input is leapfrog-intersected across those inputs' cursors.
func (j *Join) run(tries []*trie.Trie) []tuple.Tuple {
	state := &lftjState{
		vars:        j.spec.Vars,
		tries:       tries,
		localPrefix: make([][]atom.Atom, len(tries)),
		bound:       make([]atom.Atom, len(j.spec.Vars)),
	}
	state.step(0)
	return state.results
}

type lftjState struct {
	vars        []VarSpec
	tries       []*trie.Trie
	localPrefix [][]atom.Atom
	bound       []atom.Atom
	results     []tuple.Tuple
}

func (s *lftjState) step(vi int) {
	if vi == len(s.vars) {
		tp, err := tuple.New(s.bound...)
		if err != nil {
			diag.Invariant("node.lftj.step", "%v", err)
		}
		s.results = append(s.results, tp)
		return
	}

	v := s.vars[vi]
	var participants []int
	for i := range v.Mentions {
		participants = append(participants, i)
	}
	sort.Ints(participants)
	if len(participants) == 0 {
		diag.Invariant("node.lftj.step", "variable %q mentioned by no input", v.Name)
	}

	if len(participants) == 1 {
		s.stepPrivate(vi, participants[0])
		return
	}
	s.stepShared(vi, participants)
}

// stepPrivate enumerates every atom at input i's current trie level: a
// variable used by exactly one input needs no cross-input intersection.
func (s *lftjState) stepPrivate(vi, i int) {
	atoms, err := s.tries[i].SortedAtomsAt(len(s.localPrefix[i]), s.localPrefix[i])
	if err != nil {
		diag.Invariant("node.lftj.stepPrivate", "%v", err)
	}
	for _, a := range atoms {
		s.bound[vi] = a
		s.localPrefix[i] = append(s.localPrefix[i], a)
		s.step(vi + 1)
		s.localPrefix[i] = s.localPrefix[i][:len(s.localPrefix[i])-1]
	}
}

// stepShared runs the standard leapfrog search-then-advance loop across
// the participating inputs' cursors: repeatedly seek every cursor to the
// current maximum key until all agree, recurse on the bound value, then
// advance every cursor past it.
func (s *lftjState) stepShared(vi int, participants []int) {
	iters := make([]*trie.LevelIterator, len(participants))
	for idx, i := range participants {
		it, err := trie.NewLevelIterator(s.tries[i], len(s.localPrefix[i]), s.localPrefix[i])
		if err != nil {
			diag.Invariant("node.lftj.stepShared", "%v", err)
		}
		iters[idx] = it
	}

	for {
		atEnd := false
		for _, it := range iters {
			if it.AtEnd() {
				atEnd = true
				break
			}
		}
		if atEnd {
			return
		}

		maxKey := iters[0].Key()
		for _, it := range iters[1:] {
			if it.Key().Compare(maxKey) > 0 {
				maxKey = it.Key()
			}
		}

		allEqual := true
		for _, it := range iters {
			if it.Key().Compare(maxKey) != 0 {
				it.SeekGE(maxKey)
				allEqual = false
			}
		}
		if !allEqual {
			continue
		}

		s.bound[vi] = maxKey
		for _, i := range participants {
			s.localPrefix[i] = append(s.localPrefix[i], maxKey)
		}
		s.step(vi + 1)
		for _, i := range participants {
			s.localPrefix[i] = s.localPrefix[i][:len(s.localPrefix[i])-1]
		}
		for _, it := range iters {
			it.Next()
		}
	}
}
