package node

import (
	"testing"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

func mustTuple(t *testing.T, atoms ...atom.Atom) tuple.Tuple {
	t.Helper()
	tp, err := tuple.New(atoms...)
	if err != nil {
		t.Fatalf("tuple.New: %v", err)
	}
	return tp
}

func ints(t *testing.T, vs ...int32) tuple.Tuple {
	t.Helper()
	atoms := make([]atom.Atom, len(vs))
	for i, v := range vs {
		atoms[i] = atom.Integer(v)
	}
	return mustTuple(t, atoms...)
}

// sink is a terminal Node that records every delta it receives, for
// asserting what an operator under test emitted.
type sink struct {
	id      string
	outputs []Node
	deltas  []delta.Delta
}

func newSink(id string) *sink { return &sink{id: id} }

func (s *sink) ID() string       { return s.id }
func (s *sink) Outputs() []Node  { return s.outputs }
func (s *sink) Connect(n Node)   { s.outputs = append(s.outputs, n) }
func (s *sink) OnDeltaReceived(_ Node, d delta.Delta) {
	s.deltas = append(s.deltas, d)
}

func (s *sink) last(t *testing.T) delta.Delta {
	t.Helper()
	if len(s.deltas) == 0 {
		t.Fatal("sink received no deltas")
	}
	return s.deltas[len(s.deltas)-1]
}

func tupleSet(ts []tuple.Tuple) map[string]bool {
	m := map[string]bool{}
	for _, t := range ts {
		m[t.Key()] = true
	}
	return m
}
