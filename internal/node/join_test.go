package node

import (
	"testing"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// TestJoin_LFTJOnSharedVarScenario implements spec scenario 4:
// users(uid, name), orders(oid, uid, amt), natural join on uid.
func TestJoin_LFTJOnSharedVarScenario(t *testing.T) {
	spec := AtomSpec{Vars: []VarSpec{
		{Name: "uid", Mentions: map[int]int{0: 0, 1: 1}},
		{Name: "name", Mentions: map[int]int{0: 1}},
		{Name: "oid", Mentions: map[int]int{1: 0}},
		{Name: "amt", Mentions: map[int]int{1: 2}},
	}}
	j := NewJoin("j", 2, spec)
	users := NewScan("users", "users", 2, false)
	orders := NewScan("orders", "orders", 3, false)
	j.SetInput(0, users)
	j.SetInput(1, orders)
	users.Connect(j)
	orders.Connect(j)
	out := newSink("out")
	j.Connect(out)

	userRow := func(uid int32, name string) tuple.Tuple { return mustTuple(t, atom.Integer(uid), atom.String(name)) }
	orderRow := func(oid string, uid int32, amt int32) tuple.Tuple {
		return mustTuple(t, atom.ID(oid), atom.Integer(uid), atom.Integer(amt))
	}

	users.Apply(delta.New([]tuple.Tuple{userRow(1, "A"), userRow(2, "B")}, nil))
	orders.Apply(delta.New([]tuple.Tuple{orderRow("o1", 1, 10), orderRow("o2", 1, 20), orderRow("o3", 2, 30)}, nil))

	got := out.last(t)
	if len(got.Adds) != 3 {
		t.Fatalf("expected 3 joined tuples, got %d", len(got.Adds))
	}
	want := tupleSet([]tuple.Tuple{
		mustTuple(t, atom.Integer(1), atom.String("A"), atom.ID("o1"), atom.Integer(10)),
		mustTuple(t, atom.Integer(1), atom.String("A"), atom.ID("o2"), atom.Integer(20)),
		mustTuple(t, atom.Integer(2), atom.String("B"), atom.ID("o3"), atom.Integer(30)),
	})
	for _, a := range got.AddsSlice() {
		if !want[a.Key()] {
			t.Errorf("unexpected joined tuple %v", a)
		}
	}

	users.Apply(delta.New(nil, []tuple.Tuple{userRow(1, "A")}))
	got = out.last(t)
	if len(got.Removes) != 2 {
		t.Fatalf("expected 2 removes after deleting uid=1 from users, got %d", len(got.Removes))
	}

	users.Apply(delta.New([]tuple.Tuple{userRow(1, "A")}, nil))
	got = out.last(t)
	if len(got.Adds) != 2 {
		t.Fatalf("expected 2 adds after re-inserting uid=1, got %d", len(got.Adds))
	}
}

func TestJoin_ResetClearsInputTriesAndResults(t *testing.T) {
	spec := AtomSpec{Vars: []VarSpec{
		{Name: "uid", Mentions: map[int]int{0: 0, 1: 1}},
		{Name: "name", Mentions: map[int]int{0: 1}},
		{Name: "oid", Mentions: map[int]int{1: 0}},
	}}
	j := NewJoin("j", 2, spec)
	users := NewScan("users", "users", 2, false)
	orders := NewScan("orders", "orders", 2, false)
	j.SetInput(0, users)
	j.SetInput(1, orders)
	users.Connect(j)
	orders.Connect(j)
	j.Connect(newSink("out"))

	userRow := func(uid int32, name string) tuple.Tuple { return mustTuple(t, atom.Integer(uid), atom.String(name)) }
	orderRow := func(oid string, uid int32) tuple.Tuple { return mustTuple(t, atom.ID(oid), atom.Integer(uid)) }
	users.Apply(delta.New([]tuple.Tuple{userRow(1, "A")}, nil))
	orders.Apply(delta.New([]tuple.Tuple{orderRow("o1", 1)}, nil))

	if len(j.Materialized()) != 1 {
		t.Fatalf("expected 1 joined tuple before Reset, got %d", len(j.Materialized()))
	}

	j.Reset()

	if len(j.Materialized()) != 0 {
		t.Errorf("expected empty result set after Reset, got %v", j.Materialized())
	}
	for i, tr := range j.inputTries {
		if len(tr.Tuples()) != 0 {
			t.Errorf("expected input trie %d cleared after Reset, got %v", i, tr.Tuples())
		}
	}
}

func TestNewJoin_MissingAtomSpecPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a join with no variables")
		}
	}()
	NewJoin("j", 2, AtomSpec{})
}
