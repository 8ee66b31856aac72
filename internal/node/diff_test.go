package node

import (
	"testing"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// TestDiff_MultiSupportScenario implements spec scenario 3.
func TestDiff_MultiSupportScenario(t *testing.T) {
	d := NewDiff("d", []int{0})
	left := newSink("left")
	right := newSink("right")
	out := newSink("out")
	d.SetLeft(left)
	d.SetRight(right)
	d.Connect(out)

	lv1 := mustTuple(t, atom.MustSymbol(":k"), atom.MustSymbol(":v1"))
	r1 := mustTuple(t, atom.MustSymbol(":k"), atom.MustSymbol(":r1"))
	r2 := mustTuple(t, atom.MustSymbol(":k"), atom.MustSymbol(":r2"))

	d.OnDeltaReceived(left, delta.New([]tuple.Tuple{lv1}, nil))
	got := out.last(t)
	if len(got.Adds) != 1 {
		t.Fatalf("expected left insert to emit add, got adds=%d", len(got.Adds))
	}

	d.OnDeltaReceived(right, delta.New([]tuple.Tuple{r1}, nil))
	got = out.last(t)
	if len(got.Removes) != 1 {
		t.Fatalf("expected right 0->1 to emit remove once, got removes=%d", len(got.Removes))
	}

	before := len(out.deltas)
	d.OnDeltaReceived(right, delta.New([]tuple.Tuple{r2}, nil))
	if len(out.deltas) != before {
		t.Error("expected no emission adding a second right support for the same key")
	}

	d.OnDeltaReceived(right, delta.New(nil, []tuple.Tuple{r1}))
	if len(out.deltas) != before {
		t.Error("expected no emission while right support remains (r2 still present)")
	}

	d.OnDeltaReceived(right, delta.New(nil, []tuple.Tuple{r2}))
	final := out.last(t)
	if len(final.Adds) != 1 {
		t.Fatalf("expected add emission once right support reaches 0, got adds=%d", len(final.Adds))
	}
}

func TestDiff_ResetClearsLeftSetAndRightSupport(t *testing.T) {
	d := NewDiff("d", []int{0})
	left := newSink("left")
	right := newSink("right")
	d.SetLeft(left)
	d.SetRight(right)
	d.Connect(newSink("out"))

	lv1 := mustTuple(t, atom.MustSymbol(":k"), atom.MustSymbol(":v1"))
	d.OnDeltaReceived(left, delta.New([]tuple.Tuple{lv1}, nil))

	d.Reset()

	if len(d.Materialized()) != 0 {
		t.Errorf("expected empty materialized set after Reset, got %v", d.Materialized())
	}
}

func TestDiff_UnknownSourcePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a delta from an unrecognized source")
		}
	}()
	d := NewDiff("d", []int{0})
	d.SetLeft(newSink("left"))
	d.SetRight(newSink("right"))
	d.OnDeltaReceived(newSink("stranger"), delta.New([]tuple.Tuple{ints(t, 1)}, nil))
}
