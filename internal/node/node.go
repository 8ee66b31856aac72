// Package node implements the operator node contract and the seven
// relational operators (Scan, Project, Union, Diff, Rename, Join, Compute)
// that a QueryGraph wires into a dataflow.
//
// A node's state changes only when it processes a delta (OnDeltaReceived,
// Scan.Apply, or a Compute node's provider pull) or is Reset, and it always
// emits a normalized delta to its outputs; an empty delta is never
// propagated.
package node

import "github.com/mrechner/lftj-engine/internal/delta"

// Node is a graph vertex: a stable id, a set of outputs, and the single
// entry point through which it learns of upstream changes.
type Node interface {
	ID() string
	Outputs() []Node
	Connect(out Node)

	// OnDeltaReceived is called once per upstream delta. source identifies
	// which input it arrived on — operators with more than one input (Diff,
	// Join) use it to dispatch; operators with a single logical input
	// ignore it.
	OnDeltaReceived(source Node, d delta.Delta)
}

// Resettable is implemented by every node type that holds mutable state
// (everything but Rename, which is stateless). QueryGraph.ResetNodes uses it
// to clear a graph's operators back to empty without rebuilding the graph.
type Resettable interface {
	Reset()
}

// base implements the id/outputs/Connect bookkeeping every operator shares.
type base struct {
	id      string
	outputs []Node
}

func newBase(id string) base { return base{id: id} }

func (b *base) ID() string      { return b.id }
func (b *base) Outputs() []Node { return append([]Node(nil), b.outputs...) }
func (b *base) Connect(out Node) {
	b.outputs = append(b.outputs, out)
}

// emit forwards d to every output, tagging self as the source. Empty
// deltas are dropped rather than propagated, per §4.10.
func (b *base) emit(self Node, d delta.Delta) {
	if d.IsEmpty() {
		return
	}
	for _, out := range b.outputs {
		out.OnDeltaReceived(self, d)
	}
}
