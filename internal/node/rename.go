package node

import (
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/schema"
)

// Rename rewrites a passing tuple's schema (variable names) without
// touching tuple bytes; it is stateless and forwards the input delta
// unchanged.
type Rename struct {
	base
	out schema.Schema
}

// NewRename creates a Rename node whose output schema is out.
func NewRename(id string, out schema.Schema) *Rename {
	return &Rename{base: newBase(id), out: out}
}

// Schema returns the node's output schema, queryable for downstream
// binding though it affects no runtime tuple bytes.
func (r *Rename) Schema() schema.Schema { return r.out }

// OnDeltaReceived forwards d unchanged.
func (r *Rename) OnDeltaReceived(_ Node, d delta.Delta) {
	r.emit(r, d)
}
