// Package batch implements the per-(graph, relation) delta-accumulation
// and transaction layer sitting in front of graphengine: BatchManager
// coalesces incoming deltas with cancellation semantics and, outside a
// transaction, flushes them to the engine immediately; within a
// transaction, flush is suspended until the outermost transaction ends.
package batch

import (
	"sync"

	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
)

// Deliver applies a flushed (graphID, relationName) delta to the engine.
// Errors propagate out of Flush/EndTransaction/Execute unchanged.
type Deliver func(graphID, relationName string, d delta.Delta) error

type key struct {
	graphID      string
	relationName string
}

// BatchManager accumulates pending deltas per (graphId, relationName) and
// hands them to a Deliver callback on flush. A tuple added then removed
// within the same pending batch cancels out via delta.Merge before it ever
// reaches the engine.
type BatchManager struct {
	mu       sync.Mutex
	deliver  Deliver
	pending  map[key]delta.Delta
	txDepth  int
}

// New returns a BatchManager that hands flushed deltas to deliver.
func New(deliver Deliver) *BatchManager {
	return &BatchManager{deliver: deliver, pending: map[key]delta.Delta{}}
}

// AddDelta merges d into the pending batch for (graphID, relationName). If
// no transaction is open, the batch is flushed immediately afterward.
func (b *BatchManager) AddDelta(graphID, relationName string, d delta.Delta) error {
	b.mu.Lock()
	k := key{graphID, relationName}
	b.pending[k] = delta.Merge(b.pending[k], d)
	inTx := b.txDepth > 0
	b.mu.Unlock()

	if inTx {
		return nil
	}
	return b.flushOne(k)
}

func (b *BatchManager) flushOne(k key) error {
	b.mu.Lock()
	d, ok := b.pending[k]
	if !ok || d.IsEmpty() {
		delete(b.pending, k)
		b.mu.Unlock()
		return nil
	}
	delete(b.pending, k)
	b.mu.Unlock()
	return b.deliver(k.graphID, k.relationName, d)
}

// Flush drains and delivers every non-empty pending batch. If graphID is
// non-empty, only batches for that graph are drained.
func (b *BatchManager) Flush(graphID string) error {
	b.mu.Lock()
	var keys []key
	for k, d := range b.pending {
		if d.IsEmpty() {
			continue
		}
		if graphID != "" && k.graphID != graphID {
			continue
		}
		keys = append(keys, k)
	}
	b.mu.Unlock()

	for _, k := range keys {
		if err := b.flushOne(k); err != nil {
			return err
		}
	}
	return nil
}

// BeginTransaction suspends auto-flush. Calls nest by depth counter: only
// the outermost EndTransaction triggers a flush.
func (b *BatchManager) BeginTransaction() {
	b.mu.Lock()
	b.txDepth++
	b.mu.Unlock()
}

// EndTransaction closes one level of transaction nesting, flushing every
// pending batch once the outermost transaction ends. Calling it with no
// open transaction is a State error.
func (b *BatchManager) EndTransaction() error {
	b.mu.Lock()
	if b.txDepth == 0 {
		b.mu.Unlock()
		return diag.State("batch.BatchManager.EndTransaction", "no open transaction")
	}
	b.txDepth--
	outermost := b.txDepth == 0
	b.mu.Unlock()

	if outermost {
		return b.Flush("")
	}
	return nil
}

// rollback discards every currently pending batch and closes one level of
// transaction nesting without flushing. A rollback inside a nested
// transaction discards the enclosing transaction's pending work too: the
// core has no savepoint concept, so "discard pending batches" per §4.13 is
// taken to mean the whole accumulated-but-unflushed set at rollback time.
func (b *BatchManager) rollback() {
	b.mu.Lock()
	b.pending = map[key]delta.Delta{}
	if b.txDepth > 0 {
		b.txDepth--
	}
	b.mu.Unlock()
}

// Execute runs fn inside a transaction: on success, commits (flushing once
// the outermost transaction ends); on error, rolls back (discarding every
// pending batch) and returns fn's error unchanged.
func (b *BatchManager) Execute(fn func() error) error {
	b.BeginTransaction()
	if err := fn(); err != nil {
		b.rollback()
		return err
	}
	return b.EndTransaction()
}

// InTransaction reports whether a transaction is currently open.
func (b *BatchManager) InTransaction() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txDepth > 0
}
