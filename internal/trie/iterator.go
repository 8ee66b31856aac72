package trie

import (
	"sort"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
)

// LevelIterator is the LFTJ cursor: opened on a (trie, level, prefix), it
// yields the atoms that extend prefix at level in ascending order. It is
// single-pass and forward-only; Next and SeekGE on an exhausted cursor are
// no-ops.
//
// The iterator snapshots the sorted atom slice at open time rather than
// re-reading the trie on every call — the engine forbids concurrent
// modification of an input trie during an LFTJ scan (§5), so the snapshot
// is always consistent for the scan's duration.
type LevelIterator struct {
	atoms []atom.Atom
	pos   int
}

// NewLevelIterator opens a cursor over trie at level under prefix. level
// must equal len(prefix).
func NewLevelIterator(t *Trie, level int, prefix []atom.Atom) (*LevelIterator, error) {
	atoms, err := t.SortedAtomsAt(level, prefix)
	if err != nil {
		return nil, err
	}
	return &LevelIterator{atoms: atoms}, nil
}

// AtEnd reports whether the cursor has been exhausted.
func (it *LevelIterator) AtEnd() bool { return it.pos >= len(it.atoms) }

// Key returns the atom the cursor currently points at. Calling Key on an
// exhausted cursor is an invariant violation — callers must check AtEnd
// first.
func (it *LevelIterator) Key() atom.Atom {
	if it.AtEnd() {
		diag.Invariant("trie.LevelIterator.Key", "Key called on an exhausted cursor")
	}
	return it.atoms[it.pos]
}

// Next advances the cursor by one position. A no-op once AtEnd.
func (it *LevelIterator) Next() {
	if it.AtEnd() {
		return
	}
	it.pos++
}

// SeekGE repositions the cursor to the least atom >= a. If no such atom
// exists the cursor transitions to AtEnd. A no-op once AtEnd.
func (it *LevelIterator) SeekGE(a atom.Atom) {
	if it.AtEnd() {
		return
	}
	// atoms[pos:] is already ascending; only search forward, never backward —
	// seekGE never rewinds a forward-only cursor.
	rest := it.atoms[it.pos:]
	offset := sort.Search(len(rest), func(i int) bool {
		return rest[i].Compare(a) >= 0
	})
	it.pos += offset
}

// IteratorFactory maps a registered relation name to its backing Trie and
// produces LevelIterators by name, the shape the LFTJ join node uses to
// open one cursor per input relation that mentions a join variable.
type IteratorFactory struct {
	tries map[string]*Trie
}

// NewIteratorFactory returns an empty factory.
func NewIteratorFactory() *IteratorFactory {
	return &IteratorFactory{tries: map[string]*Trie{}}
}

// Register associates name with t, replacing any prior association.
func (f *IteratorFactory) Register(name string, t *Trie) { f.tries[name] = t }

// Trie returns the trie registered under name, or nil if none.
func (f *IteratorFactory) Trie(name string) *Trie { return f.tries[name] }

// NewIterator opens a LevelIterator over the trie registered under name.
// Unknown names fail with a Configuration error.
func (f *IteratorFactory) NewIterator(name string, level int, prefix []atom.Atom) (*LevelIterator, error) {
	t, ok := f.tries[name]
	if !ok {
		return nil, diag.Configuration("trie.IteratorFactory.NewIterator", "unknown relation %q", name)
	}
	return NewLevelIterator(t, level, prefix)
}
