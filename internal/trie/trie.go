// Package trie implements the level-ordered prefix index over tuples that
// every Scan node owns and every LFTJ join scans through a LevelIterator.
//
// Each level is an ordered mapping keyed by atom, implemented as a slice
// kept sorted by atom.Atom.Compare and searched by binary search rather
// than a language map, so that child iteration is already in ascending
// Atom order with no extra sort step — see SPEC_FULL.md §9 Design Notes, "Trie shape".
package trie

import (
	"sort"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

type child struct {
	atom atom.Atom
	node *node
}

// node is one level's entry: either an intermediate node (children populated,
// count always 0) or a terminal node at depth == arity (count is the
// tuple's reference count, children always empty).
type node struct {
	children []child
	count    int
}

func (n *node) search(a atom.Atom) (idx int, found bool) {
	idx = sort.Search(len(n.children), func(i int) bool {
		return n.children[i].atom.Compare(a) >= 0
	})
	found = idx < len(n.children) && n.children[idx].atom.Compare(a) == 0
	return idx, found
}

func (n *node) childAt(idx int) *node { return n.children[idx].node }

// insert recurses one atom per call; when atoms is exhausted, n is the
// terminal node for the full tuple and its count is incremented.
func (n *node) insert(atoms []atom.Atom) {
	if len(atoms) == 0 {
		n.count++
		return
	}
	a := atoms[0]
	idx, found := n.search(a)
	var c *node
	if found {
		c = n.childAt(idx)
	} else {
		c = &node{}
		n.children = append(n.children, child{})
		copy(n.children[idx+1:], n.children[idx:])
		n.children[idx] = child{atom: a, node: c}
	}
	c.insert(atoms[1:])
}

// remove recurses symmetrically to insert, reporting whether n itself
// became empty (no children and a zero count) so the caller can unlink n
// from its own parent — this is how deleting the last child at a level
// removes the parent's entry, bottom-up.
func (n *node) remove(op string, atoms []atom.Atom) bool {
	if len(atoms) == 0 {
		if n.count <= 0 {
			diag.Invariant(op, "leaf ref count would go negative")
		}
		n.count--
		return n.count == 0 && len(n.children) == 0
	}
	a := atoms[0]
	idx, found := n.search(a)
	if !found {
		diag.Invariant(op, "remove of tuple not present in trie")
	}
	c := n.childAt(idx)
	if c.remove(op, atoms[1:]) {
		n.children = append(n.children[:idx], n.children[idx+1:]...)
	}
	return n.count == 0 && len(n.children) == 0
}

// walk follows prefix from n, returning the node reached, or nil if the
// prefix is not present.
func (n *node) walk(prefix []atom.Atom) *node {
	cur := n
	for _, a := range prefix {
		idx, found := cur.search(a)
		if !found {
			return nil
		}
		cur = cur.childAt(idx)
	}
	return cur
}

// Trie is a level-ordered prefix index over tuples of a fixed arity.
type Trie struct {
	arity int
	root  *node
}

// New creates an empty Trie for tuples of the given arity.
func New(arity int) *Trie {
	return &Trie{arity: arity, root: &node{}}
}

// Arity returns the tuple arity this trie indexes.
func (t *Trie) Arity() int { return t.arity }

func (t *Trie) checkArity(op string, tp tuple.Tuple) error {
	if tp.Arity() != t.arity {
		return diag.Shape(op, "tuple arity %d does not match trie arity %d", tp.Arity(), t.arity)
	}
	return nil
}

// Insert adds tp to the trie, incrementing its leaf reference count if
// already present.
func (t *Trie) Insert(tp tuple.Tuple) error {
	if err := t.checkArity("trie.Insert", tp); err != nil {
		return err
	}
	t.root.insert(tp.Atoms())
	return nil
}

// Remove decrements tp's leaf reference count, unlinking it from every
// level bottom-up once the count reaches zero. Removing a tuple not
// present is an invariant violation (ref count going negative).
func (t *Trie) Remove(tp tuple.Tuple) error {
	if err := t.checkArity("trie.Remove", tp); err != nil {
		return err
	}
	t.root.remove("trie.Remove", tp.Atoms())
	return nil
}

// Clear empties the trie.
func (t *Trie) Clear() { t.root = &node{} }

// HasPrefix reports whether any tuple in the trie starts with prefix,
// which must name atoms for levels 0..len(prefix)-1.
func (t *Trie) HasPrefix(prefix []atom.Atom) bool {
	return t.root.walk(prefix) != nil
}

// SortedAtomsAt returns the atoms that extend prefix at the given level, in
// strictly ascending Atom order. level must equal len(prefix).
func (t *Trie) SortedAtomsAt(level int, prefix []atom.Atom) ([]atom.Atom, error) {
	if level != len(prefix) {
		return nil, diag.Shape("trie.SortedAtomsAt", "level %d does not match prefix length %d", level, len(prefix))
	}
	if level < 0 || level >= t.arity {
		return nil, diag.Shape("trie.SortedAtomsAt", "level %d out of range for arity %d", level, t.arity)
	}
	n := t.root.walk(prefix)
	if n == nil {
		return nil, nil
	}
	out := make([]atom.Atom, len(n.children))
	for i, c := range n.children {
		out[i] = c.atom
	}
	return out, nil
}

// PrefixesAt returns every distinct prefix of the given length present in
// the trie, each as an atom slice, in ascending lexicographic order over
// the atom sequence.
func (t *Trie) PrefixesAt(level int) ([][]atom.Atom, error) {
	if level < 0 || level > t.arity {
		return nil, diag.Shape("trie.PrefixesAt", "level %d out of range for arity %d", level, t.arity)
	}
	var out [][]atom.Atom
	var walk func(n *node, depth int, prefix []atom.Atom)
	walk = func(n *node, depth int, prefix []atom.Atom) {
		if depth == level {
			cp := make([]atom.Atom, len(prefix))
			copy(cp, prefix)
			out = append(out, cp)
			return
		}
		for _, c := range n.children {
			walk(c.node, depth+1, append(prefix, c.atom))
		}
	}
	walk(t.root, 0, nil)
	return out, nil
}

// Contains reports whether tp has a positive reference count in the trie.
func (t *Trie) Contains(tp tuple.Tuple) bool {
	if tp.Arity() != t.arity {
		return false
	}
	n := t.root.walk(tp.Atoms())
	return n != nil && n.count > 0
}

// Tuples returns every distinct full-arity tuple currently stored, in no
// particular order. Intended for small materialized views (Scan's
// "maintain current set" mode, output snapshots) rather than hot paths.
func (t *Trie) Tuples() []tuple.Tuple {
	var out []tuple.Tuple
	var walk func(n *node, depth int, atoms []atom.Atom)
	walk = func(n *node, depth int, atoms []atom.Atom) {
		if depth == t.arity {
			if n.count > 0 {
				tp, err := tuple.New(atoms...)
				if err == nil {
					out = append(out, tp)
				}
			}
			return
		}
		for _, c := range n.children {
			walk(c.node, depth+1, append(atoms, c.atom))
		}
	}
	walk(t.root, 0, nil)
	return out
}
