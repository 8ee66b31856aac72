// Package tuple implements the engine's immutable ordered vector of atoms —
// the unit of data carried by every delta, trie, and operator node.
package tuple

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
)

// MaxArity is the largest arity a Tuple may have; the canonical encoding
// reserves a single byte for arity.
const MaxArity = 255

// Tuple is an immutable ordered sequence of atoms.
type Tuple struct {
	atoms []atom.Atom
}

// New constructs a Tuple from the given atoms. The slice is copied so the
// caller's backing array can be reused without aliasing the Tuple.
func New(atoms ...atom.Atom) (Tuple, error) {
	if len(atoms) > MaxArity {
		return Tuple{}, diag.Shape("tuple.New", "arity %d exceeds max %d", len(atoms), MaxArity)
	}
	cp := make([]atom.Atom, len(atoms))
	copy(cp, atoms)
	return Tuple{atoms: cp}, nil
}

// Arity returns the number of atoms in the tuple.
func (t Tuple) Arity() int { return len(t.atoms) }

// At returns the atom at position i.
func (t Tuple) At(i int) atom.Atom { return t.atoms[i] }

// Atoms returns a defensive copy of the tuple's atoms in order.
func (t Tuple) Atoms() []atom.Atom {
	cp := make([]atom.Atom, len(t.atoms))
	copy(cp, t.atoms)
	return cp
}

// Project returns a new tuple containing only the atoms at the given
// indices, in the order the indices are given.
func (t Tuple) Project(indices []int) (Tuple, error) {
	out := make([]atom.Atom, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.atoms) {
			return Tuple{}, diag.Shape("tuple.Project", "index %d out of range for arity %d", idx, len(t.atoms))
		}
		out[i] = t.atoms[idx]
	}
	return Tuple{atoms: out}, nil
}

// Compare returns -1, 0, or 1 comparing two tuples of equal arity
// componentwise under Atom order. Tuples of unequal arity compare by
// arity first (shorter precedes longer), matching their encoded length
// prefix.
func (t Tuple) Compare(o Tuple) int {
	if len(t.atoms) != len(o.atoms) {
		if len(t.atoms) < len(o.atoms) {
			return -1
		}
		return 1
	}
	for i := range t.atoms {
		if c := t.atoms[i].Compare(o.atoms[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether t and o have the same arity and equal atoms
// pairwise.
func (t Tuple) Equal(o Tuple) bool { return t.Compare(o) == 0 }

// Bytes returns the canonical encoding: a 1-byte arity followed by each
// atom's canonical encoding in order. Byte-lexicographic comparison of two
// equal-arity tuples' Bytes() agrees with Compare for fixed-width atom
// kinds; see atom.Atom.Bytes.
func (t Tuple) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(t.atoms)))
	for _, a := range t.atoms {
		buf.Write(a.Bytes())
	}
	return buf.Bytes()
}

// Key returns a string usable as a map key that uniquely identifies the
// tuple's value (built from its canonical encoding). Two tuples with Key()
// equal are Equal.
func (t Tuple) Key() string { return string(t.Bytes()) }

func (t Tuple) String() string {
	parts := make([]string, len(t.atoms))
	for i, a := range t.atoms {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// GoString supports %#v-style debug printing.
func (t Tuple) GoString() string { return fmt.Sprintf("tuple.Tuple%s", t.String()) }
