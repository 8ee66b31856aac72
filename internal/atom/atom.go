// Package atom implements the engine's typed scalar value — the leaf unit
// every Tuple, Trie level, and LevelIterator operates over.
//
// Atom is a tagged variant over six kinds (Boolean, Integer, Float, String,
// Symbol, ID) rather than an interface with per-kind implementations: this
// keeps comparison and canonical encoding branch-free hot paths instead of
// virtual dispatch, matching the source design's "typed sum over values"
// note. Atoms are immutable once constructed and safe to share across every
// data structure that references them.
package atom

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mrechner/lftj-engine/internal/diag"
)

// Kind identifies an Atom's variant. Values are assigned 0x01..0x06 in
// variant-precedence order so the 1-byte type tag at the front of every
// canonical encoding sorts the same way the variants themselves do.
type Kind uint8

const (
	KindBoolean Kind = 0x01
	KindInteger Kind = 0x02
	KindFloat   Kind = 0x03
	KindString  Kind = 0x04
	KindSymbol  Kind = 0x05
	KindID      Kind = 0x06
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindSymbol:
		return "Symbol"
	case KindID:
		return "ID"
	default:
		return "Unknown"
	}
}

// Atom is an immutable, typed scalar value.
type Atom struct {
	kind Kind
	b    bool
	i    int32
	f    float64
	s    string // String / Symbol / ID payload
}

// Boolean constructs a Boolean atom.
func Boolean(v bool) Atom { return Atom{kind: KindBoolean, b: v} }

// Integer constructs an Integer atom over the signed 32-bit range.
func Integer(v int32) Atom { return Atom{kind: KindInteger, i: v} }

// Float constructs a Float atom over an IEEE-754 double.
func Float(v float64) Atom { return Atom{kind: KindFloat, f: v} }

// String constructs a String atom. The payload is normalized to Unicode
// NFC so that two byte-distinct encodings of the same logical text (e.g. a
// precomposed vs. a combining-mark sequence) compare and hash identically —
// see SPEC_FULL.md §3 Supplement.
func String(v string) Atom { return Atom{kind: KindString, s: normalizeText(v)} }

// Symbol constructs a Symbol atom. Its first character must be ':'.
func Symbol(v string) (Atom, error) {
	if !strings.HasPrefix(v, ":") {
		return Atom{}, diag.Shape("atom.Symbol", "symbol %q must start with ':'", v)
	}
	return Atom{kind: KindSymbol, s: normalizeText(v)}, nil
}

// MustSymbol is like Symbol but panics on error; for use with literal,
// compile-time-known symbol values.
func MustSymbol(v string) Atom {
	a, err := Symbol(v)
	if err != nil {
		panic(err)
	}
	return a
}

// ID constructs an opaque string-identifier atom. Unlike String, an ID's
// bytes are never normalized — identifiers are treated as already-canonical
// opaque tokens (primary keys, UUIDs) where silently rewriting bytes could
// change which external record the token refers to.
func ID(v string) Atom { return Atom{kind: KindID, s: v} }

func normalizeText(v string) string { return norm.NFC.String(v) }

// Kind returns the atom's variant.
func (a Atom) Kind() Kind { return a.kind }

// AsBool returns the Boolean payload and true iff a is a Boolean atom.
func (a Atom) AsBool() (bool, bool) { return a.b, a.kind == KindBoolean }

// AsInt32 returns the Integer payload and true iff a is an Integer atom.
func (a Atom) AsInt32() (int32, bool) { return a.i, a.kind == KindInteger }

// AsFloat64 returns the Float payload and true iff a is a Float atom.
func (a Atom) AsFloat64() (float64, bool) { return a.f, a.kind == KindFloat }

// AsString returns the string payload and true iff a is String, Symbol, or ID.
func (a Atom) AsString() (string, bool) {
	switch a.kind {
	case KindString, KindSymbol, KindID:
		return a.s, true
	default:
		return "", false
	}
}

// Equal reports structural equality: same variant and same value.
func (a Atom) Equal(b Atom) bool {
	return a.Compare(b) == 0
}

// Compare returns -1, 0, or 1 per the total order: variant precedence
// Boolean < Integer < Float < String < Symbol < ID, then variant-specific
// order (false < true; numeric; byte-lexicographic for String/Symbol/ID).
//
// This compares values directly rather than deferring to Bytes() byte-lex
// comparison. For the fixed-width variants the two always agree (Bytes()
// is constructed to be order-preserving, see below). For the
// length-prefixed String/Symbol/ID encoding they can diverge — see
// DESIGN.md's "Atom ordering vs. canonical bytes" entry for why the wire
// format still length-prefixes (unambiguous decoding of a multi-atom
// Tuple) while Compare stays a direct value comparison.
func (a Atom) Compare(b Atom) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindBoolean:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindInteger:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case KindFloat:
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return 1
		default:
			return 0
		}
	default: // String, Symbol, ID
		return strings.Compare(a.s, b.s)
	}
}

// Bytes returns the canonical encoding: a 1-byte type tag followed by a
// fixed-width payload (Boolean, Integer, Float) or a 4-byte big-endian
// length prefix plus the raw UTF-8 bytes (String, Symbol, ID).
//
// The fixed-width payloads are order-preserving under unsigned byte-lex
// comparison (Integer via a sign-flipped two's-complement remap, Float via
// the standard IEEE-754 sortable-bits transform), so for Boolean/Integer/
// Float, byte-lex(Bytes(a), Bytes(b)) always agrees with Compare(a, b).
func (a Atom) Bytes() []byte {
	switch a.kind {
	case KindBoolean:
		buf := make([]byte, 2)
		buf[0] = byte(KindBoolean)
		if a.b {
			buf[1] = 1
		}
		return buf
	case KindInteger:
		buf := make([]byte, 5)
		buf[0] = byte(KindInteger)
		binary.BigEndian.PutUint32(buf[1:], uint32(a.i)^0x80000000)
		return buf
	case KindFloat:
		buf := make([]byte, 9)
		buf[0] = byte(KindFloat)
		bits := math.Float64bits(a.f)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		binary.BigEndian.PutUint64(buf[1:], bits)
		return buf
	default: // String, Symbol, ID
		payload := []byte(a.s)
		buf := make([]byte, 5+len(payload))
		buf[0] = byte(a.kind)
		binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
		copy(buf[5:], payload)
		return buf
	}
}

// String implements fmt.Stringer for debugging/logging; it is not the
// canonical encoding.
func (a Atom) String() string {
	switch a.kind {
	case KindBoolean:
		return fmt.Sprintf("%v", a.b)
	case KindInteger:
		return fmt.Sprintf("%d", a.i)
	case KindFloat:
		return fmt.Sprintf("%g", a.f)
	default:
		return a.s
	}
}
