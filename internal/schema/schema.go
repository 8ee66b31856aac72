// Package schema implements the named, typed arity attached to a relation:
// an ordered list of (name, type) attributes with unique names and a
// projection operation that preserves the order of the requested subset.
package schema

import (
	"fmt"
	"strings"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
)

// Type names an attribute's expected Atom kind, or Any for a pass-through
// attribute with no runtime check (the source design's default; see
// DESIGN.md, "Any vs. strict typing").
type Type int

const (
	Any Type = iota
	Boolean
	Integer
	Float
	String
	Symbol
	ID
)

func (t Type) String() string {
	switch t {
	case Any:
		return "any"
	case Boolean:
		return "Boolean"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case String:
		return "String"
	case Symbol:
		return "Symbol"
	case ID:
		return "ID"
	default:
		return "unknown"
	}
}

// ParseType resolves a case-sensitive type name (as used in a relation
// manifest or the engine's defineRelation) to a Type. "any" (lowercase, by
// convention) resolves to Any.
func ParseType(name string) (Type, error) {
	switch name {
	case "any", "":
		return Any, nil
	case "Boolean":
		return Boolean, nil
	case "Integer":
		return Integer, nil
	case "Float":
		return Float, nil
	case "String":
		return String, nil
	case "Symbol":
		return Symbol, nil
	case "ID":
		return ID, nil
	default:
		return Any, diag.Configuration("schema.ParseType", "unknown attribute type %q", name)
	}
}

// atomKind reports the Type's corresponding atom.Kind and whether one
// exists (Any has none).
func (t Type) atomKind() (atom.Kind, bool) {
	switch t {
	case Boolean:
		return atom.KindBoolean, true
	case Integer:
		return atom.KindInteger, true
	case Float:
		return atom.KindFloat, true
	case String:
		return atom.KindString, true
	case Symbol:
		return atom.KindSymbol, true
	case ID:
		return atom.KindID, true
	default:
		return 0, false
	}
}

// Attribute is a single named, typed column of a Schema.
type Attribute struct {
	Name string
	Type Type
}

// Schema is an ordered sequence of uniquely-named, typed attributes.
type Schema struct {
	attrs   []Attribute
	index   map[string]int
	strict  bool
}

// New builds a Schema from the given attributes in order. Duplicate names
// fail with a Configuration error.
func New(attrs ...Attribute) (Schema, error) {
	index := make(map[string]int, len(attrs))
	for i, a := range attrs {
		if _, ok := index[a.Name]; ok {
			return Schema{}, diag.Configuration("schema.New", "duplicate attribute name %q", a.Name)
		}
		index[a.Name] = i
	}
	cp := make([]Attribute, len(attrs))
	copy(cp, attrs)
	return Schema{attrs: cp, index: index}, nil
}

// WithStrict returns a copy of s with strict type-checking enabled: Validate
// rejects an atom whose kind does not match its attribute's declared Type.
// Any attributes remain pass-through regardless of strictness.
func (s Schema) WithStrict(strict bool) Schema {
	s.strict = strict
	return s
}

// Strict reports whether s enforces declared attribute types on Validate.
func (s Schema) Strict() bool { return s.strict }

// Arity returns the number of attributes.
func (s Schema) Arity() int { return len(s.attrs) }

// Attributes returns a defensive copy of the schema's attributes in order.
func (s Schema) Attributes() []Attribute {
	cp := make([]Attribute, len(s.attrs))
	copy(cp, s.attrs)
	return cp
}

// IndexOf returns the position of the named attribute, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// NameAt returns the attribute name at position i.
func (s Schema) NameAt(i int) string { return s.attrs[i].Name }

// TypeAt returns the declared type at position i.
func (s Schema) TypeAt(i int) Type { return s.attrs[i].Type }

// ProjectIndices resolves a list of attribute names to their positions, in
// the order given, for use with tuple.Project. Unknown names fail with a
// Shape error.
func (s Schema) ProjectIndices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		idx, ok := s.index[name]
		if !ok {
			return nil, diag.Shape("schema.ProjectIndices", "unknown attribute %q", name)
		}
		out[i] = idx
	}
	return out, nil
}

// Project returns the sub-schema naming only the given attributes, in the
// order requested — the schema-level counterpart of Tuple.Project.
func (s Schema) Project(names []string) (Schema, error) {
	out := make([]Attribute, len(names))
	for i, name := range names {
		idx, ok := s.index[name]
		if !ok {
			return Schema{}, diag.Shape("schema.Project", "unknown attribute %q", name)
		}
		out[i] = s.attrs[idx]
	}
	return New(out...)
}

// Rename returns a copy of s with attribute names replaced positionally by
// newNames (same arity, same types, new names).
func (s Schema) Rename(newNames []string) (Schema, error) {
	if len(newNames) != len(s.attrs) {
		return Schema{}, diag.Shape("schema.Rename", "got %d names for arity %d", len(newNames), len(s.attrs))
	}
	out := make([]Attribute, len(s.attrs))
	for i, n := range newNames {
		out[i] = Attribute{Name: n, Type: s.attrs[i].Type}
	}
	return New(out...)
}

// Validate checks that len(kinds) matches s's arity and, if s is strict,
// that each kind matches its attribute's declared Type (Any attributes are
// always pass-through).
func (s Schema) Validate(kinds []atom.Kind) error {
	if len(kinds) != len(s.attrs) {
		return diag.Shape("schema.Validate", "arity %d does not match schema arity %d", len(kinds), len(s.attrs))
	}
	if !s.strict {
		return nil
	}
	for i, k := range kinds {
		want, ok := s.attrs[i].Type.atomKind()
		if !ok {
			continue // Any
		}
		if k != want {
			return diag.Shape("schema.Validate", "attribute %q expects %s, got %s", s.attrs[i].Name, s.attrs[i].Type, k)
		}
	}
	return nil
}

func (s Schema) String() string {
	parts := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		parts[i] = fmt.Sprintf("%s:%s", a.Name, a.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
