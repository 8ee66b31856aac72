package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/schema"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// inferSchema builds an all-Any schema for a relation seen for the first
// time via an auto-registering Insert/Delete, from the shape of its first
// row. A tuple.Tuple or []any row yields positionally-named attributes
// ("c0", "c1", ...); a map[string]any row yields one attribute per key, in
// sorted order (a map has no inherent order, so this is the only
// deterministic choice available).
func inferSchema(row any) (schema.Schema, error) {
	switch v := row.(type) {
	case tuple.Tuple:
		return anySchema(v.Arity()), nil
	case []any:
		return anySchema(len(v)), nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		attrs := make([]schema.Attribute, len(names))
		for i, name := range names {
			attrs[i] = schema.Attribute{Name: name, Type: schema.Any}
		}
		s, err := schema.New(attrs...)
		if err != nil {
			return schema.Schema{}, err
		}
		return s, nil
	default:
		return schema.Schema{}, diag.Configuration("engine.inferSchema", "row must be []any, map[string]any, or tuple.Tuple, got %T", row)
	}
}

func anySchema(arity int) schema.Schema {
	attrs := make([]schema.Attribute, arity)
	for i := range attrs {
		attrs[i] = schema.Attribute{Name: fmt.Sprintf("c%d", i), Type: schema.Any}
	}
	s, _ := schema.New(attrs...) // positional names are always unique
	return s
}

// coerceRow turns one caller-supplied row into a tuple validated against s.
// A row is one of: a positional []any of raw values (in schema order), a
// named map[string]any keyed by attribute name, or a pre-built
// tuple.Tuple passed through unchanged (arity-checked only).
func coerceRow(s schema.Schema, row any) (tuple.Tuple, error) {
	switch v := row.(type) {
	case tuple.Tuple:
		if v.Arity() != s.Arity() {
			return tuple.Tuple{}, diag.Shape("engine.coerceRow", "tuple arity %d does not match relation arity %d", v.Arity(), s.Arity())
		}
		return v, nil
	case []any:
		if len(v) != s.Arity() {
			return tuple.Tuple{}, diag.Shape("engine.coerceRow", "row has %d values, relation arity is %d", len(v), s.Arity())
		}
		atoms := make([]atom.Atom, len(v))
		for i, raw := range v {
			a, err := coerceValue(s.TypeAt(i), raw)
			if err != nil {
				return tuple.Tuple{}, diag.ShapeWrap("engine.coerceRow", err, "attribute %q", s.NameAt(i))
			}
			atoms[i] = a
		}
		return tuple.New(atoms...)
	case map[string]any:
		atoms := make([]atom.Atom, s.Arity())
		for i := 0; i < s.Arity(); i++ {
			name := s.NameAt(i)
			raw, ok := v[name]
			if !ok {
				return tuple.Tuple{}, diag.Configuration("engine.coerceRow", "row is missing attribute %q", name)
			}
			a, err := coerceValue(s.TypeAt(i), raw)
			if err != nil {
				return tuple.Tuple{}, diag.ShapeWrap("engine.coerceRow", err, "attribute %q", name)
			}
			atoms[i] = a
		}
		return tuple.New(atoms...)
	default:
		return tuple.Tuple{}, diag.Configuration("engine.coerceRow", "row must be []any, map[string]any, or tuple.Tuple, got %T", row)
	}
}

// coerceValue converts one raw runtime value to an Atom per the attribute's
// declared type, or (for an Any attribute) by inspecting the runtime value's
// own Go type: bool -> Boolean, an integer-valued number -> Integer, any
// other number -> Float, a string starting with ":" -> Symbol, else ->
// String.
func coerceValue(t schema.Type, v any) (atom.Atom, error) {
	if a, ok := v.(atom.Atom); ok {
		return a, nil
	}
	switch t {
	case schema.Boolean:
		b, ok := v.(bool)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected a bool, got %T", v)
		}
		return atom.Boolean(b), nil
	case schema.Integer:
		i, ok := asInt32(v)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected an integer-valued number, got %T", v)
		}
		return atom.Integer(i), nil
	case schema.Float:
		f, ok := asFloat64(v)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected a number, got %T", v)
		}
		return atom.Float(f), nil
	case schema.String:
		s, ok := v.(string)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected a string, got %T", v)
		}
		return atom.String(s), nil
	case schema.Symbol:
		s, ok := v.(string)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected a string, got %T", v)
		}
		a, err := atom.Symbol(s)
		if err != nil {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "%v", err)
		}
		return a, nil
	case schema.ID:
		s, ok := v.(string)
		if !ok {
			return atom.Atom{}, diag.Configuration("engine.coerceValue", "expected a string, got %T", v)
		}
		return atom.ID(s), nil
	default: // schema.Any
		return coerceAny(v)
	}
}

func coerceAny(v any) (atom.Atom, error) {
	switch x := v.(type) {
	case bool:
		return atom.Boolean(x), nil
	case string:
		if strings.HasPrefix(x, ":") {
			a, err := atom.Symbol(x)
			if err != nil {
				return atom.Atom{}, diag.Configuration("engine.coerceAny", "%v", err)
			}
			return a, nil
		}
		return atom.String(x), nil
	default:
		if i, ok := asInt32(v); ok {
			return atom.Integer(i), nil
		}
		if f, ok := asFloat64(v); ok {
			return atom.Float(f), nil
		}
		return atom.Atom{}, diag.Configuration("engine.coerceAny", "cannot coerce value of type %T to an atom", v)
	}
}

// asInt32 reports whether v is a number with no fractional part that fits
// in a 32-bit signed integer, returning it as int32.
func asInt32(v any) (int32, bool) {
	switch x := v.(type) {
	case int:
		if int64(x) == int64(int32(x)) {
			return int32(x), true
		}
	case int32:
		return x, true
	case int64:
		if x == int64(int32(x)) {
			return int32(x), true
		}
	case float64:
		if x == float64(int32(x)) {
			return int32(x), true
		}
	case float32:
		if float64(x) == float64(int32(x)) {
			return int32(x), true
		}
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
