package engine

import (
	"testing"

	"github.com/mrechner/lftj-engine/internal/schema"
)

func testUsersSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.New(
		schema.Attribute{Name: "uid", Type: schema.Integer},
		schema.Attribute{Name: "tag", Type: schema.Any},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func TestCoerceRow_PositionalSlice(t *testing.T) {
	s := testUsersSchema(t)
	tp, err := coerceRow(s, []any{1, "hello"})
	if err != nil {
		t.Fatalf("coerceRow: %v", err)
	}
	if tp.Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", tp.Arity())
	}
}

func TestCoerceRow_NamedMap(t *testing.T) {
	s := testUsersSchema(t)
	tp, err := coerceRow(s, map[string]any{"uid": 1, "tag": ":pending"})
	if err != nil {
		t.Fatalf("coerceRow: %v", err)
	}
	if tp.Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", tp.Arity())
	}
}

func TestCoerceRow_NamedMapMissingAttributeFails(t *testing.T) {
	s := testUsersSchema(t)
	if _, err := coerceRow(s, map[string]any{"uid": 1}); err == nil {
		t.Fatal("expected an error for a row missing a declared attribute")
	}
}

func TestCoerceRow_ArityMismatchFails(t *testing.T) {
	s := testUsersSchema(t)
	if _, err := coerceRow(s, []any{1}); err == nil {
		t.Fatal("expected an error for a row with too few values")
	}
}

func TestCoerceRow_UnsupportedShapeFails(t *testing.T) {
	s := testUsersSchema(t)
	if _, err := coerceRow(s, 42); err == nil {
		t.Fatal("expected an error for a row that is neither []any, map[string]any, nor tuple.Tuple")
	}
}

func TestInferSchema_PositionalSliceUsesColumnNames(t *testing.T) {
	s, err := inferSchema([]any{1, "x", true})
	if err != nil {
		t.Fatalf("inferSchema: %v", err)
	}
	if s.Arity() != 3 || s.NameAt(0) != "c0" || s.NameAt(2) != "c2" {
		t.Fatalf("unexpected inferred schema: %s", s)
	}
}

func TestInferSchema_MapUsesSortedKeys(t *testing.T) {
	s, err := inferSchema(map[string]any{"z": 1, "a": 2})
	if err != nil {
		t.Fatalf("inferSchema: %v", err)
	}
	if s.Arity() != 2 || s.NameAt(0) != "a" || s.NameAt(1) != "z" {
		t.Fatalf("expected sorted attribute names, got %s", s)
	}
}
