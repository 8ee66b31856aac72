package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrechner/lftj-engine/internal/schema"
)

func TestLoadRelationsJSONC_ParsesCommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relations.jsonc")
	doc := `[
  // users is the primary identity relation
  {
    "name": "users",
    "strict": true,
    "attributes": [
      {"name": "uid", "type": "Integer"},
      {"name": "name", "type": "String"},
    ],
  },
  {
    "name": "orders",
    "attributes": [
      {"name": "oid", "type": "ID"},
      {"name": "uid", "type": "Integer"},
      {"name": "amt", "type": "Integer"},
    ],
  },
]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	specs, err := LoadRelationsJSONC(path)
	if err != nil {
		t.Fatalf("LoadRelationsJSONC: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 relation specs, got %d", len(specs))
	}
	if specs[0].Name != "users" || !specs[0].Strict {
		t.Errorf("unexpected users spec: %+v", specs[0])
	}
	if len(specs[0].Attributes) != 2 || specs[0].Attributes[1].Type != schema.String {
		t.Errorf("unexpected users attributes: %+v", specs[0].Attributes)
	}
	if specs[1].Name != "orders" || specs[1].Strict {
		t.Errorf("unexpected orders spec: %+v", specs[1])
	}
}

func TestLoadRelationsJSONC_UnknownTypeFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relations.jsonc")
	doc := `[{"name": "r", "attributes": [{"name": "x", "type": "Bogus"}]}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadRelationsJSONC(path); err == nil {
		t.Error("expected error for an unknown attribute type")
	}
}

func TestLoadRelationsJSONC_MissingNameFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relations.jsonc")
	doc := `[{"attributes": []}]`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadRelationsJSONC(path); err == nil {
		t.Error("expected error for a relation entry with no name")
	}
}

func TestLoadRelationsJSONC_MissingFileFails(t *testing.T) {
	if _, err := LoadRelationsJSONC(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Error("expected error for a missing manifest file")
	}
}
