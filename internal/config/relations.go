package config

import (
	"encoding/json"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/schema"
)

// RelationSpec is one entry of a relation-schema manifest: a relation name,
// its attribute list, and whether its schema validates atom kinds strictly.
type RelationSpec struct {
	Name       string
	Attributes []schema.Attribute
	Strict     bool
}

// manifestEntry mirrors the on-disk JSONC shape, decoded with the standard
// library's encoding/json after jsonc.ToJSON strips comments and trailing
// commas.
type manifestEntry struct {
	Name       string `json:"name"`
	Strict     bool   `json:"strict"`
	Attributes []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"attributes"`
}

// LoadRelationsJSONC parses a JSONC (JSON-with-comments) relation-schema
// manifest at path into RelationSpecs, in file order. Manifest shape:
//
//	[
//	  {
//	    "name": "users",
//	    "strict": true,
//	    "attributes": [
//	      {"name": "uid", "type": "Integer"},
//	      {"name": "name", "type": "String"}
//	    ]
//	  }
//	]
func LoadRelationsJSONC(path string) ([]RelationSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Configuration("config.LoadRelationsJSONC", "reading %q: %v", path, err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(jsonc.ToJSON(raw), &entries); err != nil {
		return nil, diag.Configuration("config.LoadRelationsJSONC", "parsing %q: %v", path, err)
	}

	specs := make([]RelationSpec, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, diag.Configuration("config.LoadRelationsJSONC", "%q: relation entry missing name", path)
		}
		attrs := make([]schema.Attribute, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			typ, err := schema.ParseType(a.Type)
			if err != nil {
				return nil, diag.ShapeWrap("config.LoadRelationsJSONC", err, "%q: relation %q attribute %q", path, e.Name, a.Name)
			}
			attrs = append(attrs, schema.Attribute{Name: a.Name, Type: typ})
		}
		specs = append(specs, RelationSpec{Name: e.Name, Attributes: attrs, Strict: e.Strict})
	}
	return specs, nil
}
