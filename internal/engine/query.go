package engine

import (
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/graph"
	"github.com/mrechner/lftj-engine/internal/node"
	"github.com/mrechner/lftj-engine/internal/schema"
)

// JoinCondition names one equi-join key between a Join's two inputs, by
// attribute name on each side.
type JoinCondition struct {
	LeftAttr  string
	RightAttr string
}

// QueryBuilder is a name-based fluent wrapper over graph.Builder: it
// resolves relation and attribute names against the engine's declared
// schemas so that Project/Rename/Join can be specified by attribute name
// rather than by position, and tracks each node's output schema for the
// next call in the chain to resolve against.
type QueryBuilder struct {
	engine  *Engine
	id      string
	builder *graph.Builder
	schemas map[string]schema.Schema
	err     error
}

func newQueryBuilder(e *Engine, id string) *QueryBuilder {
	return &QueryBuilder{
		engine:  e,
		id:      id,
		builder: graph.NewBuilder(id),
		schemas: map[string]schema.Schema{},
	}
}

func (qb *QueryBuilder) fail(err error) *QueryBuilder {
	if qb.err == nil {
		qb.err = err
	}
	return qb
}

func (qb *QueryBuilder) schemaFor(op, id string) (schema.Schema, bool) {
	if qb.err != nil {
		return schema.Schema{}, false
	}
	s, ok := qb.schemas[id]
	if !ok {
		qb.fail(diag.Shape(op, "unknown input id %q", id))
		return schema.Schema{}, false
	}
	return s, true
}

// Scan registers a Scan node over relationName, resolving its arity and
// output schema from the engine's declared relations.
func (qb *QueryBuilder) Scan(id, relationName string, maintainSet bool) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	s, err := qb.engine.RelationSchema(relationName)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Scan(id, relationName, s.Arity(), maintainSet)
	qb.schemas[id] = s
	return qb
}

// Project registers a Project node over inputID, keeping only attrNames (in
// the given order).
func (qb *QueryBuilder) Project(id, inputID string, attrNames []string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	in, ok := qb.schemaFor("engine.QueryBuilder.Project", inputID)
	if !ok {
		return qb
	}
	indices, err := in.ProjectIndices(attrNames)
	if err != nil {
		return qb.fail(err)
	}
	out, err := in.Project(attrNames)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Project(id, inputID, indices)
	qb.schemas[id] = out
	return qb
}

// Union registers a Union node over two or more inputs, which must share a
// schema (the union's output schema is the first input's).
func (qb *QueryBuilder) Union(id string, inputIDs []string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if len(inputIDs) == 0 {
		return qb.fail(diag.Configuration("engine.QueryBuilder.Union", "union %q needs at least one input", id))
	}
	first, ok := qb.schemaFor("engine.QueryBuilder.Union", inputIDs[0])
	if !ok {
		return qb
	}
	for _, in := range inputIDs[1:] {
		if _, ok := qb.schemaFor("engine.QueryBuilder.Union", in); !ok {
			return qb
		}
	}
	qb.builder.Union(id, inputIDs)
	qb.schemas[id] = first
	return qb
}

// Diff registers a left-EXCEPT-right Diff node keyed on keyAttrs, named
// against the left input's schema.
func (qb *QueryBuilder) Diff(id, leftID, rightID string, keyAttrs []string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	left, ok := qb.schemaFor("engine.QueryBuilder.Diff", leftID)
	if !ok {
		return qb
	}
	if _, ok := qb.schemaFor("engine.QueryBuilder.Diff", rightID); !ok {
		return qb
	}
	indices, err := left.ProjectIndices(keyAttrs)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Diff(id, leftID, rightID, indices)
	qb.schemas[id] = left
	return qb
}

// Rename registers a Rename node over inputID, renaming its attributes
// positionally to newNames.
func (qb *QueryBuilder) Rename(id, inputID string, newNames []string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	in, ok := qb.schemaFor("engine.QueryBuilder.Rename", inputID)
	if !ok {
		return qb
	}
	out, err := in.Rename(newNames)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Rename(id, inputID, out)
	qb.schemas[id] = out
	return qb
}

// Join registers a two-way LFTJ Join between leftID and rightID, equating
// attributes per conditions. Every left attribute becomes an output
// variable (shared with its matching right attribute when named in a
// condition); every right attribute not consumed by a condition is
// appended after. This is the Go-native counterpart of translating a
// positional join-condition list into a global AtomSpec variable order
// (see SPEC_FULL.md §9's join-variable-order grounding note).
func (qb *QueryBuilder) Join(id, leftID, rightID string, conditions []JoinCondition) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	left, ok := qb.schemaFor("engine.QueryBuilder.Join", leftID)
	if !ok {
		return qb
	}
	right, ok := qb.schemaFor("engine.QueryBuilder.Join", rightID)
	if !ok {
		return qb
	}
	spec, out, err := buildAtomSpec(left, right, conditions)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Join(id, []string{leftID, rightID}, spec)
	qb.schemas[id] = out
	return qb
}

func buildAtomSpec(left, right schema.Schema, conditions []JoinCondition) (node.AtomSpec, schema.Schema, error) {
	rightPosFor := make(map[int]int, len(conditions))
	for _, c := range conditions {
		lPos := left.IndexOf(c.LeftAttr)
		if lPos < 0 {
			return node.AtomSpec{}, schema.Schema{}, diag.Shape("engine.buildAtomSpec", "unknown left attribute %q", c.LeftAttr)
		}
		rPos := right.IndexOf(c.RightAttr)
		if rPos < 0 {
			return node.AtomSpec{}, schema.Schema{}, diag.Shape("engine.buildAtomSpec", "unknown right attribute %q", c.RightAttr)
		}
		rightPosFor[lPos] = rPos
	}

	var vars []node.VarSpec
	var outAttrs []schema.Attribute
	rightConsumed := make(map[int]bool, len(conditions))
	for pos := 0; pos < left.Arity(); pos++ {
		name := left.NameAt(pos)
		if rPos, shared := rightPosFor[pos]; shared {
			vars = append(vars, node.VarSpec{Name: name, Mentions: map[int]int{0: pos, 1: rPos}})
			rightConsumed[rPos] = true
		} else {
			vars = append(vars, node.VarSpec{Name: name, Mentions: map[int]int{0: pos}})
		}
		outAttrs = append(outAttrs, schema.Attribute{Name: name, Type: left.TypeAt(pos)})
	}
	for pos := 0; pos < right.Arity(); pos++ {
		if rightConsumed[pos] {
			continue
		}
		name := right.NameAt(pos)
		vars = append(vars, node.VarSpec{Name: name, Mentions: map[int]int{1: pos}})
		outAttrs = append(outAttrs, schema.Attribute{Name: name, Type: right.TypeAt(pos)})
	}

	out, err := schema.New(outAttrs...)
	if err != nil {
		return node.AtomSpec{}, schema.Schema{}, err
	}
	return node.AtomSpec{Vars: vars}, out, nil
}

// Compute registers a Compute node wrapping the provider registered under
// providerName. outSchema names its output shape explicitly since a
// provider's shape isn't derivable from any input schema. inputID is empty
// for an Enumerable-mode root source.
func (qb *QueryBuilder) Compute(id, inputID, providerName string, outSchema schema.Schema) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if inputID != "" {
		if _, ok := qb.schemaFor("engine.QueryBuilder.Compute", inputID); !ok {
			return qb
		}
	}
	p, err := qb.engine.providerLocked(providerName)
	if err != nil {
		return qb.fail(err)
	}
	qb.builder.Compute(id, inputID, p)
	qb.schemas[id] = outSchema
	return qb
}

// Output designates id as one of the graph's output nodes.
func (qb *QueryBuilder) Output(id string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	qb.builder.Output(id)
	return qb
}

// Schema returns the output schema tracked for a previously-registered node
// id, e.g. so a caller can label a result table's columns.
func (qb *QueryBuilder) Schema(id string) (schema.Schema, bool) {
	s, ok := qb.schemas[id]
	return s, ok
}
