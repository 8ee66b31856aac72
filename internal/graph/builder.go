package graph

import (
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/node"
	"github.com/mrechner/lftj-engine/internal/provider"
	"github.com/mrechner/lftj-engine/internal/schema"
)

type nodeKind int

const (
	kindScan nodeKind = iota
	kindProject
	kindUnion
	kindDiff
	kindRename
	kindJoin
	kindCompute
)

type nodeSpec struct {
	id           string
	kind         nodeKind
	node         node.Node
	inputIDs     []string // for Diff, [0]=left, [1]=right
	relationName string   // scan only
}

// Builder assembles a QueryGraph by fluent composition. Each method
// registers one node under a caller-supplied id; inputs are referenced by
// the id they were registered under, so a dangling reference (an id never
// registered) or a cycle is only possible by referencing an id not yet
// declared — Build reports either as a Shape error.
type Builder struct {
	graphID string
	specs   []*nodeSpec
	byID    map[string]*nodeSpec
	outputs []string
	err     error // first error encountered; subsequent calls are no-ops
}

// NewBuilder starts a Builder for the graph identified by graphID.
func NewBuilder(graphID string) *Builder {
	return &Builder{graphID: graphID, byID: map[string]*nodeSpec{}}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) register(spec *nodeSpec) {
	b.specs = append(b.specs, spec)
	b.byID[spec.id] = spec
}

func (b *Builder) checkNewID(op, id string) bool {
	if b.err != nil {
		return false
	}
	if _, exists := b.byID[id]; exists {
		b.fail(diag.Configuration(op, "node id %q already registered", id))
		return false
	}
	return true
}

func (b *Builder) resolveInput(op, id string) *nodeSpec {
	s, ok := b.byID[id]
	if !ok {
		b.fail(diag.Shape(op, "dangling edge: input id %q not yet registered", id))
		return nil
	}
	return s
}

// Scan registers a Scan node over relationName.
func (b *Builder) Scan(id, relationName string, arity int, maintainSet bool) *Builder {
	if !b.checkNewID("graph.Builder.Scan", id) {
		return b
	}
	n := node.NewScan(id, relationName, arity, maintainSet)
	b.register(&nodeSpec{id: id, kind: kindScan, node: n, relationName: relationName})
	return b
}

// Project registers a Project node over inputID with the given projection
// indices. Empty indices fails with a Configuration error (missing
// operator config).
func (b *Builder) Project(id, inputID string, indices []int) *Builder {
	if !b.checkNewID("graph.Builder.Project", id) {
		return b
	}
	if len(indices) == 0 {
		return b.fail(diag.Configuration("graph.Builder.Project", "project %q has no projection indices", id))
	}
	in := b.resolveInput("graph.Builder.Project", inputID)
	if in == nil {
		return b
	}
	n := node.NewProject(id, indices)
	b.register(&nodeSpec{id: id, kind: kindProject, node: n, inputIDs: []string{inputID}})
	return b
}

// Union registers a Union node over two or more inputs.
func (b *Builder) Union(id string, inputIDs []string) *Builder {
	if !b.checkNewID("graph.Builder.Union", id) {
		return b
	}
	if len(inputIDs) < 2 {
		return b.fail(diag.Configuration("graph.Builder.Union", "union %q needs at least 2 inputs", id))
	}
	for _, in := range inputIDs {
		if b.resolveInput("graph.Builder.Union", in) == nil {
			return b
		}
	}
	n := node.NewUnion(id)
	b.register(&nodeSpec{id: id, kind: kindUnion, node: n, inputIDs: inputIDs})
	return b
}

// Diff registers a left-EXCEPT-right Diff node keyed on keyIndices.
func (b *Builder) Diff(id, leftID, rightID string, keyIndices []int) *Builder {
	if !b.checkNewID("graph.Builder.Diff", id) {
		return b
	}
	if len(keyIndices) == 0 {
		return b.fail(diag.Configuration("graph.Builder.Diff", "diff %q has no key attributes", id))
	}
	if b.resolveInput("graph.Builder.Diff", leftID) == nil || b.resolveInput("graph.Builder.Diff", rightID) == nil {
		return b
	}
	n := node.NewDiff(id, keyIndices)
	b.register(&nodeSpec{id: id, kind: kindDiff, node: n, inputIDs: []string{leftID, rightID}})
	return b
}

// Rename registers a stateless schema-rewriting Rename node.
func (b *Builder) Rename(id, inputID string, out schema.Schema) *Builder {
	if !b.checkNewID("graph.Builder.Rename", id) {
		return b
	}
	in := b.resolveInput("graph.Builder.Rename", inputID)
	if in == nil {
		return b
	}
	n := node.NewRename(id, out)
	b.register(&nodeSpec{id: id, kind: kindRename, node: n, inputIDs: []string{inputID}})
	return b
}

// Join registers an LFTJ Join node over inputIDs per spec. An empty spec
// fails with a Configuration error (MissingAtomSpec).
func (b *Builder) Join(id string, inputIDs []string, spec node.AtomSpec) *Builder {
	if !b.checkNewID("graph.Builder.Join", id) {
		return b
	}
	if len(spec.Vars) == 0 {
		return b.fail(diag.Configuration("graph.Builder.Join", "join %q has no atom spec", id))
	}
	for _, in := range inputIDs {
		if b.resolveInput("graph.Builder.Join", in) == nil {
			return b
		}
	}
	n := node.NewJoin(id, len(inputIDs), spec)
	b.register(&nodeSpec{id: id, kind: kindJoin, node: n, inputIDs: inputIDs})
	return b
}

// Compute registers a Compute node wrapping p. Compute nodes wrapping a
// Pointwise provider take an upstream input; ones wrapping an Enumerable
// provider are a root source and inputID may be empty.
func (b *Builder) Compute(id, inputID string, p provider.ComputeProvider) *Builder {
	if !b.checkNewID("graph.Builder.Compute", id) {
		return b
	}
	var inputIDs []string
	if inputID != "" {
		if b.resolveInput("graph.Builder.Compute", inputID) == nil {
			return b
		}
		inputIDs = []string{inputID}
	}
	n := node.NewCompute(id, p)
	b.register(&nodeSpec{id: id, kind: kindCompute, node: n, inputIDs: inputIDs})
	return b
}

// Output designates id as one of the graph's output nodes.
func (b *Builder) Output(id string) *Builder {
	if b.resolveInput("graph.Builder.Output", id) == nil {
		return b
	}
	b.outputs = append(b.outputs, id)
	return b
}

// Build validates and wires the graph, returning it or the first error
// encountered during construction or validation.
func (b *Builder) Build() (*QueryGraph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.outputs) == 0 {
		return nil, diag.Shape("graph.Builder.Build", "graph %q has no output nodes", b.graphID)
	}

	order, err := topoSort(b.specs)
	if err != nil {
		return nil, err
	}

	wire(b.specs)

	g := &QueryGraph{
		ID:        b.graphID,
		nodes:     b.specs,
		byID:      b.byID,
		outputIDs: append([]string(nil), b.outputs...),
		order:     order,
	}
	return g, nil
}

// wire connects each node's registered inputs to it, including the
// input-index/left-right bindings Join and Diff need to identify a
// delta's source.
func wire(specs []*nodeSpec) {
	byID := map[string]*nodeSpec{}
	for _, s := range specs {
		byID[s.id] = s
	}
	for _, s := range specs {
		switch s.kind {
		case kindJoin:
			j := s.node.(*node.Join)
			for i, inID := range s.inputIDs {
				in := byID[inID]
				in.node.Connect(s.node)
				j.SetInput(i, in.node)
			}
		case kindDiff:
			d := s.node.(*node.Diff)
			left, right := byID[s.inputIDs[0]], byID[s.inputIDs[1]]
			left.node.Connect(s.node)
			right.node.Connect(s.node)
			d.SetLeft(left.node)
			d.SetRight(right.node)
		default:
			for _, inID := range s.inputIDs {
				byID[inID].node.Connect(s.node)
			}
		}
	}
}

// topoSort orders specs so every input precedes its consumer, detecting
// cycles (which, given Builder requires inputs to already be registered,
// can only arise from a corrupted spec list — kept as an explicit,
// testable validation rather than an assumption).
func topoSort(specs []*nodeSpec) ([]*nodeSpec, error) {
	indegree := map[string]int{}
	consumers := map[string][]string{}
	byID := map[string]*nodeSpec{}
	for _, s := range specs {
		byID[s.id] = s
		indegree[s.id] = len(s.inputIDs)
		for _, inID := range s.inputIDs {
			consumers[inID] = append(consumers[inID], s.id)
		}
	}

	var queue []string
	for _, s := range specs {
		if indegree[s.id] == 0 {
			queue = append(queue, s.id)
		}
	}

	var order []*nodeSpec
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, byID[id])
		for _, consumerID := range consumers[id] {
			indegree[consumerID]--
			if indegree[consumerID] == 0 {
				queue = append(queue, consumerID)
			}
		}
	}

	if len(order) != len(specs) {
		return nil, diag.Shape("graph.topoSort", "cycle detected in graph")
	}
	return order, nil
}
