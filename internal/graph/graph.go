// Package graph implements the QueryGraph DAG and its fluent Builder:
// topological ordering, cycle/dangling-edge/missing-config validation, and
// the designated-output bookkeeping GraphEngine instantiates against.
package graph

import (
	"github.com/mrechner/lftj-engine/internal/node"
)

// QueryGraph is a validated DAG of operator nodes with one or more output
// nodes and a set of relation names its scans reference.
type QueryGraph struct {
	ID string

	nodes     []*nodeSpec // in declaration order
	byID      map[string]*nodeSpec
	outputIDs []string
	order     []*nodeSpec // execution order: inputs before consumers
}

// Nodes returns every node in the graph in declaration order.
func (g *QueryGraph) Nodes() []node.Node {
	out := make([]node.Node, len(g.nodes))
	for i, s := range g.nodes {
		out[i] = s.node
	}
	return out
}

// ExecutionOrder returns nodes in dependency order (inputs before
// consumers), the order GraphEngine walks for cold start and re-evaluation.
func (g *QueryGraph) ExecutionOrder() []node.Node {
	out := make([]node.Node, len(g.order))
	for i, s := range g.order {
		out[i] = s.node
	}
	return out
}

// Outputs returns the graph's designated output nodes, in registration
// order.
func (g *QueryGraph) Outputs() []node.Node {
	out := make([]node.Node, len(g.outputIDs))
	for i, id := range g.outputIDs {
		out[i] = g.byID[id].node
	}
	return out
}

// OutputIDs returns the ids of the graph's designated output nodes.
func (g *QueryGraph) OutputIDs() []string {
	return append([]string(nil), g.outputIDs...)
}

// ScanByRelation returns the graph's scan node for relationName, or nil if
// the graph has no scan over that relation. A graph has at most one scan
// per relation name (the engine resolves (graphId, relationName) to a
// single scan, per §4.3).
func (g *QueryGraph) ScanByRelation(relationName string) *node.Scan {
	for _, s := range g.nodes {
		if s.kind == kindScan && s.relationName == relationName {
			return s.node.(*node.Scan)
		}
	}
	return nil
}

// RelationNames returns every relation name referenced by a scan node in
// this graph.
func (g *QueryGraph) RelationNames() []string {
	var out []string
	for _, s := range g.nodes {
		if s.kind == kindScan {
			out = append(out, s.relationName)
		}
	}
	return out
}

// ComputeNodes returns every Compute node in the graph, for cold start and
// periodic cycle dispatch.
func (g *QueryGraph) ComputeNodes() []*node.Compute {
	var out []*node.Compute
	for _, s := range g.nodes {
		if s.kind == kindCompute {
			out = append(out, s.node.(*node.Compute))
		}
	}
	return out
}

// NodeByID returns the node registered under id, or nil.
func (g *QueryGraph) NodeByID(id string) node.Node {
	if s, ok := g.byID[id]; ok {
		return s.node
	}
	return nil
}

// ResetNodes clears every stateful node's operator state back to empty, in
// place, without rebuilding the graph's wiring. Nodes that hold no state
// (Rename) simply don't implement node.Resettable and are skipped.
func (g *QueryGraph) ResetNodes() {
	for _, s := range g.nodes {
		if r, ok := s.node.(node.Resettable); ok {
			r.Reset()
		}
	}
}
