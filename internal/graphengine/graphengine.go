// Package graphengine instantiates and drives QueryGraphs: cold start,
// delta dispatch by relation name, output-state snapshotting, and
// per-query statistics.
package graphengine

import (
	"log"
	"sync"

	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/graph"
	"github.com/mrechner/lftj-engine/internal/node"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// Stats tracks per-graph activity counters surfaced through getStatistics.
type Stats struct {
	UpdatesApplied int
	TuplesAdded    int
	TuplesRemoved  int
	ColdStarts     int
}

type registration struct {
	g     *graph.QueryGraph
	stats Stats
}

// GraphEngine owns a set of registered QueryGraphs, keyed by graph id, and
// routes relation-tagged deltas to every graph that scans that relation.
type GraphEngine struct {
	mu  sync.Mutex
	reg map[string]*registration
}

// New returns an empty GraphEngine.
func New() *GraphEngine {
	return &GraphEngine{reg: map[string]*registration{}}
}

// Register adds g under its own ID. When coldStart is true it runs cold
// start immediately: scans emit nothing, every Enumerable Compute node
// emits its initial enumeration, and downstream operators process those
// deltas as they arrive via the graph's normal Connect wiring. When false,
// the graph is wired but starts empty until its first processUpdate.
func (e *GraphEngine) Register(g *graph.QueryGraph, coldStart bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.reg[g.ID]; exists {
		return diag.Configuration("graphengine.GraphEngine.Register", "graph %q already registered", g.ID)
	}
	r := &registration{g: g}
	e.reg[g.ID] = r
	if coldStart {
		e.coldStart(r)
	}
	return nil
}

// Unregister removes a graph from the engine; subsequent ProcessUpdate
// calls naming it return a Configuration error.
func (e *GraphEngine) Unregister(graphID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.reg, graphID)
}

func (e *GraphEngine) coldStart(r *registration) {
	for _, n := range r.g.ComputeNodes() {
		n.ColdStart()
	}
	r.stats.ColdStarts++
}

// ProcessUpdate routes d to graphID's scan over relationName. Per §4.12,
// the scan's emit naturally re-runs every downstream node reachable from
// it in execution order; nodes with no path from this scan simply never
// receive a call. Graphs with no scan over relationName are skipped.
func (e *GraphEngine) ProcessUpdate(graphID, relationName string, d delta.Delta) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reg[graphID]
	if !ok {
		return diag.Configuration("graphengine.GraphEngine.ProcessUpdate", "graph %q not registered", graphID)
	}
	if d.IsEmpty() {
		return nil
	}
	s := r.g.ScanByRelation(relationName)
	if s == nil {
		return nil
	}
	s.Apply(d)
	r.stats.UpdatesApplied++
	r.stats.TuplesAdded += len(d.AddsSlice())
	r.stats.TuplesRemoved += len(d.RemovesSlice())
	return nil
}

// BroadcastUpdate applies d to every registered graph that scans
// relationName, regardless of graph id. Used when a relation is shared
// across queries registered independently of one another.
func (e *GraphEngine) BroadcastUpdate(relationName string, d delta.Delta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d.IsEmpty() {
		return
	}
	for _, r := range e.reg {
		s := r.g.ScanByRelation(relationName)
		if s == nil {
			continue
		}
		s.Apply(d)
		r.stats.UpdatesApplied++
		r.stats.TuplesAdded += len(d.AddsSlice())
		r.stats.TuplesRemoved += len(d.RemovesSlice())
	}
}

// OutputState is one output node's current materialized tuple set.
type OutputState struct {
	NodeID  string
	Tuples  []tuple.Tuple
}

// materializer is implemented by every operator node capable of reporting
// its current tuple set; Scan only does so when constructed with
// maintainSet, in which case it reports via CurrentSet instead and is
// handled separately below.
type materializer interface {
	Materialized() []tuple.Tuple
}

// GetOutputState snapshots every output node's current tuple set for
// graphID.
func (e *GraphEngine) GetOutputState(graphID string) ([]OutputState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reg[graphID]
	if !ok {
		return nil, diag.Configuration("graphengine.GraphEngine.GetOutputState", "graph %q not registered", graphID)
	}
	var out []OutputState
	for _, n := range r.g.Outputs() {
		var tuples []tuple.Tuple
		switch m := n.(type) {
		case materializer:
			tuples = m.Materialized()
		case *node.Scan:
			set, err := m.CurrentSet()
			if err != nil {
				log.Printf("[GRAPHENGINE] output scan %s: %v; reporting empty state", n.ID(), err)
			} else {
				tuples = set
			}
		default:
			log.Printf("[GRAPHENGINE] output node %s has no materialized view; reporting empty state", n.ID())
		}
		out = append(out, OutputState{NodeID: n.ID(), Tuples: tuples})
	}
	return out, nil
}

// GetStatistics returns a copy of graphID's activity counters.
func (e *GraphEngine) GetStatistics(graphID string) (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reg[graphID]
	if !ok {
		return Stats{}, diag.Configuration("graphengine.GraphEngine.GetStatistics", "graph %q not registered", graphID)
	}
	return r.stats, nil
}

// ResetStatistics zeroes graphID's activity counters, for use alongside a
// QueryGraph.ResetNodes call when a caller resets a query's operator state.
func (e *GraphEngine) ResetStatistics(graphID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reg[graphID]
	if !ok {
		return diag.Configuration("graphengine.GraphEngine.ResetStatistics", "graph %q not registered", graphID)
	}
	r.stats = Stats{}
	return nil
}

// Graph returns the registered QueryGraph for graphID, or nil.
func (e *GraphEngine) Graph(graphID string) *graph.QueryGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reg[graphID]
	if !ok {
		return nil
	}
	return r.g
}
