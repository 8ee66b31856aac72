package node

import (
	"log"

	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/provider"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// Compute wraps an external ComputeProvider in either its Enumerable or
// Pointwise mode. A provider error is logged and degrades the cycle to an
// empty delta rather than poisoning the graph, per §7.
type Compute struct {
	base
	provider provider.ComputeProvider

	// Enumerable state.
	handle     provider.StateHandle
	currentSet map[string]tuple.Tuple

	// Pointwise state.
	watch map[string]tuple.Tuple
	truth map[string]bool
}

// NewCompute wraps p.
func NewCompute(id string, p provider.ComputeProvider) *Compute {
	return &Compute{
		base:       newBase(id),
		provider:   p,
		currentSet: map[string]tuple.Tuple{},
		watch:      map[string]tuple.Tuple{},
		truth:      map[string]bool{},
	}
}

// ColdStart pulls an Enumerable provider's initial set as the cold-start
// add delta. Pointwise-mode Compute nodes have no content until an
// upstream delta arrives and return an empty delta here.
func (c *Compute) ColdStart() delta.Delta {
	p, ok := c.provider.(provider.Enumerable)
	if !ok {
		return delta.Empty()
	}
	tuples, handle, err := p.Enumerate()
	if err != nil {
		log.Printf("[PROVIDER] %v", diag.Provider("node.Compute.ColdStart", "enumerate failed: %v", err))
		return delta.Empty()
	}
	c.handle = handle
	for _, t := range tuples {
		c.currentSet[t.Key()] = t
	}
	out := delta.New(tuples, nil)
	c.emit(c, out)
	return out
}

// Cycle pulls an Enumerable provider's delta since the last handle. It is
// the engine's periodic re-poll hook, independent of any upstream delta.
func (c *Compute) Cycle() delta.Delta {
	p, ok := c.provider.(provider.Enumerable)
	if !ok {
		return delta.Empty()
	}
	adds, removes, next, err := p.DeltaSince(c.handle)
	if err != nil {
		log.Printf("[PROVIDER] %v", diag.Provider("node.Compute.Cycle", "deltaSince failed: %v", err))
		return delta.Empty()
	}
	c.handle = next
	for _, t := range adds {
		c.currentSet[t.Key()] = t
	}
	for _, t := range removes {
		delete(c.currentSet, t.Key())
	}
	out := delta.New(adds, removes)
	c.emit(c, out)
	return out
}

// OnDeltaReceived evaluates a Pointwise provider over newly-arrived
// upstream tuples and retires watched tuples that were removed upstream.
func (c *Compute) OnDeltaReceived(_ Node, d delta.Delta) {
	p, ok := c.provider.(provider.Pointwise)
	if !ok {
		diag.Invariant("node.Compute.OnDeltaReceived", "an Enumerable-mode Compute node has no upstream input")
	}

	var adds, removes []tuple.Tuple
	newCandidates := d.AddsSlice()
	for _, t := range newCandidates {
		c.watch[t.Key()] = t
	}
	if len(newCandidates) > 0 {
		results, err := p.EvalMany(newCandidates)
		if err != nil {
			log.Printf("[PROVIDER] %v", diag.Provider("node.Compute.OnDeltaReceived", "evalMany failed: %v", err))
		} else {
			for i, t := range newCandidates {
				truthy := results[i]
				c.truth[t.Key()] = truthy
				if truthy {
					adds = append(adds, t)
				}
			}
		}
	}
	for _, t := range d.RemovesSlice() {
		key := t.Key()
		if c.truth[key] {
			removes = append(removes, t)
		}
		delete(c.watch, key)
		delete(c.truth, key)
	}
	c.emit(c, delta.New(adds, removes))
}

// ApplyFlips pulls a Pointwise provider's FlipsSince report and emits the
// corresponding adds/removes with no upstream delta involved. A provider
// that does not support flips returns no flips and this is a no-op, per
// §9's "flipsSince is optional" note.
func (c *Compute) ApplyFlips() delta.Delta {
	p, ok := c.provider.(provider.Pointwise)
	if !ok {
		return delta.Empty()
	}
	flips, next, err := p.FlipsSince(c.handle)
	if err != nil {
		log.Printf("[PROVIDER] %v", diag.Provider("node.Compute.ApplyFlips", "flipsSince failed: %v", err))
		return delta.Empty()
	}
	c.handle = next
	var adds, removes []tuple.Tuple
	for _, f := range flips {
		key := f.Tuple.Key()
		if _, watched := c.watch[key]; !watched {
			continue
		}
		was := c.truth[key]
		switch {
		case f.NowTrue && !was:
			c.truth[key] = true
			adds = append(adds, f.Tuple)
		case !f.NowTrue && was:
			c.truth[key] = false
			removes = append(removes, f.Tuple)
		}
	}
	out := delta.New(adds, removes)
	c.emit(c, out)
	return out
}

// Materialized returns the node's currently-true tuple set: the Enumerable
// current set, or the Pointwise truth map's true entries.
func (c *Compute) Materialized() []tuple.Tuple {
	if _, ok := c.provider.(provider.Enumerable); ok {
		out := make([]tuple.Tuple, 0, len(c.currentSet))
		for _, t := range c.currentSet {
			out = append(out, t)
		}
		return out
	}
	out := make([]tuple.Tuple, 0, len(c.watch))
	for key, t := range c.watch {
		if c.truth[key] {
			out = append(out, t)
		}
	}
	return out
}

// Reset clears all local state and drops the provider handle, so the next
// ColdStart/Cycle call re-establishes it from scratch.
func (c *Compute) Reset() {
	c.handle = nil
	c.currentSet = map[string]tuple.Tuple{}
	c.watch = map[string]tuple.Tuple{}
	c.truth = map[string]bool{}
}
