package engine

import (
	"sync"

	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/graph"
	"github.com/mrechner/lftj-engine/internal/graphengine"
)

// SubscribeOptions controls what a subscription callback receives.
type SubscribeOptions struct {
	IncludeDeltas bool
	IncludeStats  bool
}

// Event is delivered to a subscriber synchronously at the end of a graph's
// update cycle, per SPEC_FULL.md §9's "Observation" design note.
type Event struct {
	QueryID string
	Outputs []graphengine.OutputState
	Delta   delta.Delta       // zero value unless IncludeDeltas was set
	Stats   graphengine.Stats // zero value unless IncludeStats was set
}

type subscription struct {
	opts SubscribeOptions
	cb   func(Event)
}

// QueryHandle is the caller-facing reference to one registered query
// graph.
type QueryHandle struct {
	id     string
	engine *Engine
	graph  *graph.QueryGraph

	mu     sync.Mutex
	active bool
	subs   map[string]*subscription
	nextID int
}

func (h *QueryHandle) checkActive(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return diag.State(op, "query %q is deactivated (InactiveQuery)", h.id)
	}
	return nil
}

// ID returns the handle's query id.
func (h *QueryHandle) ID() string { return h.id }

// GetResults snapshots every output node's current tuple set.
func (h *QueryHandle) GetResults() ([]graphengine.OutputState, error) {
	if err := h.checkActive("engine.QueryHandle.GetResults"); err != nil {
		return nil, err
	}
	return h.engine.ge.GetOutputState(h.id)
}

// GetStatistics returns this graph's activity counters.
func (h *QueryHandle) GetStatistics() (graphengine.Stats, error) {
	if err := h.checkActive("engine.QueryHandle.GetStatistics"); err != nil {
		return graphengine.Stats{}, err
	}
	return h.engine.ge.GetStatistics(h.id)
}

// Subscribe registers cb to be invoked synchronously at the end of every
// update cycle this graph processes, in registration order, until the
// returned unsubscribe function is called.
func (h *QueryHandle) Subscribe(cb func(Event), opts SubscribeOptions) (func(), error) {
	if err := h.checkActive("engine.QueryHandle.Subscribe"); err != nil {
		return nil, err
	}
	h.mu.Lock()
	if h.subs == nil {
		h.subs = map[string]*subscription{}
	}
	id := subKey(h.nextID)
	h.nextID++
	h.subs[id] = &subscription{opts: opts, cb: cb}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}, nil
}

func subKey(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return string(buf)
}

// notify runs every current subscriber in registration order, in the order
// subscriptions were added (map iteration over insertion-ordered numeric
// keys, sorted ascending).
func (h *QueryHandle) notify(d delta.Delta) {
	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		return
	}
	subs := make([]*subscription, 0, len(h.subs))
	ids := sortedKeys(h.subs)
	for _, id := range ids {
		subs = append(subs, h.subs[id])
	}
	h.mu.Unlock()

	outputs, err := h.engine.ge.GetOutputState(h.id)
	if err != nil {
		return
	}
	stats, _ := h.engine.ge.GetStatistics(h.id)

	for _, s := range subs {
		evt := Event{QueryID: h.id, Outputs: outputs}
		if s.opts.IncludeDeltas {
			evt.Delta = d
		}
		if s.opts.IncludeStats {
			evt.Stats = stats
		}
		s.cb(evt)
	}
}

func sortedKeys(m map[string]*subscription) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Keys are assigned in strictly increasing numeric order by subKey, and
	// never reused, so a length-then-lexicographic sort recovers insertion
	// order without parsing back to int.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			if less(keys[j], keys[j-1]) {
				keys[j], keys[j-1] = keys[j-1], keys[j]
			} else {
				break
			}
		}
	}
	return keys
}

func less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Reset clears this graph's operator state back to empty (as if freshly
// registered with no cold start), without deactivating the handle or
// touching its wiring or subscriptions.
func (h *QueryHandle) Reset() error {
	if err := h.checkActive("engine.QueryHandle.Reset"); err != nil {
		return err
	}
	h.graph.ResetNodes()
	return h.engine.ge.ResetStatistics(h.id)
}

// Deactivate marks the handle inactive; subsequent operations on it fail
// with InactiveQuery.
func (h *QueryHandle) Deactivate() error {
	if err := h.checkActive("engine.QueryHandle.Deactivate"); err != nil {
		return err
	}
	h.mu.Lock()
	h.active = false
	h.mu.Unlock()
	h.engine.ge.Unregister(h.id)
	return nil
}
