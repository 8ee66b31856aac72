// Package engine is the public façade over the relational query core: it
// registers relations and compute providers, coerces caller rows to
// tuples, builds and registers query graphs, and serializes every graph
// mutation behind a single mutex, the thread-safe-façade allowance named
// in SPEC_FULL.md §5 (the core itself is single-threaded cooperative).
package engine

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mrechner/lftj-engine/internal/batch"
	"github.com/mrechner/lftj-engine/internal/config"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/graphengine"
	"github.com/mrechner/lftj-engine/internal/provider"
	"github.com/mrechner/lftj-engine/internal/schema"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithAutoRegister controls whether insert/delete against an undeclared
// relation implicitly defines it with an all-Any schema (true) or fails
// with RelationNotDefined (false, the default).
func WithAutoRegister(auto bool) Option {
	return func(e *Engine) { e.autoRegister = auto }
}

// WithBatchManager overrides the engine's batching knobs. cfg.FlushThreshold
// is accepted for forward compatibility with a size-triggered auto-flush;
// the current implementation flushes a relation's pending batch to each
// affected graph as soon as it is added (outside a transaction), which the
// engine laws permit since equivalent batchings must yield identical final
// state regardless of granularity.
func WithBatchManager(cfg config.EngineDefaults) Option {
	return func(e *Engine) { e.flushThreshold = cfg.FlushThreshold }
}

// Engine owns relation schemas, registered providers, and every query graph
// built against them.
type Engine struct {
	mu sync.Mutex

	relations map[string]schema.Schema
	providers map[string]provider.ComputeProvider
	handles   map[string]*QueryHandle

	autoRegister   bool
	flushThreshold int

	ge *graphengine.GraphEngine
	bm *batch.BatchManager
}

// New constructs an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		relations: map[string]schema.Schema{},
		providers: map[string]provider.ComputeProvider{},
		handles:   map[string]*QueryHandle{},
		ge:        graphengine.New(),
	}
	e.bm = batch.New(e.deliver)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromEnv loads .env-based engine defaults (teacher's
// `godotenv.Load(".env")` convention) and, if LFTJ_RELATIONS_MANIFEST
// names a file, bootstraps every relation it declares via DefineRelation.
func NewFromEnv(envPath string) (*Engine, error) {
	d := config.LoadEnv(envPath)
	e := New(WithAutoRegister(d.AutoRegister), WithBatchManager(d))
	if d.RelationsManifest != "" {
		specs, err := config.LoadRelationsJSONC(d.RelationsManifest)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			s, err := schema.New(spec.Attributes...)
			if err != nil {
				return nil, err
			}
			if err := e.DefineRelation(spec.Name, s.WithStrict(spec.Strict)); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

// DefineRelation registers name with s. A relation already defined with a
// different or identical schema fails (AlreadyDefined).
func (e *Engine) DefineRelation(name string, s schema.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.relations[name]; exists {
		return diag.Configuration("engine.Engine.DefineRelation", "relation %q already defined (AlreadyDefined)", name)
	}
	e.relations[name] = s
	return nil
}

// RelationSchema returns the declared schema for name, or an error if it is
// undeclared.
func (e *Engine) RelationSchema(name string) (schema.Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.relationSchemaLocked(name)
}

func (e *Engine) relationSchemaLocked(name string) (schema.Schema, error) {
	s, ok := e.relations[name]
	if ok {
		return s, nil
	}
	return schema.Schema{}, diag.Configuration("engine.Engine.RelationSchema", "relation %q not defined (RelationNotDefined)", name)
}

// RegisterProvider registers p under name for use by Compute query nodes.
// A duplicate name fails (DuplicateProvider).
func (e *Engine) RegisterProvider(name string, p provider.ComputeProvider) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.providers[name]; exists {
		return diag.Configuration("engine.Engine.RegisterProvider", "provider %q already registered (DuplicateProvider)", name)
	}
	e.providers[name] = p
	return nil
}

func (e *Engine) providerLocked(name string) (provider.ComputeProvider, error) {
	p, ok := e.providers[name]
	if !ok {
		return nil, diag.Configuration("engine.Engine.providerLocked", "provider %q not registered", name)
	}
	return p, nil
}

// Insert coerces and applies rows as adds to relationName. Each element of
// rows is one row: a positional []any, a named map[string]any, or a
// pre-built tuple.Tuple (the Go rendition of SPEC_FULL.md §6's four row
// shapes — a single positional list is one variadic argument, and "a list
// of such lists" is simply more variadic arguments).
func (e *Engine) Insert(relationName string, rows ...any) error {
	return e.applyRows(relationName, rows, true)
}

// Delete coerces and applies rows as removes to relationName.
func (e *Engine) Delete(relationName string, rows ...any) error {
	return e.applyRows(relationName, rows, false)
}

func (e *Engine) applyRows(relationName string, rows []any, isAdd bool) error {
	e.mu.Lock()
	s, err := e.relationSchemaLocked(relationName)
	if err != nil {
		if !e.autoRegister || len(rows) == 0 {
			e.mu.Unlock()
			return err
		}
		inferred, infErr := inferSchema(rows[0])
		if infErr != nil {
			e.mu.Unlock()
			return infErr
		}
		log.Printf("[ENGINE] auto-registering relation %q with an any-typed schema inferred from its first row", relationName)
		e.relations[relationName] = inferred
		s = inferred
	}
	e.mu.Unlock()

	tuples := make([]tuple.Tuple, len(rows))
	for i, row := range rows {
		tp, err := coerceRow(s, row)
		if err != nil {
			return err
		}
		tuples[i] = tp
	}

	var d delta.Delta
	if isAdd {
		d = delta.New(tuples, nil)
	} else {
		d = delta.New(nil, tuples)
	}
	return e.routeDelta(relationName, d)
}

// routeDelta fans d out to the pending batch of every active graph whose
// scan references relationName.
func (e *Engine) routeDelta(relationName string, d delta.Delta) error {
	if d.IsEmpty() {
		return nil
	}
	e.mu.Lock()
	var graphIDs []string
	for id, h := range e.handles {
		if !h.active {
			continue
		}
		for _, rel := range h.graph.RelationNames() {
			if rel == relationName {
				graphIDs = append(graphIDs, id)
				break
			}
		}
	}
	e.mu.Unlock()

	for _, graphID := range graphIDs {
		if err := e.bm.AddDelta(graphID, relationName, d); err != nil {
			return err
		}
	}
	return nil
}

// deliver is the BatchManager's Deliver callback: it applies a flushed
// batch to the graph engine, then notifies that graph's subscribers.
func (e *Engine) deliver(graphID, relationName string, d delta.Delta) error {
	if err := e.ge.ProcessUpdate(graphID, relationName, d); err != nil {
		return err
	}
	e.mu.Lock()
	h, ok := e.handles[graphID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	h.notify(d)
	return nil
}

// BeginTransaction suspends auto-flush until a matching number of
// EndTransaction calls (or one rollback) closes it. Returns an opaque
// transaction token used only for engine-side logging correlation.
func (e *Engine) BeginTransaction() string {
	id := uuid.NewString()
	log.Printf("[ENGINE] begin transaction %s", id)
	e.bm.BeginTransaction()
	return id
}

// EndTransaction commits one level of transaction nesting, flushing every
// pending batch once the outermost transaction ends.
func (e *Engine) EndTransaction(token string) error {
	log.Printf("[ENGINE] end transaction %s", token)
	return e.bm.EndTransaction()
}

// Transaction runs fn inside a transaction, committing its pending batches
// on success and rolling them all back (discarding every pending delta,
// notifying no subscriber) if fn returns an error.
func (e *Engine) Transaction(fn func() error) error {
	token := uuid.NewString()
	log.Printf("[ENGINE] transaction %s", token)
	return e.bm.Execute(fn)
}

// NewQuery starts a fluent QueryBuilder for a graph that will be registered
// under queryID.
func (e *Engine) NewQuery(queryID string) *QueryBuilder {
	return newQueryBuilder(e, queryID)
}

// RegisterOptions controls Register's cold-start behavior.
type RegisterOptions struct {
	ColdStart bool
}

// Register builds qb's graph and registers it with the engine, running
// cold start (per RegisterOptions.ColdStart) before returning the handle.
// A duplicate query id fails (DuplicateQuery).
func (e *Engine) Register(qb *QueryBuilder, opts RegisterOptions) (*QueryHandle, error) {
	if qb.err != nil {
		return nil, qb.err
	}
	e.mu.Lock()
	if _, exists := e.handles[qb.id]; exists {
		e.mu.Unlock()
		return nil, diag.Configuration("engine.Engine.Register", "query %q already registered (DuplicateQuery)", qb.id)
	}
	e.mu.Unlock()

	g, err := qb.builder.Build()
	if err != nil {
		return nil, err
	}
	if err := e.ge.Register(g, opts.ColdStart); err != nil {
		return nil, err
	}

	h := &QueryHandle{
		id:     qb.id,
		engine: e,
		graph:  g,
		active: true,
	}
	e.mu.Lock()
	e.handles[qb.id] = h
	e.mu.Unlock()
	return h, nil
}
