package engine

import (
	"errors"
	"testing"

	"github.com/mrechner/lftj-engine/internal/schema"
)

func usersOrdersEngine(t *testing.T) (*Engine, *QueryHandle) {
	t.Helper()
	e := New()

	users, err := schema.New(
		schema.Attribute{Name: "uid", Type: schema.Integer},
		schema.Attribute{Name: "name", Type: schema.String},
	)
	if err != nil {
		t.Fatalf("schema.New(users): %v", err)
	}
	if err := e.DefineRelation("users", users); err != nil {
		t.Fatalf("DefineRelation(users): %v", err)
	}

	orders, err := schema.New(
		schema.Attribute{Name: "oid", Type: schema.Integer},
		schema.Attribute{Name: "uid", Type: schema.Integer},
		schema.Attribute{Name: "amount", Type: schema.Float},
	)
	if err != nil {
		t.Fatalf("schema.New(orders): %v", err)
	}
	if err := e.DefineRelation("orders", orders); err != nil {
		t.Fatalf("DefineRelation(orders): %v", err)
	}

	qb := e.NewQuery("q1").
		Scan("u", "users", false).
		Scan("o", "orders", false).
		Join("j", "u", "o", []JoinCondition{{LeftAttr: "uid", RightAttr: "uid"}}).
		Output("j")

	h, err := e.Register(qb, RegisterOptions{ColdStart: true})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return e, h
}

func TestEngine_InsertJoinAndGetResults(t *testing.T) {
	e, h := usersOrdersEngine(t)

	if err := e.Insert("users", []any{1, "alice"}, []any{2, "bob"}); err != nil {
		t.Fatalf("Insert(users): %v", err)
	}
	if err := e.Insert("orders", []any{100, 1, 9.5}); err != nil {
		t.Fatalf("Insert(orders): %v", err)
	}

	states, err := h.GetResults()
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(states) != 1 || len(states[0].Tuples) != 1 {
		t.Fatalf("expected exactly one joined tuple, got %+v", states)
	}
}

func TestEngine_SubscribeReceivesEventOnDelta(t *testing.T) {
	e, h := usersOrdersEngine(t)

	var events int
	unsubscribe, err := h.Subscribe(func(Event) { events++ }, SubscribeOptions{IncludeDeltas: true})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	if err := e.Insert("users", []any{1, "alice"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if events != 1 {
		t.Errorf("expected 1 notification, got %d", events)
	}

	unsubscribe()
	if err := e.Insert("users", []any{2, "bob"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if events != 1 {
		t.Errorf("expected no further notification after unsubscribe, got %d total", events)
	}
}

func TestEngine_TransactionRollbackDiscardsDeltas(t *testing.T) {
	e, h := usersOrdersEngine(t)

	var notified bool
	unsubscribe, err := h.Subscribe(func(Event) { notified = true }, SubscribeOptions{})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	boom := errors.New("boom")
	err = e.Transaction(func() error {
		if err := e.Insert("users", []any{1, "alice"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the transaction's own error back, got %v", err)
	}
	if notified {
		t.Error("expected no subscriber notification for a rolled-back transaction")
	}

	states, err := h.GetResults()
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(states[0].Tuples) != 0 {
		t.Errorf("expected no committed tuples after rollback, got %+v", states)
	}
}

func TestEngine_TransactionCommitsOnSuccess(t *testing.T) {
	e, h := usersOrdersEngine(t)

	err := e.Transaction(func() error {
		return e.Insert("users", []any{1, "alice"})
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	if err := e.Insert("orders", []any{100, 1, 9.5}); err != nil {
		t.Fatalf("Insert(orders): %v", err)
	}

	states, err := h.GetResults()
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(states[0].Tuples) != 1 {
		t.Errorf("expected the join to see the committed user row, got %+v", states)
	}
}

func TestEngine_ResetClearsOperatorStateWithoutDeactivating(t *testing.T) {
	e, h := usersOrdersEngine(t)

	if err := e.Insert("users", []any{1, "alice"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := e.Insert("orders", []any{100, 1, 9.5}); err != nil {
		t.Fatalf("Insert(orders): %v", err)
	}
	states, _ := h.GetResults()
	if len(states[0].Tuples) != 1 {
		t.Fatalf("expected a joined tuple before reset, got %+v", states)
	}

	if err := h.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	states, err := h.GetResults()
	if err != nil {
		t.Fatalf("GetResults after Reset: %v", err)
	}
	if len(states[0].Tuples) != 0 {
		t.Errorf("expected operator state cleared after Reset, got %+v", states)
	}

	stats, err := h.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics after Reset: %v", err)
	}
	if stats.UpdatesApplied != 0 || stats.TuplesAdded != 0 {
		t.Errorf("expected statistics cleared after Reset, got %+v", stats)
	}

	// The handle must still be usable: inserts after Reset flow normally.
	if err := e.Insert("users", []any{2, "carol"}); err != nil {
		t.Fatalf("Insert after Reset: %v", err)
	}
	if err := e.Insert("orders", []any{101, 2, 4.0}); err != nil {
		t.Fatalf("Insert(orders) after Reset: %v", err)
	}
	states, _ = h.GetResults()
	if len(states[0].Tuples) != 1 {
		t.Errorf("expected the join to resume working after Reset, got %+v", states)
	}
}

func TestEngine_DeactivateRejectsFurtherOperations(t *testing.T) {
	_, h := usersOrdersEngine(t)

	if err := h.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := h.GetResults(); err == nil {
		t.Error("expected GetResults on a deactivated handle to fail")
	}
}

func TestEngine_InsertAgainstUndeclaredRelationFailsByDefault(t *testing.T) {
	e := New()
	if err := e.Insert("mystery", []any{1}); err == nil {
		t.Fatal("expected an error inserting into an undeclared relation with auto-register off")
	}
}

func TestEngine_AutoRegisterInfersSchemaFromFirstRow(t *testing.T) {
	e := New(WithAutoRegister(true))
	if err := e.Insert("mystery", []any{1, "x"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s, err := e.RelationSchema("mystery")
	if err != nil {
		t.Fatalf("RelationSchema: %v", err)
	}
	if s.Arity() != 2 {
		t.Errorf("expected inferred arity 2, got %d", s.Arity())
	}
}

func TestEngine_DuplicateRelationFails(t *testing.T) {
	e, _ := usersOrdersEngine(t)
	s, _ := schema.New(schema.Attribute{Name: "x", Type: schema.Any})
	if err := e.DefineRelation("users", s); err == nil {
		t.Fatal("expected an error redefining an already-defined relation")
	}
}

func TestEngine_DuplicateQueryIDFails(t *testing.T) {
	e, _ := usersOrdersEngine(t)
	qb := e.NewQuery("q1").Scan("u2", "users", false).Output("u2")
	if _, err := e.Register(qb, RegisterOptions{}); err == nil {
		t.Fatal("expected an error registering a duplicate query id")
	}
}
