package graph

import (
	"testing"

	"github.com/mrechner/lftj-engine/internal/atom"
	"github.com/mrechner/lftj-engine/internal/delta"
	"github.com/mrechner/lftj-engine/internal/node"
	"github.com/mrechner/lftj-engine/internal/tuple"
)

func TestBuilder_LinearChainExecutionOrder(t *testing.T) {
	g, err := NewBuilder("g1").
		Scan("r", "r", 2, false).
		Project("p", "r", []int{0}).
		Output("p").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	order := g.ExecutionOrder()
	if len(order) != 2 {
		t.Fatalf("expected 2 nodes in execution order, got %d", len(order))
	}
	if order[0].ID() != "r" || order[1].ID() != "p" {
		t.Fatalf("expected scan before project, got %s then %s", order[0].ID(), order[1].ID())
	}

	if got := g.ScanByRelation("r"); got == nil || got.ID() != "r" {
		t.Errorf("ScanByRelation(%q) = %v, want scan r", "r", got)
	}
	if got := g.ScanByRelation("missing"); got != nil {
		t.Errorf("ScanByRelation(missing) = %v, want nil", got)
	}

	names := g.RelationNames()
	if len(names) != 1 || names[0] != "r" {
		t.Errorf("RelationNames() = %v, want [r]", names)
	}

	outs := g.OutputIDs()
	if len(outs) != 1 || outs[0] != "p" {
		t.Errorf("OutputIDs() = %v, want [p]", outs)
	}
}

func TestBuilder_DiffAndJoinWiring(t *testing.T) {
	spec := node.AtomSpec{Vars: []node.VarSpec{
		{Name: "k", Mentions: map[int]int{0: 0, 1: 0}},
		{Name: "v", Mentions: map[int]int{1: 1}},
	}}
	g, err := NewBuilder("g2").
		Scan("left", "left", 1, false).
		Scan("right", "right", 2, false).
		Diff("d", "left", "right", []int{0}).
		Join("j", []string{"left", "right"}, spec).
		Union("u", []string{"d", "j"}).
		Output("u").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NodeByID("d") == nil || g.NodeByID("j") == nil {
		t.Fatal("expected diff and join nodes to be registered")
	}
	order := g.ExecutionOrder()
	pos := map[string]int{}
	for i, n := range order {
		pos[n.ID()] = i
	}
	if pos["left"] > pos["d"] || pos["right"] > pos["d"] {
		t.Error("diff must come after both its inputs")
	}
	if pos["left"] > pos["j"] || pos["right"] > pos["j"] {
		t.Error("join must come after both its inputs")
	}
	if pos["d"] > pos["u"] || pos["j"] > pos["u"] {
		t.Error("union must come after both its inputs")
	}
}

func TestBuilder_NoOutputsFails(t *testing.T) {
	_, err := NewBuilder("g3").
		Scan("r", "r", 1, false).
		Build()
	if err == nil {
		t.Fatal("expected error for a graph with no outputs")
	}
}

func TestBuilder_DanglingEdgeFails(t *testing.T) {
	_, err := NewBuilder("g4").
		Project("p", "nonexistent", []int{0}).
		Output("p").
		Build()
	if err == nil {
		t.Fatal("expected error for a dangling edge")
	}
}

func TestBuilder_MissingProjectIndicesFails(t *testing.T) {
	_, err := NewBuilder("g5").
		Scan("r", "r", 2, false).
		Project("p", "r", nil).
		Output("p").
		Build()
	if err == nil {
		t.Fatal("expected error for a project with no indices")
	}
}

func TestBuilder_MissingJoinSpecFails(t *testing.T) {
	_, err := NewBuilder("g6").
		Scan("a", "a", 1, false).
		Scan("b", "b", 1, false).
		Join("j", []string{"a", "b"}, node.AtomSpec{}).
		Output("j").
		Build()
	if err == nil {
		t.Fatal("expected error for a join with an empty atom spec")
	}
}

func TestBuilder_DuplicateIDFails(t *testing.T) {
	_, err := NewBuilder("g7").
		Scan("r", "r", 1, false).
		Scan("r", "other", 1, false).
		Output("r").
		Build()
	if err == nil {
		t.Fatal("expected error for a duplicate node id")
	}
}

func TestBuilder_OutputOfUnknownIDFails(t *testing.T) {
	_, err := NewBuilder("g8").
		Scan("r", "r", 1, false).
		Output("nope").
		Build()
	if err == nil {
		t.Fatal("expected error designating an unregistered id as output")
	}
}

func TestQueryGraph_ResetNodesClearsEveryStatefulOperator(t *testing.T) {
	g, err := NewBuilder("g10").
		Scan("r", "r", 2, false).
		Project("p", "r", []int{0}).
		Output("p").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	scan := g.ScanByRelation("r")
	tp, err := tuple.New(atom.Integer(1), atom.String("a"))
	if err != nil {
		t.Fatalf("tuple.New: %v", err)
	}
	scan.Apply(delta.New([]tuple.Tuple{tp}, nil))

	proj := g.NodeByID("p").(*node.Project)
	if len(proj.Materialized()) != 1 {
		t.Fatalf("expected project to have a materialized tuple before reset, got %v", proj.Materialized())
	}

	g.ResetNodes()

	if len(proj.Materialized()) != 0 {
		t.Errorf("expected project's state cleared after ResetNodes, got %v", proj.Materialized())
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, err := NewBuilder("g9").
		Project("p1", "missing-a", []int{0}).
		Project("p2", "missing-b", []int{0}).
		Output("p1").
		Build()
	if err == nil {
		t.Fatal("expected an error")
	}
}
