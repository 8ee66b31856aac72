// Command lftjdemo is a minimal REPL over the engine façade: it defines a
// two-relation users/orders join, then lets a caller insert, delete, and
// show rows from a terminal or a one-shot command line argument.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mrechner/lftj-engine/internal/diag"
	"github.com/mrechner/lftj-engine/internal/engine"
	"github.com/mrechner/lftj-engine/internal/graphengine"
	"github.com/mrechner/lftj-engine/internal/schema"
)

func main() {
	// Load env — mirrors the teacher's `_ = godotenv.Load(".env")` convention,
	// wrapped here by engine.NewFromEnv.
	e, err := engine.NewFromEnv(".env")
	if err != nil {
		log.Fatalf("loading engine config: %v", err)
	}

	if err := defineDemoRelations(e); err != nil {
		log.Fatalf("defining relations: %v", err)
	}

	h, err := buildDemoQuery(e)
	if err != nil {
		log.Fatalf("registering query: %v", err)
	}

	unsubscribe, err := h.Subscribe(func(evt engine.Event) {
		printOutputs(evt.Outputs)
	}, engine.SubscribeOptions{})
	if err != nil {
		log.Fatalf("subscribing: %v", err)
	}
	defer unsubscribe()

	seedDemoRows(e)

	fmt.Println("\033[1m\033[36m⚡ lftjdemo\033[0m — incremental join REPL  \033[2m(exit/Ctrl-D to quit)\033[0m")
	fmt.Println("commands: insert <relation> <v...> | delete <relation> <v...> | show | exit")

	if len(os.Args) > 1 {
		runLine(e, h, strings.Join(os.Args[1:], " "))
		return
	}
	runREPL(e, h)
}

func defineDemoRelations(e *engine.Engine) error {
	usersSchema, err := schema.New(
		schema.Attribute{Name: "uid", Type: schema.Integer},
		schema.Attribute{Name: "name", Type: schema.String},
	)
	if err != nil {
		return err
	}
	if _, err := e.RelationSchema("users"); err != nil {
		if err := e.DefineRelation("users", usersSchema); err != nil {
			return err
		}
	}

	ordersSchema, err := schema.New(
		schema.Attribute{Name: "oid", Type: schema.ID},
		schema.Attribute{Name: "uid", Type: schema.Integer},
		schema.Attribute{Name: "amount", Type: schema.Float},
	)
	if err != nil {
		return err
	}
	if _, err := e.RelationSchema("orders"); err != nil {
		if err := e.DefineRelation("orders", ordersSchema); err != nil {
			return err
		}
	}
	return nil
}

// buildDemoQuery registers users ⋈ orders on uid; the join node itself is
// the query's output, with every attribute of both relations.
func buildDemoQuery(e *engine.Engine) (*engine.QueryHandle, error) {
	qb := e.NewQuery("orders_by_user").
		Scan("u", "users", false).
		Scan("o", "orders", false).
		Join("j", "u", "o", []engine.JoinCondition{{LeftAttr: "uid", RightAttr: "uid"}}).
		Output("j")
	return e.Register(qb, engine.RegisterOptions{ColdStart: true})
}

func seedDemoRows(e *engine.Engine) {
	if err := e.Insert("users", []any{1, "Alice"}, []any{2, "Bob"}); err != nil {
		log.Printf("seeding users: %v", err)
	}
	if err := e.Insert("orders", []any{"o1", 1, 19.99}, []any{"o2", 1, 4.50}, []any{"o3", 2, 100.0}); err != nil {
		log.Printf("seeding orders: %v", err)
	}
}

func runREPL(e *engine.Engine, h *engine.QueryHandle) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\033[36m>\033[0m ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		runLine(e, h, line)
	}
}

func runLine(e *engine.Engine, h *engine.QueryHandle, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "insert", "delete":
		if len(fields) < 2 {
			fmt.Println("usage: insert|delete <relation> <v...>")
			return
		}
		relation := fields[1]
		values := fields[2:]
		row, err := parseRow(e, relation, values)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		if fields[0] == "insert" {
			err = e.Insert(relation, row)
		} else {
			err = e.Delete(relation, row)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	case "show":
		outs, err := h.GetResults()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		printOutputs(outs)
	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
}

// parseRow converts space-separated text tokens into a positional row typed
// against relationName's declared schema (coerceRow accepts only Go-native
// values per attribute type, not strings, so numeric attributes are parsed
// here before handing off to Insert/Delete).
func parseRow(e *engine.Engine, relationName string, tokens []string) ([]any, error) {
	s, err := e.RelationSchema(relationName)
	if err != nil {
		return nil, err
	}
	if len(tokens) != s.Arity() {
		return nil, fmt.Errorf("relation %q expects %d values, got %d", relationName, s.Arity(), len(tokens))
	}
	row := make([]any, s.Arity())
	for i, tok := range tokens {
		switch s.TypeAt(i) {
		case schema.Integer:
			n, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %v", s.NameAt(i), err)
			}
			row[i] = int32(n)
		case schema.Float:
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %v", s.NameAt(i), err)
			}
			row[i] = f
		case schema.Boolean:
			b, err := strconv.ParseBool(tok)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %v", s.NameAt(i), err)
			}
			row[i] = b
		default: // String, Symbol, ID, Any
			row[i] = tok
		}
	}
	return row, nil
}

const maxCellWidth = 24

// printOutputs renders every output node's materialized tuples as a table,
// column-padded with go-runewidth (so CJK/wide-rune values line up) and
// clipped with diag.Clip (so a long String/Symbol atom never splits a
// combining character sequence mid-grapheme).
func printOutputs(outs []graphengine.OutputState) {
	for _, out := range outs {
		fmt.Printf("\n\033[1m%s\033[0m (%d rows)\n", out.NodeID, len(out.Tuples))
		for _, tp := range out.Tuples {
			cells := make([]string, tp.Arity())
			for i, a := range tp.Atoms() {
				cells[i] = diag.Clip(a.String(), maxCellWidth)
			}
			fmt.Println(formatRow(cells))
		}
	}
}

func formatRow(cells []string) string {
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(runewidth.FillRight(c, maxCellWidth))
	}
	return strings.TrimRight(sb.String(), " ")
}
