// Command importer loads building map data (nodes and edges) from a JSON
// file into Neo4j and announces the change over NATS so running API
// instances rebuild their graph snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/wayfindAI/wayfind-mvp/engine/nav"
	"github.com/wayfindAI/wayfind-mvp/engine/store"
	"github.com/wayfindAI/wayfind-mvp/pkg/fn"
	"github.com/wayfindAI/wayfind-mvp/pkg/natsutil"
)

const invalidateSubject = "wayfind.graph.invalidate"

// mapFile is the JSON layout produced by the floor-plan editor.
type mapFile struct {
	Nodes []mapNode `json:"nodes"`
	Edges []mapEdge `json:"edges"`
}

type mapNode struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Detail string   `json:"detail"`
	Floor  *int     `json:"floor"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Type   string   `json:"node_type"`
}

type mapEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
	Type   string  `json:"edge_type"`
}

func main() {
	var (
		file      = flag.String("file", "", "map data JSON file (required)")
		neo4jURL  = flag.String("neo4j", "neo4j://localhost:7687", "Neo4j bolt URL")
		neo4jUser = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass = flag.String("neo4j-pass", "password", "Neo4j password")
		natsURL   = flag.String("nats", nats.DefaultURL, "NATS server URL, empty to skip the change event")
		clear     = flag.Bool("clear", false, "delete all existing nodes and edges first")
		edgesOnly = flag.Bool("edges-only", false, "import edges only, leave node records untouched")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if *file == "" {
		log.Error("-file is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *file, *neo4jURL, *neo4jUser, *neo4jPass, *natsURL, *clear, *edgesOnly, log); err != nil {
		log.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file, neo4jURL, neo4jUser, neo4jPass, natsURL string, clear, edgesOnly bool, log *slog.Logger) error {
	nodes, edges, err := loadMapFile(file, edgesOnly, log)
	if err != nil {
		return err
	}
	log.Info("map data loaded", "file", file, "nodes", len(nodes), "edges", len(edges))

	driver, err := neo4j.NewDriverWithContext(neo4jURL, neo4j.BasicAuth(neo4jUser, neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j verify: %w", err)
	}

	st := store.New(driver)

	if clear {
		if edgesOnly {
			return fmt.Errorf("-clear and -edges-only are mutually exclusive")
		}
		log.Info("clearing existing map data")
		if err := st.ClearAll(ctx); err != nil {
			return err
		}
	}

	// Transient Neo4j faults (leader election, restarts) are worth a few
	// retries before giving up on the whole import.
	result := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[struct{}] {
		if err := st.SaveBatch(ctx, nodes, edges); err != nil {
			log.Warn("save batch failed, retrying", "err", err)
			return fn.Err[struct{}](err)
		}
		return fn.Ok(struct{}{})
	})
	if _, err := result.Unwrap(); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	log.Info("import complete", "nodes", len(nodes), "edges", len(edges))

	if natsURL == "" {
		return nil
	}
	nc, err := nats.Connect(natsURL)
	if err != nil {
		log.Warn("nats connect failed, skipping change event", "err", err)
		return nil
	}
	defer nc.Close()

	ev := map[string]string{"reason": "map data imported: " + file}
	if err := natsutil.Publish(ctx, nc, invalidateSubject, ev); err != nil {
		log.Warn("publish change event failed", "err", err)
		return nil
	}
	if err := nc.Flush(); err != nil {
		log.Warn("nats flush failed", "err", err)
	}
	log.Info("change event published", "subject", invalidateSubject)
	return nil
}

// loadMapFile reads and validates the map JSON. Invalid records are
// skipped with a warning rather than failing the import.
func loadMapFile(path string, edgesOnly bool, log *slog.Logger) ([]nav.Node, []nav.Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var mf mapFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var nodes []nav.Node
	if !edgesOnly {
		for _, mn := range mf.Nodes {
			n, ok := toNode(mn)
			if !ok {
				log.Warn("skipping invalid node", "record", mn)
				continue
			}
			nodes = append(nodes, n)
		}
	}

	var edges []nav.Edge
	for _, me := range mf.Edges {
		e, ok := toEdge(me)
		if !ok {
			log.Warn("skipping invalid edge", "record", me)
			continue
		}
		edges = append(edges, e)
	}
	return nodes, edges, nil
}

func toNode(mn mapNode) (nav.Node, bool) {
	if mn.ID == "" {
		return nav.Node{}, false
	}
	n := nav.Node{
		ID:     mn.ID,
		Name:   mn.Name,
		Detail: mn.Detail,
		Floor:  1,
		X:      mn.X,
		Y:      mn.Y,
		Type:   nav.NodeType(mn.Type),
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	if mn.Floor != nil {
		n.Floor = *mn.Floor
	}
	if n.Type == "" {
		n.Type = nav.InferNodeType(n.ID, n.Name)
	}
	return n, true
}

func toEdge(me mapEdge) (nav.Edge, bool) {
	if me.From == "" || me.To == "" {
		return nav.Edge{}, false
	}
	e := nav.Edge{
		From:   me.From,
		To:     me.To,
		Weight: me.Weight,
		Type:   nav.EdgeType(me.Type),
	}
	if e.Weight <= 0 {
		e.Weight = 1
	}
	if e.Type == "" {
		e.Type = nav.EdgeNormal
	}
	e.IsVertical = e.Type == nav.EdgeStairs || e.Type == nav.EdgeLifts
	return e, true
}
