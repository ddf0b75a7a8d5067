package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/wayfindAI/wayfind-mvp/engine/nav"
	"github.com/wayfindAI/wayfind-mvp/pkg/repo"
)

// Node and relationship labels in the Neo4j schema. Edges are stored once
// in creation direction and read symmetrically by the graph builder.
const (
	nodeLabel = "NavNode"
	relType   = "CONNECTS"
)

// Store provides durable node/edge records on top of Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
	nodes  *repo.Neo4jRepo[nav.Node, string]
}

// New creates a Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		nodes:  newNodeRepo(driver),
	}
}

func newNodeRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[nav.Node, string] {
	return repo.NewNeo4jRepo[nav.Node, string](
		driver,
		nodeLabel,
		nodeToMap,
		func(record *neo4j.Record) (nav.Node, error) {
			node, _, err := neo4j.GetRecordValue[dbtype.Node](record, "n")
			if err != nil {
				return nav.Node{}, err
			}
			return nodeFromProps(node.Props), nil
		},
	)
}

// GetNode returns a node by id through the generic node repository.
func (s *Store) GetNode(ctx context.Context, id string) (nav.Node, error) {
	n, err := s.nodes.Get(ctx, id)
	if err != nil {
		return nav.Node{}, fmt.Errorf("store: get node %s: %w", id, err)
	}
	return n, nil
}

// SaveNode creates or updates a node record.
func (s *Store) SaveNode(ctx context.Context, n nav.Node) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(`MERGE (n:%s {id: $id}) SET n += $props`, nodeLabel)
	_, err := sess.Run(ctx, cypher, map[string]any{
		"id":    n.ID,
		"props": nodeToMap(n),
	})
	if err != nil {
		return fmt.Errorf("store: save node %s: %w", n.ID, err)
	}
	return nil
}

// UpdateNodePosition sets a node's raster-map coordinates.
func (s *Store) UpdateNodePosition(ctx context.Context, id string, x, y float64) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(`MATCH (n:%s {id: $id}) SET n.x = $x, n.y = $y RETURN n.id`, nodeLabel)
	result, err := sess.Run(ctx, cypher, map[string]any{"id": id, "x": x, "y": y})
	if err != nil {
		return fmt.Errorf("store: update position %s: %w", id, err)
	}
	if !result.Next(ctx) {
		return fmt.Errorf("store: update position: node %s not found", id)
	}
	return nil
}

// DeleteNode removes a node and its connections.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(`MATCH (n:%s {id: $id}) DETACH DELETE n`, nodeLabel)
	if _, err := sess.Run(ctx, cypher, map[string]any{"id": id}); err != nil {
		return fmt.Errorf("store: delete node %s: %w", id, err)
	}
	return nil
}

// SaveEdge creates or updates the connection between two nodes. The edge
// is stored in one direction only; traversal symmetry is the graph
// builder's concern.
func (s *Store) SaveEdge(ctx context.Context, e nav.Edge) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		`MATCH (a:%s {id: $from}), (b:%s {id: $to})
		 MERGE (a)-[r:%s]->(b)
		 SET r.weight = $weight, r.edge_type = $edge_type, r.is_vertical = $is_vertical`,
		nodeLabel, nodeLabel, relType,
	)
	_, err := sess.Run(ctx, cypher, map[string]any{
		"from":        e.From,
		"to":          e.To,
		"weight":      e.Weight,
		"edge_type":   string(e.Type),
		"is_vertical": e.IsVertical,
	})
	if err != nil {
		return fmt.Errorf("store: save edge %s-%s: %w", e.From, e.To, err)
	}
	return nil
}

// FetchAllNodes reads the complete node set. Implements nav.Store.
func (s *Store) FetchAllNodes(ctx context.Context) ([]nav.Node, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(`MATCH (n:%s) RETURN n`, nodeLabel)
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("store: fetch all nodes: %w", err)
	}

	var nodes []nav.Node
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "n")
		if err != nil {
			return nil, fmt.Errorf("store: fetch all nodes: %w", err)
		}
		nodes = append(nodes, nodeFromProps(node.Props))
	}
	return nodes, nil
}

// FetchAllEdges reads the complete edge set. Implements nav.Store.
func (s *Store) FetchAllEdges(ctx context.Context) ([]nav.Edge, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		`MATCH (a:%s)-[r:%s]->(b:%s) RETURN a.id AS from, b.id AS to, r`,
		nodeLabel, relType, nodeLabel,
	)
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("store: fetch all edges: %w", err)
	}

	var edges []nav.Edge
	for result.Next(ctx) {
		if e, ok := edgeFromRecord(result.Record()); ok {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// ClearAll removes every navigation node and its connections. Used by
// the importer's clean-import mode.
func (s *Store) ClearAll(ctx context.Context) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(`MATCH (n:%s) DETACH DELETE n`, nodeLabel)
	if _, err := sess.Run(ctx, cypher, nil); err != nil {
		return fmt.Errorf("store: clear all: %w", err)
	}
	return nil
}

// SaveBatch saves nodes and edges in a single transaction. Used by the
// map-data importer.
func (s *Store) SaveBatch(ctx context.Context, nodes []nav.Node, edges []nav.Edge) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeCypher := fmt.Sprintf(`MERGE (n:%s {id: $id}) SET n += $props`, nodeLabel)
		for _, n := range nodes {
			if _, err := tx.Run(ctx, nodeCypher, map[string]any{
				"id":    n.ID,
				"props": nodeToMap(n),
			}); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, err)
			}
		}
		edgeCypher := fmt.Sprintf(
			`MATCH (a:%s {id: $from}), (b:%s {id: $to})
			 MERGE (a)-[r:%s]->(b)
			 SET r.weight = $weight, r.edge_type = $edge_type, r.is_vertical = $is_vertical`,
			nodeLabel, nodeLabel, relType,
		)
		for _, e := range edges {
			if _, err := tx.Run(ctx, edgeCypher, map[string]any{
				"from":        e.From,
				"to":          e.To,
				"weight":      e.Weight,
				"edge_type":   string(e.Type),
				"is_vertical": e.IsVertical,
			}); err != nil {
				return nil, fmt.Errorf("edge %s-%s: %w", e.From, e.To, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store: save batch: %w", err)
	}
	return nil
}
