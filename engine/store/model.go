// Package store persists navigation nodes and edges in Neo4j and serves
// the full-snapshot reads the in-memory graph is rebuilt from.
package store

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/wayfindAI/wayfind-mvp/engine/nav"
)

// nodeToMap flattens a node into Neo4j properties. Unset coordinates are
// omitted entirely so has-coordinates checks stay meaningful.
func nodeToMap(n nav.Node) map[string]any {
	props := map[string]any{
		"id":        n.ID,
		"name":      n.Name,
		"floor":     int64(n.Floor),
		"node_type": string(n.Type),
	}
	if n.Detail != "" {
		props["detail"] = n.Detail
	}
	if n.X != nil {
		props["x"] = *n.X
	}
	if n.Y != nil {
		props["y"] = *n.Y
	}
	return props
}

// nodeFromProps constructs a node from Neo4j node properties.
func nodeFromProps(props map[string]any) nav.Node {
	n := nav.Node{
		ID:     strProp(props, "id"),
		Name:   strProp(props, "name"),
		Detail: strProp(props, "detail"),
		Floor:  int(intProp(props, "floor")),
		Type:   nav.NodeType(strProp(props, "node_type")),
	}
	if x, ok := floatProp(props, "x"); ok {
		n.X = &x
	}
	if y, ok := floatProp(props, "y"); ok {
		n.Y = &y
	}
	return n
}

// edgeFromRecord constructs an edge from a (fromID, toID, rel) row.
func edgeFromRecord(record *neo4j.Record) (nav.Edge, bool) {
	fromVal, _ := record.Get("from")
	toVal, _ := record.Get("to")
	relVal, _ := record.Get("r")

	from, okFrom := fromVal.(string)
	to, okTo := toVal.(string)
	rel, okRel := relVal.(dbtype.Relationship)
	if !okFrom || !okTo || !okRel {
		return nav.Edge{}, false
	}

	edgeType := nav.EdgeType(strProp(rel.Props, "edge_type"))
	if edgeType == "" {
		edgeType = nav.EdgeNormal
	}
	weight, _ := floatProp(rel.Props, "weight")
	return nav.Edge{
		From:       from,
		To:         to,
		Weight:     weight,
		Type:       edgeType,
		IsVertical: edgeType == nav.EdgeStairs || edgeType == nav.EdgeLifts,
	}, true
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func intProp(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func floatProp(props map[string]any, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}
