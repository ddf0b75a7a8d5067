// Package nav implements the in-memory navigation graph for a multi-floor
// building: snapshot building from store records, A* route planning,
// turn-by-turn step rendering, and fuzzy node search.
package nav

import "strings"

// NodeType classifies a navigable point in the building.
type NodeType string

const (
	NodeClassroom NodeType = "classroom"
	NodeStairs    NodeType = "stairs"
	NodeLift      NodeType = "lift"
	NodeCorridor  NodeType = "corridor"
	NodeRestroom  NodeType = "restroom"
	NodeEntrance  NodeType = "entrance"
	NodeOther     NodeType = "other"
)

// EdgeType classifies a connection between two nodes.
type EdgeType string

const (
	EdgeNormal EdgeType = "normal"
	EdgeStairs EdgeType = "stairs"
	EdgeLifts  EdgeType = "lifts"
)

// Node is a navigable point: a room, stairwell, lift lobby, corridor
// junction, and so on. X and Y are pixel coordinates on the floor's raster
// map; both are nil until the node has been placed manually.
type Node struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Detail string   `json:"detail,omitempty"`
	Floor  int      `json:"floor"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Type   NodeType `json:"node_type,omitempty"`
}

// Positioned reports whether the node has both coordinates set.
func (n Node) Positioned() bool { return n.X != nil && n.Y != nil }

// Edge is an undirected weighted connection between two nodes. The weight
// is a distance; IsVertical is true for stairs and lifts.
type Edge struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Weight     float64  `json:"weight"`
	Type       EdgeType `json:"edge_type"`
	IsVertical bool     `json:"is_vertical"`
}

// PathNode is the per-node detail record attached to a planned route.
type PathNode struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Detail string   `json:"detail,omitempty"`
	Floor  int      `json:"floor"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Type   NodeType `json:"node_type,omitempty"`
}

// NavigationStep is one human-readable instruction along a route.
// FloorChange is nil when the step stays on one floor.
type NavigationStep struct {
	StepNumber  int      `json:"step_number"`
	Instruction string   `json:"instruction"`
	FromNodeID  string   `json:"from_node_id"`
	ToNodeID    string   `json:"to_node_id"`
	Distance    float64  `json:"distance"`
	EdgeType    EdgeType `json:"edge_type"`
	FloorChange *int     `json:"floor_change,omitempty"`
}

// typeRule maps an uppercase substring of a node label to a node type.
type typeRule struct {
	pattern string
	result  NodeType
}

// typeRules is evaluated in order; the first matching pattern wins.
var typeRules = []typeRule{
	{"STAIR", NodeStairs},
	{"LIFT", NodeLift},
	{"ELEVATOR", NodeLift},
	{"RESTROOM", NodeRestroom},
	{"TOILET", NodeRestroom},
	{"ENTRANCE", NodeEntrance},
	{"GATE", NodeEntrance},
	{"CORRIDOR", NodeCorridor},
	{"HALL", NodeCorridor},
}

// InferNodeType classifies a node from its id and name. Unmatched labels
// default to classroom: in the campus import data, plain room codes are
// teaching rooms.
func InferNodeType(id, name string) NodeType {
	label := strings.ToUpper(id + " " + name)
	for _, r := range typeRules {
		if strings.Contains(label, r.pattern) {
			return r.result
		}
	}
	return NodeClassroom
}
