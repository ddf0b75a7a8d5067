package nav

import (
	"sort"
	"time"
)

// neighbor is one adjacency entry: the far node plus the traversal cost.
type neighbor struct {
	to     string
	weight float64
	edge   EdgeType
}

// edgeKey indexes edge records by ordered endpoint pair. Edges are
// undirected, so every edge is indexed under both orderings.
type edgeKey struct {
	from, to string
}

// Snapshot is a complete immutable in-memory view of the navigation graph,
// built from a full read of the store at one point in time. Readers share
// snapshots freely; a rebuild produces a new Snapshot and never mutates a
// published one.
type Snapshot struct {
	adjacency map[string][]neighbor
	nodes     map[string]Node
	edges     map[edgeKey]Edge
	order     []string // node IDs sorted ascending, for deterministic iteration
	builtAt   time.Time
}

// NewSnapshot builds a snapshot from full node and edge record sets.
// Every node gets an adjacency entry, so an isolated node is still a valid
// (unreachable) planning endpoint rather than an unknown id.
func NewSnapshot(nodes []Node, edges []Edge) *Snapshot {
	s := &Snapshot{
		adjacency: make(map[string][]neighbor, len(nodes)),
		nodes:     make(map[string]Node, len(nodes)),
		edges:     make(map[edgeKey]Edge, 2*len(edges)),
		builtAt:   time.Now(),
	}

	for _, n := range nodes {
		s.nodes[n.ID] = n
		if _, ok := s.adjacency[n.ID]; !ok {
			s.adjacency[n.ID] = nil
		}
	}

	for _, e := range edges {
		s.edges[edgeKey{e.From, e.To}] = e
		s.edges[edgeKey{e.To, e.From}] = e
		s.adjacency[e.From] = append(s.adjacency[e.From], neighbor{to: e.To, weight: e.Weight, edge: e.Type})
		s.adjacency[e.To] = append(s.adjacency[e.To], neighbor{to: e.From, weight: e.Weight, edge: e.Type})
	}

	s.order = make([]string, 0, len(s.adjacency))
	for id := range s.adjacency {
		s.order = append(s.order, id)
	}
	sort.Strings(s.order)

	return s
}

// Node returns the node record for an id.
func (s *Snapshot) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// EdgeBetween returns the edge record between two directly connected nodes,
// in either direction.
func (s *Snapshot) EdgeBetween(from, to string) (Edge, bool) {
	e, ok := s.edges[edgeKey{from, to}]
	return e, ok
}

// Contains reports whether the id is a known planning endpoint.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.adjacency[id]
	return ok
}

// NodeCount returns the number of loaded nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of undirected edges. The edge index holds
// both orderings, so this halves the index size.
func (s *Snapshot) EdgeCount() int { return len(s.edges) / 2 }

// BuiltAt returns when this snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }
