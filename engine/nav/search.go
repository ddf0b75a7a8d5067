package nav

import "strings"

// Search returns nodes whose id, name, or detail contains the keyword,
// case-insensitively. Results come back in ascending node-id order so that
// "first match wins" target resolution is deterministic across rebuilds
// (Go map iteration order would not be).
func (s *Snapshot) Search(keyword string) []Node {
	kw := strings.ToLower(keyword)
	var out []Node
	for _, id := range s.order {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(n.ID), kw) ||
			strings.Contains(strings.ToLower(n.Name), kw) ||
			strings.Contains(strings.ToLower(n.Detail), kw) {
			out = append(out, n)
		}
	}
	return out
}

// All returns every node, in ascending id order.
func (s *Snapshot) All() []Node {
	out := make([]Node, 0, len(s.nodes))
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// ByFloor returns every node on the given floor, in ascending id order.
func (s *Snapshot) ByFloor(floor int) []Node {
	var out []Node
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok && n.Floor == floor {
			out = append(out, n)
		}
	}
	return out
}

// ByName returns the first node whose name matches exactly.
func (s *Snapshot) ByName(name string) (Node, bool) {
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok && n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}
