package nav

import (
	"container/heap"
	"math"
)

// Per-floor cost estimates used by the heuristic. These are pragmatic
// approximations of stair/lift traversal cost in map units, not proven
// lower bounds, so the heuristic is not guaranteed admissible. Tests pin
// exact paths on fixed graphs instead of asserting general optimality.
const (
	floorPenaltyPositioned = 30
	floorPenaltyFallback   = 50
)

// heuristic estimates the remaining distance between two nodes: Euclidean
// pixel distance plus a per-floor penalty when both nodes are positioned,
// otherwise the floor difference alone.
func (s *Snapshot) heuristic(fromID, toID string) float64 {
	a, okA := s.nodes[fromID]
	b, okB := s.nodes[toID]
	if !okA || !okB {
		return 0
	}

	floorDiff := math.Abs(float64(a.Floor - b.Floor))
	if a.Positioned() && b.Positioned() {
		dx := *a.X - *b.X
		dy := *a.Y - *b.Y
		return math.Hypot(dx, dy) + floorDiff*floorPenaltyPositioned
	}
	return floorDiff * floorPenaltyFallback
}

// frontierItem is an open-set entry ordered by f, then g, then node id.
// The g and id tie-breaks mirror the lexicographic ordering of the tuple
// the frontier was originally keyed on, keeping equal-f pops deterministic.
type frontierItem struct {
	f  float64
	g  float64
	id string
}

type frontier []frontierItem

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].id < q[j].id
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) { *q = append(*q, x.(frontierItem)) }

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// AStar runs A* from startID to endID and returns the total distance and
// the ordered node-id path. An unknown endpoint or an exhausted frontier
// is a "no route" result: (+Inf, nil). start == end returns (0, [start])
// without searching.
func (s *Snapshot) AStar(startID, endID string) (float64, []string) {
	if !s.Contains(startID) || !s.Contains(endID) {
		return math.Inf(1), nil
	}
	if startID == endID {
		return 0, []string{startID}
	}

	open := &frontier{{f: 0, g: 0, id: startID}}
	heap.Init(open)

	closed := make(map[string]struct{})
	gScores := map[string]float64{startID: 0}
	cameFrom := map[string]string{}

	for open.Len() > 0 {
		current := heap.Pop(open).(frontierItem)

		if current.id == endID {
			return gScores[endID], reconstruct(cameFrom, endID)
		}

		// A node may be pushed multiple times; only the cheapest pop expands it.
		if _, done := closed[current.id]; done {
			continue
		}
		closed[current.id] = struct{}{}

		for _, nb := range s.adjacency[current.id] {
			if _, done := closed[nb.to]; done {
				continue
			}
			tentative := gScores[current.id] + nb.weight
			if best, seen := gScores[nb.to]; seen && tentative >= best {
				continue
			}
			gScores[nb.to] = tentative
			cameFrom[nb.to] = current.id
			heap.Push(open, frontierItem{
				f:  tentative + s.heuristic(nb.to, endID),
				g:  tentative,
				id: nb.to,
			})
		}
	}

	return math.Inf(1), nil
}

// reconstruct walks predecessor links back to the start and reverses.
func reconstruct(cameFrom map[string]string, endID string) []string {
	path := []string{endID}
	for {
		prev, ok := cameFrom[path[len(path)-1]]
		if !ok {
			break
		}
		path = append(path, prev)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
