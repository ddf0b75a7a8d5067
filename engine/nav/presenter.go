package nav

import (
	"fmt"
	"sort"

	"github.com/wayfindAI/wayfind-mvp/pkg/fn"
)

// Steps renders a raw node-id path into ordered turn-by-turn instructions,
// one per traversed edge. A path shorter than two nodes has no steps.
func (s *Snapshot) Steps(path []string) []NavigationStep {
	if len(path) < 2 {
		return nil
	}

	steps := make([]NavigationStep, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		fromID, toID := path[i], path[i+1]
		from := s.nodes[fromID]
		to := s.nodes[toID]

		edgeType := EdgeNormal
		weight := 0.0
		if e, ok := s.EdgeBetween(fromID, toID); ok {
			edgeType = e.Type
			weight = e.Weight
		}

		var floorChange *int
		if from.Floor != to.Floor {
			diff := to.Floor - from.Floor
			floorChange = &diff
		}

		steps = append(steps, NavigationStep{
			StepNumber:  i + 1,
			Instruction: instruction(to, toID, edgeType, weight, floorChange),
			FromNodeID:  fromID,
			ToNodeID:    toID,
			Distance:    weight,
			EdgeType:    edgeType,
			FloorChange: floorChange,
		})
	}
	return steps
}

// instruction selects the phrasing for one step by edge type.
func instruction(to Node, toID string, edgeType EdgeType, weight float64, floorChange *int) string {
	toName := to.Name
	if toName == "" {
		toName = toID
	}

	switch edgeType {
	case EdgeStairs:
		if floorChange != nil && *floorChange > 0 {
			return fmt.Sprintf("Go up %d %s via stairs to Level %d", *floorChange, floorsWord(*floorChange), to.Floor)
		}
		if floorChange != nil && *floorChange < 0 {
			return fmt.Sprintf("Go down %d %s via stairs to Level %d", -*floorChange, floorsWord(-*floorChange), to.Floor)
		}
		return fmt.Sprintf("Pass through stairs to %s", toName)
	case EdgeLifts:
		if floorChange != nil {
			return fmt.Sprintf("Take lift to Level %d", to.Floor)
		}
		return fmt.Sprintf("Pass through lift to %s", toName)
	default:
		if to.Detail != "" {
			return fmt.Sprintf("Walk about %.0fM to %s (%s)", weight, toName, to.Detail)
		}
		return fmt.Sprintf("Walk about %.0fM to %s", weight, toName)
	}
}

const walkingSpeed = 1.2 // meters per second

// FormatDistance renders a total distance for display.
func FormatDistance(distance float64) string {
	if distance < 1000 {
		return fmt.Sprintf("%.0f M", distance)
	}
	return fmt.Sprintf("%.1f KM", distance/1000)
}

// EstimateTime renders the walking time for a distance in meters.
func EstimateTime(distance float64) string {
	seconds := distance / walkingSpeed
	switch {
	case seconds < 60:
		return fmt.Sprintf("About %.0f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("About %.0f minutes", seconds/60)
	default:
		return fmt.Sprintf("About %.1f hours", seconds/3600)
	}
}

func floorsWord(n int) string {
	if n == 1 {
		return "floor"
	}
	return "floors"
}

// FloorsInPath returns the sorted distinct floors visited by the path.
func (s *Snapshot) FloorsInPath(path []string) []int {
	floors := fn.FilterMap(path, func(id string) (int, bool) {
		n, ok := s.nodes[id]
		return n.Floor, ok
	})
	floors = fn.Unique(floors)
	sort.Ints(floors)
	return floors
}

// PathNodes returns the detail record for every path entry. An id missing
// from the index degrades to a record named after the id on floor 0 rather
// than failing the whole route.
func (s *Snapshot) PathNodes(path []string) []PathNode {
	return fn.Map(path, func(id string) PathNode {
		n, ok := s.nodes[id]
		if !ok {
			return PathNode{ID: id, Name: id, Floor: 0}
		}
		return PathNode{
			ID:     n.ID,
			Name:   n.Name,
			Detail: n.Detail,
			Floor:  n.Floor,
			X:      n.X,
			Y:      n.Y,
			Type:   n.Type,
		}
	})
}
