package recognize

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wayfindAI/wayfind-mvp/engine/nav"
)

// floorLabel extracts a floor number from labels like "L4_LT9".
var floorLabel = regexp.MustCompile(`(?i)L(\d+)`)

// Mapper resolves a similarity-backend label to a navigation node.
type Mapper struct {
	index NodeIndex
}

// NewMapper creates a Mapper over the given node index.
func NewMapper(index NodeIndex) *Mapper {
	return &Mapper{index: index}
}

// MapLabel resolves a label to a node, trying in order: exact id, exact
// name, substring containment in either direction, and finally the first
// node on the floor parsed from the label. Returns false when nothing
// matches.
func (m *Mapper) MapLabel(ctx context.Context, label string) (nav.Node, bool, error) {
	if label == "" {
		return nav.Node{}, false, nil
	}

	if n, ok, err := m.index.NodeByID(ctx, label); err != nil || ok {
		return n, ok, err
	}
	if n, ok, err := m.index.NodeByName(ctx, label); err != nil || ok {
		return n, ok, err
	}

	nodes, err := m.index.AllNodes(ctx)
	if err != nil {
		return nav.Node{}, false, fmt.Errorf("recognize: map label %q: %w", label, err)
	}
	for _, n := range nodes {
		if strings.Contains(n.ID, label) || strings.Contains(label, n.ID) {
			return n, true, nil
		}
		// Empty names would substring-match any label.
		if n.Name != "" && (strings.Contains(n.Name, label) || strings.Contains(label, n.Name)) {
			return n, true, nil
		}
	}

	if floor, ok := FloorFromLabel(label); ok {
		onFloor, err := m.index.NodesByFloor(ctx, floor)
		if err != nil {
			return nav.Node{}, false, fmt.Errorf("recognize: map label %q: %w", label, err)
		}
		if len(onFloor) > 0 {
			return onFloor[0], true, nil
		}
	}

	return nav.Node{}, false, nil
}

// FloorFromLabel parses the floor number out of a label like "L4_LT9".
func FloorFromLabel(label string) (int, bool) {
	match := floorLabel.FindStringSubmatch(label)
	if match == nil {
		return 0, false
	}
	floor, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return floor, true
}
