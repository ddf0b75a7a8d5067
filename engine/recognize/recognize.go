// Package recognize maps place photos to navigation nodes for visual
// self-localization. Recognition backends rank candidate locations; the
// Mapper resolves backend labels to nodes via the in-memory node index.
package recognize

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/wayfindAI/wayfind-mvp/engine/nav"
)

// Candidate is one ranked location guess.
type Candidate struct {
	NodeID     string  `json:"node_id"`
	NodeName   string  `json:"node_name"`
	Detail     string  `json:"detail,omitempty"`
	Floor      int     `json:"floor"`
	Confidence float64 `json:"confidence"`
}

// Recognizer ranks candidate locations for an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, topK int) ([]Candidate, error)
}

// NodeIndex is the query surface the recognition subsystem needs from the
// navigation service.
type NodeIndex interface {
	AllNodes(ctx context.Context) ([]nav.Node, error)
	NodeByID(ctx context.Context, id string) (nav.Node, bool, error)
	NodeByName(ctx context.Context, name string) (nav.Node, bool, error)
	NodesByFloor(ctx context.Context, floor int) ([]nav.Node, error)
}

// MockRecognizer returns random nodes with descending confidences. Used
// when no similarity backend is configured.
type MockRecognizer struct {
	index NodeIndex
	rnd   *rand.Rand
}

// NewMockRecognizer creates a mock recognizer. Pass a fixed seed in tests.
func NewMockRecognizer(index NodeIndex, seed int64) *MockRecognizer {
	return &MockRecognizer{index: index, rnd: rand.New(rand.NewSource(seed))}
}

// Recognize samples topK distinct nodes and assigns descending mock
// confidences in [0.5, 0.95).
func (m *MockRecognizer) Recognize(ctx context.Context, _ []byte, topK int) ([]Candidate, error) {
	nodes, err := m.index.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("recognize: list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	if topK > len(nodes) {
		topK = len(nodes)
	}
	perm := m.rnd.Perm(len(nodes))[:topK]

	confidences := make([]float64, topK)
	for i := range confidences {
		confidences[i] = 0.5 + m.rnd.Float64()*0.45
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(confidences)))

	out := make([]Candidate, topK)
	for i, p := range perm {
		n := nodes[p]
		out[i] = Candidate{
			NodeID:     n.ID,
			NodeName:   n.Name,
			Detail:     n.Detail,
			Floor:      n.Floor,
			Confidence: round2(confidences[i]),
		}
	}
	return out, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
