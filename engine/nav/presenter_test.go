package nav

import (
	"strings"
	"testing"
)

func TestStepsDegeneratePath(t *testing.T) {
	s := campusSnapshot()
	if steps := s.Steps(nil); len(steps) != 0 {
		t.Fatalf("expected no steps for empty path, got %d", len(steps))
	}
	if steps := s.Steps([]string{"A"}); len(steps) != 0 {
		t.Fatalf("expected no steps for 1-node path, got %d", len(steps))
	}
}

func TestStepsCountAndNumbering(t *testing.T) {
	s := campusSnapshot()
	steps := s.Steps([]string{"A", "B", "C"})
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	for i, st := range steps {
		if st.StepNumber != i+1 {
			t.Errorf("step %d numbered %d", i, st.StepNumber)
		}
	}
	if steps[0].FromNodeID != "A" || steps[0].ToNodeID != "B" {
		t.Errorf("step 1 endpoints wrong: %s -> %s", steps[0].FromNodeID, steps[0].ToNodeID)
	}
	if steps[1].FromNodeID != "B" || steps[1].ToNodeID != "C" {
		t.Errorf("step 2 endpoints wrong: %s -> %s", steps[1].FromNodeID, steps[1].ToNodeID)
	}
}

func TestStepInstructions(t *testing.T) {
	s := campusSnapshot()
	steps := s.Steps([]string{"A", "B", "C"})

	if want := "Walk about 100M to CorridorB"; steps[0].Instruction != want {
		t.Errorf("expected %q, got %q", want, steps[0].Instruction)
	}
	if steps[0].FloorChange != nil {
		t.Errorf("expected nil floor change on same-floor step, got %v", *steps[0].FloorChange)
	}

	if want := "Go up 1 floor via stairs to Level 2"; steps[1].Instruction != want {
		t.Errorf("expected %q, got %q", want, steps[1].Instruction)
	}
	if steps[1].FloorChange == nil || *steps[1].FloorChange != 1 {
		t.Errorf("expected floor change +1, got %v", steps[1].FloorChange)
	}

	// Downward stairs pluralize floors.
	down := s.Steps([]string{"C", "B"})
	if want := "Go down 1 floor via stairs to Level 1"; down[0].Instruction != want {
		t.Errorf("expected %q, got %q", want, down[0].Instruction)
	}
}

func TestStepInstructionVariants(t *testing.T) {
	nodes := []Node{
		{ID: "l1", Name: "LiftLobby1", Floor: 1},
		{ID: "l4", Name: "LiftLobby4", Floor: 4},
		{ID: "l4b", Name: "LiftLobby4B", Floor: 4},
		{ID: "r", Name: "LT9", Detail: "NS4-04-09", Floor: 4},
	}
	edges := []Edge{
		{From: "l1", To: "l4", Weight: 3, Type: EdgeLifts, IsVertical: true},
		{From: "l4", To: "l4b", Weight: 2, Type: EdgeLifts},
		{From: "l4b", To: "r", Weight: 12, Type: EdgeNormal},
	}
	s := NewSnapshot(nodes, edges)
	steps := s.Steps([]string{"l1", "l4", "l4b", "r"})

	tests := []struct{ got, want string }{
		{steps[0].Instruction, "Take lift to Level 4"},
		{steps[1].Instruction, "Pass through lift to LiftLobby4B"},
		{steps[2].Instruction, "Walk about 12M to LT9 (NS4-04-09)"},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("step %d: expected %q, got %q", i+1, tt.want, tt.got)
		}
	}
}

func TestStairsWithoutFloorChange(t *testing.T) {
	nodes := []Node{
		{ID: "s1", Name: "StairsNorth", Floor: 2},
		{ID: "s2", Name: "StairsLanding", Floor: 2},
	}
	edges := []Edge{{From: "s1", To: "s2", Weight: 4, Type: EdgeStairs}}
	s := NewSnapshot(nodes, edges)
	steps := s.Steps([]string{"s1", "s2"})
	if !strings.HasPrefix(steps[0].Instruction, "Pass through stairs to") {
		t.Errorf("expected pass-through phrasing, got %q", steps[0].Instruction)
	}
}

func TestFloorsInPath(t *testing.T) {
	s := campusSnapshot()
	floors := s.FloorsInPath([]string{"C", "B", "A"})
	if len(floors) != 2 || floors[0] != 1 || floors[1] != 2 {
		t.Fatalf("expected sorted floors [1 2], got %v", floors)
	}

	single := s.FloorsInPath([]string{"A", "B"})
	if len(single) != 1 || single[0] != 1 {
		t.Fatalf("expected singleton [1], got %v", single)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		distance float64
		want     string
	}{
		{42, "42 M"},
		{999.4, "999 M"},
		{1000, "1.0 KM"},
		{1550, "1.6 KM"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.distance); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.distance, got, tt.want)
		}
	}
}

func TestEstimateTime(t *testing.T) {
	tests := []struct {
		distance float64
		want     string
	}{
		{12, "About 10 seconds"},
		{720, "About 10 minutes"},
		{8640, "About 2.0 hours"},
	}
	for _, tt := range tests {
		if got := EstimateTime(tt.distance); got != tt.want {
			t.Errorf("EstimateTime(%v) = %q, want %q", tt.distance, got, tt.want)
		}
	}
}

func TestPathNodesDegradedRecord(t *testing.T) {
	s := campusSnapshot()
	pn := s.PathNodes([]string{"A", "ghost"})
	if len(pn) != 2 {
		t.Fatalf("expected 2 path nodes, got %d", len(pn))
	}
	if pn[0].Name != "EntranceA" || pn[0].Floor != 1 {
		t.Errorf("unexpected record for A: %+v", pn[0])
	}
	if pn[1].ID != "ghost" || pn[1].Name != "ghost" || pn[1].Floor != 0 {
		t.Errorf("expected degraded record for unknown id, got %+v", pn[1])
	}
}
