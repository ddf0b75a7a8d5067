package store

import (
	"testing"

	"github.com/wayfindAI/wayfind-mvp/engine/nav"
)

func TestNodeToMapOmitsUnsetFields(t *testing.T) {
	n := nav.Node{ID: "LT5", Name: "LectureTheater5", Floor: 2, Type: nav.NodeClassroom}
	m := nodeToMap(n)

	if m["id"] != "LT5" || m["name"] != "LectureTheater5" {
		t.Fatalf("identity props wrong: %v", m)
	}
	if m["floor"] != int64(2) {
		t.Fatalf("expected floor int64(2), got %T %v", m["floor"], m["floor"])
	}
	if _, ok := m["x"]; ok {
		t.Error("unset x must be omitted")
	}
	if _, ok := m["detail"]; ok {
		t.Error("empty detail must be omitted")
	}
}

func TestNodeRoundTrip(t *testing.T) {
	x, y := 120.5, 44.0
	in := nav.Node{
		ID:     "STAIR_N2",
		Name:   "StairsNorth2",
		Detail: "north wing",
		Floor:  2,
		X:      &x,
		Y:      &y,
		Type:   nav.NodeStairs,
	}
	out := nodeFromProps(nodeToMap(in))

	if out.ID != in.ID || out.Name != in.Name || out.Detail != in.Detail {
		t.Fatalf("identity mismatch: %+v", out)
	}
	if out.Floor != 2 || out.Type != nav.NodeStairs {
		t.Fatalf("floor/type mismatch: %+v", out)
	}
	if !out.Positioned() || *out.X != 120.5 || *out.Y != 44.0 {
		t.Fatalf("coordinates mismatch: %+v", out)
	}
}

func TestNodeFromPropsUnpositioned(t *testing.T) {
	out := nodeFromProps(map[string]any{
		"id":    "WC3",
		"name":  "Restroom3",
		"floor": int64(3),
	})
	if out.Positioned() {
		t.Fatal("node without x/y props must be unpositioned")
	}
	if out.Floor != 3 {
		t.Fatalf("expected floor 3, got %d", out.Floor)
	}
}

func TestNodeFromPropsCoercesNumerics(t *testing.T) {
	// Neo4j may hand back integers where floats were written and vice versa.
	out := nodeFromProps(map[string]any{
		"id":    "A",
		"name":  "A",
		"floor": float64(4),
		"x":     int64(10),
		"y":     float64(20),
	})
	if out.Floor != 4 {
		t.Errorf("expected floor 4, got %d", out.Floor)
	}
	if out.X == nil || *out.X != 10 {
		t.Errorf("expected x=10, got %v", out.X)
	}
}
