package nav

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeStore counts full reads and can be flipped into a failing mode.
type fakeStore struct {
	mu    sync.Mutex
	nodes []Node
	edges []Edge
	fail  bool
	reads atomic.Int64
}

func (f *fakeStore) FetchAllNodes(ctx context.Context) ([]Node, error) {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.nodes, nil
}

func (f *fakeStore) FetchAllEdges(ctx context.Context) ([]Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.edges, nil
}

func (f *fakeStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nodes: []Node{
			{ID: "A", Name: "EntranceA", Floor: 1, X: fp(0), Y: fp(0)},
			{ID: "B", Name: "CorridorB", Floor: 1, X: fp(100), Y: fp(0)},
			{ID: "C", Name: "LT1", Floor: 2, X: fp(0), Y: fp(0)},
			{ID: "D", Name: "Isolated", Floor: 3},
		},
		edges: []Edge{
			{From: "A", To: "B", Weight: 100, Type: EdgeNormal},
			{From: "B", To: "C", Weight: 10, Type: EdgeStairs, IsVertical: true},
		},
	}
}

func TestRouteByTargetID(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	res, err := svc.Route(context.Background(), RouteRequest{StartNodeID: "A", TargetNodeID: "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDistance != 110 {
		t.Errorf("expected distance 110, got %v", res.TotalDistance)
	}
	if len(res.Path) != 3 || len(res.Steps) != 2 || len(res.PathNodes) != 3 {
		t.Errorf("inconsistent artifacts: path=%d steps=%d nodes=%d", len(res.Path), len(res.Steps), len(res.PathNodes))
	}
	if len(res.Floors) != 2 || res.Floors[0] != 1 || res.Floors[1] != 2 {
		t.Errorf("expected floors [1 2], got %v", res.Floors)
	}
}

func TestRouteByTargetNameFirstMatch(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	res, err := svc.Route(context.Background(), RouteRequest{StartNodeID: "A", TargetName: "lt1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path[len(res.Path)-1] != "C" {
		t.Fatalf("expected route to C, got %v", res.Path)
	}
}

func TestRouteErrorKinds(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RouteRequest
		want error
	}{
		{"unknown start", RouteRequest{StartNodeID: "nope", TargetNodeID: "C"}, ErrNotFound},
		{"unknown target id", RouteRequest{StartNodeID: "A", TargetNodeID: "nope"}, ErrNotFound},
		{"no fuzzy match", RouteRequest{StartNodeID: "A", TargetName: "warp gate"}, ErrNotFound},
		{"no target at all", RouteRequest{StartNodeID: "A"}, ErrBadRequest},
		{"disconnected", RouteRequest{StartNodeID: "A", TargetNodeID: "D"}, ErrNoRoute},
	}
	for _, tt := range tests {
		_, err := svc.Route(ctx, tt.req)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestStoreFailureSurfacesAsStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.setFail(true)
	svc := NewService(store, nil, nil)

	_, err := svc.Route(context.Background(), RouteRequest{StartNodeID: "A", TargetNodeID: "C"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrNoRoute) {
		t.Fatal("store failure must not look like a missing route")
	}
}

func TestInvalidateKeepsPreviousSnapshotOnFailedReload(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "entrance"); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	store.setFail(true)
	svc.Invalidate()

	if _, err := svc.Search(ctx, "entrance"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable after failed rebuild, got %v", err)
	}

	// The previous snapshot is still published; recovery works once the
	// store is healthy again.
	store.setFail(false)
	got, err := svc.Search(ctx, "entrance")
	if err != nil {
		t.Fatalf("recovered search failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("unexpected search result after recovery: %v", got)
	}
}

func TestEnsureFreshSingleFlight(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	// Warm load, then invalidate and hammer it concurrently.
	if _, err := svc.AllNodes(ctx); err != nil {
		t.Fatalf("warm load failed: %v", err)
	}
	before := store.reads.Load()
	svc.Invalidate()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AllNodes(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent read failed: %v", err)
	}

	rebuilds := store.reads.Load() - before
	if rebuilds != 1 {
		t.Fatalf("expected exactly 1 rebuild after invalidation, got %d", rebuilds)
	}
}

func TestReloadReturnsCounts(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	nodes, edges, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if nodes != 4 {
		t.Errorf("expected 4 nodes, got %d", nodes)
	}
	if edges != 2 {
		t.Errorf("expected 2 undirected edges, got %d", edges)
	}
}

func TestNodeLookups(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	ctx := context.Background()

	n, ok, err := svc.NodeByID(ctx, "B")
	if err != nil || !ok || n.Name != "CorridorB" {
		t.Fatalf("NodeByID(B) = %+v, %v, %v", n, ok, err)
	}
	if _, ok, _ := svc.NodeByID(ctx, "zz"); ok {
		t.Fatal("expected miss for unknown id")
	}

	n, ok, err = svc.NodeByName(ctx, "LT1")
	if err != nil || !ok || n.ID != "C" {
		t.Fatalf("NodeByName(LT1) = %+v, %v, %v", n, ok, err)
	}

	floor1, err := svc.NodesByFloor(ctx, 1)
	if err != nil || len(floor1) != 2 {
		t.Fatalf("expected 2 nodes on floor 1, got %d (err=%v)", len(floor1), err)
	}
}

func TestRouteErrorMessageCarriesIDs(t *testing.T) {
	svc := NewService(newFakeStore(), nil, nil)
	_, err := svc.Route(context.Background(), RouteRequest{StartNodeID: "A", TargetNodeID: "D"})
	var re *RouteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RouteError, got %T", err)
	}
	if re.StartID != "A" || re.EndID != "D" {
		t.Errorf("error missing ids: %v", re)
	}
	if msg := fmt.Sprint(err); msg == "" {
		t.Error("empty error message")
	}
}
