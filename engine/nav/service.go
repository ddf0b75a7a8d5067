package nav

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Store provides full-snapshot reads of the durable node and edge records.
// Implemented by engine/store on Neo4j.
type Store interface {
	FetchAllNodes(ctx context.Context) ([]Node, error)
	FetchAllEdges(ctx context.Context) ([]Edge, error)
}

// Service owns the in-memory graph snapshot and its lifecycle. The
// snapshot is published through an atomic pointer: readers always see a
// complete graph, and a rebuild swaps in the new snapshot only once it is
// fully constructed. Rebuilds are single-flight, so concurrent cache
// misses trigger exactly one store read.
type Service struct {
	store   Store
	metrics *Metrics
	logger  *slog.Logger

	snap   atomic.Pointer[Snapshot]
	stale  atomic.Bool
	flight singleflight.Group
}

// NewService creates a Service in the stale state; the first read
// operation triggers the initial load. metrics may be nil.
func NewService(store Store, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, metrics: metrics, logger: logger}
	s.stale.Store(true)
	return s
}

// Invalidate marks the snapshot stale. The current snapshot stays
// published and readable until a rebuild completes, so an in-flight read
// never observes an empty graph. Called after any node or edge mutation.
func (s *Service) Invalidate() {
	s.stale.Store(true)
	s.logger.Info("graph snapshot invalidated")
}

// Reload forces a rebuild regardless of staleness and returns the fresh
// snapshot's node and edge counts.
func (s *Service) Reload(ctx context.Context) (nodeCount, edgeCount int, err error) {
	s.stale.Store(true)
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return 0, 0, err
	}
	return snap.NodeCount(), snap.EdgeCount(), nil
}

// ensureFresh returns the current snapshot, rebuilding first if stale.
// Every read operation calls this itself; freshness is not a precondition
// callers can forget.
func (s *Service) ensureFresh(ctx context.Context) (*Snapshot, error) {
	if snap := s.snap.Load(); snap != nil && !s.stale.Load() {
		return snap, nil
	}

	v, err, _ := s.flight.Do("rebuild", func() (any, error) {
		// Another caller may have finished the rebuild while we queued.
		if snap := s.snap.Load(); snap != nil && !s.stale.Load() {
			return snap, nil
		}
		snap, err := s.rebuild(ctx)
		if err != nil {
			return nil, err
		}
		s.snap.Store(snap)
		s.stale.Store(false)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// rebuild reads the full node and edge sets concurrently and constructs a
// new snapshot off to the side.
func (s *Service) rebuild(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	var (
		nodes []Node
		edges []Edge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = s.store.FetchAllNodes(gctx)
		if err != nil {
			return fmt.Errorf("fetch nodes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		edges, err = s.store.FetchAllEdges(gctx)
		if err != nil {
			return fmt.Errorf("fetch edges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if s.metrics != nil {
			s.metrics.RebuildFailures.Inc()
		}
		s.logger.Error("graph rebuild failed", "err", err)
		return nil, fmt.Errorf("nav: rebuild: %w: %w", ErrStoreUnavailable, err)
	}

	snap := NewSnapshot(nodes, edges)
	if s.metrics != nil {
		s.metrics.Rebuilds.Inc()
	}
	s.logger.Info("graph snapshot rebuilt",
		"nodes", snap.NodeCount(),
		"edges", snap.EdgeCount(),
		"duration", time.Since(start),
	)
	return snap, nil
}

// RouteRequest asks for a route from a known start node to a target given
// either by exact id or by free-text name.
type RouteRequest struct {
	StartNodeID  string `json:"start_node_id"`
	TargetNodeID string `json:"target_node_id,omitempty"`
	TargetName   string `json:"target_name,omitempty"`
}

// RouteResult is a successfully planned route plus its derived artifacts.
type RouteResult struct {
	Path          []string         `json:"path"`
	PathNodes     []PathNode       `json:"path_nodes"`
	TotalDistance float64          `json:"total_distance"`
	Steps         []NavigationStep `json:"steps"`
	Floors        []int            `json:"floors_involved"`
}

// Route resolves the request's endpoints, plans the shortest path, and
// renders the presentation artifacts.
func (s *Service) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		s.metrics.routeOutcome("store_error")
		return nil, err
	}

	if _, ok := snap.Node(req.StartNodeID); !ok {
		s.metrics.routeOutcome("not_found")
		return nil, &RouteError{Op: "route", StartID: req.StartNodeID, Wrapped: fmt.Errorf("start: %w", ErrNotFound)}
	}

	targetID := req.TargetNodeID
	if targetID == "" && req.TargetName != "" {
		matches := snap.Search(req.TargetName)
		if len(matches) == 0 {
			s.metrics.routeOutcome("not_found")
			return nil, &RouteError{Op: "route", StartID: req.StartNodeID, EndID: req.TargetName, Wrapped: fmt.Errorf("target name: %w", ErrNotFound)}
		}
		targetID = matches[0].ID
	}
	if targetID == "" {
		s.metrics.routeOutcome("bad_request")
		return nil, &RouteError{Op: "route", StartID: req.StartNodeID, Wrapped: fmt.Errorf("target_node_id or target_name required: %w", ErrBadRequest)}
	}
	if _, ok := snap.Node(targetID); !ok {
		s.metrics.routeOutcome("not_found")
		return nil, &RouteError{Op: "route", StartID: req.StartNodeID, EndID: targetID, Wrapped: fmt.Errorf("target: %w", ErrNotFound)}
	}

	planStart := time.Now()
	total, path := snap.AStar(req.StartNodeID, targetID)
	if s.metrics != nil {
		s.metrics.PlanDuration.Observe(time.Since(planStart).Seconds())
	}

	if math.IsInf(total, 1) || len(path) == 0 {
		s.metrics.routeOutcome("no_route")
		return nil, &RouteError{Op: "route", StartID: req.StartNodeID, EndID: targetID, Wrapped: ErrNoRoute}
	}

	s.metrics.routeOutcome("ok")
	return &RouteResult{
		Path:          path,
		PathNodes:     snap.PathNodes(path),
		TotalDistance: total,
		Steps:         snap.Steps(path),
		Floors:        snap.FloorsInPath(path),
	}, nil
}

// Search finds nodes matching the keyword across id, name, and detail.
func (s *Service) Search(ctx context.Context, keyword string) ([]Node, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := snap.Search(keyword)
	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}
	return out, nil
}

// AllNodes returns every node record.
func (s *Service) AllNodes(ctx context.Context) ([]Node, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.All(), nil
}

// NodesByFloor returns the nodes on one floor.
func (s *Service) NodesByFloor(ctx context.Context, floor int) ([]Node, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ByFloor(floor), nil
}

// NodeByID looks a node up by exact id.
func (s *Service) NodeByID(ctx context.Context, id string) (Node, bool, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return Node{}, false, err
	}
	n, ok := snap.Node(id)
	return n, ok, nil
}

// NodeByName looks a node up by exact name.
func (s *Service) NodeByName(ctx context.Context, name string) (Node, bool, error) {
	snap, err := s.ensureFresh(ctx)
	if err != nil {
		return Node{}, false, err
	}
	n, ok := snap.ByName(name)
	return n, ok, nil
}
