package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wayfindAI/wayfind-mvp/engine/directions"
	"github.com/wayfindAI/wayfind-mvp/engine/nav"
	"github.com/wayfindAI/wayfind-mvp/engine/recognize"
	"github.com/wayfindAI/wayfind-mvp/engine/store"
	"github.com/wayfindAI/wayfind-mvp/pkg/fn"
	"github.com/wayfindAI/wayfind-mvp/pkg/natsutil"
)

// maxImageBytes caps recognition uploads at 10MB.
const maxImageBytes = 10 << 20

// graphStore is the durable-store surface the node and edge handlers use.
type graphStore interface {
	GetNode(ctx context.Context, id string) (nav.Node, error)
	SaveNode(ctx context.Context, n nav.Node) error
	SaveEdge(ctx context.Context, e nav.Edge) error
	UpdateNodePosition(ctx context.Context, id string, x, y float64) error
	DeleteNode(ctx context.Context, id string) error
}

var _ graphStore = (*store.Store)(nil)

// apiServer bundles the services the HTTP handlers need.
type apiServer struct {
	nav        *nav.Service
	store      graphStore
	recognizer recognize.Recognizer
	directions *directions.Client
	nc         *nats.Conn
	logger     *slog.Logger
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// publishInvalidate tells every API instance that durable graph data
// changed. The local service is also invalidated directly so the change
// is visible even when the event loops back late. Without a NATS
// connection only the local invalidation happens.
func (a *apiServer) publishInvalidate(r *http.Request, reason string) {
	a.nav.Invalidate()
	if a.nc == nil {
		return
	}
	ev := InvalidateEvent{Reason: reason, At: time.Now().UTC()}
	if err := natsutil.Publish(r.Context(), a.nc, invalidateSubject, ev); err != nil {
		a.logger.Error("publish invalidation failed", "reason", reason, "err", err)
	}
}

// --- Navigation ---

// RouteResponse mirrors RouteResult plus the success/message envelope. On
// failure the same shape comes back with success=false and empty fields,
// so clients render one structure either way.
type RouteResponse struct {
	Success       bool                 `json:"success"`
	Path          []string             `json:"path"`
	PathNodes     []nav.PathNode       `json:"path_nodes"`
	TotalDistance float64              `json:"total_distance"`
	DistanceText  string               `json:"distance_text,omitempty"`
	TimeText      string               `json:"estimated_time,omitempty"`
	Steps         []nav.NavigationStep `json:"steps"`
	Floors        []int                `json:"floors_involved"`
	Message       string               `json:"message"`
}

func emptyRouteResponse(msg string) RouteResponse {
	return RouteResponse{
		Success:   false,
		Path:      []string{},
		PathNodes: []nav.PathNode{},
		Steps:     []nav.NavigationStep{},
		Floors:    []int{},
		Message:   msg,
	}
}

func (a *apiServer) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req nav.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, emptyRouteResponse("invalid request body"))
		return
	}
	if req.StartNodeID == "" {
		writeJSON(w, http.StatusBadRequest, emptyRouteResponse("start_node_id is required"))
		return
	}

	result, err := a.nav.Route(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, nav.ErrBadRequest):
			status = http.StatusBadRequest
		case errors.Is(err, nav.ErrNotFound), errors.Is(err, nav.ErrNoRoute):
			status = http.StatusNotFound
		case errors.Is(err, nav.ErrStoreUnavailable):
			status = http.StatusServiceUnavailable
		}
		if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
			a.logger.Error("route failed", "start", req.StartNodeID, "err", err)
		}
		writeJSON(w, status, emptyRouteResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, RouteResponse{
		Success:       true,
		Path:          result.Path,
		PathNodes:     result.PathNodes,
		TotalDistance: result.TotalDistance,
		DistanceText:  nav.FormatDistance(result.TotalDistance),
		TimeText:      nav.EstimateTime(result.TotalDistance),
		Steps:         result.Steps,
		Floors:        result.Floors,
		Message:       "route planned",
	})
}

// NodeListResponse carries node sets for search and listing endpoints.
type NodeListResponse struct {
	Nodes []nav.PathNode `json:"nodes"`
	Total int            `json:"total"`
}

func toPathNodes(nodes []nav.Node) []nav.PathNode {
	return fn.Map(nodes, func(n nav.Node) nav.PathNode {
		return nav.PathNode{
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

func (a *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	nodes, err := a.nav.Search(r.Context(), keyword)
	if err != nil {
		a.logger.Error("search failed", "keyword", keyword, "err", err)
		writeError(w, http.StatusServiceUnavailable, "graph unavailable")
		return
	}
	out := toPathNodes(nodes)
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: out, Total: len(out)})
}

func (a *apiServer) handleNodes(w http.ResponseWriter, r *http.Request) {
	var (
		nodes []nav.Node
		err   error
	)
	if f := r.URL.Query().Get("floor"); f != "" {
		floor, convErr := strconv.Atoi(f)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "floor must be an integer")
			return
		}
		nodes, err = a.nav.NodesByFloor(r.Context(), floor)
	} else {
		nodes, err = a.nav.AllNodes(r.Context())
	}
	if err != nil {
		a.logger.Error("list nodes failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "graph unavailable")
		return
	}
	out := toPathNodes(nodes)
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: out, Total: len(out)})
}

func (a *apiServer) handleFloors(w http.ResponseWriter, r *http.Request) {
	nodes, err := a.nav.AllNodes(r.Context())
	if err != nil {
		a.logger.Error("list floors failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "graph unavailable")
		return
	}
	floors := fn.Unique(fn.Map(nodes, func(n nav.Node) int { return n.Floor }))
	sort.Ints(floors)
	writeJSON(w, http.StatusOK, map[string]any{"floors": floors, "total": len(floors)})
}

func (a *apiServer) handleReload(w http.ResponseWriter, r *http.Request) {
	nodeCount, edgeCount, err := a.nav.Reload(r.Context())
	if err != nil {
		a.logger.Error("reload failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "graph reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "graph reloaded",
		"nodes_count": nodeCount,
		"edges_count": edgeCount,
	})
}

// --- Node and edge management ---

// handleGetNode reads one node from the durable store rather than the
// snapshot, so editors see uncommitted-to-cache writes immediately.
func (a *apiServer) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	n, err := a.store.GetNode(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "node not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"node": n})
}

func (a *apiServer) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var n nav.Node
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	if n.Type == "" {
		n.Type = nav.InferNodeType(n.ID, n.Name)
	}

	if err := a.store.SaveNode(r.Context(), n); err != nil {
		a.logger.Error("save node failed", "id", n.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "save node failed")
		return
	}
	a.publishInvalidate(r, "node saved: "+n.ID)
	writeJSON(w, http.StatusOK, map[string]any{"message": "node saved", "node": n})
}

// PositionUpdate is the JSON body for PUT /api/v1/nodes/{id}/position.
type PositionUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a *apiServer) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var pos PositionUpdate
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.store.UpdateNodePosition(r.Context(), id, pos.X, pos.Y); err != nil {
		a.logger.Error("update position failed", "id", id, "err", err)
		writeError(w, http.StatusNotFound, "node not found: "+id)
		return
	}
	a.publishInvalidate(r, "position updated: "+id)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "position updated",
		"node_id": id,
		"x":       pos.X,
		"y":       pos.Y,
	})
}

// BatchPositionUpdate is the JSON body for PUT /api/v1/nodes/batch-update.
// Entries missing an id or a coordinate are skipped and reported.
type BatchPositionUpdate struct {
	Nodes []BatchPositionEntry `json:"nodes"`
}

// BatchPositionEntry places one node on the raster map.
type BatchPositionEntry struct {
	ID string   `json:"id"`
	X  *float64 `json:"x"`
	Y  *float64 `json:"y"`
}

func (a *apiServer) handleBatchUpdatePositions(w http.ResponseWriter, r *http.Request) {
	var req BatchPositionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Nodes) == 0 {
		writeError(w, http.StatusBadRequest, "nodes is required")
		return
	}

	updated := 0
	var errs []string
	for _, n := range req.Nodes {
		if n.ID == "" || n.X == nil || n.Y == nil {
			errs = append(errs, fmt.Sprintf("invalid node data: id=%q", n.ID))
			continue
		}
		if err := a.store.UpdateNodePosition(r.Context(), n.ID, *n.X, *n.Y); err != nil {
			a.logger.Error("batch position update failed", "id", n.ID, "err", err)
			errs = append(errs, "node not found: "+n.ID)
			continue
		}
		updated++
	}

	// One invalidation for the whole batch.
	if updated > 0 {
		a.publishInvalidate(r, fmt.Sprintf("positions updated: %d nodes", updated))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "batch update complete",
		"updated_count": updated,
		"errors":        errs,
	})
}

func (a *apiServer) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := a.store.DeleteNode(r.Context(), id); err != nil {
		a.logger.Error("delete node failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "delete node failed")
		return
	}
	a.publishInvalidate(r, "node deleted: "+id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "node deleted", "node_id": id})
}

func (a *apiServer) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var e nav.Edge
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if e.From == "" || e.To == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	if e.Weight <= 0 {
		writeError(w, http.StatusBadRequest, "weight must be positive")
		return
	}
	if e.Type == "" {
		e.Type = nav.EdgeNormal
	}
	e.IsVertical = e.Type == nav.EdgeStairs || e.Type == nav.EdgeLifts

	if err := a.store.SaveEdge(r.Context(), e); err != nil {
		a.logger.Error("save edge failed", "from", e.From, "to", e.To, "err", err)
		writeError(w, http.StatusInternalServerError, "save edge failed")
		return
	}
	a.publishInvalidate(r, "edge saved: "+e.From+"-"+e.To)
	writeJSON(w, http.StatusOK, map[string]any{"message": "edge saved", "edge": e})
}

// --- Recognition ---

// RecognitionResponse carries ranked location candidates for an image.
type RecognitionResponse struct {
	Success    bool                  `json:"success"`
	Candidates []recognize.Candidate `json:"candidates"`
	Message    string                `json:"message"`
}

func (a *apiServer) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "image too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading image failed")
		return
	}
	if len(image) > maxImageBytes {
		writeError(w, http.StatusBadRequest, "image too large, max 10MB")
		return
	}

	candidates, err := a.recognizer.Recognize(r.Context(), image, 3)
	if err != nil {
		a.logger.Error("recognition failed", "err", err)
		writeError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	msg := "recognition complete"
	if len(candidates) == 0 {
		candidates = []recognize.Candidate{}
		msg = "no location recognized, try another angle"
	}
	writeJSON(w, http.StatusOK, RecognitionResponse{
		Success:    true,
		Candidates: candidates,
		Message:    msg,
	})
}

// --- Outdoor directions ---

// DirectionsRequest is the JSON body for POST /api/v1/directions. Either
// a free-text query or explicit origin/destination fields.
type DirectionsRequest struct {
	Query       string `json:"query,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// DirectionsResponse carries the parsed query and the provider route.
// Route is null when the provider found none or the feature is disabled.
type DirectionsResponse struct {
	Success bool                   `json:"success"`
	Parsed  directions.ParsedQuery `json:"parsed"`
	Route   *directions.Route      `json:"route"`
	Message string                 `json:"message"`
}

func (a *apiServer) handleDirections(w http.ResponseWriter, r *http.Request) {
	var req DirectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var q directions.ParsedQuery
	if req.Destination != "" {
		q = directions.ParsedQuery{Origin: req.Origin, Destination: req.Destination, Mode: req.Mode}
		if q.Mode == "" {
			q.Mode = directions.ModeDriving
		}
	} else if req.Query != "" {
		q = directions.ParseQuery(req.Query)
	} else {
		writeError(w, http.StatusBadRequest, "query or destination is required")
		return
	}

	if q.Destination == "" {
		writeJSON(w, http.StatusOK, DirectionsResponse{
			Success: false,
			Parsed:  q,
			Message: "no destination found in query",
		})
		return
	}

	route, err := a.directions.Directions(r.Context(), q)
	if err != nil {
		a.logger.Error("directions failed", "destination", q.Destination, "err", err)
		writeError(w, http.StatusBadGateway, "directions provider unavailable")
		return
	}

	msg := "route found"
	if route == nil {
		msg = "no route found"
	}
	writeJSON(w, http.StatusOK, DirectionsResponse{
		Success: route != nil,
		Parsed:  q,
		Route:   route,
		Message: msg,
	})
}
