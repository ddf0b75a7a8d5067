// Package main implements the Wayfind API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfindAI/wayfind-mvp/engine/directions"
	"github.com/wayfindAI/wayfind-mvp/engine/nav"
	"github.com/wayfindAI/wayfind-mvp/engine/recognize"
	"github.com/wayfindAI/wayfind-mvp/engine/store"
	"github.com/wayfindAI/wayfind-mvp/pkg/mid"
	"github.com/wayfindAI/wayfind-mvp/pkg/natsutil"
)

// invalidateSubject carries graph-changed events between the API,
// importer, and any other writer.
const invalidateSubject = "wayfind.graph.invalidate"

// InvalidateEvent announces that durable node or edge data changed.
type InvalidateEvent struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	NatsURL       string
	QdrantURL     string
	Collection    string
	VisionURL     string
	VisionModel   string
	MapsAPIKey    string
	DefaultOrigin string
	CORSOrigin    string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		NatsURL:       envOr("NATS_URL", nats.DefaultURL),
		QdrantURL:     envOr("QDRANT_URL", ""),
		Collection:    envOr("QDRANT_COLLECTION", "wayfind_places"),
		VisionURL:     envOr("VISION_URL", "http://localhost:11434"),
		VisionModel:   envOr("VISION_MODEL", "clip"),
		MapsAPIKey:    envOr("MAPS_API_KEY", ""),
		DefaultOrigin: envOr("DEFAULT_ORIGIN", "Nanyang Technological University, Singapore"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	db := store.New(neo4jDriver)

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	navMetrics := nav.NewMetrics(reg)

	// --- Navigation service ---
	navSvc := nav.NewService(db, navMetrics, logger)

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := natsutil.Subscribe(nc, invalidateSubject, func(_ context.Context, ev InvalidateEvent) {
		logger.Info("invalidation event received", "reason", ev.Reason)
		navSvc.Invalidate()
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	// --- Recognition ---
	var recognizer recognize.Recognizer
	if cfg.QdrantURL != "" {
		embedder := recognize.NewHTTPEmbedder(cfg.VisionURL, cfg.VisionModel)
		qr, err := recognize.NewQdrantRecognizer(cfg.QdrantURL, cfg.Collection, embedder, navSvc)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer qr.Close()
		recognizer = qr
		logger.Info("recognition backend", "mode", "qdrant", "collection", cfg.Collection)
	} else {
		recognizer = recognize.NewMockRecognizer(navSvc, time.Now().UnixNano())
		logger.Info("recognition backend", "mode", "mock")
	}

	// --- Outdoor directions ---
	dirClient := directions.NewClient(cfg.MapsAPIKey, directions.ClientOpts{
		DefaultOrigin: cfg.DefaultOrigin,
	})
	if !dirClient.Enabled() {
		logger.Info("outdoor directions disabled, no MAPS_API_KEY")
	}

	api := &apiServer{
		nav:        navSvc,
		store:      db,
		recognizer: recognizer,
		directions: dirClient,
		nc:         nc,
		logger:     logger,
	}

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/v1/navigation/route", api.handleRoute)
	mux.HandleFunc("GET /api/v1/navigation/search", api.handleSearch)
	mux.HandleFunc("GET /api/v1/navigation/nodes", api.handleNodes)
	mux.HandleFunc("GET /api/v1/navigation/floors", api.handleFloors)
	mux.HandleFunc("POST /api/v1/navigation/reload", api.handleReload)

	mux.HandleFunc("POST /api/v1/nodes", api.handleCreateNode)
	mux.HandleFunc("GET /api/v1/nodes/{id}", api.handleGetNode)
	mux.HandleFunc("PUT /api/v1/nodes/{id}/position", api.handleUpdatePosition)
	mux.HandleFunc("PUT /api/v1/nodes/batch-update", api.handleBatchUpdatePositions)
	mux.HandleFunc("DELETE /api/v1/nodes/{id}", api.handleDeleteNode)
	mux.HandleFunc("POST /api/v1/edges", api.handleCreateEdge)

	mux.HandleFunc("POST /api/v1/recognition/recognize", api.handleRecognize)
	mux.HandleFunc("POST /api/v1/directions", api.handleDirections)

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("wayfind-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
