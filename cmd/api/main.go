package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VineMe-App/vineme2.0-sub005/cluster"
	"github.com/VineMe-App/vineme2.0-sub005/internal/config"
	"github.com/VineMe-App/vineme2.0-sub005/internal/logging"
	"github.com/VineMe-App/vineme2.0-sub005/internal/metrics"
	"github.com/VineMe-App/vineme2.0-sub005/registry"
)

// Server drives the clustering engines from HTTP. The engines are not
// safe for concurrent mutation, so every engine access goes through mu.
type Server struct {
	mu        sync.Mutex
	registry  *registry.Registry
	defaultID string
	monitor   *cluster.Monitor
	viewports map[string]*cluster.Viewport // last queried viewport per engine
}

type entityPayload struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Location any    `json:"location"`
	Source   any    `json:"source"`
}

func toEntities(payload []entityPayload) []cluster.Entity {
	entities := make([]cluster.Entity, len(payload))
	for i, e := range payload {
		entities[i] = cluster.Entity{
			ID:       e.ID,
			Category: cluster.ParseCategory(e.Category),
			Location: e.Location,
			Source:   e.Source,
		}
	}
	return entities
}

func getBoundsFromQuery(c *gin.Context) (cluster.Bounds, error) {
	north, err := strconv.ParseFloat(c.Query("north"), 64)
	if err != nil {
		return cluster.Bounds{}, fmt.Errorf("invalid north parameter")
	}
	south, err := strconv.ParseFloat(c.Query("south"), 64)
	if err != nil {
		return cluster.Bounds{}, fmt.Errorf("invalid south parameter")
	}
	east, err := strconv.ParseFloat(c.Query("east"), 64)
	if err != nil {
		return cluster.Bounds{}, fmt.Errorf("invalid east parameter")
	}
	west, err := strconv.ParseFloat(c.Query("west"), 64)
	if err != nil {
		return cluster.Bounds{}, fmt.Errorf("invalid west parameter")
	}
	return cluster.Bounds{West: west, South: south, East: east, North: north}, nil
}

// engineFor resolves the engine for an optional :id param, falling back
// to the default engine, creating it on first use.
func (s *Server) engineFor(id string) (*cluster.Clusterer, string, error) {
	if id == "" {
		id = s.defaultID
	}
	if id == "" {
		entities := []cluster.Entity{}
		newID, _ := s.registry.Create(entities)
		s.defaultID = newID
		id = newID
	}
	engine, ok := s.registry.Get(id)
	if !ok {
		return nil, "", fmt.Errorf("engine with ID %s not found", id)
	}
	return engine, id, nil
}

// query runs one cluster query under the engine lock, recording timings.
func (s *Server) query(id string, bounds cluster.Bounds, zoom float64) ([]cluster.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine, engineID, err := s.engineFor(id)
	if err != nil {
		return nil, err
	}

	s.monitor.StartClustering()
	start := time.Now()
	items := engine.GetClusters(bounds, zoom)
	metrics.ClusteringDuration.Observe(time.Since(start).Seconds())
	s.monitor.StopClustering()
	s.monitor.RecordPointCount(len(items))
	metrics.LoadedPoints.WithLabelValues(engineID).Set(float64(engine.PointCount()))

	return items, nil
}

func (s *Server) handleLoad(c *gin.Context) {
	var req struct {
		Entities []entityPayload `json:"entities"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	engine, id, err := s.engineFor(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	engine.Load(toEntities(req.Entities))
	metrics.LoadedPoints.WithLabelValues(id).Set(float64(engine.PointCount()))

	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"pointCount": engine.PointCount(),
		"dropped":    len(req.Entities) - engine.PointCount(),
	})
}

func (s *Server) handleClear(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, id, err := s.engineFor(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	engine.Clear()
	delete(s.viewports, id)
	metrics.LoadedPoints.WithLabelValues(id).Set(0)
	c.JSON(http.StatusOK, gin.H{"id": id, "pointCount": 0})
}

func (s *Server) handleGetClusters(c *gin.Context) {
	zoom, err := strconv.ParseFloat(c.Query("zoom"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom parameter"})
		return
	}
	bounds, err := getBoundsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := s.query(c.Param("id"), bounds, zoom)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cluster.ToGeoJSON(items))
}

// handleViewportQuery answers pan/zoom events: it derives padded bounds
// and zoom from the viewport and skips the query when the movement is
// below the change threshold.
func (s *Server) handleViewportQuery(c *gin.Context) {
	var req cluster.Viewport
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewport"})
		return
	}

	// Resolve the engine id before touching the viewport cache so the
	// debounce state for the default engine is keyed by its real id.
	s.mu.Lock()
	_, id, err := s.engineFor(c.Param("id"))
	if err != nil {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	prev := s.viewports[id]
	significant := cluster.HasSignificantChange(prev, &req, cluster.DefaultChangeThreshold)
	if significant {
		s.viewports[id] = &req
	}
	s.mu.Unlock()

	if !significant {
		metrics.QueriesSkipped.Inc()
		c.JSON(http.StatusOK, gin.H{"skipped": true})
		return
	}

	bounds := cluster.GetOptimalBounds(req)
	zoom := cluster.GetZoomLevel(req.LatDelta)

	items, err := s.query(id, bounds, zoom)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"skipped":  false,
		"zoom":     zoom,
		"bounds":   bounds,
		"clusters": cluster.ToGeoJSON(items),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	zoom, err := strconv.ParseFloat(c.Query("zoom"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom parameter"})
		return
	}
	bounds, err := getBoundsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := s.query(c.Param("id"), bounds, zoom)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cluster.SummarizeItems(items))
}

func (s *Server) handlePerfReport(c *gin.Context) {
	s.mu.Lock()
	report := s.monitor.Report()
	s.mu.Unlock()
	c.JSON(http.StatusOK, report)
}

func (s *Server) handlePerfClear(c *gin.Context) {
	s.mu.Lock()
	s.monitor.ClearMetrics()
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreateEngine(c *gin.Context) {
	var req struct {
		NumPoints int `json:"numPoints"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Continental US test box, same as the original profiling fixture.
	bounds := cluster.Bounds{West: -125.0, South: 25.0, East: -67.0, North: 49.0}
	entities := cluster.GenerateTestEntities(req.NumPoints, bounds, time.Now().UnixNano())

	id, engine := s.registry.Create(entities)
	s.mu.Lock()
	if s.defaultID == "" {
		s.defaultID = id
	}
	count := engine.PointCount()
	s.mu.Unlock()
	metrics.LoadedPoints.WithLabelValues(id).Set(float64(count))

	c.JSON(http.StatusOK, gin.H{"id": id, "pointCount": count})
}

func (s *Server) handleListSnapshots(c *gin.Context) {
	infos, err := s.registry.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleSaveSnapshot(c *gin.Context) {
	// Save reads the engine's point set, so it takes the same lock as
	// the mutating handlers.
	s.mu.Lock()
	info, err := s.registry.Save(c.Param("id"))
	s.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleLoadSnapshot(c *gin.Context) {
	id := c.Param("id")
	info, err := s.registry.LoadFromDisk(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.defaultID = id
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "snapshot loaded successfully", "info": info})
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()
	r.Use(metrics.Middleware())

	// Enable CORS for the mobile dev client
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/metrics", metrics.Handler())

	r.POST("/api/groups", s.handleLoad)
	r.DELETE("/api/groups", s.handleClear)
	r.GET("/api/groups/clusters", s.handleGetClusters)
	r.POST("/api/groups/viewport", s.handleViewportQuery)
	r.GET("/api/groups/summary", s.handleSummary)

	r.POST("/api/engines", s.handleCreateEngine)
	r.GET("/api/engines/list", s.handleListSnapshots)
	r.POST("/api/engines/:id/save", s.handleSaveSnapshot)
	r.POST("/api/engines/:id/load", s.handleLoadSnapshot)
	r.POST("/api/engines/:id/groups", s.handleLoad)
	r.GET("/api/engines/:id/clusters", s.handleGetClusters)

	r.GET("/api/perf", s.handlePerfReport)
	r.DELETE("/api/perf", s.handlePerfClear)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	reg, err := registry.New(cfg.Storage.SnapshotDir, cfg.Engine.MaxResident, cluster.Options{
		MaxZoom:    cfg.Engine.MaxZoom,
		BaseRadius: cfg.Engine.BaseRadius,
	})
	if err != nil {
		slog.Error("failed to initialize registry", "error", err)
		os.Exit(1)
	}

	server := &Server{
		registry:  reg,
		monitor:   cluster.NewMonitor(),
		viewports: make(map[string]*cluster.Viewport),
	}

	r := server.routes()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("starting server", "addr", addr)
		if err := r.Run(addr); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down server")
}
