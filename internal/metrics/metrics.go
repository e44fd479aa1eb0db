package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "groupmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "path"})

	// ClusteringDuration tracks how long each cluster query takes.
	ClusteringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "groupmap",
		Subsystem: "engine",
		Name:      "clustering_duration_seconds",
		Help:      "Duration of cluster queries",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// LoadedPoints reports the current stored point count per engine.
	LoadedPoints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "groupmap",
		Subsystem: "engine",
		Name:      "loaded_points",
		Help:      "Points currently held by each engine",
	}, []string{"engine"})

	// QueriesSkipped counts viewport queries debounced by change detection.
	QueriesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groupmap",
		Subsystem: "engine",
		Name:      "queries_skipped_total",
		Help:      "Viewport queries skipped because the change was insignificant",
	})
)

// Middleware records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler returns a gin handler serving the Prometheus /metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
