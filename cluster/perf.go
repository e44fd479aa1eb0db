package cluster

import "time"

// metricsWindow bounds each rolling window of the Monitor.
const metricsWindow = 100

// Monitor keeps rolling windows of clustering timings, rendering timings
// and point counts for diagnostics. It has no bearing on query results
// and assumes the same single-writer discipline as the Clusterer.
type Monitor struct {
	clustering  []time.Duration
	rendering   []time.Duration
	pointCounts []int

	clusteringStart time.Time
	renderingStart  time.Time
}

// Report is the consolidated view of all three windows.
type Report struct {
	AvgClusteringTime time.Duration `json:"avgClusteringTime"`
	AvgRenderingTime  time.Duration `json:"avgRenderingTime"`
	AvgPointCount     float64       `json:"avgPointCount"`
	Samples           int           `json:"samples"`
}

// NewMonitor returns an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// StartClustering marks the beginning of a clustering phase.
func (m *Monitor) StartClustering() {
	m.clusteringStart = time.Now()
}

// StopClustering records one clustering sample, evicting the oldest once
// the window is full. A stop without a matching start is ignored.
func (m *Monitor) StopClustering() {
	if m.clusteringStart.IsZero() {
		return
	}
	m.clustering = appendBounded(m.clustering, time.Since(m.clusteringStart))
	m.clusteringStart = time.Time{}
}

// StartRendering marks the beginning of a rendering phase.
func (m *Monitor) StartRendering() {
	m.renderingStart = time.Now()
}

// StopRendering records one rendering sample. A stop without a matching
// start is ignored.
func (m *Monitor) StopRendering() {
	if m.renderingStart.IsZero() {
		return
	}
	m.rendering = appendBounded(m.rendering, time.Since(m.renderingStart))
	m.renderingStart = time.Time{}
}

// RecordPointCount records the size of one query result.
func (m *Monitor) RecordPointCount(n int) {
	m.pointCounts = appendBounded(m.pointCounts, n)
}

// AverageClusteringTime returns the mean of the clustering window.
func (m *Monitor) AverageClusteringTime() time.Duration {
	return averageDuration(m.clustering)
}

// AverageRenderingTime returns the mean of the rendering window.
func (m *Monitor) AverageRenderingTime() time.Duration {
	return averageDuration(m.rendering)
}

// AveragePointCount returns the mean of the point-count window.
func (m *Monitor) AveragePointCount() float64 {
	if len(m.pointCounts) == 0 {
		return 0
	}
	sum := 0
	for _, n := range m.pointCounts {
		sum += n
	}
	return float64(sum) / float64(len(m.pointCounts))
}

// Report combines the three windows and a total sample count.
func (m *Monitor) Report() Report {
	return Report{
		AvgClusteringTime: m.AverageClusteringTime(),
		AvgRenderingTime:  m.AverageRenderingTime(),
		AvgPointCount:     m.AveragePointCount(),
		Samples:           len(m.clustering) + len(m.rendering) + len(m.pointCounts),
	}
}

// ClearMetrics resets all windows and any in-flight timers.
func (m *Monitor) ClearMetrics() {
	m.clustering = nil
	m.rendering = nil
	m.pointCounts = nil
	m.clusteringStart = time.Time{}
	m.renderingStart = time.Time{}
}

func averageDuration(s []time.Duration) time.Duration {
	if len(s) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s {
		sum += d
	}
	return sum / time.Duration(len(s))
}

func appendBounded[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > metricsWindow {
		copy(s, s[len(s)-metricsWindow:])
		s = s[:metricsWindow]
	}
	return s
}
