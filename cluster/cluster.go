package cluster

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
)

const (
	defaultMaxZoom     = 16
	defaultBaseRadius  = 40   // meters between points at MaxZoom
	defaultBufferFloor = 0.01 // degrees of padding even for tiny viewports

	// The zoom band where clusters split and merge the most; it gets a
	// wider query buffer and the empty-result fallback.
	midZoomMin = 11
	midZoomMax = 13

	midZoomBufferFactor = 0.5
	baseBufferFactor    = 0.2
)

// Options configure a Clusterer. Zero values fall back to defaults.
type Options struct {
	MaxZoom     float64 // queries at or above this zoom return raw points (default 16)
	BaseRadius  float64 // clustering radius in meters at MaxZoom (default 40)
	BufferFloor float64 // minimum bbox padding in degrees (default 0.01)
	Logger      *slog.Logger
}

// Clusterer owns the current point set and answers cluster queries for a
// bounding box and zoom level. Load and Clear are the only mutating
// operations; GetClusters is a pure function of the stored points and its
// arguments. Concurrent mutation needs external synchronization; typical
// usage is single-threaded from a map event loop.
type Clusterer struct {
	opts   Options
	points []Point
	log    *slog.Logger
}

// New creates a Clusterer, filling in defaults for unset options.
func New(opts Options) *Clusterer {
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = defaultMaxZoom
	}
	if opts.BaseRadius <= 0 {
		opts.BaseRadius = defaultBaseRadius
	}
	if opts.BufferFloor <= 0 {
		opts.BufferFloor = defaultBufferFloor
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Clusterer{opts: opts, log: opts.Logger}
}

// Load normalizes the entities and replaces the entire stored point set.
// Entities without a usable location are dropped silently; the only
// signal is a lower PointCount.
func (c *Clusterer) Load(entities []Entity) {
	points := make([]Point, 0, len(entities))
	for _, e := range entities {
		coords, ok := NormalizeLocation(e.Location)
		if !ok {
			continue
		}
		points = append(points, Point{
			Coordinates: coords,
			ID:          e.ID,
			Category:    e.Category,
			Source:      e.Source,
		})
	}
	c.points = points
	c.log.Debug("point set replaced", "loaded", len(points), "dropped", len(entities)-len(points))
}

// LoadPoints replaces the stored set with already-normalized points,
// e.g. restored from a snapshot file.
func (c *Clusterer) LoadPoints(points []Point) {
	c.points = append([]Point(nil), points...)
}

// Clear empties the stored point set.
func (c *Clusterer) Clear() {
	c.points = nil
}

// PointCount returns the number of stored points.
func (c *Clusterer) PointCount() int {
	return len(c.points)
}

// Points returns a copy of the stored point set.
func (c *Clusterer) Points() []Point {
	return append([]Point(nil), c.points...)
}

// GetClusters returns the clusters and singleton points visible in the
// buffered box at the given zoom level. Returned values are snapshots for
// this query only; the engine does not retain them.
func (c *Clusterer) GetClusters(bounds Bounds, zoom float64) []Item {
	query := bufferBounds(bounds, zoom, c.opts.BufferFloor)

	var filtered []Point
	for _, p := range c.points {
		if query.Contains(p.Coordinates) {
			filtered = append(filtered, p)
		}
	}

	// An empty result in the mid zoom band is more often a transient
	// bounds miscalculation than a truly empty viewport; cluster the
	// whole set for this query instead.
	if len(filtered) == 0 && isMidZoom(zoom) && len(c.points) > 0 {
		c.log.Debug("mid-zoom query matched nothing, using full point set",
			"zoom", zoom, "points", len(c.points))
		filtered = append(filtered, c.points...)
	}

	if len(filtered) == 0 {
		return nil
	}

	if zoom >= c.opts.MaxZoom {
		items := make([]Item, len(filtered))
		for i := range filtered {
			p := filtered[i]
			items[i] = Item{Point: &p}
		}
		return items
	}

	radius := c.opts.BaseRadius * math.Pow(2, c.opts.MaxZoom-zoom)
	return c.clusterPoints(filtered, radius)
}

// clusterPoints greedily groups each unprocessed point with all other
// unprocessed points of the same category within radius meters. O(k²) in
// the filtered point count, which the buffered viewport keeps small.
func (c *Clusterer) clusterPoints(points []Point, radius float64) []Item {
	items := make([]Item, 0, len(points))
	processed := make([]bool, len(points))

	for i := range points {
		if processed[i] {
			continue
		}
		group := []int{i}
		for j := range points {
			if j == i || processed[j] {
				continue
			}
			if points[j].Category != points[i].Category {
				continue
			}
			if haversineDistance(points[i].Coordinates, points[j].Coordinates) <= radius {
				group = append(group, j)
			}
		}

		if len(group) == 1 {
			processed[i] = true
			p := points[i]
			items = append(items, Item{Point: &p})
			continue
		}

		members := make([]Point, len(group))
		var sumLat, sumLng float64
		for k, idx := range group {
			processed[idx] = true
			members[k] = points[idx]
			sumLat += points[idx].Latitude
			sumLng += points[idx].Longitude
		}
		n := float64(len(members))
		items = append(items, Item{Cluster: &Cluster{
			ID: uuid.New().ID(),
			Coordinates: Coordinates{
				Latitude:  sumLat / n,
				Longitude: sumLng / n,
			},
			Points:   members,
			Count:    len(members),
			Category: points[i].Category,
		}})
	}

	// Every point is marked processed during its own iteration at the
	// latest, so this pass should find nothing. Recovery path only.
	for i := range points {
		if processed[i] {
			continue
		}
		c.log.Warn("point missed by clustering pass, emitting as singleton",
			"id", points[i].ID, "category", points[i].Category)
		p := points[i]
		items = append(items, Item{Point: &p})
	}

	return items
}

// bufferBounds pads the query box proportionally to its span, with an
// absolute floor so very small viewports still get meaningful padding.
func bufferBounds(b Bounds, zoom, floor float64) Bounds {
	factor := baseBufferFactor
	if isMidZoom(zoom) {
		factor = midZoomBufferFactor
	}

	latBuf := (b.North - b.South) * factor
	lngBuf := b.lngSpan() * factor
	if latBuf < floor {
		latBuf = floor
	}
	if lngBuf < floor {
		lngBuf = floor
	}
	return b.buffered(latBuf, lngBuf)
}

func isMidZoom(zoom float64) bool {
	return zoom >= midZoomMin && zoom <= midZoomMax
}
