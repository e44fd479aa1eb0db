package cluster

import "math"

// Viewport is the visible map region: a center coordinate plus latitude
// and longitude spans.
type Viewport struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	LatDelta float64 `json:"latDelta"`
	LngDelta float64 `json:"lngDelta"`
}

// DefaultChangeThreshold is the fraction of the old viewport span the
// center or span must move before a re-query is worthwhile.
const DefaultChangeThreshold = 0.1

const (
	// Padding multipliers per zoom band. Only the most zoomed-out band
	// gets less padding: its bounds already cover most of the world.
	standardPad   = 0.5
	zoomedOutPad  = 0.25
	zoomedOutBand = 2
	minPadDegrees = 0.001
	fullySpanZoom = 20 // zoom reported for a zero or negative span
)

// GetOptimalBounds converts a viewport into a padded query box. Padding
// keeps edge points visible while their clusters split or merge; the box
// is strictly larger than the raw viewport on all four sides.
func GetOptimalBounds(v Viewport) Bounds {
	pad := standardPad
	if GetZoomLevel(v.LatDelta) <= zoomedOutBand {
		pad = zoomedOutPad
	}
	latPad := math.Max(v.LatDelta*pad, minPadDegrees)
	lngPad := math.Max(v.LngDelta*pad, minPadDegrees)
	return Bounds{
		West:  v.Lng - v.LngDelta/2 - lngPad,
		South: v.Lat - v.LatDelta/2 - latPad,
		East:  v.Lng + v.LngDelta/2 + lngPad,
		North: v.Lat + v.LatDelta/2 + latPad,
	}
}

// HasSignificantChange reports whether the viewport moved or resized
// enough, relative to the previous spans, to justify a new cluster
// query. A missing viewport on either side always counts as significant
// (first query, or reset).
func HasSignificantChange(prev, curr *Viewport, threshold float64) bool {
	if prev == nil || curr == nil {
		return true
	}
	return math.Abs(curr.Lat-prev.Lat) > threshold*prev.LatDelta ||
		math.Abs(curr.Lng-prev.Lng) > threshold*prev.LngDelta ||
		math.Abs(curr.LatDelta-prev.LatDelta) > threshold*prev.LatDelta ||
		math.Abs(curr.LngDelta-prev.LngDelta) > threshold*prev.LngDelta
}

// GetZoomLevel derives a map zoom level from the visible latitude span:
// round(log2(360 / latDelta)). Monotonically decreasing in latDelta.
func GetZoomLevel(latDelta float64) float64 {
	if latDelta <= 0 {
		return fullySpanZoom
	}
	return math.Round(math.Log2(360 / latDelta))
}
