package cluster

import "math"

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000.0

// Bounds is an axis-aligned bounding box in degrees: west, south, east,
// north. West > East means the box wraps the antimeridian.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Contains reports whether the coordinate lies inside the box, handling
// boxes that wrap the ±180° line.
func (b Bounds) Contains(c Coordinates) bool {
	if c.Latitude < b.South || c.Latitude > b.North {
		return false
	}
	if b.West <= b.East {
		return c.Longitude >= b.West && c.Longitude <= b.East
	}
	return c.Longitude >= b.West || c.Longitude <= b.East
}

// buffered pads the box by latBuf/lngBuf degrees on each side. A wrapped
// box whose padded sides would cross each other covers all longitudes.
func (b Bounds) buffered(latBuf, lngBuf float64) Bounds {
	out := Bounds{
		West:  b.West - lngBuf,
		South: b.South - latBuf,
		East:  b.East + lngBuf,
		North: b.North + latBuf,
	}
	if b.West > b.East && out.West <= out.East {
		out.West, out.East = -180, 180
	}
	return out
}

// lngSpan returns the longitudinal extent of the box in degrees.
func (b Bounds) lngSpan() float64 {
	if b.West <= b.East {
		return b.East - b.West
	}
	return 360 - (b.West - b.East)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// haversineDistance returns the great-circle distance between two
// coordinates in meters.
func haversineDistance(p1, p2 Coordinates) float64 {
	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dLat := lat2 - lat1
	dLng := toRadians(p2.Longitude - p1.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
