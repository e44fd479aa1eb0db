package cluster

import (
	"encoding/json"
	"math"
)

// NormalizeLocation extracts a canonical coordinate pair from the loosely
// shaped location values mobile clients send. Accepted shapes, first
// match wins:
//
//	{"coordinates": {"lat": .., "lng": ..}}
//	{"coordinates": {"latitude": .., "longitude": ..}}
//	{"lat": .., "lng": ..}
//	{"latitude": .., "longitude": ..}
//
// Anything else, including absent, non-numeric or non-finite values,
// yields ok == false. Malformed input is never an error.
func NormalizeLocation(loc any) (Coordinates, bool) {
	m, ok := loc.(map[string]any)
	if !ok {
		return Coordinates{}, false
	}
	if nested, ok := m["coordinates"].(map[string]any); ok {
		if c, ok := coordsFrom(nested, "lat", "lng"); ok {
			return c, true
		}
		if c, ok := coordsFrom(nested, "latitude", "longitude"); ok {
			return c, true
		}
	}
	if c, ok := coordsFrom(m, "lat", "lng"); ok {
		return c, true
	}
	if c, ok := coordsFrom(m, "latitude", "longitude"); ok {
		return c, true
	}
	return Coordinates{}, false
}

func coordsFrom(m map[string]any, latKey, lngKey string) (Coordinates, bool) {
	lat, ok := finiteNumber(m[latKey])
	if !ok {
		return Coordinates{}, false
	}
	lng, ok := finiteNumber(m[lngKey])
	if !ok {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lng}, true
}

// finiteNumber coerces the numeric types a decoded JSON or caller-built
// map may carry. NaN and infinities are rejected.
func finiteNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
