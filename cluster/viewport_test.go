package cluster

import "testing"

func TestGetOptimalBoundsStrictlyLarger(t *testing.T) {
	v := Viewport{Lat: 37.7749, Lng: -122.4194, LatDelta: 0.1, LngDelta: 0.1}
	b := GetOptimalBounds(v)

	rawWest := v.Lng - v.LngDelta/2
	rawSouth := v.Lat - v.LatDelta/2
	rawEast := v.Lng + v.LngDelta/2
	rawNorth := v.Lat + v.LatDelta/2

	if b.West >= rawWest {
		t.Errorf("Expected padded west < %f, got %f", rawWest, b.West)
	}
	if b.South >= rawSouth {
		t.Errorf("Expected padded south < %f, got %f", rawSouth, b.South)
	}
	if b.East <= rawEast {
		t.Errorf("Expected padded east > %f, got %f", rawEast, b.East)
	}
	if b.North <= rawNorth {
		t.Errorf("Expected padded north > %f, got %f", rawNorth, b.North)
	}
}

func TestGetOptimalBoundsZoomedOutUsesSmallerPad(t *testing.T) {
	// A 120° span sits in the most zoomed-out band and gets the 0.25
	// multiplier instead of 0.5.
	v := Viewport{LatDelta: 120, LngDelta: 120}
	b := GetOptimalBounds(v)

	wantNorth := 120.0/2 + 120.0*0.25
	if !almostEqual(b.North, wantNorth) {
		t.Errorf("Expected north %f with zoomed-out padding, got %f", wantNorth, b.North)
	}
}

func TestGetOptimalBoundsMinimumPad(t *testing.T) {
	// A tiny viewport still gets the absolute floor on each side.
	v := Viewport{Lat: 10, Lng: 10, LatDelta: 0.0001, LngDelta: 0.0001}
	b := GetOptimalBounds(v)

	if span := b.North - b.South; span < 2*0.001 {
		t.Errorf("Expected minimum padding on the latitude span, got %f", span)
	}
}

func TestGetZoomLevel(t *testing.T) {
	tests := []struct {
		latDelta float64
		want     float64
	}{
		{360, 0},
		{180, 1},
		{90, 2},
		{0.1, 12},
		{0, 20},
		{-1, 20},
	}
	for _, tc := range tests {
		if got := GetZoomLevel(tc.latDelta); got != tc.want {
			t.Errorf("GetZoomLevel(%f): expected %f, got %f", tc.latDelta, tc.want, got)
		}
	}
}

func TestGetZoomLevelMonotonic(t *testing.T) {
	prev := GetZoomLevel(360)
	for _, d := range []float64{180, 45, 10, 1, 0.1, 0.01} {
		z := GetZoomLevel(d)
		if z < prev {
			t.Errorf("Expected zoom to not decrease as spans shrink: %f after %f", z, prev)
		}
		prev = z
	}
}

func TestHasSignificantChange(t *testing.T) {
	base := &Viewport{Lat: 37.7, Lng: -122.4, LatDelta: 1, LngDelta: 1}

	if HasSignificantChange(base, base, DefaultChangeThreshold) {
		t.Error("Expected an unchanged viewport to be insignificant")
	}
	if !HasSignificantChange(nil, base, DefaultChangeThreshold) {
		t.Error("Expected a missing previous viewport to be significant")
	}
	if !HasSignificantChange(base, nil, DefaultChangeThreshold) {
		t.Error("Expected a missing current viewport to be significant")
	}

	nudged := *base
	nudged.Lat += 0.05
	if HasSignificantChange(base, &nudged, DefaultChangeThreshold) {
		t.Error("Expected a sub-threshold pan to be insignificant")
	}

	panned := *base
	panned.Lng += 0.2
	if !HasSignificantChange(base, &panned, DefaultChangeThreshold) {
		t.Error("Expected a pan beyond the threshold to be significant")
	}

	zoomed := *base
	zoomed.LatDelta = 1.5
	zoomed.LngDelta = 1.5
	if !HasSignificantChange(base, &zoomed, DefaultChangeThreshold) {
		t.Error("Expected a span change beyond the threshold to be significant")
	}
}
