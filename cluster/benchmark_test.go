package cluster

import (
	"fmt"
	"testing"
)

var benchBounds = Bounds{West: -125, South: 25, East: -67, North: 49}

func BenchmarkGetClusters(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	zooms := []float64{4, 8, 12, 16}

	for _, size := range sizes {
		engine := New(Options{})
		engine.Load(GenerateTestEntities(size, benchBounds, 1))

		for _, zoom := range zooms {
			b.Run(fmt.Sprintf("points=%d/zoom=%.0f", size, zoom), func(b *testing.B) {
				var items []Item
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					items = engine.GetClusters(benchBounds, zoom)
				}
				b.ReportMetric(float64(len(items)), "items/query")
			})
		}
	}
}

func BenchmarkLoad(b *testing.B) {
	entities := GenerateTestEntities(5000, benchBounds, 1)
	engine := New(Options{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Load(entities)
	}
}

func BenchmarkNormalizeLocation(b *testing.B) {
	loc := map[string]any{"coordinates": map[string]any{"lat": 37.7749, "lng": -122.4194}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := NormalizeLocation(loc); !ok {
			b.Fatal("fixture failed to normalize")
		}
	}
}
