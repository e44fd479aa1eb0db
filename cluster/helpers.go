package cluster

import (
	"fmt"
	"math/rand"
)

var testCategories = []Category{CategoryService, CategoryChurch, CategoryOutside}

// GenerateTestEntities builds n random entities inside the box, cycling
// through categories and through every location shape the normalizer
// accepts. Deterministic for a given seed.
func GenerateTestEntities(n int, b Bounds, seed int64) []Entity {
	r := rand.New(rand.NewSource(seed))
	entities := make([]Entity, n)

	for i := 0; i < n; i++ {
		lat := b.South + r.Float64()*(b.North-b.South)
		lng := b.West + r.Float64()*(b.East-b.West)

		var location any
		switch i % 4 {
		case 0:
			location = map[string]any{
				"coordinates": map[string]any{"lat": lat, "lng": lng},
			}
		case 1:
			location = map[string]any{
				"coordinates": map[string]any{"latitude": lat, "longitude": lng},
			}
		case 2:
			location = map[string]any{"lat": lat, "lng": lng}
		case 3:
			location = map[string]any{"latitude": lat, "longitude": lng}
		}

		entities[i] = Entity{
			ID:       fmt.Sprintf("group-%d", i+1),
			Category: testCategories[i%len(testCategories)],
			Location: location,
			Source: map[string]any{
				"name":    fmt.Sprintf("Test Group %d", i+1),
				"members": r.Intn(40) + 2,
			},
		}
	}

	return entities
}
