package cluster

// GeoJSON types
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // lng, lat order
}

// ToGeoJSON converts a query result into a FeatureCollection for the
// rendering layer: clusters become point features with count badges,
// singletons keep their source entity id.
func ToGeoJSON(items []Item) *FeatureCollection {
	features := make([]Feature, len(items))
	for i, it := range items {
		properties := map[string]any{
			"cluster":     it.IsCluster(),
			"point_count": it.Count(),
			"category":    string(it.CategoryOf()),
		}
		if it.IsCluster() {
			properties["cluster_id"] = it.Cluster.ID
		} else {
			properties["id"] = it.Point.ID
		}

		pos := it.Position()
		features[i] = Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{pos.Longitude, pos.Latitude},
			},
			Properties: properties,
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
