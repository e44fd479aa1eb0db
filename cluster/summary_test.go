package cluster

import "testing"

func summaryFixture() []Item {
	return []Item{
		{Cluster: &Cluster{
			ID:       1,
			Count:    3,
			Category: CategoryService,
			Points:   make([]Point, 3),
		}},
		{Cluster: &Cluster{
			ID:       2,
			Count:    2,
			Category: CategoryChurch,
			Points:   make([]Point, 2),
		}},
		{Point: &Point{ID: "solo", Category: CategoryService}},
	}
}

func TestSummarizeItems(t *testing.T) {
	s := SummarizeItems(summaryFixture())

	if s.TotalPoints != 6 {
		t.Errorf("Expected 6 total points, got %d", s.TotalPoints)
	}
	if s.NumClusters != 2 {
		t.Errorf("Expected 2 clusters, got %d", s.NumClusters)
	}
	if s.NumSinglePoints != 1 {
		t.Errorf("Expected 1 singleton, got %d", s.NumSinglePoints)
	}
	if s.LargestCluster != 3 {
		t.Errorf("Expected largest cluster of 3, got %d", s.LargestCluster)
	}

	wantService := 4.0 / 6.0 * 100
	if got := s.CategoryShare[CategoryService]; !almostEqual(got, wantService) {
		t.Errorf("Expected service share %f, got %f", wantService, got)
	}
	wantChurch := 2.0 / 6.0 * 100
	if got := s.CategoryShare[CategoryChurch]; !almostEqual(got, wantChurch) {
		t.Errorf("Expected church share %f, got %f", wantChurch, got)
	}
}

func TestSummarizeEmptyResult(t *testing.T) {
	s := SummarizeItems(nil)
	if s.TotalPoints != 0 || s.NumClusters != 0 || s.NumSinglePoints != 0 {
		t.Errorf("Expected zeroed summary for empty result, got %+v", s)
	}
	if len(s.CategoryShare) != 0 {
		t.Errorf("Expected no category shares for empty result, got %v", s.CategoryShare)
	}
}

func TestToGeoJSON(t *testing.T) {
	items := []Item{
		{Cluster: &Cluster{
			ID:          42,
			Coordinates: Coordinates{Latitude: 10, Longitude: 20},
			Count:       2,
			Category:    CategoryOutside,
			Points:      make([]Point, 2),
		}},
		{Point: &Point{
			Coordinates: Coordinates{Latitude: -5, Longitude: 30},
			ID:          "group-9",
			Category:    CategoryChurch,
		}},
	}

	fc := ToGeoJSON(items)

	if fc.Type != "FeatureCollection" {
		t.Errorf("Expected FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(fc.Features))
	}

	clusterFeat := fc.Features[0]
	if clusterFeat.Properties["cluster"] != true {
		t.Error("Expected first feature to be marked as a cluster")
	}
	if clusterFeat.Properties["point_count"] != 2 {
		t.Errorf("Expected point_count 2, got %v", clusterFeat.Properties["point_count"])
	}
	if clusterFeat.Properties["cluster_id"] != uint32(42) {
		t.Errorf("Expected cluster_id 42, got %v", clusterFeat.Properties["cluster_id"])
	}
	// GeoJSON positions are lng, lat.
	if got := clusterFeat.Geometry.Coordinates; got[0] != 20 || got[1] != 10 {
		t.Errorf("Expected coordinates [20 10], got %v", got)
	}

	pointFeat := fc.Features[1]
	if pointFeat.Properties["cluster"] != false {
		t.Error("Expected second feature to not be a cluster")
	}
	if pointFeat.Properties["id"] != "group-9" {
		t.Errorf("Expected id group-9, got %v", pointFeat.Properties["id"])
	}
	if pointFeat.Properties["category"] != string(CategoryChurch) {
		t.Errorf("Expected category %s, got %v", CategoryChurch, pointFeat.Properties["category"])
	}
}
