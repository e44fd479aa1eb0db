package cluster

// QuerySummary aggregates one GetClusters result for display layers.
type QuerySummary struct {
	TotalPoints     int                  `json:"totalPoints"`
	NumClusters     int                  `json:"numClusters"`
	NumSinglePoints int                  `json:"numSinglePoints"`
	LargestCluster  int                  `json:"largestCluster"`
	CategoryShare   map[Category]float64 `json:"categoryShare"` // percent of points
}

// SummarizeItems walks a query result and tallies per-category shares,
// cluster/singleton counts and the largest cluster size.
func SummarizeItems(items []Item) QuerySummary {
	summary := QuerySummary{
		CategoryShare: make(map[Category]float64),
	}

	counts := make(map[Category]int)
	for _, it := range items {
		n := it.Count()
		summary.TotalPoints += n
		counts[it.CategoryOf()] += n

		if it.IsCluster() {
			summary.NumClusters++
			if n > summary.LargestCluster {
				summary.LargestCluster = n
			}
		} else {
			summary.NumSinglePoints++
		}
	}

	if summary.TotalPoints > 0 {
		for cat, n := range counts {
			summary.CategoryShare[cat] = float64(n) / float64(summary.TotalPoints) * 100
		}
	}

	return summary
}
