package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/VineMe-App/vineme2.0-sub005/cluster"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to file")
	numPoints  = flag.Int("points", 10000, "number of entities to generate")
	zoomLevel  = flag.Float64("zoom", 8, "zoom level to profile")
	iterations = flag.Int("iterations", 50, "queries per configuration")
	testall    = flag.Bool("testall", false, "profile all configurations")
)

// Continental US, the same fixture box used across the test suite.
var usBounds = cluster.Bounds{West: -125.0, South: 25.0, East: -67.0, North: 49.0}

func profileQueries(engine *cluster.Clusterer, monitor *cluster.Monitor, zoom float64, iterations int) {
	for i := 0; i < iterations; i++ {
		monitor.StartClustering()
		items := engine.GetClusters(usBounds, zoom)
		monitor.StopClustering()
		monitor.RecordPointCount(len(items))
	}
}

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("Failed to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("Failed to start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	pointCounts := []int{*numPoints}
	zoomLevels := []float64{*zoomLevel}
	if *testall {
		pointCounts = []int{1000, 10000, 50000}
		zoomLevels = []float64{2, 8, 12, 16}
	}

	for _, n := range pointCounts {
		entities := cluster.GenerateTestEntities(n, usBounds, 42)
		engine := cluster.New(cluster.Options{})

		loadStart := time.Now()
		engine.Load(entities)
		fmt.Printf("Loaded %d points in %v\n", engine.PointCount(), time.Since(loadStart))

		for _, zoom := range zoomLevels {
			monitor := cluster.NewMonitor()
			start := time.Now()
			profileQueries(engine, monitor, zoom, *iterations)
			elapsed := time.Since(start)

			report := monitor.Report()
			fmt.Printf("points=%d zoom=%.0f iterations=%d total=%v avgQuery=%v avgItems=%.1f\n",
				n, zoom, *iterations, elapsed, report.AvgClusteringTime, report.AvgPointCount)
		}
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("Failed to create memory profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Printf("Failed to write memory profile: %v\n", err)
			os.Exit(1)
		}
	}
}
