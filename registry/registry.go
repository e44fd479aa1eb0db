// Package registry manages named clustering engines and their on-disk
// snapshots. It bounds the number of resident engines, evicting the one
// accessed least recently so dormant point sets only cost disk space.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VineMe-App/vineme2.0-sub005/cluster"
)

const snapshotExt = ".zst"

// Info describes one snapshot on disk or one resident engine.
type Info struct {
	ID        string    `json:"id"`
	NumPoints int       `json:"numPoints"`
	Timestamp time.Time `json:"timestamp"`
	FileSize  int64     `json:"fileSize"`
}

// Registry holds engines by id with last-access eviction.
type Registry struct {
	mu           sync.RWMutex
	dir          string
	maxEngines   int
	opts         cluster.Options
	engines      map[string]*cluster.Clusterer
	lastAccessed map[string]time.Time
	log          *slog.Logger
}

// New creates a Registry that keeps up to maxEngines resident engines
// and stores snapshots under dir.
func New(dir string, maxEngines int, opts cluster.Options) (*Registry, error) {
	if maxEngines <= 0 {
		maxEngines = 4
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %v", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:          dir,
		maxEngines:   maxEngines,
		opts:         opts,
		engines:      make(map[string]*cluster.Clusterer),
		lastAccessed: make(map[string]time.Time),
		log:          logger,
	}, nil
}

// Create registers a fresh engine loaded with the given entities and
// returns its id.
func (r *Registry) Create(entities []cluster.Entity) (string, *cluster.Clusterer) {
	id := uuid.New().String()[:8]
	engine := cluster.New(r.opts)
	engine.Load(entities)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[id] = engine
	r.lastAccessed[id] = time.Now()
	r.evictLocked()

	r.log.Info("engine created", "id", id, "points", engine.PointCount())
	return id, engine
}

// Get returns the resident engine for id, refreshing its access time.
func (r *Registry) Get(id string) (*cluster.Clusterer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	engine, ok := r.engines[id]
	if ok {
		r.lastAccessed[id] = time.Now()
	}
	return engine, ok
}

// Remove drops a resident engine. Snapshots on disk are untouched.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, id)
	delete(r.lastAccessed, id)
}

// Save snapshots the engine's point set to disk under a timestamped
// filename carrying the id and point count.
func (r *Registry) Save(id string) (Info, error) {
	engine, ok := r.Get(id)
	if !ok {
		return Info{}, fmt.Errorf("engine with ID %s not found", id)
	}

	points := engine.Points()
	path := r.snapshotFilename(len(points), id)
	if err := cluster.SaveCompressedPoints(path, points); err != nil {
		return Info{}, fmt.Errorf("failed to save snapshot: %v", err)
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat snapshot: %v", err)
	}

	r.log.Info("snapshot saved", "id", id, "path", path, "size", fileInfo.Size())
	return Info{
		ID:        id,
		NumPoints: len(points),
		Timestamp: time.Now(),
		FileSize:  fileInfo.Size(),
	}, nil
}

// LoadFromDisk restores the newest snapshot carrying id into a resident
// engine. Compressed snapshots and uncompressed .bin point files are
// both accepted.
func (r *Registry) LoadFromDisk(id string) (Info, error) {
	infos, err := r.List()
	if err != nil {
		return Info{}, err
	}

	var match *Info
	for i := range infos {
		if infos[i].ID == id {
			match = &infos[i]
			break
		}
	}
	if match == nil {
		return Info{}, fmt.Errorf("snapshot with ID %s not found", id)
	}

	path := r.findSnapshotPath(id)
	if path == "" {
		return Info{}, fmt.Errorf("snapshot file for ID %s not found", id)
	}

	start := time.Now()
	var points []cluster.Point
	if filepath.Ext(path) == ".bin" {
		points, err = cluster.LoadPointsMMap(path)
	} else {
		points, err = cluster.LoadCompressedPoints(path)
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to load snapshot: %v", err)
	}

	engine := cluster.New(r.opts)
	engine.LoadPoints(points)

	r.mu.Lock()
	r.engines[id] = engine
	r.lastAccessed[id] = time.Now()
	r.evictLocked()
	r.mu.Unlock()

	r.log.Info("snapshot loaded", "id", id, "points", len(points), "took", time.Since(start))
	match.NumPoints = len(points)
	return *match, nil
}

// List returns the snapshots on disk, newest first.
func (r *Registry) List() ([]Info, error) {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %v", err)
	}

	infos := make([]Info, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := filepath.Ext(file.Name())
		if ext != snapshotExt && ext != ".bin" {
			continue
		}

		info, ok := parseSnapshotName(strings.TrimSuffix(file.Name(), ext))
		if !ok {
			r.log.Debug("skipping unrecognized snapshot filename", "name", file.Name())
			continue
		}

		stat, err := file.Info()
		if err != nil {
			continue
		}
		info.FileSize = stat.Size()
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}

func (r *Registry) snapshotFilename(numPoints int, id string) string {
	timestamp := time.Now().Format("20060102-150405")
	return filepath.Join(r.dir, fmt.Sprintf("groups-%dp-%s-%s%s", numPoints, timestamp, id, snapshotExt))
}

// findSnapshotPath returns the newest snapshot file whose id segment is
// exactly id, or "" if none exists.
func (r *Registry) findSnapshotPath(id string) string {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestTime time.Time
	for _, file := range files {
		ext := filepath.Ext(file.Name())
		if ext != snapshotExt && ext != ".bin" {
			continue
		}
		info, ok := parseSnapshotName(strings.TrimSuffix(file.Name(), ext))
		if !ok || info.ID != id {
			continue
		}
		if newest == "" || info.Timestamp.After(newestTime) {
			newest = file.Name()
			newestTime = info.Timestamp
		}
	}
	if newest == "" {
		return ""
	}
	return filepath.Join(r.dir, newest)
}

// parseSnapshotName parses "groups-{numPoints}p-{date}-{time}-{id}".
func parseSnapshotName(name string) (Info, bool) {
	parts := strings.Split(name, "-")
	if len(parts) != 5 || parts[0] != "groups" {
		return Info{}, false
	}

	numPoints, err := strconv.Atoi(strings.TrimSuffix(parts[1], "p"))
	if err != nil {
		return Info{}, false
	}

	timestamp, err := time.Parse("20060102-150405", parts[2]+"-"+parts[3])
	if err != nil {
		return Info{}, false
	}

	return Info{
		ID:        parts[4],
		NumPoints: numPoints,
		Timestamp: timestamp,
	}, true
}

// evictLocked removes least-recently-accessed engines over capacity.
// Callers must hold the write lock.
func (r *Registry) evictLocked() {
	for len(r.engines) > r.maxEngines {
		var oldest string
		var oldestTime time.Time
		for id, t := range r.lastAccessed {
			if oldest == "" || t.Before(oldestTime) {
				oldest = id
				oldestTime = t
			}
		}
		if oldest == "" {
			return
		}
		r.log.Info("evicting engine", "id", oldest, "lastAccessed", oldestTime)
		delete(r.engines, oldest)
		delete(r.lastAccessed, oldest)
	}
}
