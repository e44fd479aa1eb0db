package cluster

import "strings"

// Coordinates is a WGS-84 position in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Category is the partition key for clustering: points of different
// categories never share a cluster.
type Category string

const (
	CategoryService Category = "service"
	CategoryChurch  Category = "church"
	CategoryOutside Category = "outside"
	CategoryNone    Category = "none"
)

// ParseCategory maps a free-form category string onto the closed set,
// falling back to CategoryNone.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryService:
		return CategoryService
	case CategoryChurch:
		return CategoryChurch
	case CategoryOutside:
		return CategoryOutside
	default:
		return CategoryNone
	}
}

// Entity is a caller-supplied record. Location is the unstructured value
// NormalizeLocation understands; Source is an opaque payload the engine
// reads through but never mutates.
type Entity struct {
	ID       string
	Category Category
	Location any
	Source   any
}

// Point is a normalized entity held by the store.
type Point struct {
	Coordinates
	ID       string
	Category Category
	Source   any
}

// Cluster is an aggregated group of nearby same-category points,
// valid only for the query that produced it. IDs are synthetic and not
// stable across queries.
type Cluster struct {
	ID          uint32
	Coordinates Coordinates
	Points      []Point
	Count       int
	Category    Category
}

// Item is one entry of a query result: exactly one of Cluster or Point
// is non-nil.
type Item struct {
	Cluster *Cluster
	Point   *Point
}

// IsCluster reports whether the item aggregates two or more points.
func (it Item) IsCluster() bool { return it.Cluster != nil }

// Count returns the number of source points behind the item.
func (it Item) Count() int {
	if it.Cluster != nil {
		return it.Cluster.Count
	}
	return 1
}

// Position returns the rendered position: the cluster centroid or the
// point itself.
func (it Item) Position() Coordinates {
	if it.Cluster != nil {
		return it.Cluster.Coordinates
	}
	return it.Point.Coordinates
}

// CategoryOf returns the category shared by every point behind the item.
func (it Item) CategoryOf() Category {
	if it.Cluster != nil {
		return it.Cluster.Category
	}
	return it.Point.Category
}
