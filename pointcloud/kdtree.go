package pointcloud

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree is a spatial index over a fixed set of points supporting
// nearest-neighbor queries. Once built it is read-only, so concurrent
// queries from multiple goroutines are safe without locking.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// ToKDTree creates a KDTree from the finite points of a PointCloud.
// Non-finite points are excluded from the index.
func ToKDTree(cloud PointCloud) *KDTree {
	points := make(kdtree.Points, 0, cloud.Size())
	cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		if IsFinite(p) {
			points = append(points, kdtree.Point{p.X, p.Y, p.Z})
		}
		return true
	})
	return &KDTree{
		tree: kdtree.New(points, false),
		size: len(points),
	}
}

// Size returns the number of points in the index.
func (kd *KDTree) Size() int {
	return kd.size
}

// NearestNeighbor returns the point in the index closest to the given point
// and the squared Euclidean distance between them. The last return is false
// if the index is empty.
func (kd *KDTree) NearestNeighbor(p r3.Vector) (r3.Vector, float64, bool) {
	if kd.size == 0 {
		return r3.Vector{}, 0, false
	}
	c, dist2 := kd.tree.Nearest(kdtree.Point{p.X, p.Y, p.Z})
	if c == nil {
		return r3.Vector{}, 0, false
	}
	nearest := c.(kdtree.Point)
	return r3.Vector{X: nearest[0], Y: nearest[1], Z: nearest[2]}, dist2, true
}
