package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// VoxelCoords stores voxel coordinates in the voxel grid axes.
type VoxelCoords struct {
	I, J, K int64
}

// IsEqual tests if two VoxelCoords are the same.
func (c VoxelCoords) IsEqual(c2 VoxelCoords) bool {
	return c.I == c2.I && c.J == c2.J && c.K == c2.K
}

// GetVoxelCoordinates computes the voxel coordinates of a point, given the
// minimum corner of the cloud and the voxel edge length.
func GetVoxelCoordinates(pt, ptMin r3.Vector, voxelSize float64) VoxelCoords {
	return VoxelCoords{
		I: int64(math.Floor((pt.X - ptMin.X) / voxelSize)),
		J: int64(math.Floor((pt.Y - ptMin.Y) / voxelSize)),
		K: int64(math.Floor((pt.Z - ptMin.Z) / voxelSize)),
	}
}

type voxelAccumulator struct {
	sum          r3.Vector
	intensitySum float64
	hasIntensity bool
	n            int
}

// VoxelDownsample reduces the cloud to at most one representative point per
// voxelSize-sized cube, the centroid of the points falling into that cube.
// Intensity readings, where present, are averaged per cube. Non-finite
// points cannot be bucketed and are dropped.
func VoxelDownsample(cloud PointCloud, voxelSize float64) PointCloud {
	meta := cloud.MetaData()
	ptMin := r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}

	voxels := make(map[VoxelCoords]*voxelAccumulator)
	order := make([]VoxelCoords, 0)
	cloud.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		if !IsFinite(p) {
			return true
		}
		coords := GetVoxelCoordinates(p, ptMin, voxelSize)
		acc, ok := voxels[coords]
		if !ok {
			acc = &voxelAccumulator{}
			voxels[coords] = acc
			order = append(order, coords)
		}
		acc.sum = acc.sum.Add(p)
		if d != nil && d.HasIntensity() {
			acc.intensitySum += d.Intensity()
			acc.hasIntensity = true
		}
		acc.n++
		return true
	})

	sparse := NewWithPrealloc(len(voxels))
	for _, coords := range order {
		acc := voxels[coords]
		center := acc.sum.Mul(1 / float64(acc.n))
		var d Data
		if acc.hasIntensity {
			d = NewIntensityData(acc.intensitySum / float64(acc.n))
		} else {
			d = NewBasicData()
		}
		// Centroids of distinct voxels can collide only after rounding, in
		// which case the later write wins.
		if err := sparse.Set(center, d); err != nil {
			continue
		}
	}
	return sparse
}
