package mcl

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/rovercore/localize/elevation"
	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/spatialmath"
)

func TestElevationModelRequiresMap(t *testing.T) {
	_, err := NewElevationSensorModel(nil, ElevationSensorModelConfig{}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestElevationModelScoring(t *testing.T) {
	logger := golog.NewTestLogger(t)
	grid := elevation.NewMap(cloudOf(t,
		r3.Vector{X: 0.5, Y: 0.5, Z: 1},
		r3.Vector{X: 1.5, Y: 0.5, Z: 2},
	), 1, logger)

	sm, err := NewElevationSensorModel(grid, ElevationSensorModelConfig{MaxPointDistance: 5}, logger)
	test.That(t, err, test.ShouldBeNil)

	// A scan point 0.25 below the recorded cell height.
	scans := []pointcloud.PointCloud{cloudOf(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.75})}
	got := sm.scoreParticle(scans, spatialmath.NewZeroPose())
	test.That(t, got, test.ShouldAlmostEqual, 0.25, 1e-9)

	// The pose shifts the point over the taller cell.
	got = sm.scoreParticle(scans, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, got, test.ShouldAlmostEqual, 1.25, 1e-9)
}

func TestElevationModelCapsAndSentinels(t *testing.T) {
	logger := golog.NewTestLogger(t)
	grid := elevation.NewMap(cloudOf(t, r3.Vector{X: 0.5, Y: 0.5, Z: 10}), 1, logger)

	sm, err := NewElevationSensorModel(grid, ElevationSensorModelConfig{MaxPointDistance: 0.5, MinWeight: -1}, logger)
	test.That(t, err, test.ShouldBeNil)

	scans := []pointcloud.PointCloud{cloudOf(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0})}
	test.That(t, sm.scoreParticle(scans, spatialmath.NewZeroPose()), test.ShouldEqual, 0.5)

	// Points outside the map or non-finite contribute nothing.
	outside := []pointcloud.PointCloud{cloudOf(t,
		r3.Vector{X: 100, Y: 100, Z: 0},
		r3.Vector{X: math.NaN(), Y: 0, Z: 0},
	)}
	test.That(t, sm.scoreParticle(outside, spatialmath.NewZeroPose()), test.ShouldEqual, -1)
}

func TestElevationModelNormalization(t *testing.T) {
	logger := golog.NewTestLogger(t)
	grid := elevation.NewMap(cloudOf(t, r3.Vector{X: 0.5, Y: 0.5, Z: 1}), 1, logger)
	sm, err := NewElevationSensorModel(grid, ElevationSensorModelConfig{NumWorkers: 4}, logger)
	test.That(t, err, test.ShouldBeNil)

	particles := NewParticles(9, spatialmath.NewZeroPose())
	for i := range particles {
		particles[i].Pose = spatialmath.NewPoseFromPoint(r3.Vector{Z: float64(i) * 0.01})
	}
	scans := []pointcloud.PointCloud{cloudOf(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})}
	sm.ComputeParticleWeights(scans, particles)

	maxWeight := math.Inf(-1)
	for _, p := range particles {
		maxWeight = math.Max(maxWeight, p.Weight)
	}
	test.That(t, maxWeight, test.ShouldEqual, 0)
}
