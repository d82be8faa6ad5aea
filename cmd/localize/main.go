// Package main is a command that runs Monte Carlo localization against a PCD
// map on a simulated odometry and scan stream.
package main

import (
	"flag"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/rovercore/localize/elevation"
	"github.com/rovercore/localize/mcl"
	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/spatialmath"
)

var logger = golog.NewDevelopmentLogger("localize")

func main() {
	numParticles := flag.Int("particles", 500, "number of pose hypotheses")
	steps := flag.Int("steps", 20, "number of simulated odometry steps")
	stepSize := flag.Float64("step-size", 0.2, "forward movement per step in meters")
	seed := flag.Uint64("seed", 0, "motion noise seed")
	workers := flag.Int("workers", 0, "weight computation workers; 0 uses all hardware threads")
	backend := flag.String("backend", "endpoint", "sensor model backend: endpoint or elevation")
	gridResolution := flag.Float64("grid-resolution", 0.1, "elevation grid resolution for the elevation backend")
	flag.Parse()

	if flag.NArg() < 1 {
		logger.Fatal("need one arg <map.pcd>")
	}

	mapCloud, err := pointcloud.NewFromFile(flag.Arg(0), logger)
	if err != nil {
		logger.Fatalw("cannot read map", "error", err)
	}
	logger.Infow("map loaded", "points", mapCloud.Size())

	motionModel, err := mcl.NewSixDOFMotionModel(mcl.SixDOFMotionModelConfig{Seed: *seed})
	if err != nil {
		logger.Fatalw("cannot build motion model", "error", err)
	}

	var sensorModel mcl.SensorModel
	switch *backend {
	case "endpoint":
		sensorModel, err = mcl.NewEndpointSensorModel(mapCloud,
			mcl.EndpointSensorModelConfig{NumWorkers: *workers}, logger)
	case "elevation":
		grid := elevation.NewMap(mapCloud, *gridResolution, logger)
		sensorModel, err = mcl.NewElevationSensorModel(grid,
			mcl.ElevationSensorModelConfig{NumWorkers: *workers}, logger)
	default:
		logger.Fatalw("unknown backend", "backend", *backend)
	}
	if err != nil {
		logger.Fatalw("cannot build sensor model", "error", err)
	}

	filter := mcl.NewParticleFilter(motionModel, logger)
	filter.Init(*numParticles, spatialmath.NewZeroPose())

	truth := spatialmath.NewZeroPose()
	movement := spatialmath.NewPoseFromPoint(r3.Vector{X: *stepSize})
	for step := 0; step < *steps; step++ {
		truth = spatialmath.Compose(truth, movement)
		scan := scanFromMap(mapCloud, truth)

		filter.UpdateMotion(movement)
		filter.UpdateSensor(sensorModel, []pointcloud.PointCloud{scan})

		mean := filter.Mean()
		logger.Infow("pose estimate",
			"step", step,
			"estimate", mean,
			"truth", truth.Point(),
			"error", mean.Sub(truth.Point()).Norm())
	}
}

// scanFromMap synthesizes the scan a sensor at the given pose would observe
// by expressing the map in the robot frame.
func scanFromMap(mapCloud pointcloud.PointCloud, robotPose spatialmath.Pose) pointcloud.PointCloud {
	inverse := spatialmath.PoseInverse(robotPose)
	scan := pointcloud.NewWithPrealloc(mapCloud.Size())
	mapCloud.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		if pointcloud.IsFinite(p) {
			//nolint:errcheck
			scan.Set(spatialmath.TransformPoint(inverse, p), d)
		}
		return true
	})
	return scan
}
