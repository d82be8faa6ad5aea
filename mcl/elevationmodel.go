package mcl

import (
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/rovercore/localize/elevation"
	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/spatialmath"
)

// ElevationSensorModelConfig configures an ElevationSensorModel.
type ElevationSensorModelConfig struct {
	// MaxPointDistance caps every per-point height difference before it
	// enters a particle's mean. Default 0.5.
	MaxPointDistance float64

	// MinWeight is the sentinel weight assigned to a particle when no scan
	// point falls on an observed map cell.
	MinWeight float64

	// NumWorkers is the number of goroutines scoring particles. 1 scores
	// on the calling goroutine; values below 1 select one worker per
	// available hardware thread.
	NumWorkers int
}

// ElevationSensorModel weights particles against an elevation grid instead
// of a full point-cloud index: each scan point transformed into the map
// frame is compared to the maximum height recorded for its planar cell.
// The grid is a much smaller map representation than a k-d tree, at the
// cost of collapsing the vertical structure of the scene.
type ElevationSensorModel struct {
	grid      *elevation.Map
	cfg       ElevationSensorModelConfig
	logger    golog.Logger
	noMatches warnThrottle
}

// NewElevationSensorModel returns a sensor model scoring against the given
// elevation map.
func NewElevationSensorModel(grid *elevation.Map, cfg ElevationSensorModelConfig, logger golog.Logger) (*ElevationSensorModel, error) {
	if grid == nil {
		return nil, errors.New("elevation map is required")
	}
	if cfg.MaxPointDistance == 0 {
		cfg.MaxPointDistance = defaultMaxPointDistance
	}
	return &ElevationSensorModel{
		grid:      grid,
		cfg:       cfg,
		logger:    logger,
		noMatches: warnThrottle{every: time.Second},
	}, nil
}

// ComputeParticleWeights scores every particle against the elevation grid
// and normalizes the weights so the maximum is zero.
func (sm *ElevationSensorModel) ComputeParticleWeights(scans []pointcloud.PointCloud, particles []Particle) {
	if len(particles) == 0 {
		return
	}
	scoreAndNormalize(particles, sm.cfg.NumWorkers, func(i int) {
		particles[i].Weight = sm.scoreParticle(scans, particles[i].Pose)
	})
}

func (sm *ElevationSensorModel) scoreParticle(scans []pointcloud.PointCloud, pose spatialmath.Pose) float64 {
	dTotal := 0.0
	nTotal := 0
	for _, scan := range scans {
		scan.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
			if !pointcloud.IsFinite(p) {
				return true
			}
			mapPoint := spatialmath.TransformPoint(pose, p)
			elev := sm.grid.Elevation(mapPoint)
			if math.IsNaN(elev) {
				// Outside the map or an unobserved cell.
				return true
			}
			dTotal += math.Min(sm.cfg.MaxPointDistance, math.Abs(mapPoint.Z-elev))
			nTotal++
			return true
		})
	}
	if nTotal == 0 {
		sm.noMatches.warnw(sm.logger, "no scan point fell on an observed map cell, assigning minimum weight")
		return sm.cfg.MinWeight
	}
	return dTotal / float64(nTotal)
}
