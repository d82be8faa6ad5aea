package mcl

import (
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/spatialmath"
)

const (
	defaultMaxPointDistance    = 0.5
	defaultSparseResolution    = 0.1
	defaultMinSparseResolution = 1e-9
)

// EndpointSensorModelConfig configures an EndpointSensorModel. Zero values
// select the defaults noted on each field.
type EndpointSensorModelConfig struct {
	// MaxPointDistance caps every per-point nearest-neighbor distance
	// before it enters a particle's mean. Default 0.5.
	MaxPointDistance float64

	// SparseResolution is the voxel edge length used to downsample incoming
	// scans before matching. Default 0.1.
	SparseResolution float64

	// MinSparseResolution is the lower bound SparseResolution is clamped
	// to. Default 1e-9.
	MinSparseResolution float64

	// MinWeight is the sentinel weight assigned to a particle when no scan
	// point yields a defined distance.
	MinWeight float64

	// NumWorkers is the number of goroutines scoring particles. 1 scores
	// on the calling goroutine; values below 1 select one worker per
	// available hardware thread.
	NumWorkers int
}

// EndpointSensorModel weights particles by the mean nearest-neighbor
// distance between their transformed scan points and a reference point
// cloud map.
type EndpointSensorModel struct {
	kd         *pointcloud.KDTree
	cfg        EndpointSensorModelConfig
	logger     golog.Logger
	noMatches  warnThrottle
	emptyScans warnThrottle
}

// NewEndpointSensorModel builds the nearest-neighbor index over the given
// reference map and returns the model.
func NewEndpointSensorModel(mapCloud pointcloud.PointCloud, cfg EndpointSensorModelConfig, logger golog.Logger) (*EndpointSensorModel, error) {
	if cfg.MaxPointDistance == 0 {
		cfg.MaxPointDistance = defaultMaxPointDistance
	}
	if cfg.SparseResolution == 0 {
		cfg.SparseResolution = defaultSparseResolution
	}
	if cfg.MinSparseResolution == 0 {
		cfg.MinSparseResolution = defaultMinSparseResolution
	}
	if cfg.SparseResolution < cfg.MinSparseResolution {
		logger.Warnw("sparsification resolution below minimum, clamping",
			"requested", cfg.SparseResolution, "minimum", cfg.MinSparseResolution)
		cfg.SparseResolution = cfg.MinSparseResolution
	}

	kd := pointcloud.ToKDTree(mapCloud)
	if kd.Size() == 0 {
		return nil, errors.New("reference map has no finite points")
	}
	return &EndpointSensorModel{
		kd:         kd,
		cfg:        cfg,
		logger:     logger,
		noMatches:  warnThrottle{every: time.Second},
		emptyScans: warnThrottle{every: time.Second},
	}, nil
}

// ComputeParticleWeights downsamples the scans once, scores every particle
// against the map index, and normalizes the weights so the maximum is zero.
func (sm *EndpointSensorModel) ComputeParticleWeights(scans []pointcloud.PointCloud, particles []Particle) {
	if len(particles) == 0 {
		return
	}

	sparse := make([]pointcloud.PointCloud, 0, len(scans))
	for _, scan := range scans {
		sparse = append(sparse, pointcloud.VoxelDownsample(scan, sm.cfg.SparseResolution))
	}

	scoreAndNormalize(particles, sm.cfg.NumWorkers, func(i int) {
		particles[i].Weight = sm.scoreParticle(sparse, particles[i].Pose)
	})
}

// scoreParticle returns the mean capped nearest-neighbor distance of the
// scan points transformed into the map frame by the given pose. Every scan
// cloud contributes to the same accumulator. Points with non-finite
// coordinates are skipped; if nothing contributes, the sentinel minimum
// weight is returned.
func (sm *EndpointSensorModel) scoreParticle(scans []pointcloud.PointCloud, pose spatialmath.Pose) float64 {
	if len(scans) == 0 {
		sm.emptyScans.warnw(sm.logger, "cannot compute particle weight given no point clouds")
		return sm.cfg.MinWeight
	}

	dTotal := 0.0
	nTotal := 0
	for _, scan := range scans {
		scan.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
			if !pointcloud.IsFinite(p) {
				return true
			}
			mapPoint := spatialmath.TransformPoint(pose, p)
			if _, dist2, ok := sm.kd.NearestNeighbor(mapPoint); ok {
				dTotal += math.Min(sm.cfg.MaxPointDistance, math.Sqrt(dist2))
				nTotal++
			}
			return true
		})
	}
	if nTotal == 0 {
		sm.noMatches.warnw(sm.logger, "no scan point produced a defined distance, assigning minimum weight")
		return sm.cfg.MinWeight
	}
	return dTotal / float64(nTotal)
}
