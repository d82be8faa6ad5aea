package mcl

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/spatialmath"
)

// ParticleFilter owns the particle population and orchestrates the
// localization cycle: initialize, apply motion, refresh weights, report a
// summary pose. The motion model may be shared with other holders; the
// filter only reads its configuration through the interface.
//
// Motion updates and weight computation must not run concurrently against
// the same filter.
type ParticleFilter struct {
	motionModel MotionModel
	particles   []Particle
	logger      golog.Logger
}

// NewParticleFilter returns a filter driven by the given motion model. The
// population is empty until Init is called.
func NewParticleFilter(motionModel MotionModel, logger golog.Logger) *ParticleFilter {
	return &ParticleFilter{motionModel: motionModel, logger: logger}
}

// Init allocates n particles at the start pose and delegates to the motion
// model to scatter them according to its start variances. Any previous
// population is discarded.
func (pf *ParticleFilter) Init(n int, startPose spatialmath.Pose) {
	pf.logger.Debugw("initializing particle population", "n", n)
	pf.particles = NewParticles(n, startPose)
	pf.motionModel.Init(startPose, pf.particles)
}

// UpdateMotion advances the whole population by the measured movement plus
// model noise.
func (pf *ParticleFilter) UpdateMotion(movement spatialmath.Pose) {
	pf.motionModel.MoveParticles(movement, pf.particles)
}

// UpdateSensor refreshes all particle weights from the latest scans using
// the given sensor model.
func (pf *ParticleFilter) UpdateSensor(model SensorModel, scans []pointcloud.PointCloud) {
	model.ComputeParticleWeights(scans, pf.particles)
}

// Particles exposes the filter's population for sensor models and
// inspection. The returned slice is the filter's own storage.
func (pf *ParticleFilter) Particles() []Particle {
	return pf.particles
}

// Mean returns the arithmetic mean of all particle origins, or the zero
// vector for an empty population.
// TODO: incorporate particle weights into the estimate.
func (pf *ParticleFilter) Mean() r3.Vector {
	if len(pf.particles) == 0 {
		return r3.Vector{}
	}
	var mean r3.Vector
	for i := range pf.particles {
		mean = mean.Add(pf.particles[i].Pose.Point())
	}
	return mean.Mul(1 / float64(len(pf.particles)))
}
