package mcl

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/rovercore/localize/spatialmath"
)

// MotionModel advances particle poses using a measured movement plus
// sampled noise.
type MotionModel interface {
	// Init scatters the particles around the given start pose.
	Init(startPose spatialmath.Pose, particles []Particle)

	// MoveParticles advances every particle's pose by the measured movement
	// plus sampled noise. The movement is expressed in the robot frame.
	MoveParticles(movement spatialmath.Pose, particles []Particle)
}

const defaultMotionVariance = 0.1

// SixDOFMotionModelConfig configures a SixDOFMotionModel.
type SixDOFMotionModelConfig struct {
	// Covariance is a 6x6 matrix mapping a motion increment
	// [tx ty tz roll pitch yaw] to per-axis noise variances via
	// variance = Covariance * increment. A stationary robot therefore
	// accumulates no uncertainty, and noise grows with the size of the
	// motion. Nil selects 0.1 times the identity.
	Covariance *mat.Dense

	// StartVariance holds the six per-axis variances used to scatter
	// particles around the start pose at initialization. Nil selects 0.1
	// for every axis.
	StartVariance []float64

	// Seed seeds the noise source.
	Seed uint64
}

// SixDOFMotionModel injects pose-dependent Gaussian noise on all six axes.
// Its parameters are immutable during a filter run.
type SixDOFMotionModel struct {
	covariance    *mat.Dense
	startVariance []float64
	src           rand.Source
}

// NewSixDOFMotionModel returns a motion model with the given noise
// parameters.
func NewSixDOFMotionModel(cfg SixDOFMotionModelConfig) (*SixDOFMotionModel, error) {
	covariance := cfg.Covariance
	if covariance == nil {
		covariance = mat.NewDense(6, 6, nil)
		for i := 0; i < 6; i++ {
			covariance.Set(i, i, defaultMotionVariance)
		}
	}
	if r, c := covariance.Dims(); r != 6 || c != 6 {
		return nil, errors.Errorf("motion covariance must be 6x6, got %dx%d", r, c)
	}

	startVariance := cfg.StartVariance
	if startVariance == nil {
		startVariance = []float64{
			defaultMotionVariance, defaultMotionVariance, defaultMotionVariance,
			defaultMotionVariance, defaultMotionVariance, defaultMotionVariance,
		}
	}
	if len(startVariance) != 6 {
		return nil, errors.Errorf("start variance must have 6 entries, got %d", len(startVariance))
	}

	return &SixDOFMotionModel{
		covariance:    mat.DenseCopyOf(covariance),
		startVariance: append([]float64(nil), startVariance...),
		src:           rand.NewSource(cfg.Seed),
	}, nil
}

// Init scatters all particles around the start pose according to the
// configured start variances and resets their weights.
func (m *SixDOFMotionModel) Init(startPose spatialmath.Pose, particles []Particle) {
	rpy := startPose.Orientation().EulerAngles()
	originSampler := newGaussianVectorSampler(
		startPose.Point(),
		r3.Vector{X: m.startVariance[0], Y: m.startVariance[1], Z: m.startVariance[2]},
		m.src,
	)
	rotationSampler := newGaussianVectorSampler(
		r3.Vector{X: rpy.Roll, Y: rpy.Pitch, Z: rpy.Yaw},
		r3.Vector{X: m.startVariance[3], Y: m.startVariance[4], Z: m.startVariance[5]},
		m.src,
	)
	for i := range particles {
		rot := rotationSampler.Sample()
		particles[i].Pose = spatialmath.NewPose(
			originSampler.Sample(),
			spatialmath.NewEulerAngles(rot.X, rot.Y, rot.Z),
		)
		particles[i].Weight = 0
	}
}

// MoveParticles samples a noisy version of the movement for every particle
// and composes it onto the particle's pose in the particle's local frame.
// The composition order matters: noise accumulates along the particle's own
// trajectory, not in the world frame.
func (m *SixDOFMotionModel) MoveParticles(movement spatialmath.Pose, particles []Particle) {
	rpy := movement.Orientation().EulerAngles()
	origin := movement.Point()

	increment := mat.NewVecDense(6, []float64{
		origin.X, origin.Y, origin.Z, rpy.Roll, rpy.Pitch, rpy.Yaw,
	})
	variance := mat.NewVecDense(6, nil)
	variance.MulVec(m.covariance, increment)

	translationSampler := newGaussianVectorSampler(
		origin,
		r3.Vector{X: variance.AtVec(0), Y: variance.AtVec(1), Z: variance.AtVec(2)},
		m.src,
	)
	rotationSampler := newGaussianVectorSampler(
		r3.Vector{X: rpy.Roll, Y: rpy.Pitch, Z: rpy.Yaw},
		r3.Vector{X: variance.AtVec(3), Y: variance.AtVec(4), Z: variance.AtVec(5)},
		m.src,
	)

	for i := range particles {
		rot := rotationSampler.Sample()
		noisyMovement := spatialmath.NewPose(
			translationSampler.Sample(),
			spatialmath.NewEulerAngles(rot.X, rot.Y, rot.Z),
		)
		particles[i].Pose = spatialmath.Compose(particles[i].Pose, noisyMovement)
	}
}
