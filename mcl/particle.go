// Package mcl implements Monte Carlo localization: a particle filter that
// tracks a robot's 6D pose by propagating pose hypotheses through a noisy
// motion model and re-weighting them against a reference map with a sensor
// model.
package mcl

import (
	"github.com/rovercore/localize/spatialmath"
)

// Particle is one pose hypothesis with an associated weight. Weights are
// residual match distances, so a larger weight means a worse geometric fit.
// After normalization the largest weight is exactly 0 and every other
// weight is negative, with more negative meaning a better match.
type Particle struct {
	Pose   spatialmath.Pose
	Weight float64
}

// NewParticles allocates n particles, all at the given pose with zero
// weight.
func NewParticles(n int, pose spatialmath.Pose) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		particles[i].Pose = pose
	}
	return particles
}
