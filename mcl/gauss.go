package mcl

import (
	"math"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// gaussianVectorSampler draws vectors whose components are independent
// Gaussian samples with per-axis mean and variance. Negative variances are
// treated as zero, which collapses that axis to its mean.
type gaussianVectorSampler struct {
	dists [3]distuv.Normal
}

func newGaussianVectorSampler(mean, variance r3.Vector, src rand.Source) gaussianVectorSampler {
	sigma := func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		return math.Sqrt(v)
	}
	return gaussianVectorSampler{dists: [3]distuv.Normal{
		{Mu: mean.X, Sigma: sigma(variance.X), Src: src},
		{Mu: mean.Y, Sigma: sigma(variance.Y), Src: src},
		{Mu: mean.Z, Sigma: sigma(variance.Z), Src: src},
	}}
}

// Sample draws one vector.
func (g gaussianVectorSampler) Sample() r3.Vector {
	return r3.Vector{
		X: g.dists[0].Rand(),
		Y: g.dists[1].Rand(),
		Z: g.dists[2].Rand(),
	}
}
