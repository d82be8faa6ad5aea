package mcl

import (
	"math"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/atomic"

	"github.com/rovercore/localize/pointcloud"
	"github.com/rovercore/localize/utils"
)

// SensorModel scores particles by comparing sensor data, transformed into
// each particle's pose, against a reference map.
type SensorModel interface {
	// ComputeParticleWeights mutates every particle's weight from the given
	// point clouds in the robot frame. After it returns, the maximum weight
	// across the population is exactly 0 and all others are <= 0.
	//
	// It must not be invoked concurrently with a motion update on the same
	// particle population.
	ComputeParticleWeights(scans []pointcloud.PointCloud, particles []Particle)
}

// scoreAndNormalize computes every particle's weight with the given per-index
// scoring function and then subtracts the maximum weight from all of them.
// numWorkers == 1 scores on the calling goroutine; any other value partitions
// the population into contiguous index ranges scored concurrently, with
// GroupWorkParallel mapping values below 1 to one worker per hardware thread.
// Each worker writes only its own slots, so the parallel and sequential paths
// produce identical weights.
func scoreAndNormalize(particles []Particle, numWorkers int, score func(i int)) {
	if numWorkers != 1 {
		utils.GroupWorkParallel(len(particles), numWorkers, func(groupNum, from, to int) {
			for i := from; i < to; i++ {
				score(i)
			}
		})
	} else {
		for i := range particles {
			score(i)
		}
	}

	maxWeight := math.Inf(-1)
	for i := range particles {
		maxWeight = math.Max(maxWeight, particles[i].Weight)
	}
	for i := range particles {
		particles[i].Weight -= maxWeight
	}
}

// warnThrottle rate-limits a warning that would otherwise fire once per
// particle per cycle. Safe for concurrent use.
type warnThrottle struct {
	every time.Duration
	last  atomic.Int64
}

func (w *warnThrottle) warnw(logger golog.Logger, msg string, keysAndValues ...interface{}) {
	now := time.Now().UnixNano()
	last := w.last.Load()
	if now-last < w.every.Nanoseconds() {
		return
	}
	if w.last.CompareAndSwap(last, now) {
		logger.Warnw(msg, keysAndValues...)
	}
}
