// Package utils contains small shared helpers.
package utils

import (
	"runtime"
	"sync"

	goutils "go.viam.com/utils"
)

// ParallelFactor is the default number of workers for GroupWorkParallel.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// GroupWorkParallel splits totalSize units of work into numWorkers
// contiguous ranges of equal size and runs one goroutine per range. It
// returns only after every goroutine has finished. numWorkers < 1 selects
// ParallelFactor. Each invocation of work owns the half-open index range
// [from, to) exclusively; trailing ranges may be empty.
func GroupWorkParallel(totalSize, numWorkers int, work func(groupNum, from, to int)) {
	if numWorkers < 1 {
		numWorkers = ParallelFactor
	}
	groupSize := (totalSize + numWorkers - 1) / numWorkers

	var wait sync.WaitGroup
	wait.Add(numWorkers)
	for groupNum := 0; groupNum < numWorkers; groupNum++ {
		groupNumCopy := groupNum
		goutils.PanicCapturingGo(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			from := groupNum * groupSize
			to := (groupNum + 1) * groupSize
			if from > totalSize {
				from = totalSize
			}
			if to > totalSize {
				to = totalSize
			}
			work(groupNum, from, to)
		})
	}
	wait.Wait()
}
