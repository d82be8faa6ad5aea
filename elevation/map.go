// Package elevation converts a 3D point cloud into a dense 2D grid of the
// maximum observed height per planar cell. The grid doubles as a compressed
// map representation and as a coarse map-comparison metric.
package elevation

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"github.com/rovercore/localize/pointcloud"
)

// MinResolution is the smallest admissible tile edge length. Requested
// resolutions below it are clamped to avoid degenerate grids.
const MinResolution = 1e-3

// Map is a dense 2D grid of maximum height per cell, built once from a
// point cloud and read-only thereafter. Cells no point ever fell into
// hold NaN. Concurrent lookups are safe.
type Map struct {
	grid       [][]float64 // indexed [ix][iy]
	resolution float64
	xMin       float64
	yMin       float64
	logger     golog.Logger
}

// NewMap builds an elevation map over the given cloud at the requested
// resolution. Points with non-finite coordinates are ignored.
func NewMap(cloud pointcloud.PointCloud, resolution float64, logger golog.Logger) *Map {
	if resolution < MinResolution {
		logger.Warnw("resolution below minimum, clamping", "requested", resolution, "minimum", MinResolution)
		resolution = MinResolution
	}

	xMin := math.MaxFloat64
	yMin := math.MaxFloat64
	xMax := -math.MaxFloat64
	yMax := -math.MaxFloat64
	found := false
	cloud.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		if isFinite(p.X) && isFinite(p.Y) {
			xMin = math.Min(xMin, p.X)
			yMin = math.Min(yMin, p.Y)
			xMax = math.Max(xMax, p.X)
			yMax = math.Max(yMax, p.Y)
			found = true
		}
		return true
	})
	if !found {
		xMin, yMin, xMax, yMax = 0, 0, 0, 0
	}

	m := &Map{
		resolution: resolution,
		// Snap the minimum corner down to a resolution-aligned origin.
		xMin:   math.Floor(xMin/resolution) * resolution,
		yMin:   math.Floor(yMin/resolution) * resolution,
		logger: logger,
	}

	// One past the tile holding the maximum corner, so points exactly on the
	// upper bound stay in range.
	xSize := int(math.Floor((xMax-m.xMin)/resolution)) + 1
	ySize := int(math.Floor((yMax-m.yMin)/resolution)) + 1
	if xSize < 1 {
		xSize = 1
	}
	if ySize < 1 {
		ySize = 1
	}
	m.grid = make([][]float64, xSize)
	for ix := range m.grid {
		row := make([]float64, ySize)
		for iy := range row {
			row[iy] = math.NaN()
		}
		m.grid[ix] = row
	}

	cloud.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		if !isFinite(p.Z) {
			return true
		}
		ix, iy, ok := m.tile(p.X, p.Y)
		if !ok {
			return true
		}
		if math.IsNaN(m.grid[ix][iy]) || p.Z > m.grid[ix][iy] {
			m.grid[ix][iy] = p.Z
		}
		return true
	})
	return m
}

// Resolution returns the edge length of the map tiles.
func (m *Map) Resolution() float64 {
	return m.resolution
}

// Size returns the number of tiles along x and y.
func (m *Map) Size() (int, int) {
	return len(m.grid), len(m.grid[0])
}

// Origin returns the minimum corner covered by the map.
func (m *Map) Origin() (float64, float64) {
	return m.xMin, m.yMin
}

// Elevation returns the map value corresponding to the given point, or NaN
// if the point lies outside the map.
func (m *Map) Elevation(p r3.Vector) float64 {
	return m.ElevationAt(p.X, p.Y)
}

// ElevationAt returns the map value corresponding to the given coordinates,
// or NaN if they lie outside the map or are non-finite.
func (m *Map) ElevationAt(x, y float64) float64 {
	ix, iy, ok := m.tile(x, y)
	if !ok {
		return math.NaN()
	}
	return m.grid[ix][iy]
}

// ElevationAtIndex returns the value of the map tile with the given index,
// or NaN if the index is out of bounds.
func (m *Map) ElevationAtIndex(ix, iy int) float64 {
	if !m.check(ix, iy) {
		return math.NaN()
	}
	return m.grid[ix][iy]
}

// Diff computes the mean height distance between two elevation maps: over
// all tiles of this map whose center has a finite elevation in both maps,
// the mean of |Δz| capped at dMax. If no tile is comparable, Diff returns
// dMax. Maps of differing resolution are still compared, with a warning.
func (m *Map) Diff(other *Map, dMax float64) float64 {
	if m.resolution != other.resolution {
		m.logger.Warnw("comparing elevation maps of different resolutions",
			"resolution", m.resolution, "other", other.resolution)
	}

	dTotal := 0.0
	n := 0
	for ix := range m.grid {
		for iy := range m.grid[ix] {
			xCenter := m.xMin + (float64(ix)+0.5)*m.resolution
			yCenter := m.yMin + (float64(iy)+0.5)*m.resolution
			d := m.ElevationAt(xCenter, yCenter) - other.ElevationAt(xCenter, yCenter)
			if isFinite(d) {
				dTotal += math.Min(math.Abs(d), dMax)
				n++
			}
		}
	}
	if n < 1 {
		return dMax
	}
	return dTotal / float64(n)
}

// Save writes the grid as whitespace-separated rows, one file line per
// x-index, to the given path. An empty path saves to a timestamp-derived
// file name in the working directory.
func (m *Map) Save(path string) (err error) {
	if path == "" {
		path = fmt.Sprintf("%d.csv", time.Now().UnixNano())
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	for ix := range m.grid {
		for iy, v := range m.grid[ix] {
			if iy > 0 {
				if _, err := w.WriteRune(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%v", v); err != nil {
				return err
			}
		}
		if _, err := w.WriteRune('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// tile returns the index of the tile containing the given coordinates and
// whether that index lies within the map.
func (m *Map) tile(x, y float64) (int, int, bool) {
	if !isFinite(x) || !isFinite(y) {
		return 0, 0, false
	}
	ix := int(math.Floor((x - m.xMin) / m.resolution))
	iy := int(math.Floor((y - m.yMin) / m.resolution))
	if !m.check(ix, iy) {
		return 0, 0, false
	}
	return ix, iy, true
}

func (m *Map) check(ix, iy int) bool {
	return ix >= 0 && ix < len(m.grid) && iy >= 0 && iy < len(m.grid[0])
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
