package elevation

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/rovercore/localize/pointcloud"
)

func newLogger(t *testing.T) golog.Logger {
	t.Helper()
	return golog.NewTestLogger(t)
}

func buildCloud(t *testing.T, points ...r3.Vector) pointcloud.PointCloud {
	t.Helper()
	pc := pointcloud.New()
	for _, p := range points {
		test.That(t, pc.Set(p, nil), test.ShouldBeNil)
	}
	return pc
}

func TestMapConcrete(t *testing.T) {
	pc := buildCloud(t,
		r3.Vector{X: 0, Y: 0, Z: 1},
		r3.Vector{X: 0, Y: 0, Z: 2},
		r3.Vector{X: 1, Y: 1, Z: 5},
	)
	m := NewMap(pc, 1, newLogger(t))

	xSize, ySize := m.Size()
	test.That(t, xSize, test.ShouldEqual, 2)
	test.That(t, ySize, test.ShouldEqual, 2)

	// Stacked points keep the maximum height.
	test.That(t, m.ElevationAt(0, 0), test.ShouldEqual, 2)
	test.That(t, m.ElevationAt(1, 1), test.ShouldEqual, 5)

	// Cells no point fell into are NaN, never a numeric placeholder.
	test.That(t, math.IsNaN(m.ElevationAt(1, 0)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAt(0, 1)), test.ShouldBeTrue)
}

func TestMapOutOfBoundsAndNonFinite(t *testing.T) {
	m := NewMap(buildCloud(t, r3.Vector{X: 0, Y: 0, Z: 1}), 1, newLogger(t))

	test.That(t, math.IsNaN(m.ElevationAt(100, 0)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAt(-0.5, 0)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAt(math.NaN(), 0)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAt(0, math.Inf(1))), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAtIndex(-1, 0)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.ElevationAtIndex(0, 99)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(m.Elevation(r3.Vector{X: math.Inf(-1)})), test.ShouldBeTrue)
}

func TestMapResolutionClamp(t *testing.T) {
	m := NewMap(buildCloud(t, r3.Vector{X: 0, Y: 0, Z: 1}), 1e-9, newLogger(t))
	test.That(t, m.Resolution(), test.ShouldEqual, MinResolution)
}

func TestMapOriginSnap(t *testing.T) {
	m := NewMap(buildCloud(t, r3.Vector{X: 0.37, Y: -0.82, Z: 1}), 0.25, newLogger(t))
	xMin, yMin := m.Origin()
	test.That(t, xMin, test.ShouldAlmostEqual, 0.25)
	test.That(t, yMin, test.ShouldAlmostEqual, -1.0)
}

func TestTileCenterRoundTrip(t *testing.T) {
	m := NewMap(buildCloud(t,
		r3.Vector{X: -2.1, Y: 3.3, Z: 0},
		r3.Vector{X: 4.8, Y: -1.7, Z: 2},
	), 0.5, newLogger(t))

	xSize, ySize := m.Size()
	xMin, yMin := m.Origin()
	for ix := 0; ix < xSize; ix++ {
		for iy := 0; iy < ySize; iy++ {
			xCenter := xMin + (float64(ix)+0.5)*m.Resolution()
			yCenter := yMin + (float64(iy)+0.5)*m.Resolution()
			gotX, gotY, ok := m.tile(xCenter, yCenter)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, gotX, test.ShouldEqual, ix)
			test.That(t, gotY, test.ShouldEqual, iy)
		}
	}
}

func TestDiffSelfIsZero(t *testing.T) {
	m := NewMap(buildCloud(t,
		r3.Vector{X: 0, Y: 0, Z: 1},
		r3.Vector{X: 2, Y: 3, Z: -4},
	), 0.5, newLogger(t))
	test.That(t, m.Diff(m, 10), test.ShouldEqual, 0)
}

func TestDiffCapAndSentinel(t *testing.T) {
	logger := newLogger(t)
	a := NewMap(buildCloud(t, r3.Vector{X: 0, Y: 0, Z: 0}), 1, logger)
	b := NewMap(buildCloud(t, r3.Vector{X: 0, Y: 0, Z: 100}), 1, logger)

	// The only comparable cell differs by 100, capped to dMax.
	test.That(t, a.Diff(b, 2.5), test.ShouldEqual, 2.5)

	// Disjoint maps have no comparable cell; Diff returns the cap.
	far := NewMap(buildCloud(t, r3.Vector{X: 50, Y: 50, Z: 0}), 1, logger)
	test.That(t, a.Diff(far, 7), test.ShouldEqual, 7)
}

func TestDiffResolutionMismatchStillComputes(t *testing.T) {
	logger := newLogger(t)
	a := NewMap(buildCloud(t, r3.Vector{X: 0.1, Y: 0.1, Z: 1}), 1, logger)
	b := NewMap(buildCloud(t, r3.Vector{X: 0.1, Y: 0.1, Z: 1}), 0.5, logger)

	// Non-fatal: a value still comes back.
	d := a.Diff(b, 10)
	test.That(t, math.IsNaN(d), test.ShouldBeFalse)
}

func TestSave(t *testing.T) {
	m := NewMap(buildCloud(t,
		r3.Vector{X: 0, Y: 0, Z: 1.5},
		r3.Vector{X: 1, Y: 1, Z: 5},
	), 1, newLogger(t))

	path := filepath.Join(t.TempDir(), "grid.csv")
	test.That(t, m.Save(path), test.ShouldBeNil)

	content, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	test.That(t, len(lines), test.ShouldEqual, 2)
	test.That(t, strings.Fields(lines[0]), test.ShouldResemble, []string{"1.5", "NaN"})
	test.That(t, strings.Fields(lines[1]), test.ShouldResemble, []string{"NaN", "5"})
}
