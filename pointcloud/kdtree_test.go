package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"golang.org/x/exp/rand"
)

func TestKDTreeNearest(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(0, 0, 0), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(1, 0, 0), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(0, 2, 0), nil), test.ShouldBeNil)

	kd := ToKDTree(pc)
	test.That(t, kd.Size(), test.ShouldEqual, 3)

	nearest, dist2, ok := kd.NearestNeighbor(r3.Vector{X: 0.9, Y: 0.1, Z: 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nearest, test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, dist2, test.ShouldAlmostEqual, 0.01+0.01)

	// A query at an indexed point has distance zero.
	_, dist2, ok = kd.NearestNeighbor(r3.Vector{Y: 2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, dist2, test.ShouldEqual, 0)
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	pc := New()
	points := make([]r3.Vector, 0, 100)
	for i := 0; i < 100; i++ {
		p := r3.Vector{X: r.Float64() * 10, Y: r.Float64() * 10, Z: r.Float64() * 10}
		points = append(points, p)
		test.That(t, pc.Set(p, nil), test.ShouldBeNil)
	}
	kd := ToKDTree(pc)

	for i := 0; i < 50; i++ {
		q := r3.Vector{X: r.Float64() * 12, Y: r.Float64() * 12, Z: r.Float64() * 12}

		best := math.Inf(1)
		for _, p := range points {
			d := p.Sub(q).Norm2()
			if d < best {
				best = d
			}
		}

		_, dist2, ok := kd.NearestNeighbor(q)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, dist2, test.ShouldAlmostEqual, best, 1e-9)
	}
}

func TestKDTreeSkipsNonFinite(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1, 1, 1), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(math.NaN(), 0, 0), nil), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(0, math.Inf(1), 0), nil), test.ShouldBeNil)

	kd := ToKDTree(pc)
	test.That(t, kd.Size(), test.ShouldEqual, 1)
}

func TestKDTreeEmpty(t *testing.T) {
	kd := ToKDTree(New())
	test.That(t, kd.Size(), test.ShouldEqual, 0)
	_, _, ok := kd.NearestNeighbor(r3.Vector{X: 1})
	test.That(t, ok, test.ShouldBeFalse)
}
