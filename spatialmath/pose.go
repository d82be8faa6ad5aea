package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform in SE(3): a rotation followed by a translation.
// Poses compose on the right, i.e. Compose(a, b) applies b in a's frame.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point r3.Vector
	quat  quat.Number
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return &pose{quat: quat.Number{Real: 1}}
}

// NewPose creates a pose from a point and an orientation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	return &pose{point: point, quat: o.Quaternion()}
}

// NewPoseFromPoint creates a pose with the given translation and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, quat: quat.Number{Real: 1}}
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := quaternion(p.quat)
	return &q
}

// Compose returns the pose equivalent to applying a, then b within a's frame.
// Composition is not commutative.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &pose{
		point: a.Point().Add(QuatRotateVector(qa, b.Point())),
		quat:  quat.Mul(qa, b.Orientation().Quaternion()),
	}
}

// PoseInverse returns the pose that undoes the given pose, such that
// Compose(p, PoseInverse(p)) is the identity.
func PoseInverse(p Pose) Pose {
	qi := quat.Conj(p.Orientation().Quaternion())
	return &pose{
		point: QuatRotateVector(qi, p.Point().Mul(-1)),
		quat:  qi,
	}
}

// TransformPoint applies the pose to a point, rotating then translating it.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return QuatRotateVector(p.Orientation().Quaternion(), pt).Add(p.Point())
}

// QuatRotateVector rotates a vector by a unit rotation quaternion.
func QuatRotateVector(q quat.Number, v r3.Vector) r3.Vector {
	if v.X == 0 && v.Y == 0 && v.Z == 0 {
		return v
	}
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// PoseAlmostEqual reports whether two poses are equal within tol in
// translation and approximately equal in rotation.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	if a.Point().Sub(b.Point()).Norm() > tol {
		return false
	}
	return QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), tol)
}
