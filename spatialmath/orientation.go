// Package spatialmath defines the rigid transform math used by the localization stack.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is the rotation of a rigid body, convertible between the
// parameterizations the filter works with.
type Orientation interface {
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{Real: 1}
}

// NewOrientationFromQuaternion returns an Orientation backed by the given
// rotation quaternion.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	qq := quaternion(q)
	return &qq
}

// OrientationAlmostEqual reports whether two orientations represent
// approximately the same rotation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-8)
}

// QuaternionAlmostEqual reports whether two quaternions are equal within tol,
// treating q and -q as the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	diff := quat.Sub(a, b)
	sum := quat.Add(a, b)
	return quat.Abs(diff) < tol || quat.Abs(sum) < tol
}

type quaternion quat.Number

func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(quat.Number(*q))
}

// EulerAngles are three angles in radians: roll about X, pitch about Y, yaw
// about Z, applied in that fixed-axis order. This is the getRPY convention of
// common robot middleware.
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// NewEulerAngles creates an orientation from the three given angles in radians.
func NewEulerAngles(roll, pitch, yaw float64) *EulerAngles {
	return &EulerAngles{Roll: roll, Pitch: pitch, Yaw: yaw}
}

// Quaternion returns the rotation quaternion equivalent to these angles.
func (ea *EulerAngles) Quaternion() quat.Number {
	cy := math.Cos(ea.Yaw / 2)
	sy := math.Sin(ea.Yaw / 2)
	cp := math.Cos(ea.Pitch / 2)
	sp := math.Sin(ea.Pitch / 2)
	cr := math.Cos(ea.Roll / 2)
	sr := math.Sin(ea.Roll / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// EulerAngles returns the receiver.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// QuatToEulerAngles converts a rotation unit quaternion to Euler angles.
// See https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sinPitch := 2 * (w*y - z*x)
	// Clamp to keep Asin defined in the presence of floating point error.
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}

	return &EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}
