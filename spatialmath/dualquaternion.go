// Package spatialmath defines spatial mathematical operations and the transformation contract
// kinematic trees are written against.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// DualQuaternion defines functions to perform rigid transformations in 3D.
// The real part is the rotation; the dual part is half the translation multiplied by the rotation.
// It is a value type: none of its methods mutate the receiver.
type DualQuaternion struct {
	Quat dualquat.Number
}

// NewZeroDualQuaternion returns the identity transformation. Since the real part of a dual quaternion
// should be a unit quaternion, not all zeroes, this should be used instead of DualQuaternion{}.
func NewZeroDualQuaternion() DualQuaternion {
	return DualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// NewDualQuaternionFromTranslation returns a pure translation.
func NewDualQuaternionFromTranslation(pt r3.Vector) DualQuaternion {
	return NewDualQuaternionFromRotationAndTranslation(quat.Number{Real: 1}, pt)
}

// NewDualQuaternionFromAxisAngle returns a pure rotation of theta radians about the given axis.
func NewDualQuaternionFromAxisAngle(axis r3.Vector, theta float64) DualQuaternion {
	aa := R4AA{Theta: theta, RX: axis.X, RY: axis.Y, RZ: axis.Z}
	return DualQuaternion{dualquat.Number{Real: aa.ToQuat()}}
}

// NewDualQuaternionFromRotationAndTranslation returns the transformation that first rotates by
// the unit quaternion rot and then translates by pt.
func NewDualQuaternionFromRotationAndTranslation(rot quat.Number, pt r3.Vector) DualQuaternion {
	if n := quat.Abs(rot); n != 0 && n != 1 {
		rot = quat.Scale(1/n, rot)
	}
	trans := quat.Number{Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}
	return DualQuaternion{dualquat.Number{
		Real: rot,
		Dual: quat.Mul(trans, rot),
	}}
}

// Compose returns q∘other, i.e. other is applied first.
func (q DualQuaternion) Compose(other DualQuaternion) DualQuaternion {
	return DualQuaternion{dualquat.Mul(q.Quat, other.Quat)}
}

// Inverse returns the transformation undoing q.
func (q DualQuaternion) Inverse() DualQuaternion {
	return DualQuaternion{dualquat.Inv(q.Quat)}
}

// Transform applies q to the point p.
func (q DualQuaternion) Transform(p r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q.Quat.Real, quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}), quat.Conj(q.Quat.Real))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}.Add(q.Point())
}

// Point multiplies the dual part of the quaternion by the conjugate of the real part to recover the translation.
func (q DualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Quat.Dual, quat.Conj(q.Quat.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation quaternion.
func (q DualQuaternion) Orientation() quat.Number {
	return q.Quat.Real
}

func (q DualQuaternion) String() string {
	pt := q.Point()
	aa := QuatToR4AA(q.Quat.Real)
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f θ:%.4f axis:(%.4f, %.4f, %.4f)}", pt.X, pt.Y, pt.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

// DualQuaternionBackend builds DualQuaternion transformations. It is the default backend.
type DualQuaternionBackend struct{}

// Name returns the name of the backend.
func (DualQuaternionBackend) Name() string {
	return "dualquat"
}

// Identity returns the identity transformation.
func (DualQuaternionBackend) Identity() DualQuaternion {
	return NewZeroDualQuaternion()
}

// Translation returns a pure translation.
func (DualQuaternionBackend) Translation(v r3.Vector) DualQuaternion {
	return NewDualQuaternionFromTranslation(v)
}

// Rotation returns a pure rotation.
func (DualQuaternionBackend) Rotation(axis r3.Vector, theta float64) DualQuaternion {
	return NewDualQuaternionFromAxisAngle(axis, theta)
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	denom := Norm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{angle, 0, 0, 1}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}.Norm()
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}
