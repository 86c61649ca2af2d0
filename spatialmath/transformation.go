package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transformation is the algebra a rigid-body pose type has to provide to be used in a kinematic tree.
// a.Compose(b) is a∘b: b is applied first, then a.
type Transformation[T any] interface {
	// Compose returns the composition of the receiver with other.
	Compose(other T) T
	// Inverse returns the transformation undoing the receiver.
	Inverse() T
	// Transform applies the transformation to a point.
	Transform(p r3.Vector) r3.Vector
}

// Backend constructs transformations of a single concrete type. Joints use it to turn a
// parameter into a pose without knowing the representation.
type Backend[T Transformation[T]] interface {
	Name() string
	Identity() T
	Translation(v r3.Vector) T
	// Rotation returns a rotation of theta radians about axis. The axis does not need to be normalized.
	Rotation(axis r3.Vector, theta float64) T
}

// Point returns where the transformation moves the origin, i.e. its translation.
func Point[T Transformation[T]](t T) r3.Vector {
	return t.Transform(r3.Vector{})
}

// RotateVector applies only the rotational part of t to v.
func RotateVector[T Transformation[T]](t T, v r3.Vector) r3.Vector {
	return t.Transform(v).Sub(Point(t))
}

// RotationMatrixOf returns the rotation of t as a 3x3 matrix whose columns are the images of the unit axes.
func RotationMatrixOf[T Transformation[T]](t T) mgl64.Mat3 {
	x := RotateVector(t, r3.Vector{X: 1})
	y := RotateVector(t, r3.Vector{Y: 1})
	z := RotateVector(t, r3.Vector{Z: 1})
	return mgl64.Mat3FromCols(
		mgl64.Vec3{x.X, x.Y, x.Z},
		mgl64.Vec3{y.X, y.Y, y.Z},
		mgl64.Vec3{z.X, z.Y, z.Z},
	)
}

// QuaternionOf returns the rotation of t as a unit quaternion.
func QuaternionOf[T Transformation[T]](t T) quat.Number {
	q := mgl64.Mat4ToQuat(RotationMatrixOf(t).Mat4())
	return quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()}
}

// TransformationAlmostEqual compares two transformations by the images of the origin and the three unit points.
// Only the Transformation contract is used, so it works for any backend.
func TransformationAlmostEqual[T Transformation[T]](a, b T, epsilon float64) bool {
	probes := []r3.Vector{{}, {X: 1}, {Y: 1}, {Z: 1}}
	for _, p := range probes {
		if !R3VectorAlmostEqual(a.Transform(p), b.Transform(p), epsilon) {
			return false
		}
	}
	return true
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() < epsilon
}
