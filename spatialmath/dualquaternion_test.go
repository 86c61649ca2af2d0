package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

const floatEpsilon = 1e-9

func TestDualQuaternionTranslation(t *testing.T) {
	q := NewDualQuaternionFromTranslation(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, R3VectorAlmostEqual(q.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, floatEpsilon), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(q.Transform(r3.Vector{X: 1}), r3.Vector{X: 2, Y: 2, Z: 3}, floatEpsilon), test.ShouldBeTrue)
}

func TestDualQuaternionRotation(t *testing.T) {
	q := NewDualQuaternionFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	got := q.Transform(r3.Vector{X: 10})
	test.That(t, R3VectorAlmostEqual(got, r3.Vector{Y: 10}, floatEpsilon), test.ShouldBeTrue)

	// axis does not need to be normalized
	q2 := NewDualQuaternionFromAxisAngle(r3.Vector{Z: 5}, math.Pi/2)
	test.That(t, TransformationAlmostEqual(q, q2, floatEpsilon), test.ShouldBeTrue)
}

func TestDualQuaternionCompose(t *testing.T) {
	rot := NewDualQuaternionFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	trans := NewDualQuaternionFromTranslation(r3.Vector{X: 10})

	// translate first, then rotate
	rt := rot.Compose(trans)
	test.That(t, R3VectorAlmostEqual(Point(rt), r3.Vector{Y: 10}, floatEpsilon), test.ShouldBeTrue)

	// rotate first, then translate
	tr := trans.Compose(rot)
	test.That(t, R3VectorAlmostEqual(Point(tr), r3.Vector{X: 10}, floatEpsilon), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(tr.Transform(r3.Vector{X: 1}), r3.Vector{X: 10, Y: 1}, floatEpsilon), test.ShouldBeTrue)

	// composition is associative
	other := NewDualQuaternionFromRotationAndTranslation(R4AA{Theta: 0.3, RX: 1, RY: 1}.ToQuat(), r3.Vector{Z: -4})
	a := rot.Compose(trans).Compose(other)
	b := rot.Compose(trans.Compose(other))
	test.That(t, TransformationAlmostEqual(a, b, floatEpsilon), test.ShouldBeTrue)
}

func TestDualQuaternionInverse(t *testing.T) {
	q := NewDualQuaternionFromRotationAndTranslation(R4AA{Theta: 1.2, RX: 0.2, RY: -1, RZ: 0.4}.ToQuat(), r3.Vector{X: 3, Y: -7, Z: 2})
	id := NewZeroDualQuaternion()
	test.That(t, TransformationAlmostEqual(q.Compose(q.Inverse()), id, floatEpsilon), test.ShouldBeTrue)
	test.That(t, TransformationAlmostEqual(q.Inverse().Compose(q), id, floatEpsilon), test.ShouldBeTrue)

	p := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, R3VectorAlmostEqual(q.Inverse().Transform(q.Transform(p)), p, floatEpsilon), test.ShouldBeTrue)
}

func TestQuaternionOf(t *testing.T) {
	q := NewDualQuaternionFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, 0.7)
	test.That(t, QuaternionAlmostEqual(QuaternionOf(q), q.Orientation(), 1e-6), test.ShouldBeTrue)

	aa := QuatToR4AA(q.Orientation())
	test.That(t, aa.Theta, test.ShouldAlmostEqual, 0.7)
	test.That(t, R3VectorAlmostEqual(aa.Axis(), r3.Vector{X: 1, Y: 2, Z: 3}.Normalize(), 1e-6), test.ShouldBeTrue)
}

func TestQuatToEulerAngles(t *testing.T) {
	ea := QuatToEulerAngles(R4AA{Theta: math.Pi / 4, RZ: 1}.ToQuat())
	test.That(t, ea.Yaw, test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, ea.Roll, test.ShouldAlmostEqual, 0)
	test.That(t, ea.Pitch, test.ShouldAlmostEqual, 0)

	test.That(t, QuaternionAlmostEqual(quat.Number{Real: 1}, Flip(quat.Number{Real: 1}), 1e-9), test.ShouldBeTrue)
}

func TestZeroAxisIsIdentity(t *testing.T) {
	q := DualQuaternionBackend{}.Rotation(r3.Vector{}, 2)
	test.That(t, TransformationAlmostEqual(q, NewZeroDualQuaternion(), floatEpsilon), test.ShouldBeTrue)
}
