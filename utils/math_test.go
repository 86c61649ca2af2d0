package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90.)
	test.That(t, RadToDeg(DegToRad(33)), test.ShouldAlmostEqual, 33.)
}

func TestWrapAngle(t *testing.T) {
	for _, tc := range []struct {
		in, out float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{-0.25, -0.25},
	} {
		test.That(t, WrapAngle(tc.in), test.ShouldAlmostEqual, tc.out)
	}
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1.0000001, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-6), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(math.Inf(1), math.Inf(1), 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(math.Inf(1), math.Inf(-1), 1e-6), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(math.NaN(), math.NaN(), 1e-6), test.ShouldBeFalse)
	test.That(t, Square(3), test.ShouldEqual, 9.)
}
